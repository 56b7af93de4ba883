package main

import (
	_ "git.collab.network/collab/src/admintools"
	_ "git.collab.network/collab/src/migration"
	"git.collab.network/collab/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
