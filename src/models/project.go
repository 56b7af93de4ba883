package models

import (
	"regexp"
	"strings"
	"time"
)

// Projects own posts, and are the scope within which post numbers are unique.
type Project struct {
	ID int `db:"id"`

	Slug  string `db:"slug"`
	Name  string `db:"name"`
	Blurb string `db:"blurb"`

	InsertedAt time.Time `db:"inserted_at"`
}

var reSlugJunk = regexp.MustCompile(`[^a-z0-9]+`)

func GenerateSlug(name string) string {
	slug := reSlugJunk.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
