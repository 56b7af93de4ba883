package website

import (
	"net/http"
	"regexp"

	"git.collab.network/collab/src/collaburl"
	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/content"
)

type Deps struct {
	Content *content.Service
	Auth    config.AuthConfig

	// Used for the links in responses.
	BaseUrl string
}

var reAnything = regexp.MustCompile(`^`)

func NewWebsiteRoutes(deps Deps) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			requestIDMiddleware,
			logRequestMiddleware,
			logContextErrorsMiddleware,
			panicCatcherMiddleware,
			withDeps(deps),
		},
	}

	routes.GET(collaburl.RegexHighlightCSS, HighlightCSS)

	api := routes.WithMiddleware(loadUserMiddleware)
	api.GET(collaburl.RegexProjectPosts, APIListPosts)
	api.GET(collaburl.RegexPost, APIFetchPost)
	api.GET(collaburl.RegexPostComments, APIListComments)
	api.POST(collaburl.RegexRender, APIRender)

	authed := api.WithMiddleware(needsAuth)
	authed.POST(collaburl.RegexProjectPosts, APICreatePost)
	authed.PATCH(collaburl.RegexPost, APISavePost)
	authed.POST(collaburl.RegexPostComments, APICreateComment)
	authed.PATCH(collaburl.RegexComment, APISaveComment)

	routes.AnyMethod(reAnything, FourOhFour)

	return router
}
