package website

import (
	"errors"
	"net/http"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/collaburl"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/oops"
	"github.com/google/uuid"
)

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				maybeError, ok := recovered.(*error)
				var err error
				if ok {
					err = *maybeError
				} else {
					err = oops.New(nil, "Recovered from panic with value: %v", recovered)
				}
				res = c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}()

		return h(c)
	}
}

const requestIDHeader = "X-Request-Id"

// Tags the request and its logger with an id, reusing one sent by a proxy.
func requestIDMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		c.RequestID = c.Req.Header.Get(requestIDHeader)
		if c.RequestID == "" {
			c.RequestID = uuid.NewString()
		}
		logger := c.Logger.With().Str("requestId", c.RequestID).Logger()
		c.Logger = &logger

		res := h(c)
		res.Header().Set(requestIDHeader, c.RequestID)
		return res
	}
}

func logRequestMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		start := time.Now()
		res := h(c)
		c.Logger.Info().
			Str("method", c.Req.Method).
			Str("path", c.Req.URL.Path).
			Int("status", res.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("Served request")
		return res
	}
}

func withDeps(deps Deps) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Content = deps.Content
			c.Auth = deps.Auth
			c.Urls = &collaburl.UrlContext{BaseUrl: deps.BaseUrl}
			return h(c)
		}
	}
}

// Loads the current user from a bearer token, if there is one. A token that is
// present but bad is rejected rather than treated as anonymous.
func loadUserMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		header := c.Req.Header.Get("Authorization")
		if header == "" {
			return h(c)
		}

		claims, err := auth.ParseToken(c.Auth, header)
		if err != nil {
			c.Logger.Debug().Err(err).Msg("rejected bearer token")
			return c.ErrorResponse(http.StatusUnauthorized, NewSafeError(err, "invalid token"))
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.ErrorResponse(http.StatusUnauthorized, NewSafeError(err, "invalid token"))
		}

		user, err := c.Content.Store.FetchUser(c, userID)
		if errors.Is(err, db.NotFound) {
			return c.ErrorResponse(http.StatusUnauthorized, NewSafeError(err, "invalid token"))
		} else if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to load user from token"))
		}
		c.CurrentUser = user

		return h(c)
	}
}

func needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil {
			return c.ErrorResponse(http.StatusUnauthorized, NewSafeError(nil, "you must be logged in"))
		}

		return h(c)
	}
}

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}
