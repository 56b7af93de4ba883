package website

import (
	"errors"
	"fmt"
	"net/http"

	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/lifecycle"
)

func FourOhFour(c *RequestContext) ResponseData {
	return jsonResponse(http.StatusNotFound, errorBody{Error: "not found"})
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type validationBody struct {
	Errors content.ValidationErrors `json:"errors"`
}

// A SafeError can be used to wrap another error and explicitly provide
// an error message that is safe to show to a user. This allows the original
// error to easily be logged and for servers to consistently return errors
// in a standard format, without having to worry about leaking sensitive
// info (assuming you use the right middleware!).
type SafeError struct {
	Wrapped error
	Msg     string
}

func NewSafeError(err error, msg string, args ...interface{}) error {
	return &SafeError{
		Wrapped: err,
		Msg:     fmt.Sprintf(msg, args...),
	}
}

func (s *SafeError) Error() string {
	return s.Msg
}

func (s *SafeError) Unwrap() error {
	return s.Wrapped
}

// Responds with a JSON error body. Server errors are logged by
// logContextErrorsMiddleware and never show their message to the client.
func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		var safe *SafeError
		for _, err := range errs {
			if errors.As(err, &safe) {
				msg = safe.Msg
				break
			}
		}
	}

	res := jsonResponse(status, errorBody{Error: msg, RequestID: c.RequestID})
	if status >= http.StatusInternalServerError {
		res.Errors = errs
	}
	return res
}

/*
Turns an error from the content service into a response:

	content.ValidationErrors          422 {"errors": {...}}
	lifecycle.InvalidTransitionError  422 {"errors": {"state": [...]}}
	db.NotFound                       404
	content.ErrForbidden              403
	SafeError                         400

Anything else is a 500.
*/
func (c *RequestContext) ContentErrorResponse(err error) ResponseData {
	var validationErrs content.ValidationErrors
	var transitionErr *lifecycle.InvalidTransitionError
	var safe *SafeError
	switch {
	case errors.As(err, &validationErrs):
		return jsonResponse(http.StatusUnprocessableEntity, validationBody{Errors: validationErrs})
	case errors.As(err, &transitionErr):
		return jsonResponse(http.StatusUnprocessableEntity, validationBody{Errors: content.ValidationErrors{
			"state": {transitionErr.Error()},
		}})
	case errors.Is(err, db.NotFound):
		return FourOhFour(c)
	case errors.Is(err, content.ErrForbidden):
		if c.CurrentUser == nil {
			return c.ErrorResponse(http.StatusUnauthorized)
		}
		return c.ErrorResponse(http.StatusForbidden)
	case errors.As(err, &safe):
		return c.ErrorResponse(http.StatusBadRequest, err)
	default:
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
}
