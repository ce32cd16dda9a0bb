package solidpod

import (
	"fmt"
	"net/http"

	"typeindex/pkg/platform/sentinel"
)

// StatusError is a non-success response from a pod. It unwraps to the
// sentinel matching its status class so callers can use errors.Is.
type StatusError struct {
	Method     string
	URI        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URI, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound, e.StatusCode == http.StatusGone:
		return sentinel.ErrNotFound
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return sentinel.ErrUnauthorized
	case e.StatusCode == http.StatusConflict, e.StatusCode == http.StatusPreconditionFailed:
		return sentinel.ErrConflict
	case e.StatusCode == http.StatusNotAcceptable, e.StatusCode == http.StatusUnsupportedMediaType:
		return sentinel.ErrUnsupported
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return sentinel.ErrUnavailable
	}
	return nil
}
