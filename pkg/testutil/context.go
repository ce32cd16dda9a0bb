package testutil

import (
	"net/http"

	"typeindex/pkg/requestcontext"
)

// AsWebID returns req acting for webID, as the auth middleware would leave it.
func AsWebID(req *http.Request, webID string) *http.Request {
	return req.WithContext(requestcontext.WithWebID(req.Context(), webID))
}

// WithRequestID tags req with a correlation ID.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
