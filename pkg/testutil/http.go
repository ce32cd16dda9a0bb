// Package testutil provides common helpers for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/pkg/platform/httputil"
)

// NewJSONRequest creates a request whose body is v marshaled as JSON. A nil
// v sends no body.
func NewJSONRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()

	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		require.NoError(t, err, "failed to marshal request body")
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if v != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the recorded body into a new T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "failed to unmarshal response: %s", rr.Body.String())
	return out
}

// AssertError checks the status and the error code of an error response.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) httputil.ErrorResponse {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code")
	resp := DecodeJSON[httputil.ErrorResponse](t, rr)
	assert.Equal(t, code, resp.Error, "unexpected error code")
	return resp
}
