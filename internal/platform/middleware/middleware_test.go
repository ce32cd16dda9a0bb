package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"typeindex/internal/platform/logger"
	"typeindex/internal/platform/token"
	"typeindex/pkg/requestcontext"
)

type stubValidator struct {
	webID string
	err   error
}

func (v stubValidator) Validate(string) (*token.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &token.Claims{WebID: v.webID}, nil
}

func TestRequireWebID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.WebID(r.Context())
	})

	t.Run("valid token", func(t *testing.T) {
		h := RequireWebID(stubValidator{webID: "https://alice.example/#me"}, logger.Discard())(next)
		req := httptest.NewRequest(http.MethodGet, "/registry", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://alice.example/#me", seen)
	})

	t.Run("missing header", func(t *testing.T) {
		h := RequireWebID(stubValidator{}, logger.Discard())(next)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/registry", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := RequireWebID(stubValidator{err: errors.New("expired")}, logger.Discard())(next)
		req := httptest.NewRequest(http.MethodGet, "/registry", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "caller-id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "caller-id", seen)
}
