package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"typeindex/internal/platform/token"
	dErrors "typeindex/pkg/domain-errors"
	"typeindex/pkg/platform/httputil"
	"typeindex/pkg/requestcontext"
)

// TokenValidator validates bearer tokens and returns their claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireWebID rejects requests without a valid bearer token and stores the
// token's WebID in the request context.
func RequireWebID(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithWebID(ctx, claims.WebID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
