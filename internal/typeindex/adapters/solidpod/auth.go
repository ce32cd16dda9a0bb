package solidpod

import (
	"context"

	"typeindex/internal/platform/token"
	"typeindex/pkg/requestcontext"
)

// TokenSource supplies the bearer token sent with each pod request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always presents the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// SignerTokenSource signs a fresh token for the WebID the request acts for,
// falling back to a fixed WebID outside of requests.
type SignerTokenSource struct {
	signer *token.Signer
	webID  string
}

func NewSignerTokenSource(signer *token.Signer, fallbackWebID string) *SignerTokenSource {
	return &SignerTokenSource{signer: signer, webID: fallbackWebID}
}

func (s *SignerTokenSource) Token(ctx context.Context) (string, error) {
	webID := requestcontext.WebID(ctx)
	if webID == "" {
		webID = s.webID
	}
	if webID == "" {
		return "", nil
	}
	return s.signer.Sign(webID)
}
