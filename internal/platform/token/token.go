// Package token issues and validates the HS256 bearer tokens that carry the
// WebID an agent acts for.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"typeindex/internal/platform/config"
)

// ErrNoSigningKey is returned when token.signing_key is not configured.
var ErrNoSigningKey = errors.New("token signing key is required")

// Claims are the JWT claims used on both sides. WebID is mirrored into the
// subject.
type Claims struct {
	WebID string `json:"webid"`
	jwt.RegisteredClaims
}

type Signer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewSigner(cfg config.TokenConfig) (*Signer, error) {
	if cfg.SigningKey == "" {
		return nil, ErrNoSigningKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Signer{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Sign returns a token asserting webID.
func (s *Signer) Sign(webID string) (string, error) {
	if webID == "" {
		return "", errors.New("webid is required")
	}
	now := s.now()
	claims := Claims{
		WebID: webID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   webID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

type Validator struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewValidator(cfg config.TokenConfig) (*Validator, error) {
	if cfg.SigningKey == "" {
		return nil, ErrNoSigningKey
	}
	return &Validator{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}, nil
}

// Validate checks signature, algorithm, expiry, issuer and audience and
// returns the claims. Tokens without a webid claim are rejected.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.WebID == "" {
		return nil, errors.New("invalid token: missing webid claim")
	}
	return claims, nil
}
