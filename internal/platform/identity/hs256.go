package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type localClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// HS256 verifies and mints tokens signed with a shared secret. It backs
// local development and tests when no external provider is reachable.
type HS256 struct {
	secret []byte
	parser *jwt.Parser
}

func NewHS256(secret string) (*HS256, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("SECRET_KEY is required for hs256 auth")
	}
	return &HS256{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

func (h *HS256) Verify(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingToken
	}
	claims := &localClaims{}
	_, err := h.parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return &Identity{SubjectID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// Issue signs a token for id valid for ttl.
func (h *HS256) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := localClaims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}
