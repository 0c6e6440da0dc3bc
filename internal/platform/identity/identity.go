// Package identity verifies bearer credentials issued by the external
// identity provider and turns them into a provider-neutral Identity.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is what the provider vouches for. SubjectID is the provider's
// stable user id and becomes the doctor's external_id.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// ExtractToken accepts "Bearer <token>" or a bare token.
func ExtractToken(header string) string {
	h := strings.TrimSpace(header)
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
