package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	FirebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	firebaseIssuerPrefix = "https://securetoken.google.com/"
)

type firebaseClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type firebaseVerifier struct {
	projectID string
	keys      *keySet
	parser    *jwt.Parser
}

type FirebaseOptions struct {
	ProjectID  string
	JWKSURL    string
	HTTPClient *http.Client
	KeyTTL     time.Duration
	Leeway     time.Duration
}

// NewFirebase verifies Firebase ID tokens: RS256, iss bound to the project,
// aud equal to the project id.
func NewFirebase(opts FirebaseOptions) (Verifier, error) {
	project := strings.TrimSpace(opts.ProjectID)
	if project == "" {
		return nil, errors.New("firebase project id is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	url := strings.TrimSpace(opts.JWKSURL)
	if url == "" {
		url = FirebaseJWKSURL
	}
	return &firebaseVerifier{
		projectID: project,
		keys:      newKeySet(httpClient, url, opts.KeyTTL),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(firebaseIssuerPrefix+project),
			jwt.WithAudience(project),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(opts.Leeway),
		),
	}, nil
}

func (v *firebaseVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingToken
	}
	claims := &firebaseClaims{}
	_, err := v.parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("missing kid")
		}
		return v.keys.get(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return &Identity{SubjectID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// ProjectIDFromCredentials reads project_id from a service-account key given
// either inline as JSON or as a file path.
func ProjectIDFromCredentials(creds string) (string, error) {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return "", errors.New("no credentials provided")
	}
	raw := []byte(creds)
	if !strings.HasPrefix(creds, "{") {
		b, err := os.ReadFile(creds)
		if err != nil {
			return "", fmt.Errorf("read credentials: %w", err)
		}
		raw = b
	}
	var doc struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	if strings.TrimSpace(doc.ProjectID) == "" {
		return "", errors.New("credentials have no project_id")
	}
	return doc.ProjectID, nil
}
