package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/gma-backend/internal/platform/httpx"
)

// keySet caches the provider's RSA signing keys by kid and refreshes them
// when stale or when an unknown kid shows up.
type keySet struct {
	httpClient *http.Client
	url        string
	ttl        time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newKeySet(httpClient *http.Client, url string, ttl time.Duration) *keySet {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &keySet{
		httpClient: httpClient,
		url:        url,
		ttl:        ttl,
		keys:       map[string]*rsa.PublicKey{},
	}
}

type jwkDoc struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (k *keySet) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	key := k.keys[kid]
	stale := time.Since(k.fetchedAt) > k.ttl
	k.mu.RUnlock()
	if key != nil && !stale {
		return key, nil
	}

	if err := k.refresh(ctx); err != nil {
		if key != nil {
			return key, nil
		}
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if key = k.keys[kid]; key == nil {
		return nil, fmt.Errorf("kid %q not in key set", kid)
	}
	return key, nil
}

const (
	jwksAttempts    = 3
	jwksBaseBackoff = 200 * time.Millisecond
	jwksMaxBackoff  = 5 * time.Second
)

// refresh replaces the cached keys, retrying transient failures.
func (k *keySet) refresh(ctx context.Context) error {
	if strings.TrimSpace(k.url) == "" {
		return errors.New("jwks url not set")
	}
	var lastErr error
	for attempt := 0; attempt < jwksAttempts; attempt++ {
		next, err := k.fetch(ctx)
		if err == nil {
			k.mu.Lock()
			k.keys = next
			k.fetchedAt = time.Now()
			k.mu.Unlock()
			return nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == jwksAttempts-1 {
			break
		}
		wait := httpx.JitterSleep(jwksBaseBackoff << attempt)
		var se *httpx.StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			wait = se.RetryAfter
		}
		if wait > jwksMaxBackoff {
			wait = jwksMaxBackoff
		}
		if err := httpx.Wait(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (k *keySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, err
	}
	res, err := k.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, httpx.NewStatusError(res)
	}

	var doc jwkDoc
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, err
	}
	next := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, j := range doc.Keys {
		if j.Kty != "RSA" || strings.TrimSpace(j.Kid) == "" {
			continue
		}
		pub, err := rsaKey(j.N, j.E)
		if err != nil {
			continue
		}
		next[j.Kid] = pub
	}
	if len(next) == 0 {
		return nil, errors.New("jwks contained no usable keys")
	}
	return next, nil
}

func rsaKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
