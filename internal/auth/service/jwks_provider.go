package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const (
	// refreshCooldown bounds how often a stale or unknown-key lookup can
	// trigger a new fetch. Tokens with unknown key IDs inside the cooldown
	// window fail signature validation without another network call.
	refreshCooldown = 30 * time.Second

	// maxKeySetBytes bounds the accepted key set response size.
	maxKeySetBytes = 1 << 20
)

// jwk is a single JSON Web Key as served by the identity provider. Only RSA
// signature keys are used; other entries are skipped.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// publicKey converts the JWK modulus and exponent into an RSA public key.
func (k *jwk) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode key modulus")
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode key exponent")
	}

	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent <= 0 {
		return nil, apperrors.New("invalid key exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: exponent}, nil
}

// httpKeySetProvider fetches RSA public keys from a JWKS endpoint and caches
// them for the configured TTL. Concurrent refreshes collapse into a single
// fetch, and a failed fetch is retried once before being reported.
type httpKeySetProvider struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
	lastErr     error

	group singleflight.Group
}

// NewHTTPKeySetProvider creates a KeySetProvider backed by the given JWKS
// endpoint. ttl controls how long a fetched key set is reused; timeout bounds
// each fetch request.
func NewHTTPKeySetProvider(url string, ttl, timeout time.Duration) KeySetProvider {
	return &httpKeySetProvider{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: timeout},
	}
}

// SigningKey returns the cached public key for keyID, refreshing the key set
// when the cache is stale or the key is unknown. A key that is still unknown
// after a successful refresh is a signature failure, not a fetch failure.
func (p *httpKeySetProvider) SigningKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if key, ok := p.cachedKey(keyID); ok {
		return key, nil
	}

	if err := p.refresh(ctx); err != nil {
		return nil, apperrors.Wrapf(domain.ErrSigningKeyUnavailable, "refreshing key set: %v", err)
	}

	if key, ok := p.cachedKey(keyID); ok {
		return key, nil
	}

	return nil, apperrors.Wrapf(domain.ErrSignatureInvalid, "unknown signing key ID %q", keyID)
}

// cachedKey returns the key for keyID if the cached key set is still fresh.
func (p *httpKeySetProvider) cachedKey(keyID string) (*rsa.PublicKey, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.fetchedAt.IsZero() || time.Since(p.fetchedAt) > p.ttl {
		return nil, false
	}

	key, ok := p.keys[keyID]
	return key, ok
}

// refresh fetches the key set, collapsing concurrent callers into one flight.
// The flight runs on a detached context so one caller's cancellation does not
// fail the fetch for everyone who joined it; each caller still stops waiting
// as soon as its own context is done.
func (p *httpKeySetProvider) refresh(ctx context.Context) error {
	ch := p.group.DoChan("refresh", func() (any, error) {
		p.mu.RLock()
		sinceAttempt := time.Since(p.lastAttempt)
		lastErr := p.lastErr
		p.mu.RUnlock()

		if sinceAttempt < refreshCooldown {
			return nil, lastErr
		}

		keys, err := p.fetchWithRetry(context.WithoutCancel(ctx))

		p.mu.Lock()
		p.lastAttempt = time.Now()
		p.lastErr = err
		if err == nil {
			p.keys = keys
			p.fetchedAt = time.Now()
		}
		p.mu.Unlock()

		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// fetchWithRetry fetches the key set, retrying once so a transient endpoint
// hiccup does not immediately fail validation.
func (p *httpKeySetProvider) fetchWithRetry(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	keys, err := p.fetchOnce(ctx)
	if err == nil {
		return keys, nil
	}
	return p.fetchOnce(ctx)
}

func (p *httpKeySetProvider) fetchOnce(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build key set request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to fetch key set")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(fmt.Sprintf("unexpected key set response status %d", resp.StatusCode))
	}

	var set jwkSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&set); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode key set")
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for i := range set.Keys {
		k := &set.Keys[i]
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			// A single unparseable entry must not poison the usable keys.
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return nil, apperrors.New("key set contains no usable RSA signing keys")
	}

	return keys, nil
}
