// Package service provides technical services for bearer-token authentication.
//
// This package implements token digesting for store keys and log references,
// signing key retrieval from the identity provider, and full token validation
// using industry-standard cryptographic practices.
package service

import (
	"context"
	"crypto/rsa"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// TokenDigester defines keyed hashing of raw bearer tokens. Digests are used
// as cache and blacklist keys and as log-safe token references; the raw token
// must never be persisted or logged.
type TokenDigester interface {
	// Digest returns a deterministic hex-encoded keyed digest of the raw
	// token. Equal tokens always produce equal digests, and the digest
	// cannot be reversed or recomputed without the gateway's digest secret.
	Digest(rawToken string) string
}

// KeySetProvider defines retrieval of the identity provider's public signing
// keys. Implementations cache fetched key sets and must be safe for
// concurrent use.
type KeySetProvider interface {
	// SigningKey returns the public key for the given key ID, refreshing the
	// cached key set when it is stale or the key is unknown. A key that
	// remains unknown after a successful refresh is a signature failure; a
	// failed refresh is a key availability failure.
	SigningKey(ctx context.Context, keyID string) (*rsa.PublicKey, error)
}

// TokenValidator defines full validation of a raw bearer token: shape,
// signature, issuer, audience, lifetime, and required claims.
type TokenValidator interface {
	// Validate checks the raw token and returns its verified claims. The
	// returned error is one of the domain authentication errors; validation
	// never partially succeeds.
	Validate(ctx context.Context, rawToken string) (*domain.Claims, error)
}
