package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// generateTestKey creates an RSA key pair for signing test tokens.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// publicJWK converts an RSA public key into its JWK wire representation.
func publicJWK(keyID string, pub *rsa.PublicKey) jwk {
	return jwk{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: keyID,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// newKeySetServer serves the given keys as a JWKS document and counts requests.
func newKeySetServer(t *testing.T, keys ...jwk) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwkSet{Keys: keys})
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func TestHTTPKeySetProvider_SigningKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FetchAndParse", func(t *testing.T) {
		key := generateTestKey(t)
		server, _ := newKeySetServer(t, publicJWK("key-1", &key.PublicKey))

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		got, err := provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, got.Equal(&key.PublicKey), "parsed key should match the served public key")
	})

	t.Run("Success_CachedAcrossLookups", func(t *testing.T) {
		key := generateTestKey(t)
		server, requests := newKeySetServer(t, publicJWK("key-1", &key.PublicKey))

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		_, err := provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)
		_, err = provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)

		// Assert the second lookup was served from cache
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("Success_SkipsNonRSAKeys", func(t *testing.T) {
		key := generateTestKey(t)
		ecKey := jwk{Kty: "EC", Use: "sig", Alg: "ES256", Kid: "ec-1"}
		server, _ := newKeySetServer(t, ecKey, publicJWK("key-1", &key.PublicKey))

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		got, err := provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, got.Equal(&key.PublicKey))

		// The EC entry was dropped, so its ID is unknown.
		_, err = provider.SigningKey(ctx, "ec-1")
		assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
	})

	t.Run("Failure_UnknownKeyID", func(t *testing.T) {
		key := generateTestKey(t)
		server, requests := newKeySetServer(t, publicJWK("key-1", &key.PublicKey))

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		_, err := provider.SigningKey(ctx, "key-2")
		assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		// The unknown ID triggered exactly one refresh attempt.
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("Failure_EndpointDown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		_, err := provider.SigningKey(ctx, "key-1")
		assert.ErrorIs(t, err, domain.ErrSigningKeyUnavailable)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Failure_EmptyKeySet", func(t *testing.T) {
		server, _ := newKeySetServer(t)

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		_, err := provider.SigningKey(ctx, "key-1")
		assert.ErrorIs(t, err, domain.ErrSigningKeyUnavailable)
	})

	t.Run("Success_RetryAfterTransientError", func(t *testing.T) {
		key := generateTestKey(t)
		document := jwkSet{Keys: []jwk{publicJWK("key-1", &key.PublicKey)}}

		var requests atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requests.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(document)
		}))
		t.Cleanup(server.Close)

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		got, err := provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, got.Equal(&key.PublicKey))
		assert.Equal(t, int64(2), requests.Load(), "first failure should be retried once")
	})

	t.Run("Failure_RefreshCooldownSkipsRefetch", func(t *testing.T) {
		key := generateTestKey(t)
		server, requests := newKeySetServer(t, publicJWK("key-1", &key.PublicKey))

		provider := NewHTTPKeySetProvider(server.URL, time.Hour, time.Second)

		_, err := provider.SigningKey(ctx, "key-1")
		require.NoError(t, err)

		// Repeated unknown-ID lookups inside the cooldown window must not
		// hammer the endpoint.
		for range 3 {
			_, err = provider.SigningKey(ctx, "bogus")
			assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
		}
		assert.Equal(t, int64(1), requests.Load())
	})
}

func TestJWK_PublicKey(t *testing.T) {
	t.Run("Success_RoundTrip", func(t *testing.T) {
		key := generateTestKey(t)
		encoded := publicJWK("key-1", &key.PublicKey)

		pub, err := encoded.publicKey()
		require.NoError(t, err)
		assert.True(t, pub.Equal(&key.PublicKey))
	})

	t.Run("Failure_InvalidModulus", func(t *testing.T) {
		bad := jwk{Kty: "RSA", Kid: "key-1", N: "not base64url!!", E: "AQAB"}

		_, err := bad.publicKey()
		assert.Error(t, err)
	})

	t.Run("Failure_InvalidExponent", func(t *testing.T) {
		key := generateTestKey(t)
		bad := publicJWK("key-1", &key.PublicKey)
		bad.E = ""

		_, err := bad.publicKey()
		assert.Error(t, err)
	})
}
