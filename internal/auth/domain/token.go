package domain

import (
	"strings"
	"time"
)

// ValidateTokenShape rejects byte sequences that cannot be a compact
// serialized token before any store lookup, network call, or signature check.
// A well-shaped token has exactly three non-empty dot-separated base64url
// segments and stays within MaxTokenLength bytes.
func ValidateTokenShape(raw string) error {
	if raw == "" {
		return ErrMissingToken
	}
	if len(raw) > MaxTokenLength {
		return ErrMalformedToken
	}
	segments := strings.Split(raw, ".")
	if len(segments) != tokenSegments {
		return ErrMalformedToken
	}
	for _, segment := range segments {
		if segment == "" || !isBase64URL(segment) {
			return ErrMalformedToken
		}
	}
	return nil
}

// isBase64URL reports whether s contains only unpadded base64url characters.
func isBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// CacheEntry is a validated token held in the token cache, keyed by token
// digest. CachedAt drives the cache TTL independently of the token expiry;
// the claims expiry is still re-checked on every hit.
type CacheEntry struct {
	Claims   Claims    `json:"claims"`
	CachedAt time.Time `json:"cached_at"`
}
