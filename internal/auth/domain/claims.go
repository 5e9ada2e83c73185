package domain

import (
	"time"
)

// Claims holds the verified contents of a bearer token. Instances are only
// produced by the token validator after signature, issuer, audience, and
// lifetime checks have passed, so downstream code can trust every field.
type Claims struct {
	Subject     string    `json:"sub"`
	Issuer      string    `json:"iss"`
	Audience    []string  `json:"aud"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	IssuedAt    time.Time `json:"iat"`
	ExpiresAt   time.Time `json:"exp"`
}

// ExpiredAt reports whether the claims are past their expiry at the given
// instant, allowing for clock skew between the token issuer and the gateway.
func (c *Claims) ExpiredAt(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return now.After(c.ExpiresAt.Add(leeway))
}

// CacheTTL returns how long the claims may be cached: the remaining token
// lifetime capped at maxTTL. Returns zero when nothing remains, in which
// case the claims must not be cached at all.
func (c *Claims) CacheTTL(now time.Time, maxTTL time.Duration) time.Duration {
	remaining := c.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if remaining > maxTTL {
		return maxTTL
	}
	return remaining
}
