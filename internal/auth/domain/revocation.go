package domain

import (
	"time"

	"github.com/google/uuid"
)

// Revocation is an audit record of a token placed on the blacklist. The
// shared revocation store answers live lookups; these records support
// listing and retention cleanup.
type Revocation struct {
	ID          uuid.UUID
	TokenDigest string
	Subject     string
	Reason      string
	RevokedAt   time.Time
	ExpiresAt   time.Time
}

// RevokeTokenInput contains the parameters for revoking a token. Only the
// token digest is ever persisted; the raw token is discarded after hashing.
type RevokeTokenInput struct {
	Token   string // Raw bearer token to revoke
	Subject string // Optional subject recorded in the audit trail
	Reason  string // Human-readable reason for the revocation
}
