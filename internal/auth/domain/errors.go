package domain

import (
	"github.com/email-management-platform/backend/gateway/internal/errors"
)

// Authentication errors. Every one of these wraps ErrUnauthorized: a request
// that cannot prove a valid identity is rejected outright, never degraded.
var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.Wrap(errors.ErrUnauthorized, "missing bearer token")

	// ErrMalformedToken indicates the token is structurally invalid or is
	// missing required claims.
	ErrMalformedToken = errors.Wrap(errors.ErrUnauthorized, "malformed token")

	// ErrExpiredToken indicates the token lifetime has elapsed beyond the
	// allowed clock skew.
	ErrExpiredToken = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrSignatureInvalid indicates the token signature could not be verified
	// against any known signing key.
	ErrSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "token signature invalid")

	// ErrIssuerMismatch indicates the token was issued by an untrusted issuer.
	ErrIssuerMismatch = errors.Wrap(errors.ErrUnauthorized, "token issuer mismatch")

	// ErrAudienceMismatch indicates the token was not issued for this gateway.
	ErrAudienceMismatch = errors.Wrap(errors.ErrUnauthorized, "token audience mismatch")

	// ErrTokenRevoked indicates the token is on the revocation blacklist.
	ErrTokenRevoked = errors.Wrap(errors.ErrUnauthorized, "token revoked")

	// ErrSigningKeyUnavailable indicates the signing key set could not be
	// fetched or refreshed, so the signature cannot be checked.
	ErrSigningKeyUnavailable = errors.Wrap(errors.ErrUnauthorized, "signing key unavailable")

	// ErrRoleLookupFailed indicates the subject's roles could not be resolved.
	// Requests fail closed rather than proceeding with partial identity.
	ErrRoleLookupFailed = errors.Wrap(errors.ErrUnauthorized, "subject role lookup failed")
)

// Authorization errors.
var (
	// ErrInsufficientRole indicates the authenticated identity lacks every
	// role the route requires.
	ErrInsufficientRole = errors.Wrap(errors.ErrForbidden, "insufficient role")
)

// Subject directory and revocation audit errors.
var (
	// ErrSubjectNotFound indicates no subject with the given external ID exists.
	ErrSubjectNotFound = errors.Wrap(errors.ErrNotFound, "subject not found")

	// ErrSubjectExists indicates a subject with the given external ID is
	// already registered.
	ErrSubjectExists = errors.Wrap(errors.ErrConflict, "subject already exists")

	// ErrRevocationNotFound indicates no revocation record matches the lookup.
	ErrRevocationNotFound = errors.Wrap(errors.ErrNotFound, "revocation not found")
)
