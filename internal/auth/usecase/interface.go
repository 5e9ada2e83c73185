// Package usecase defines business logic interfaces for request
// authentication, role resolution, and token revocation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// TokenCache stores validated claims keyed by token digest so repeated
// requests skip signature verification. Implementations must honor the
// per-entry TTL; entries may also be evicted early under memory pressure.
type TokenCache interface {
	// Get returns the cached entry for a token digest. The boolean reports
	// whether the digest was present and unexpired.
	Get(ctx context.Context, digest string) (*authDomain.CacheEntry, bool, error)

	// Set stores an entry under a token digest for at most ttl. A
	// non-positive ttl must not store anything.
	Set(ctx context.Context, digest string, entry *authDomain.CacheEntry, ttl time.Duration) error

	// Delete removes the entry for a token digest, if present.
	Delete(ctx context.Context, digest string) error
}

// RevocationStore is the shared blacklist of revoked token digests. Every
// gateway instance must observe a revocation as soon as it is added.
type RevocationStore interface {
	// Add puts a token digest on the blacklist for the given retention
	// window.
	Add(ctx context.Context, digest string, ttl time.Duration) error

	// IsRevoked reports whether a token digest is on the blacklist.
	IsRevoked(ctx context.Context, digest string) (bool, error)
}

// RoleCache stores per-subject role assignments as returned by the subject
// directory, before hierarchy expansion.
type RoleCache interface {
	Get(ctx context.Context, subject string) ([]string, bool, error)
	Set(ctx context.Context, subject string, roles []string, ttl time.Duration) error
	Delete(ctx context.Context, subject string) error
}

// SubjectDirectory resolves a subject's current role assignments from the
// identity backend.
type SubjectDirectory interface {
	// RolesForSubject returns the roles assigned to a subject. Returns
	// ErrSubjectNotFound when the subject does not exist or is inactive.
	RolesForSubject(ctx context.Context, externalID string) ([]string, error)
}

// RevocationRepository persists the revocation audit trail.
// Implementations must support transaction-aware operations via context propagation.
type RevocationRepository interface {
	Create(ctx context.Context, revocation *authDomain.Revocation) error
	List(ctx context.Context, offset, limit int) ([]*authDomain.Revocation, error)
	ListActive(ctx context.Context, now time.Time) ([]*authDomain.Revocation, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SubjectStore persists directory subjects and their role assignments.
// Implementations must support transaction-aware operations via context propagation.
type SubjectStore interface {
	// Create inserts the subject row. Returns ErrSubjectExists when the
	// external ID is already registered. Role assignment is a separate call
	// so a use case can compose both writes under one transaction.
	Create(ctx context.Context, subject *authDomain.Subject) error

	// Get returns a subject with its assigned roles, active or not. Returns
	// ErrSubjectNotFound when no subject has the external ID.
	Get(ctx context.Context, externalID string) (*authDomain.Subject, error)

	// List returns subjects with their assigned roles, newest first.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Subject, error)

	// Update overwrites the subject's email, active flag, and update time.
	Update(ctx context.Context, subject *authDomain.Subject) error

	// Deactivate clears the subject's active flag. An inactive subject
	// resolves as unknown but stays visible to the admin surface.
	Deactivate(ctx context.Context, externalID string) error

	// ReplaceRoles overwrites the subject's role assignment.
	ReplaceRoles(ctx context.Context, subjectID uuid.UUID, roles []string) error
}

// AuthUseCase authenticates bearer tokens and produces the identity attached
// to forwarded requests. It orchestrates shape validation, the revocation
// blacklist, the claims cache, signature verification, and role resolution.
type AuthUseCase interface {
	// Authenticate validates a bearer token end to end and returns the
	// authenticated identity with its expanded role set.
	//
	// The pipeline is ordered cheapest-first: structural shape check,
	// blacklist lookup, claims cache lookup, then full signature
	// verification on a cache miss. Freshly verified claims are cached for
	// at most the configured TTL, never past token expiry.
	//
	// Every failure maps to ErrUnauthorized: requests fail closed when the
	// blacklist cannot be checked or roles cannot be resolved. Claims cache
	// failures degrade to fresh validation instead, since the signature
	// check still proves the token.
	Authenticate(ctx context.Context, rawToken string) (*authDomain.Identity, error)

	// Introspect reports whether a token would be accepted, and with which
	// claims, without authorizing anything or touching the claims cache.
	// An invalid token yields an inactive result, not an error; errors are
	// reserved for the gateway's own failures.
	Introspect(ctx context.Context, rawToken string) (*authDomain.Introspection, error)
}

// RoleUseCase resolves subjects to their effective roles.
type RoleUseCase interface {
	// Resolve returns the subject's current roles expanded through the role
	// hierarchy. Directory lookups are cached per subject; concurrent
	// lookups for the same subject are collapsed into one backend call.
	Resolve(ctx context.Context, subject string) ([]string, error)

	// Invalidate drops the cached assignment for a subject so the next
	// lookup hits the directory.
	Invalidate(ctx context.Context, subject string) error
}

// SubjectUseCase administers the subject directory when the gateway owns the
// identity data. Writes are transactional across the subject row and its role
// assignment; role changes drop the subject's cached assignment so they apply
// on the next request instead of after the role cache TTL.
type SubjectUseCase interface {
	// Create registers a subject with its role assignment. New subjects
	// start active.
	Create(ctx context.Context, input *authDomain.CreateSubjectInput) (*authDomain.Subject, error)

	// Get returns one subject with its assigned roles, active or not.
	Get(ctx context.Context, externalID string) (*authDomain.Subject, error)

	// List returns directory subjects, newest first.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Subject, error)

	// Update replaces the subject's email, active flag, and role assignment.
	Update(ctx context.Context, externalID string, input *authDomain.UpdateSubjectInput) (*authDomain.Subject, error)

	// Deactivate soft-deletes a subject so it resolves as unknown. The row
	// stays for the admin surface and the audit trail.
	Deactivate(ctx context.Context, externalID string) error
}

// RevocationUseCase manages the token blacklist and its audit trail.
type RevocationUseCase interface {
	// Revoke blacklists a token for the retention window and records the
	// audit entry. The token only needs to be well formed; a token that no
	// longer verifies can still be blacklisted.
	Revoke(ctx context.Context, input *authDomain.RevokeTokenInput) (*authDomain.Revocation, error)

	// List returns revocation audit records, newest first.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Revocation, error)

	// Rehydrate reloads unexpired revocations from the audit trail into the
	// blacklist. Used at startup when the blacklist is process-local.
	Rehydrate(ctx context.Context) (int, error)

	// DeleteExpired prunes audit records past their retention window and
	// returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
