// Package usecase implements business logic orchestration for gateway
// authentication.
package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authService "github.com/email-management-platform/backend/gateway/internal/auth/service"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	config      *config.Config
	validator   authService.TokenValidator
	digester    authService.TokenDigester
	tokenCache  TokenCache
	revocations RevocationStore
	roles       RoleUseCase
	hierarchy   *authDomain.RoleHierarchy
	logger      *slog.Logger
}

// Authenticate validates a bearer token and returns the authenticated
// identity.
//
// This method:
// 1. Rejects structurally invalid tokens before any store or crypto work
// 2. Checks the revocation blacklist by token digest
// 3. Serves previously verified claims from the cache when present
// 4. Verifies signature, issuer, audience, and lifetime on a cache miss
// 5. Caches fresh claims, bounded by both the cache TTL and token expiry
// 6. Merges hierarchy-expanded token roles with the directory assignment
//
// Security Notes:
//   - A blacklist read failure denies the request: an unreadable blacklist
//     must not let a revoked token through
//   - Claims cache failures degrade to fresh validation instead, since the
//     signature check still proves the token
//   - A role lookup failure denies the request rather than proceeding with
//     partial identity
//   - The raw token never reaches a store or a log line; only its digest does
func (a *authUseCase) Authenticate(ctx context.Context, rawToken string) (*authDomain.Identity, error) {
	if err := authDomain.ValidateTokenShape(rawToken); err != nil {
		return nil, err
	}
	digest := a.digester.Digest(rawToken)

	// The blacklist is consulted on every request, cached claims included.
	revoked, err := a.revocations.IsRevoked(ctx, digest)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnauthorized, "checking revocation blacklist: %v", err)
	}
	if revoked {
		return nil, authDomain.ErrTokenRevoked
	}

	claims := a.cachedClaims(ctx, digest)
	if claims == nil {
		claims, err = a.validator.Validate(ctx, rawToken)
		if err != nil {
			return nil, err
		}
		a.storeClaims(ctx, digest, claims)
	}

	roles, err := a.effectiveRoles(ctx, claims)
	if err != nil {
		return nil, err
	}

	return &authDomain.Identity{
		Subject:     claims.Subject,
		Roles:       roles,
		Permissions: claims.Permissions,
	}, nil
}

// Introspect reports the state of a presented token. Rejected tokens yield
// an inactive result carrying the rejection reason; an error is returned only
// when the gateway itself cannot answer. Introspection never reads or writes
// the claims cache, so it always reflects a full validation.
func (a *authUseCase) Introspect(ctx context.Context, rawToken string) (*authDomain.Introspection, error) {
	if err := authDomain.ValidateTokenShape(rawToken); err != nil {
		return inactiveIntrospection(err), nil
	}

	revoked, err := a.revocations.IsRevoked(ctx, a.digester.Digest(rawToken))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check revocation blacklist")
	}
	if revoked {
		return inactiveIntrospection(authDomain.ErrTokenRevoked), nil
	}

	claims, err := a.validator.Validate(ctx, rawToken)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return inactiveIntrospection(err), nil
		}
		return nil, err
	}

	return &authDomain.Introspection{
		Active:      true,
		Subject:     claims.Subject,
		Roles:       a.hierarchy.Expand(claims.Roles),
		Permissions: claims.Permissions,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// cachedClaims returns previously verified claims for the digest, or nil on
// a miss. Cache failures count as misses: a broken cache only costs latency.
func (a *authUseCase) cachedClaims(ctx context.Context, digest string) *authDomain.Claims {
	entry, ok, err := a.tokenCache.Get(ctx, digest)
	if err != nil {
		a.logWarn("token cache read failed", err)
		return nil
	}
	if !ok {
		return nil
	}

	// The stored TTL already stops at token expiry; this guards the window
	// between the TTL computation and this read.
	if entry.Claims.ExpiredAt(time.Now().UTC(), 0) {
		if err := a.tokenCache.Delete(ctx, digest); err != nil {
			a.logWarn("token cache delete failed", err)
		}
		return nil
	}

	return &entry.Claims
}

// storeClaims caches freshly verified claims. The entry lives for the
// configured TTL or until token expiry, whichever comes first.
func (a *authUseCase) storeClaims(ctx context.Context, digest string, claims *authDomain.Claims) {
	now := time.Now().UTC()
	ttl := claims.CacheTTL(now, a.config.TokenCacheTTL)
	if ttl <= 0 {
		return
	}

	entry := &authDomain.CacheEntry{Claims: *claims, CachedAt: now}
	if err := a.tokenCache.Set(ctx, digest, entry, ttl); err != nil {
		a.logWarn("token cache write failed", err)
	}
}

// effectiveRoles merges the hierarchy-expanded token roles with the
// subject's directory assignment. A subject missing from the directory keeps
// its token roles; any other lookup failure denies the request.
func (a *authUseCase) effectiveRoles(ctx context.Context, claims *authDomain.Claims) ([]string, error) {
	tokenRoles := a.hierarchy.Expand(claims.Roles)

	directoryRoles, err := a.roles.Resolve(ctx, claims.Subject)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrSubjectNotFound) {
			return tokenRoles, nil
		}
		return nil, apperrors.Wrapf(authDomain.ErrRoleLookupFailed, "%v", err)
	}

	return authDomain.MergeRoles(tokenRoles, directoryRoles), nil
}

func (a *authUseCase) logWarn(msg string, err error) {
	if a.logger != nil {
		a.logger.Warn(msg, slog.Any("error", err))
	}
}

// inactiveIntrospection reports a rejected token with its rejection reason.
func inactiveIntrospection(err error) *authDomain.Introspection {
	return &authDomain.Introspection{Active: false, Reason: err.Error()}
}

// NewAuthUseCase creates a new AuthUseCase with the provided dependencies.
func NewAuthUseCase(
	config *config.Config,
	validator authService.TokenValidator,
	digester authService.TokenDigester,
	tokenCache TokenCache,
	revocations RevocationStore,
	roles RoleUseCase,
	hierarchy *authDomain.RoleHierarchy,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		config:      config,
		validator:   validator,
		digester:    digester,
		tokenCache:  tokenCache,
		revocations: revocations,
		roles:       roles,
		hierarchy:   hierarchy,
		logger:      logger,
	}
}
