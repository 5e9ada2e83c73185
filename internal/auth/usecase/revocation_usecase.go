package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authService "github.com/email-management-platform/backend/gateway/internal/auth/service"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// revocationUseCase implements RevocationUseCase.
type revocationUseCase struct {
	config         *config.Config
	digester       authService.TokenDigester
	store          RevocationStore
	revocationRepo RevocationRepository
	tokenCache     TokenCache
	logger         *slog.Logger
}

// Revoke blacklists a token and records the audit entry.
//
// The blacklist entry is written before the audit record: a revocation must
// take effect immediately even if the audit insert fails, and re-running the
// revocation after a partial failure is harmless. Any cached claims for the
// token are dropped last so the next request cannot be served from cache.
//
// Only the token digest is stored anywhere; the raw token is discarded as
// soon as it is digested.
func (r *revocationUseCase) Revoke(
	ctx context.Context,
	input *authDomain.RevokeTokenInput,
) (*authDomain.Revocation, error) {
	if err := authDomain.ValidateTokenShape(input.Token); err != nil {
		return nil, err
	}

	digest := r.digester.Digest(input.Token)
	now := time.Now().UTC()

	revocation := &authDomain.Revocation{
		ID:          uuid.Must(uuid.NewV7()),
		TokenDigest: digest,
		Subject:     input.Subject,
		Reason:      input.Reason,
		RevokedAt:   now,
		ExpiresAt:   now.Add(r.config.RevocationTTL),
	}

	if err := r.store.Add(ctx, digest, r.config.RevocationTTL); err != nil {
		return nil, apperrors.Wrap(err, "failed to blacklist token")
	}

	if err := r.revocationRepo.Create(ctx, revocation); err != nil {
		return nil, err
	}

	if err := r.tokenCache.Delete(ctx, digest); err != nil {
		// The blacklist already rejects the token on the next request; a
		// stale cache entry can no longer be served.
		if r.logger != nil {
			r.logger.Warn("token cache delete failed", slog.Any("error", err))
		}
	}

	return revocation, nil
}

// List returns revocation audit records, newest first.
func (r *revocationUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Revocation, error) {
	return r.revocationRepo.List(ctx, offset, limit)
}

// Rehydrate reloads unexpired revocations from the audit trail into the
// blacklist and returns how many entries were restored.
func (r *revocationUseCase) Rehydrate(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	active, err := r.revocationRepo.ListActive(ctx, now)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, revocation := range active {
		ttl := revocation.ExpiresAt.Sub(now)
		if ttl <= 0 {
			continue
		}
		if err := r.store.Add(ctx, revocation.TokenDigest, ttl); err != nil {
			return restored, apperrors.Wrap(err, "failed to rehydrate blacklist")
		}
		restored++
	}

	return restored, nil
}

// DeleteExpired prunes audit records past their retention window.
func (r *revocationUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	return r.revocationRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewRevocationUseCase creates a new RevocationUseCase with the provided
// dependencies.
func NewRevocationUseCase(
	config *config.Config,
	digester authService.TokenDigester,
	store RevocationStore,
	revocationRepo RevocationRepository,
	tokenCache TokenCache,
	logger *slog.Logger,
) RevocationUseCase {
	return &revocationUseCase{
		config:         config,
		digester:       digester,
		store:          store,
		revocationRepo: revocationRepo,
		tokenCache:     tokenCache,
		logger:         logger,
	}
}
