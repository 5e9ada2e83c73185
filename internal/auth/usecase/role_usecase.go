package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// roleUseCase implements RoleUseCase. Directory lookups for the same subject
// are collapsed through a singleflight group so a burst of requests from one
// user costs a single backend call.
type roleUseCase struct {
	config    *config.Config
	directory SubjectDirectory
	cache     RoleCache
	hierarchy *authDomain.RoleHierarchy
	logger    *slog.Logger
	group     singleflight.Group
}

// Resolve returns the subject's current roles expanded through the role
// hierarchy. The cache stores the assignment as the directory returned it,
// so a hierarchy change takes effect without waiting out cache TTLs.
func (r *roleUseCase) Resolve(ctx context.Context, subject string) ([]string, error) {
	if subject == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "subject is required")
	}

	if assigned, ok := r.cachedAssignment(ctx, subject); ok {
		return r.hierarchy.Expand(assigned), nil
	}

	assigned, err := r.lookupAssignment(ctx, subject)
	if err != nil {
		return nil, err
	}

	return r.hierarchy.Expand(assigned), nil
}

// Invalidate drops the cached assignment for a subject.
func (r *roleUseCase) Invalidate(ctx context.Context, subject string) error {
	if subject == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "subject is required")
	}
	if err := r.cache.Delete(ctx, subject); err != nil {
		return apperrors.Wrap(err, "failed to invalidate cached roles")
	}
	return nil
}

// cachedAssignment returns the cached directory assignment for a subject.
// Cache failures count as misses.
func (r *roleUseCase) cachedAssignment(ctx context.Context, subject string) ([]string, bool) {
	assigned, ok, err := r.cache.Get(ctx, subject)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("role cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	return assigned, ok
}

// lookupAssignment fetches a subject's assignment from the directory and
// caches it. Concurrent callers for the same subject share one flight; the
// flight survives a single caller's cancellation so the rest still get the
// result.
func (r *roleUseCase) lookupAssignment(ctx context.Context, subject string) ([]string, error) {
	ch := r.group.DoChan(subject, func() (any, error) {
		lookupCtx := context.WithoutCancel(ctx)

		assigned, err := r.directory.RolesForSubject(lookupCtx, subject)
		if err != nil {
			return nil, err
		}

		// Lookup failures are not cached: a directory outage should not
		// pin subjects to an error for a full TTL.
		if err := r.cache.Set(lookupCtx, subject, assigned, r.config.RoleCacheTTL); err != nil {
			if r.logger != nil {
				r.logger.Warn("role cache write failed", slog.Any("error", err))
			}
		}

		return assigned, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.([]string), nil
	}
}

// NewRoleUseCase creates a new RoleUseCase with the provided dependencies.
func NewRoleUseCase(
	config *config.Config,
	directory SubjectDirectory,
	cache RoleCache,
	hierarchy *authDomain.RoleHierarchy,
	logger *slog.Logger,
) RoleUseCase {
	return &roleUseCase{
		config:    config,
		directory: directory,
		cache:     cache,
		hierarchy: hierarchy,
		logger:    logger,
	}
}
