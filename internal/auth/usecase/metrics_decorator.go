package usecase

import (
	"context"
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authenticate records metrics for token authentication operations.
func (a *authUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	rawToken string,
) (*authDomain.Identity, error) {
	start := time.Now()
	identity, err := a.next.Authenticate(ctx, rawToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "authenticate", status)
	a.metrics.RecordDuration(ctx, "auth", "authenticate", time.Since(start), status)

	return identity, err
}

// Introspect records metrics for token introspection operations.
func (a *authUseCaseWithMetrics) Introspect(
	ctx context.Context,
	rawToken string,
) (*authDomain.Introspection, error) {
	start := time.Now()
	introspection, err := a.next.Introspect(ctx, rawToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "introspect", status)
	a.metrics.RecordDuration(ctx, "auth", "introspect", time.Since(start), status)

	return introspection, err
}

// roleUseCaseWithMetrics decorates RoleUseCase with metrics instrumentation.
type roleUseCaseWithMetrics struct {
	next    RoleUseCase
	metrics metrics.BusinessMetrics
}

// NewRoleUseCaseWithMetrics wraps a RoleUseCase with metrics recording.
func NewRoleUseCaseWithMetrics(useCase RoleUseCase, m metrics.BusinessMetrics) RoleUseCase {
	return &roleUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Resolve records metrics for role resolution operations.
func (r *roleUseCaseWithMetrics) Resolve(ctx context.Context, subject string) ([]string, error) {
	start := time.Now()
	roles, err := r.next.Resolve(ctx, subject)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "role_resolve", status)
	r.metrics.RecordDuration(ctx, "auth", "role_resolve", time.Since(start), status)

	return roles, err
}

// Invalidate records metrics for role cache invalidation operations.
func (r *roleUseCaseWithMetrics) Invalidate(ctx context.Context, subject string) error {
	start := time.Now()
	err := r.next.Invalidate(ctx, subject)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "role_invalidate", status)
	r.metrics.RecordDuration(ctx, "auth", "role_invalidate", time.Since(start), status)

	return err
}

// revocationUseCaseWithMetrics decorates RevocationUseCase with metrics
// instrumentation.
type revocationUseCaseWithMetrics struct {
	next    RevocationUseCase
	metrics metrics.BusinessMetrics
}

// NewRevocationUseCaseWithMetrics wraps a RevocationUseCase with metrics
// recording.
func NewRevocationUseCaseWithMetrics(useCase RevocationUseCase, m metrics.BusinessMetrics) RevocationUseCase {
	return &revocationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Revoke records metrics for token revocation operations.
func (r *revocationUseCaseWithMetrics) Revoke(
	ctx context.Context,
	input *authDomain.RevokeTokenInput,
) (*authDomain.Revocation, error) {
	start := time.Now()
	revocation, err := r.next.Revoke(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "token_revoke", status)
	r.metrics.RecordDuration(ctx, "auth", "token_revoke", time.Since(start), status)

	return revocation, err
}

// List records metrics for revocation list operations.
func (r *revocationUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Revocation, error) {
	start := time.Now()
	revocations, err := r.next.List(ctx, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "revocation_list", status)
	r.metrics.RecordDuration(ctx, "auth", "revocation_list", time.Since(start), status)

	return revocations, err
}

// Rehydrate records metrics for blacklist rehydration operations.
func (r *revocationUseCaseWithMetrics) Rehydrate(ctx context.Context) (int, error) {
	start := time.Now()
	restored, err := r.next.Rehydrate(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "revocation_rehydrate", status)
	r.metrics.RecordDuration(ctx, "auth", "revocation_rehydrate", time.Since(start), status)

	return restored, err
}

// DeleteExpired records metrics for revocation pruning operations.
func (r *revocationUseCaseWithMetrics) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := r.next.DeleteExpired(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "auth", "revocation_delete_expired", status)
	r.metrics.RecordDuration(ctx, "auth", "revocation_delete_expired", time.Since(start), status)

	return deleted, err
}
