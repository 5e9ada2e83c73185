package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/database"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// subjectUseCase implements SubjectUseCase. It only exists when the gateway
// owns the identity data; deployments resolving roles against a remote
// identity API administer subjects there instead.
type subjectUseCase struct {
	txManager database.TxManager
	store     SubjectStore
	roles     RoleUseCase
	logger    *slog.Logger
}

// Create registers a subject with its role assignment. The subject row and
// its roles are written in one transaction so a half-registered subject can
// never resolve.
func (s *subjectUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateSubjectInput,
) (*authDomain.Subject, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "external id must not be blank")
	}

	now := time.Now().UTC()
	subject := &authDomain.Subject{
		ID:         uuid.Must(uuid.NewV7()),
		ExternalID: externalID,
		Email:      strings.TrimSpace(strings.ToLower(input.Email)),
		IsActive:   true,
		Roles:      authDomain.MergeRoles(input.Roles, nil),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, subject); err != nil {
			return err
		}
		return s.store.ReplaceRoles(ctx, subject.ID, subject.Roles)
	})
	if err != nil {
		return nil, err
	}

	return subject, nil
}

// Get returns one subject with its assigned roles, active or not.
func (s *subjectUseCase) Get(ctx context.Context, externalID string) (*authDomain.Subject, error) {
	return s.store.Get(ctx, externalID)
}

// List returns directory subjects, newest first.
func (s *subjectUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Subject, error) {
	return s.store.List(ctx, offset, limit)
}

// Update replaces the subject's email, active flag, and role assignment, then
// drops the cached assignment so the change applies on the next request.
func (s *subjectUseCase) Update(
	ctx context.Context,
	externalID string,
	input *authDomain.UpdateSubjectInput,
) (*authDomain.Subject, error) {
	var updated *authDomain.Subject

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		subject, err := s.store.Get(ctx, externalID)
		if err != nil {
			return err
		}

		subject.Email = strings.TrimSpace(strings.ToLower(input.Email))
		subject.IsActive = input.IsActive
		subject.Roles = authDomain.MergeRoles(input.Roles, nil)
		subject.UpdatedAt = time.Now().UTC()

		if err := s.store.Update(ctx, subject); err != nil {
			return err
		}
		if err := s.store.ReplaceRoles(ctx, subject.ID, subject.Roles); err != nil {
			return err
		}

		updated = subject
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dropCachedAssignment(ctx, externalID)
	return updated, nil
}

// Deactivate soft-deletes a subject. The row stays for the admin surface and
// the audit trail; role resolution treats the subject as unknown from the
// next uncached request on. Deactivating an already-inactive subject is a
// no-op, not an error.
func (s *subjectUseCase) Deactivate(ctx context.Context, externalID string) error {
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Get(ctx, externalID); err != nil {
			return err
		}
		return s.store.Deactivate(ctx, externalID)
	})
	if err != nil {
		return err
	}

	s.dropCachedAssignment(ctx, externalID)
	return nil
}

// dropCachedAssignment invalidates the subject's cached roles after a
// directory write. A failed invalidation is logged, not returned: the write
// already committed, and the stale entry expires on its own within the role
// cache TTL.
func (s *subjectUseCase) dropCachedAssignment(ctx context.Context, externalID string) {
	if err := s.roles.Invalidate(ctx, externalID); err != nil {
		if s.logger != nil {
			s.logger.Warn("role cache invalidation failed",
				slog.String("subject", externalID),
				slog.Any("error", err),
			)
		}
	}
}

// NewSubjectUseCase creates a new SubjectUseCase with the provided
// dependencies.
func NewSubjectUseCase(
	txManager database.TxManager,
	store SubjectStore,
	roles RoleUseCase,
	logger *slog.Logger,
) SubjectUseCase {
	return &subjectUseCase{
		txManager: txManager,
		store:     store,
		roles:     roles,
		logger:    logger,
	}
}
