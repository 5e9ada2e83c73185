package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/config"
)

// mockRevocationRepository is a mock implementation of RevocationRepository
// for testing.
type mockRevocationRepository struct {
	mock.Mock
}

func (m *mockRevocationRepository) Create(ctx context.Context, revocation *authDomain.Revocation) error {
	args := m.Called(ctx, revocation)
	return args.Error(0)
}

func (m *mockRevocationRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Revocation, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Revocation), args.Error(1)
}

func (m *mockRevocationRepository) ListActive(
	ctx context.Context,
	now time.Time,
) ([]*authDomain.Revocation, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Revocation), args.Error(1)
}

func (m *mockRevocationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type revocationFixture struct {
	digester *mockTokenDigester
	store    *mockRevocationStore
	repo     *mockRevocationRepository
	cache    *mockTokenCache
	useCase  RevocationUseCase
}

func newRevocationFixture() *revocationFixture {
	f := &revocationFixture{
		digester: &mockTokenDigester{},
		store:    &mockRevocationStore{},
		repo:     &mockRevocationRepository{},
		cache:    &mockTokenCache{},
	}
	f.useCase = NewRevocationUseCase(
		&config.Config{RevocationTTL: 24 * time.Hour},
		f.digester,
		f.store,
		f.repo,
		f.cache,
		nil,
	)
	return f
}

func (f *revocationFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.digester.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestRevocationUseCase_Revoke(t *testing.T) {
	ctx := context.Background()

	input := &authDomain.RevokeTokenInput{
		Token:   testToken,
		Subject: "user-1",
		Reason:  "credential leak",
	}

	t.Run("Success", func(t *testing.T) {
		f := newRevocationFixture()

		// Setup expectations
		f.digester.On("Digest", testToken).Return(testDigest).Once()
		f.store.On("Add", ctx, testDigest, 24*time.Hour).Return(nil).Once()
		f.repo.On("Create", ctx, mock.MatchedBy(func(revocation *authDomain.Revocation) bool {
			return revocation.TokenDigest == testDigest &&
				revocation.Subject == "user-1" &&
				revocation.Reason == "credential leak" &&
				revocation.ExpiresAt.Sub(revocation.RevokedAt) == 24*time.Hour
		})).Return(nil).Once()
		f.cache.On("Delete", ctx, testDigest).Return(nil).Once()

		// Execute
		revocation, err := f.useCase.Revoke(ctx, input)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, testDigest, revocation.TokenDigest)
		assert.NotEqual(t, uuid.Nil, revocation.ID)
		f.assertExpectations(t)
	})

	t.Run("Success_CacheDeleteFailureIgnored", func(t *testing.T) {
		f := newRevocationFixture()

		// Setup expectations
		f.digester.On("Digest", testToken).Return(testDigest).Once()
		f.store.On("Add", ctx, testDigest, 24*time.Hour).Return(nil).Once()
		f.repo.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.cache.On("Delete", ctx, testDigest).Return(assert.AnError).Once()

		// Execute
		revocation, err := f.useCase.Revoke(ctx, input)

		// Assert: the blacklist rejects the token regardless of the cache.
		assert.NoError(t, err)
		assert.NotNil(t, revocation)
		f.assertExpectations(t)
	})

	t.Run("Error_MalformedToken", func(t *testing.T) {
		f := newRevocationFixture()

		revocation, err := f.useCase.Revoke(ctx, &authDomain.RevokeTokenInput{Token: "garbage"})

		assert.ErrorIs(t, err, authDomain.ErrMalformedToken)
		assert.Nil(t, revocation)
		f.assertExpectations(t)
	})

	t.Run("Error_BlacklistAddFails", func(t *testing.T) {
		f := newRevocationFixture()

		// Setup expectations: the audit record is never written when the
		// blacklist write fails.
		f.digester.On("Digest", testToken).Return(testDigest).Once()
		f.store.On("Add", ctx, testDigest, 24*time.Hour).Return(assert.AnError).Once()

		// Execute
		revocation, err := f.useCase.Revoke(ctx, input)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, revocation)
		f.assertExpectations(t)
	})

	t.Run("Error_AuditInsertFails", func(t *testing.T) {
		f := newRevocationFixture()

		// Setup expectations: the blacklist entry is already in effect, so
		// the failure surfaces for a retry.
		f.digester.On("Digest", testToken).Return(testDigest).Once()
		f.store.On("Add", ctx, testDigest, 24*time.Hour).Return(nil).Once()
		f.repo.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

		// Execute
		revocation, err := f.useCase.Revoke(ctx, input)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, revocation)
		f.assertExpectations(t)
	})
}

func TestRevocationUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newRevocationFixture()
		expected := []*authDomain.Revocation{{TokenDigest: testDigest}}

		f.repo.On("List", ctx, 0, 50).Return(expected, nil).Once()

		revocations, err := f.useCase.List(ctx, 0, 50)

		assert.NoError(t, err)
		assert.Equal(t, expected, revocations)
		f.assertExpectations(t)
	})
}

func TestRevocationUseCase_Rehydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RestoresUnexpiredEntries", func(t *testing.T) {
		f := newRevocationFixture()
		now := time.Now().UTC()
		active := []*authDomain.Revocation{
			{TokenDigest: "digest-1", ExpiresAt: now.Add(12 * time.Hour)},
			{TokenDigest: "digest-2", ExpiresAt: now.Add(-time.Minute)},
		}

		// Setup expectations: the entry that lapsed between the query and
		// the rebuild is skipped.
		f.repo.On("ListActive", ctx, mock.AnythingOfType("time.Time")).Return(active, nil).Once()
		f.store.On("Add", ctx, "digest-1", mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 11*time.Hour && ttl <= 12*time.Hour
		})).Return(nil).Once()

		// Execute
		restored, err := f.useCase.Rehydrate(ctx)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 1, restored)
		f.assertExpectations(t)
	})

	t.Run("Error_ListFails", func(t *testing.T) {
		f := newRevocationFixture()

		f.repo.On("ListActive", ctx, mock.AnythingOfType("time.Time")).Return(nil, assert.AnError).Once()

		restored, err := f.useCase.Rehydrate(ctx)

		assert.Error(t, err)
		assert.Zero(t, restored)
		f.assertExpectations(t)
	})

	t.Run("Error_StoreAddFails", func(t *testing.T) {
		f := newRevocationFixture()
		now := time.Now().UTC()
		active := []*authDomain.Revocation{
			{TokenDigest: "digest-1", ExpiresAt: now.Add(time.Hour)},
		}

		f.repo.On("ListActive", ctx, mock.AnythingOfType("time.Time")).Return(active, nil).Once()
		f.store.On("Add", ctx, "digest-1", mock.Anything).Return(assert.AnError).Once()

		restored, err := f.useCase.Rehydrate(ctx)

		assert.Error(t, err)
		assert.Zero(t, restored)
		f.assertExpectations(t)
	})
}

func TestRevocationUseCase_DeleteExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newRevocationFixture()

		f.repo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(7), nil).Once()

		deleted, err := f.useCase.DeleteExpired(ctx)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), deleted)
		f.assertExpectations(t)
	})
}
