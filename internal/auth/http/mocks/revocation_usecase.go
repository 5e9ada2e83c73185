package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// MockRevocationUseCase is a mock implementation of RevocationUseCase for
// testing.
type MockRevocationUseCase struct {
	mock.Mock
}

// Revoke mocks the Revoke method of RevocationUseCase.
func (m *MockRevocationUseCase) Revoke(
	ctx context.Context,
	input *authDomain.RevokeTokenInput,
) (*authDomain.Revocation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Revocation), args.Error(1)
}

// List mocks the List method of RevocationUseCase.
func (m *MockRevocationUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Revocation, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Revocation), args.Error(1)
}

// Rehydrate mocks the Rehydrate method of RevocationUseCase.
func (m *MockRevocationUseCase) Rehydrate(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// DeleteExpired mocks the DeleteExpired method of RevocationUseCase.
func (m *MockRevocationUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
