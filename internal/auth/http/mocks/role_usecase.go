package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRoleUseCase is a mock implementation of RoleUseCase for testing.
type MockRoleUseCase struct {
	mock.Mock
}

// Resolve mocks the Resolve method of RoleUseCase.
func (m *MockRoleUseCase) Resolve(ctx context.Context, subject string) ([]string, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Invalidate mocks the Invalidate method of RoleUseCase.
func (m *MockRoleUseCase) Invalidate(ctx context.Context, subject string) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}
