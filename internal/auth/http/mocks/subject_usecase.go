package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// MockSubjectUseCase is a mock implementation of SubjectUseCase for testing.
type MockSubjectUseCase struct {
	mock.Mock
}

// Create mocks the Create method of SubjectUseCase.
func (m *MockSubjectUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateSubjectInput,
) (*authDomain.Subject, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Subject), args.Error(1)
}

// Get mocks the Get method of SubjectUseCase.
func (m *MockSubjectUseCase) Get(ctx context.Context, externalID string) (*authDomain.Subject, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Subject), args.Error(1)
}

// List mocks the List method of SubjectUseCase.
func (m *MockSubjectUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Subject, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Subject), args.Error(1)
}

// Update mocks the Update method of SubjectUseCase.
func (m *MockSubjectUseCase) Update(
	ctx context.Context,
	externalID string,
	input *authDomain.UpdateSubjectInput,
) (*authDomain.Subject, error) {
	args := m.Called(ctx, externalID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Subject), args.Error(1)
}

// Deactivate mocks the Deactivate method of SubjectUseCase.
func (m *MockSubjectUseCase) Deactivate(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}
