// Package mocks provides mock implementations for testing HTTP middleware.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
)

// MockRateLimitUseCase is a mock implementation of RateLimitUseCase for
// testing.
type MockRateLimitUseCase struct {
	mock.Mock
}

// Allow mocks the Allow method of RateLimitUseCase.
func (m *MockRateLimitUseCase) Allow(
	ctx context.Context,
	category ratelimitDomain.Category,
	clientKey string,
) (*ratelimitDomain.Decision, error) {
	args := m.Called(ctx, category, clientKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimitDomain.Decision), args.Error(1)
}
