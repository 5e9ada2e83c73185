package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
	"github.com/email-management-platform/backend/gateway/internal/ratelimit/http/mocks"
	"github.com/email-management-platform/backend/gateway/internal/ratelimit/usecase"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics to avoid dependency issues.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestRateLimitUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Allow success", func(t *testing.T) {
		mockNext := &mocks.MockRateLimitUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewRateLimitUseCaseWithMetrics(mockNext, mockMetrics)

		decision := &ratelimitDomain.Decision{Allowed: true, Limit: 20, Remaining: 19}

		mockNext.On("Allow", ctx, ratelimitDomain.CategoryAnalytics, "user-1").Return(decision, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "ratelimit", "analytics", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "ratelimit", "analytics", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		res, err := uc.Allow(ctx, ratelimitDomain.CategoryAnalytics, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, decision, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Allow rejected", func(t *testing.T) {
		mockNext := &mocks.MockRateLimitUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewRateLimitUseCaseWithMetrics(mockNext, mockMetrics)

		decision := &ratelimitDomain.Decision{Allowed: false, Limit: 20, RetryAfter: 10 * time.Second}

		mockNext.On("Allow", ctx, ratelimitDomain.CategoryAnalytics, "user-1").Return(decision, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "ratelimit", "analytics", "rejected").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "ratelimit", "analytics", mock.AnythingOfType("time.Duration"), "rejected").
			Return().
			Once()

		res, err := uc.Allow(ctx, ratelimitDomain.CategoryAnalytics, "user-1")
		assert.NoError(t, err)
		assert.False(t, res.Allowed)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Allow error", func(t *testing.T) {
		mockNext := &mocks.MockRateLimitUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewRateLimitUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Allow", ctx, ratelimitDomain.CategoryEmailOperations, "user-1").
			Return(nil, assert.AnError).
			Once()
		mockMetrics.On("RecordOperation", ctx, "ratelimit", "email-operations", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "ratelimit", "email-operations", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		res, err := uc.Allow(ctx, ratelimitDomain.CategoryEmailOperations, "user-1")
		assert.Error(t, err)
		assert.Nil(t, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}
