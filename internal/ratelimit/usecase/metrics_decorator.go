package usecase

import (
	"context"
	"time"

	"github.com/email-management-platform/backend/gateway/internal/metrics"
	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
)

// rateLimitUseCaseWithMetrics decorates RateLimitUseCase with metrics
// instrumentation.
type rateLimitUseCaseWithMetrics struct {
	next    RateLimitUseCase
	metrics metrics.BusinessMetrics
}

// NewRateLimitUseCaseWithMetrics wraps a RateLimitUseCase with metrics
// recording.
func NewRateLimitUseCaseWithMetrics(useCase RateLimitUseCase, m metrics.BusinessMetrics) RateLimitUseCase {
	return &rateLimitUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Allow records metrics for rate limit decisions. Rejections are recorded
// separately from errors so saturation and store outages chart apart.
func (r *rateLimitUseCaseWithMetrics) Allow(
	ctx context.Context,
	category ratelimitDomain.Category,
	clientKey string,
) (*ratelimitDomain.Decision, error) {
	start := time.Now()
	decision, err := r.next.Allow(ctx, category, clientKey)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case !decision.Allowed:
		status = "rejected"
	}

	r.metrics.RecordOperation(ctx, "ratelimit", category.String(), status)
	r.metrics.RecordDuration(ctx, "ratelimit", category.String(), time.Since(start), status)

	return decision, err
}
