package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
)

// rateLimitUseCase implements RateLimitUseCase over a shared counter store.
// Policies are fixed at construction; a request either fits under its
// category's ceiling for the current window or is rejected with enough
// information to back off.
type rateLimitUseCase struct {
	policies map[ratelimitDomain.Category]ratelimitDomain.Policy
	store    CounterStore
	logger   *slog.Logger
}

// Allow counts one request from the client against the category's policy.
// The store increment is atomic, so of two concurrent requests racing for the
// last slot under a ceiling, exactly one observes a count within the limit.
func (u *rateLimitUseCase) Allow(
	ctx context.Context,
	category ratelimitDomain.Category,
	clientKey string,
) (*ratelimitDomain.Decision, error) {
	policy, ok := u.policies[category]
	if !ok {
		return nil, apperrors.Wrapf(ratelimitDomain.ErrUnknownCategory, "no policy for %q", category)
	}
	if clientKey == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "client key is required")
	}

	count, ttl, err := u.store.Incr(ctx, counterKey(category, clientKey), policy.Window)
	if err != nil {
		// Failing open here would turn every store outage into an unlimited
		// window, so the request is rejected instead.
		if u.logger != nil {
			u.logger.Error("rate limit counter increment failed",
				slog.String("category", category.String()),
				slog.Any("error", err),
			)
		}
		return nil, apperrors.Wrapf(ratelimitDomain.ErrCounterUnavailable, "%v", err)
	}

	decision := &ratelimitDomain.Decision{
		Allowed: count <= int64(policy.Limit),
		Limit:   policy.Limit,
		ResetAt: time.Now().Add(ttl),
	}
	if decision.Allowed {
		decision.Remaining = policy.Limit - int(count)
	} else {
		decision.RetryAfter = ttl
	}

	return decision, nil
}

// counterKey scopes a client's counter to one category so ceilings never
// bleed into each other.
func counterKey(category ratelimitDomain.Category, clientKey string) string {
	return category.String() + ":" + clientKey
}

// PoliciesFromConfig builds the per-category policy table from gateway
// configuration. Every known category gets a policy, so a request for any of
// them always has a ceiling to count against.
func PoliciesFromConfig(cfg *config.Config) map[ratelimitDomain.Category]ratelimitDomain.Policy {
	limits := map[ratelimitDomain.Category]int{
		ratelimitDomain.CategoryEmailOperations:    cfg.RateLimitEmailOperations,
		ratelimitDomain.CategoryContextQueries:     cfg.RateLimitContextQueries,
		ratelimitDomain.CategoryResponseManagement: cfg.RateLimitResponseManagement,
		ratelimitDomain.CategoryAnalytics:          cfg.RateLimitAnalytics,
	}

	policies := make(map[ratelimitDomain.Category]ratelimitDomain.Policy, len(limits))
	for category, limit := range limits {
		policies[category] = ratelimitDomain.Policy{
			Category: category,
			Limit:    limit,
			Window:   cfg.RateLimitWindow,
		}
	}
	return policies
}

// NewRateLimitUseCase creates a new RateLimitUseCase with the provided
// policies and counter store.
func NewRateLimitUseCase(
	policies map[ratelimitDomain.Category]ratelimitDomain.Policy,
	store CounterStore,
	logger *slog.Logger,
) RateLimitUseCase {
	return &rateLimitUseCase{
		policies: policies,
		store:    store,
		logger:   logger,
	}
}
