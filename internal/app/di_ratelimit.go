package app

import (
	"fmt"

	ratelimitRepository "github.com/email-management-platform/backend/gateway/internal/ratelimit/repository"
	ratelimitUseCase "github.com/email-management-platform/backend/gateway/internal/ratelimit/usecase"
)

// CounterStore returns the rate-limit counter store, Redis-backed when the
// shared store is enabled so all gateway instances count against the same
// ceilings.
func (c *Container) CounterStore() (ratelimitUseCase.CounterStore, error) {
	var err error
	c.counterStoreInit.Do(func() {
		c.counterStore, err = c.initCounterStore()
		if err != nil {
			c.initErrors["counterStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["counterStore"]; exists {
		return nil, storedErr
	}
	return c.counterStore, nil
}

// RateLimitUseCase returns the per-category rate limiting use case.
func (c *Container) RateLimitUseCase() (ratelimitUseCase.RateLimitUseCase, error) {
	var err error
	c.rateLimitUseCaseInit.Do(func() {
		c.rateLimitUseCase, err = c.initRateLimitUseCase()
		if err != nil {
			c.initErrors["rateLimitUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimitUseCase"]; exists {
		return nil, storedErr
	}
	return c.rateLimitUseCase, nil
}

// initCounterStore creates the counter store based on the shared-store setting.
func (c *Container) initCounterStore() (ratelimitUseCase.CounterStore, error) {
	if c.config.RedisEnabled {
		client, err := c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for counter store: %w", err)
		}
		return ratelimitRepository.NewRedisCounterStore(client), nil
	}
	return ratelimitRepository.NewMemoryCounterStore(), nil
}

// initRateLimitUseCase creates the rate limit use case with all its dependencies.
func (c *Container) initRateLimitUseCase() (ratelimitUseCase.RateLimitUseCase, error) {
	store, err := c.CounterStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get counter store for rate limit use case: %w", err)
	}

	baseUseCase := ratelimitUseCase.NewRateLimitUseCase(
		ratelimitUseCase.PoliciesFromConfig(c.config),
		store,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for rate limit use case: %w", err)
		}
		return ratelimitUseCase.NewRateLimitUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
