// Package usecase defines business logic interfaces for per-category request
// rate limiting.
package usecase

import (
	"context"
	"time"

	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
)

// CounterStore is a fixed-window request counter keyed by category and
// client. Implementations must make each increment atomic with respect to
// window bookkeeping: no two concurrent calls may observe the same count for
// one key, or a ceiling meant to block the second of two racing requests
// would admit both.
type CounterStore interface {
	// Incr counts one request against the key's current window and returns
	// the post-increment count with the time left until the window resets.
	// A lapsed window restarts at one.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitUseCase decides whether requests fit under their category
// ceilings.
type RateLimitUseCase interface {
	// Allow counts one request from the client against the category's policy
	// and reports the decision. A rejected request still consumed its slot;
	// retrying before ResetAt only keeps the counter saturated.
	//
	// Errors are reserved for the limiter's own failures: an unknown
	// category or an unreachable counter store. Callers must treat an error
	// as a denial, never as an admission.
	Allow(ctx context.Context, category ratelimitDomain.Category, clientKey string) (*ratelimitDomain.Decision, error)
}
