// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// adminRateLimiterStore holds per-caller rate limiters with automatic cleanup.
type adminRateLimiterStore struct {
	limiters sync.Map // map[string]*adminRateLimiterEntry (subject or IP -> limiter)
	rps      float64
	burst    int
}

// adminRateLimiterEntry holds a rate limiter and last access time for cleanup.
type adminRateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// AdminRateLimitMiddleware enforces per-caller rate limiting on the gateway's own
// admin surfaces (introspection, revocation).
//
// This limiter is independent of the per-category fixed-window limiter guarding
// proxied traffic: admin endpoints do work (signature checks, store writes) that is
// worth throttling even for well-behaved categories. Uses the token bucket algorithm
// via golang.org/x/time/rate. Each caller gets an independent limiter keyed by the
// authenticated subject, falling back to the client IP when the route runs before
// authentication.
//
// c.ClientIP() handles X-Forwarded-For, X-Real-IP, and the direct remote address.
//
// Configuration:
//   - rps: Requests per second allowed per caller
//   - burst: Maximum burst capacity for temporary spikes
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded (includes Retry-After header)
//   - Continues: Request allowed within rate limit
func AdminRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &adminRateLimiterStore{
		rps:   rps,
		burst: burst,
	}

	// Start cleanup goroutine for stale limiters (every 5 minutes)
	go store.cleanupStale(context.Background(), 5*time.Minute)

	return func(c *gin.Context) {
		// Key by authenticated subject, client IP otherwise
		callerKey := c.ClientIP()
		if identity, ok := GetIdentity(c.Request.Context()); ok && identity != nil {
			callerKey = identity.Subject
		}

		// Get or create rate limiter for this caller
		limiter := store.getLimiter(callerKey)

		// Check if request is allowed
		if !limiter.Allow() {
			// Calculate retry-after delay
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel() // Cancel the reservation

			logger.Debug("admin rate limit exceeded",
				slog.String("caller", callerKey),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many admin requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		// Request allowed, continue
		c.Next()
	}
}

// getLimiter retrieves or creates a rate limiter for a caller key.
func (s *adminRateLimiterStore) getLimiter(key string) *rate.Limiter {
	// Try to load existing limiter
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*adminRateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	// Create new limiter
	limiter := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	entry := &adminRateLimiterEntry{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	// Store and return
	s.limiters.Store(key, entry)
	return limiter
}

// cleanupStale removes rate limiters that haven't been accessed recently.
// Runs periodically to prevent unbounded memory growth from caller churn.
func (s *adminRateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Remove limiters not accessed in last hour
			threshold := time.Now().Add(-1 * time.Hour)
			s.limiters.Range(func(key, value interface{}) bool {
				entry := value.(*adminRateLimiterEntry)
				entry.mu.Lock()
				shouldDelete := entry.lastAccess.Before(threshold)
				entry.mu.Unlock()

				if shouldDelete {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
