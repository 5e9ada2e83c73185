// Package http provides the HTTP middleware enforcing per-category rate
// limits on proxied traffic.
package http

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/email-management-platform/backend/gateway/internal/auth/http"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
	ratelimitUseCase "github.com/email-management-platform/backend/gateway/internal/ratelimit/usecase"
)

// RateLimitMiddleware enforces the category's per-client ceiling on every
// request passing through it. Requests are counted against the authenticated
// subject, falling back to the client IP on anonymous routes, so one tenant
// exhausting its ceiling never throttles another.
//
// Every counted response carries X-RateLimit-Limit, X-RateLimit-Remaining,
// and X-RateLimit-Reset. c.ClientIP() handles X-Forwarded-For, X-Real-IP,
// and the direct remote address.
//
// Returns:
//   - 429 Too Many Requests: ceiling exhausted for the current window
//     (includes Retry-After header)
//   - 503 Service Unavailable: the shared counter store could not be
//     reached; requests are rejected rather than admitted uncounted
//   - Continues: request fits under the ceiling
func RateLimitMiddleware(
	rateLimitUseCase ratelimitUseCase.RateLimitUseCase,
	category ratelimitDomain.Category,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Key by authenticated subject, client IP otherwise
		clientKey := c.ClientIP()
		if identity, ok := authHTTP.GetIdentity(c.Request.Context()); ok && identity != nil {
			clientKey = identity.Subject
		}

		decision, err := rateLimitUseCase.Allow(c.Request.Context(), category, clientKey)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Quota headers go on allowed and rejected responses alike so
		// clients can pace themselves before hitting the ceiling.
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			logger.Debug("rate limit exceeded",
				slog.String("category", category.String()),
				slog.String("client", clientKey),
				slog.Time("reset_at", decision.ResetAt))

			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			httputil.HandleErrorGin(c, ratelimitDomain.ErrRateLimited, logger)
			c.Abort()
			return
		}

		// Request allowed, continue
		c.Next()
	}
}

// retryAfterSeconds rounds the delay up to whole seconds so a client
// honoring the header never retries inside the same window.
func retryAfterSeconds(delay time.Duration) int {
	seconds := int(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
