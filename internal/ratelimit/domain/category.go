// Package domain defines rate limiting domain models. Requests are bucketed
// into traffic categories, each counted against a per-client ceiling over a
// fixed window.
package domain

import (
	"github.com/email-management-platform/backend/gateway/internal/errors"
)

// Category buckets proxied traffic by workload class. Each category carries
// its own per-client ceiling so a burst of cheap queries cannot starve
// expensive operations, and vice versa.
type Category string

const (
	// CategoryEmailOperations covers send, archive, and other mutations on
	// mailbox state.
	CategoryEmailOperations Category = "email-operations"

	// CategoryContextQueries covers read-side thread and conversation
	// context lookups.
	CategoryContextQueries Category = "context-queries"

	// CategoryResponseManagement covers draft and suggested-response
	// endpoints.
	CategoryResponseManagement Category = "response-management"

	// CategoryAnalytics covers reporting queries, the most expensive class.
	CategoryAnalytics Category = "analytics"
)

// Categories returns every known category. The slice is freshly allocated on
// each call.
func Categories() []Category {
	return []Category{
		CategoryEmailOperations,
		CategoryContextQueries,
		CategoryResponseManagement,
		CategoryAnalytics,
	}
}

// ParseCategory converts a string into a known Category. Unknown values fail
// with ErrUnknownCategory so misconfigured routes are rejected instead of
// passing uncounted.
func ParseCategory(value string) (Category, error) {
	switch Category(value) {
	case CategoryEmailOperations:
		return CategoryEmailOperations, nil
	case CategoryContextQueries:
		return CategoryContextQueries, nil
	case CategoryResponseManagement:
		return CategoryResponseManagement, nil
	case CategoryAnalytics:
		return CategoryAnalytics, nil
	default:
		return "", errors.Wrapf(ErrUnknownCategory, "unknown rate limit category %q", value)
	}
}

// String returns the category's wire name.
func (c Category) String() string {
	return string(c)
}
