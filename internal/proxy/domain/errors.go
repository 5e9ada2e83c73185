package domain

import (
	"github.com/email-management-platform/backend/gateway/internal/errors"
)

var (
	// ErrUpstreamUnavailable indicates the upstream service could not serve
	// the proxied request (transport failure or timeout).
	ErrUpstreamUnavailable = errors.Wrap(errors.ErrUnavailable, "upstream unavailable")

	// ErrBreakerOpen indicates the upstream's circuit breaker is open and
	// the request was rejected without an upstream attempt.
	ErrBreakerOpen = errors.Wrap(ErrUpstreamUnavailable, "circuit breaker open")
)
