package domain

import (
	"github.com/email-management-platform/backend/gateway/internal/errors"
)

var (
	// ErrRateLimited indicates the client exhausted its ceiling for the
	// category in the current window.
	ErrRateLimited = errors.Wrap(errors.ErrTooManyRequests, "rate limit exceeded")

	// ErrUnknownCategory indicates a request was attributed to a category no
	// policy covers. Such requests are rejected rather than passed uncounted.
	ErrUnknownCategory = errors.Wrap(errors.ErrInvalidInput, "unknown rate limit category")

	// ErrCounterUnavailable indicates the shared counter store could not be
	// reached. Requests are rejected rather than admitted uncounted.
	ErrCounterUnavailable = errors.Wrap(errors.ErrUnavailable, "rate limit counter unavailable")
)
