package domain

import "time"

// Policy is the ceiling applied to one category: at most Limit requests per
// client within each fixed Window.
type Policy struct {
	Category Category
	Limit    int
	Window   time.Duration
}

// Decision is the outcome of counting one request against a policy. It
// carries everything a client needs to pace itself, whether the request was
// admitted or not.
type Decision struct {
	// Allowed reports whether the request fit under the ceiling.
	Allowed bool

	// Limit is the policy ceiling the request was counted against.
	Limit int

	// Remaining is how many more requests fit in the current window. Zero
	// when the request was rejected.
	Remaining int

	// ResetAt is when the current window ends and the counter restarts.
	ResetAt time.Time

	// RetryAfter is how long a rejected client should wait before retrying.
	// Zero when the request was allowed.
	RetryAfter time.Duration
}
