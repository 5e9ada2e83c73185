package domain

import "time"

// Introspection reports the state of a presented token without authorizing
// anything with it. Inactive tokens carry the rejection reason instead of
// claims.
type Introspection struct {
	Active      bool
	Reason      string
	Subject     string
	Roles       []string
	Permissions []string
	ExpiresAt   time.Time
}
