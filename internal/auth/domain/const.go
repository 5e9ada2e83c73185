// Package domain defines authentication and authorization domain models.
// Implements bearer-token identity with validated claims, a static role
// hierarchy, and token revocation tracking.
package domain

// Well-known role names used by the default hierarchy. Deployments can
// replace or extend the hierarchy through configuration; these constants
// cover the built-in chain.
const (
	// RoleAdmin sits at the top of the default hierarchy and implies every
	// other role, including access to gateway administration endpoints.
	RoleAdmin = "admin"

	// RoleManager implies user and guest access.
	RoleManager = "manager"

	// RoleUser is the standard authenticated role.
	RoleUser = "user"

	// RoleGuest is the lowest-privilege role.
	RoleGuest = "guest"
)

const (
	// MaxTokenLength bounds accepted bearer tokens in bytes. Longer values are
	// rejected before any store lookup or signature work happens.
	MaxTokenLength = 4096

	// tokenSegments is the segment count of a compact serialized token
	// (header.payload.signature).
	tokenSegments = 3
)
