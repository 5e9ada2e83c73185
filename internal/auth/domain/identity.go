package domain

import "slices"

// Identity is the authenticated principal attached to a request once token
// validation and role resolution both succeed. Roles holds the expanded set,
// including every role implied through the hierarchy.
type Identity struct {
	Subject     string
	Roles       []string
	Permissions []string
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// HasAnyRole reports whether the identity carries at least one of the given
// roles. An empty requirement matches any authenticated identity.
func (i *Identity) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if slices.Contains(i.Roles, role) {
			return true
		}
	}
	return false
}
