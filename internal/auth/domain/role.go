package domain

import (
	"slices"
	"strings"

	"github.com/email-management-platform/backend/gateway/internal/errors"
)

// RoleHierarchy maps each role to the roles it directly implies. The map is
// built once at startup and never mutated afterwards, so Expand is safe to
// call from any goroutine without locking.
type RoleHierarchy struct {
	implies map[string][]string
}

// DefaultRoleHierarchy returns the built-in admin > manager > user > guest
// chain.
func DefaultRoleHierarchy() *RoleHierarchy {
	return &RoleHierarchy{
		implies: map[string][]string{
			RoleAdmin:   {RoleManager},
			RoleManager: {RoleUser},
			RoleUser:    {RoleGuest},
		},
	}
}

// ParseRoleHierarchy builds a hierarchy from a comma-separated list of
// parent:child pairs, e.g. "admin:manager,manager:user,user:guest". A parent
// appearing in multiple pairs implies all of its children. Empty pairs are
// skipped so trailing commas are harmless.
func ParseRoleHierarchy(spec string) (*RoleHierarchy, error) {
	implies := make(map[string][]string)

	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parent, child, found := strings.Cut(pair, ":")
		parent = strings.TrimSpace(parent)
		child = strings.TrimSpace(child)
		if !found || parent == "" || child == "" {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid role hierarchy pair %q", pair)
		}

		if !slices.Contains(implies[parent], child) {
			implies[parent] = append(implies[parent], child)
		}
	}

	return &RoleHierarchy{implies: implies}, nil
}

// Expand returns the transitive closure of the assigned roles: every assigned
// role plus every role reachable through the hierarchy. The result is sorted
// and duplicate-free.
//
// The walk is iterative with a visited set rather than recursive, so a
// misconfigured hierarchy containing a cycle (e.g. "a:b,b:a") terminates
// after visiting each role once instead of recursing forever.
//
// Examples with the default hierarchy:
//   - Expand(["manager"]) returns ["guest", "manager", "user"]
//   - Expand(["admin"]) returns ["admin", "guest", "manager", "user"]
//   - Expand(["guest"]) returns ["guest"]
//   - Expand(nil) returns []
func (h *RoleHierarchy) Expand(assigned []string) []string {
	visited := make(map[string]bool, len(assigned))
	queue := make([]string, 0, len(assigned))

	for _, role := range assigned {
		if role == "" || visited[role] {
			continue
		}
		visited[role] = true
		queue = append(queue, role)
	}

	for len(queue) > 0 {
		role := queue[0]
		queue = queue[1:]

		for _, implied := range h.implies[role] {
			if visited[implied] {
				continue
			}
			visited[implied] = true
			queue = append(queue, implied)
		}
	}

	expanded := make([]string, 0, len(visited))
	for role := range visited {
		expanded = append(expanded, role)
	}
	slices.Sort(expanded)

	return expanded
}

// MergeRoles returns the sorted, duplicate-free union of two role sets.
func MergeRoles(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	slices.Sort(merged)
	return slices.Compact(merged)
}
