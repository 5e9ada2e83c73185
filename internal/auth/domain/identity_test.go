package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_HasRole(t *testing.T) {
	identity := &Identity{
		Subject: "user-1",
		Roles:   []string{RoleGuest, RoleUser},
	}

	assert.True(t, identity.HasRole(RoleUser))
	assert.True(t, identity.HasRole(RoleGuest))
	assert.False(t, identity.HasRole(RoleAdmin))
	assert.False(t, identity.HasRole(""))
}

func TestIdentity_HasAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		required []string
		expected bool
	}{
		{
			name:     "Success_SingleMatch",
			identity: &Identity{Subject: "user-1", Roles: []string{RoleGuest, RoleUser}},
			required: []string{RoleUser},
			expected: true,
		},
		{
			name:     "Success_OneOfSeveralMatches",
			identity: &Identity{Subject: "user-1", Roles: []string{RoleGuest, RoleUser}},
			required: []string{RoleAdmin, RoleUser},
			expected: true,
		},
		{
			name:     "Success_EmptyRequirementMatchesAnyIdentity",
			identity: &Identity{Subject: "user-1", Roles: []string{RoleGuest}},
			required: nil,
			expected: true,
		},
		{
			name:     "Failure_NoMatch",
			identity: &Identity{Subject: "user-1", Roles: []string{RoleGuest, RoleUser}},
			required: []string{RoleAdmin, RoleManager},
			expected: false,
		},
		{
			name:     "Failure_IdentityWithoutRoles",
			identity: &Identity{Subject: "user-1"},
			required: []string{RoleGuest},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.identity.HasAnyRole(tt.required...))
		})
	}
}
