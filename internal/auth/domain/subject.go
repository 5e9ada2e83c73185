package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subject is a directory entry: an identity known to the gateway together
// with its assigned roles. Roles holds the direct assignment only; hierarchy
// expansion happens at resolution time.
type Subject struct {
	ID         uuid.UUID
	ExternalID string
	Email      string
	IsActive   bool
	Roles      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateSubjectInput contains the input data for registering a subject.
type CreateSubjectInput struct {
	ExternalID string
	Email      string
	Roles      []string
}

// UpdateSubjectInput contains the replacement state for a subject. Updates
// are full replacements: the email, active flag, and role assignment are all
// overwritten, so a caller must send the complete desired state.
type UpdateSubjectInput struct {
	Email    string
	IsActive bool
	Roles    []string
}
