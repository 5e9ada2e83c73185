// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// IntrospectionResponse reports the state of a presented token.
// Claims fields are only populated for active tokens; inactive tokens carry
// the rejection reason instead.
type IntrospectionResponse struct {
	Active      bool       `json:"active"`
	Reason      string     `json:"reason,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Roles       []string   `json:"roles,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// MapIntrospectionToResponse converts a domain introspection to an API response.
func MapIntrospectionToResponse(introspection *authDomain.Introspection) IntrospectionResponse {
	response := IntrospectionResponse{
		Active:      introspection.Active,
		Reason:      introspection.Reason,
		Subject:     introspection.Subject,
		Roles:       introspection.Roles,
		Permissions: introspection.Permissions,
	}

	if !introspection.ExpiresAt.IsZero() {
		expiresAt := introspection.ExpiresAt
		response.ExpiresAt = &expiresAt
	}

	return response
}

// RevocationResponse represents a revocation audit record in API responses.
// Only the token digest appears; the raw token is never stored or returned.
type RevocationResponse struct {
	ID          string    `json:"id"`
	TokenDigest string    `json:"token_digest"`
	Subject     string    `json:"subject,omitempty"`
	Reason      string    `json:"reason"`
	RevokedAt   time.Time `json:"revoked_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapRevocationToResponse converts a domain revocation to an API response.
func MapRevocationToResponse(revocation *authDomain.Revocation) RevocationResponse {
	return RevocationResponse{
		ID:          revocation.ID.String(),
		TokenDigest: revocation.TokenDigest,
		Subject:     revocation.Subject,
		Reason:      revocation.Reason,
		RevokedAt:   revocation.RevokedAt,
		ExpiresAt:   revocation.ExpiresAt,
	}
}

// ListRevocationsResponse represents a paginated list of revocations in API responses.
type ListRevocationsResponse struct {
	Data []RevocationResponse `json:"data"`
}

// MapRevocationsToListResponse converts a slice of domain revocations to a list API response.
func MapRevocationsToListResponse(revocations []*authDomain.Revocation) ListRevocationsResponse {
	revocationResponses := make([]RevocationResponse, 0, len(revocations))
	for _, revocation := range revocations {
		revocationResponses = append(revocationResponses, MapRevocationToResponse(revocation))
	}
	return ListRevocationsResponse{
		Data: revocationResponses,
	}
}

// SubjectRolesResponse represents a subject's resolved role closure in API responses.
type SubjectRolesResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// SubjectResponse represents a directory subject in API responses. Roles is
// the direct assignment, not the hierarchy-expanded closure.
type SubjectResponse struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email,omitempty"`
	IsActive   bool      `json:"is_active"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MapSubjectToResponse converts a domain subject to an API response.
func MapSubjectToResponse(subject *authDomain.Subject) SubjectResponse {
	return SubjectResponse{
		ID:         subject.ID.String(),
		ExternalID: subject.ExternalID,
		Email:      subject.Email,
		IsActive:   subject.IsActive,
		Roles:      subject.Roles,
		CreatedAt:  subject.CreatedAt,
		UpdatedAt:  subject.UpdatedAt,
	}
}

// ListSubjectsResponse represents a paginated list of subjects in API responses.
type ListSubjectsResponse struct {
	Data []SubjectResponse `json:"data"`
}

// MapSubjectsToListResponse converts a slice of domain subjects to a list API response.
func MapSubjectsToListResponse(subjects []*authDomain.Subject) ListSubjectsResponse {
	subjectResponses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		subjectResponses = append(subjectResponses, MapSubjectToResponse(subject))
	}
	return ListSubjectsResponse{
		Data: subjectResponses,
	}
}
