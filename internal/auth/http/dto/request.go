// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	customValidation "github.com/email-management-platform/backend/gateway/internal/validation"
)

// IntrospectTokenRequest contains the parameters for introspecting a token.
//
// The token is deliberately not shape-validated here: a malformed token is a
// legitimate introspection input and reports as inactive instead of failing
// request validation.
type IntrospectTokenRequest struct {
	Token string `json:"token"`
}

// Validate checks if the introspect token request is valid.
func (r *IntrospectTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// RevokeTokenRequest contains the parameters for revoking a token.
type RevokeTokenRequest struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// Validate checks if the revoke token request is valid.
func (r *RevokeTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required,
			customValidation.NotBlank,
			validation.By(validateTokenShape),
		),
		validation.Field(&r.Subject,
			validation.Length(0, 255),
		),
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 500),
		),
	)
}

// CreateSubjectRequest contains the parameters for registering a directory
// subject.
type CreateSubjectRequest struct {
	ExternalID string   `json:"external_id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
}

// Validate checks if the create subject request is valid.
func (r *CreateSubjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ExternalID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Email,
			validation.When(r.Email != "",
				customValidation.Email,
				validation.Length(5, 255),
			),
		),
		validation.Field(&r.Roles,
			validation.Each(
				validation.Required,
				customValidation.RoleName,
				validation.Length(1, 64),
			),
		),
	)
}

// UpdateSubjectRequest contains the replacement state for a directory
// subject. A PUT carries the full desired state: omitting is_active
// deactivates the subject, and the roles list replaces the assignment.
type UpdateSubjectRequest struct {
	Email    string   `json:"email"`
	IsActive bool     `json:"is_active"`
	Roles    []string `json:"roles"`
}

// Validate checks if the update subject request is valid.
func (r *UpdateSubjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.When(r.Email != "",
				customValidation.Email,
				validation.Length(5, 255),
			),
		),
		validation.Field(&r.Roles,
			validation.Each(
				validation.Required,
				customValidation.RoleName,
				validation.Length(1, 64),
			),
		),
	)
}

// validateTokenShape rejects values that cannot be a serialized JWT before any
// store or crypto work happens.
func validateTokenShape(value interface{}) error {
	token, ok := value.(string)
	if !ok {
		return validation.NewError("validation_token_type", "must be a string")
	}

	if err := authDomain.ValidateTokenShape(token); err != nil {
		return validation.NewError("validation_token_shape", "must be a well-formed signed token")
	}

	return nil
}
