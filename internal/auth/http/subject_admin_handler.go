// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/auth/http/dto"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	customValidation "github.com/email-management-platform/backend/gateway/internal/validation"
)

// SubjectAdminHandler handles HTTP requests for administering the subject
// directory. Only mounted when the gateway owns the identity data; remote
// identity backends administer subjects on their own side.
type SubjectAdminHandler struct {
	subjectUseCase authUseCase.SubjectUseCase
	logger         *slog.Logger
}

// NewSubjectAdminHandler creates a new subject admin handler with required dependencies.
func NewSubjectAdminHandler(
	subjectUseCase authUseCase.SubjectUseCase,
	logger *slog.Logger,
) *SubjectAdminHandler {
	return &SubjectAdminHandler{
		subjectUseCase: subjectUseCase,
		logger:         logger,
	}
}

// CreateHandler registers a subject with its role assignment.
// POST /api/v1/auth/subjects - Requires the admin role.
// Returns 201 Created, or 409 when the external ID is already registered.
func (h *SubjectAdminHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateSubjectRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Create input for use case
	input := &authDomain.CreateSubjectInput{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Roles:      req.Roles,
	}

	// Call use case
	subject, err := h.subjectUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusCreated, dto.MapSubjectToResponse(subject))
}

// ListHandler retrieves directory subjects with pagination support.
// GET /api/v1/auth/subjects?offset=0&limit=50 - Requires the admin role.
// Returns 200 OK ordered by registration time, newest first.
func (h *SubjectAdminHandler) ListHandler(c *gin.Context) {
	// Parse offset and limit query parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Call use case
	subjects, err := h.subjectUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapSubjectsToListResponse(subjects))
}

// GetHandler returns one subject with its assigned roles, active or not.
// GET /api/v1/auth/subjects/:subject - Requires the admin role.
// Returns 200 OK, or 404 when no subject has the external ID.
func (h *SubjectAdminHandler) GetHandler(c *gin.Context) {
	subject, err := h.subjectUseCase.Get(c.Request.Context(), c.Param("subject"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSubjectToResponse(subject))
}

// UpdateHandler replaces the subject's email, active flag, and role
// assignment, and drops the cached assignment.
// PUT /api/v1/auth/subjects/:subject - Requires the admin role.
// Returns 200 OK with the updated subject, or 404 when it does not exist.
func (h *SubjectAdminHandler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateSubjectRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Create input for use case
	input := &authDomain.UpdateSubjectInput{
		Email:    req.Email,
		IsActive: req.IsActive,
		Roles:    req.Roles,
	}

	// Call use case
	subject, err := h.subjectUseCase.Update(c.Request.Context(), c.Param("subject"), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapSubjectToResponse(subject))
}

// DeactivateHandler soft-deletes a subject so it resolves as unknown, and
// drops the cached assignment.
// DELETE /api/v1/auth/subjects/:subject - Requires the admin role.
// Returns 204 No Content, or 404 when the subject does not exist.
func (h *SubjectAdminHandler) DeactivateHandler(c *gin.Context) {
	if err := h.subjectUseCase.Deactivate(c.Request.Context(), c.Param("subject")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return 204 No Content with empty body
	c.Data(http.StatusNoContent, "application/json", nil)
}
