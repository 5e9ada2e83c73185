// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/email-management-platform/backend/gateway/internal/auth/http/dto"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
)

// SubjectRoleHandler handles HTTP requests for inspecting and refreshing the
// role assignments the gateway resolved for a subject.
type SubjectRoleHandler struct {
	roleUseCase authUseCase.RoleUseCase
	logger      *slog.Logger
}

// NewSubjectRoleHandler creates a new subject role handler with required dependencies.
func NewSubjectRoleHandler(
	roleUseCase authUseCase.RoleUseCase,
	logger *slog.Logger,
) *SubjectRoleHandler {
	return &SubjectRoleHandler{
		roleUseCase: roleUseCase,
		logger:      logger,
	}
}

// GetHandler returns the subject's resolved role closure, directory assignment
// plus every hierarchy-implied role.
// GET /api/v1/auth/subjects/:subject/roles - Requires the admin role.
// Returns 200 OK, or 404 when the directory does not know the subject.
func (h *SubjectRoleHandler) GetHandler(c *gin.Context) {
	subject := c.Param("subject")

	// Call use case
	roles, err := h.roleUseCase.Resolve(c.Request.Context(), subject)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.SubjectRolesResponse{
		Subject: subject,
		Roles:   roles,
	})
}

// InvalidateHandler drops the cached role assignment for a subject so the next
// request refetches from the directory.
// DELETE /api/v1/auth/subjects/:subject/roles - Requires the admin role.
// Returns 204 No Content.
func (h *SubjectRoleHandler) InvalidateHandler(c *gin.Context) {
	subject := c.Param("subject")

	// Call use case
	if err := h.roleUseCase.Invalidate(c.Request.Context(), subject); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return 204 No Content with empty body
	c.Data(http.StatusNoContent, "application/json", nil)
}
