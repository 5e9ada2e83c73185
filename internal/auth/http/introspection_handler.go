// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/email-management-platform/backend/gateway/internal/auth/http/dto"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	customValidation "github.com/email-management-platform/backend/gateway/internal/validation"
)

// IntrospectionHandler handles HTTP requests for token introspection.
// It coordinates token state reporting with the AuthUseCase.
type IntrospectionHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewIntrospectionHandler creates a new introspection handler with required dependencies.
func NewIntrospectionHandler(
	authUseCase authUseCase.AuthUseCase,
	logger *slog.Logger,
) *IntrospectionHandler {
	return &IntrospectionHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// IntrospectHandler reports the state of a submitted token.
// POST /api/v1/auth/introspect - Requires the admin role.
// Returns 200 OK with the identity view. Malformed, expired, or revoked tokens
// report active=false with a reason rather than an error status; only internal
// failures (for example an unreachable blacklist store) produce an error.
func (h *IntrospectionHandler) IntrospectHandler(c *gin.Context) {
	var req dto.IntrospectTokenRequest

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

	// Call use case
	introspection, err := h.authUseCase.Introspect(c.Request.Context(), req.Token)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapIntrospectionToResponse(introspection))
}
