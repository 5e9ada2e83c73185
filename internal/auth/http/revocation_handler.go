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

// RevocationHandler handles HTTP requests for token revocation operations.
// It coordinates blacklisting and audit listing with the RevocationUseCase.
type RevocationHandler struct {
	revocationUseCase authUseCase.RevocationUseCase
	logger            *slog.Logger
}

// NewRevocationHandler creates a new revocation handler with required dependencies.
func NewRevocationHandler(
	revocationUseCase authUseCase.RevocationUseCase,
	logger *slog.Logger,
) *RevocationHandler {
	return &RevocationHandler{
		revocationUseCase: revocationUseCase,
		logger:            logger,
	}
}

// RevokeHandler blacklists a token and records an audit entry.
// POST /api/v1/auth/revocations - Requires the admin role.
// Returns 201 Created with the audit record. The response carries the token
// digest only; the submitted token is discarded after hashing.
func (h *RevocationHandler) RevokeHandler(c *gin.Context) {
	var req dto.RevokeTokenRequest

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
	input := &authDomain.RevokeTokenInput{
		Token:   req.Token,
		Subject: req.Subject,
		Reason:  req.Reason,
	}

	// Call use case
	revocation, err := h.revocationUseCase.Revoke(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusCreated, dto.MapRevocationToResponse(revocation))
}

// ListHandler retrieves revocation audit records with pagination support.
// GET /api/v1/auth/revocations?offset=0&limit=50 - Requires the admin role.
// Returns 200 OK ordered by revoked_at descending (newest first).
func (h *RevocationHandler) ListHandler(c *gin.Context) {
	// Parse offset and limit query parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Call use case
	revocations, err := h.revocationUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapRevocationsToListResponse(revocations))
}
