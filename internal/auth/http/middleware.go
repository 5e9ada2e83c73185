// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer token in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Validates the token using authUseCase.Authenticate() (cache → blacklist → signature)
// 3. Stores the authenticated identity in the request context
// 4. Allows downstream handlers to access the identity via GetIdentity()
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired/revoked token → 401 Unauthorized (from AuthUseCase.Authenticate)
//   - Other errors → 500 Internal Server Error
//
// Security Notes:
//   - The raw token is handed to the use case and nothing else; log lines and
//     error responses never include the header value.
//
// Usage:
//
//	router.Use(AuthenticationMiddleware(authUseCase, logger))
//	router.GET("/protected", func(c *gin.Context) {
//	    identity, ok := GetIdentity(c.Request.Context())
//	    if !ok {
//	        // Should never happen if middleware is working correctly
//	        c.JSON(401, gin.H{"error": "unauthorized"})
//	        return
//	    }
//	    // Use identity for authorization checks
//	})
func AuthenticationMiddleware(
	authUseCase authUseCase.AuthUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		rawToken := authHeader[len(bearerPrefix):]
		if rawToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Authenticate the raw token (shape check, blacklist, cache, signature)
		identity, err := authUseCase.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Store authenticated identity in context
		ctx := WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("subject", identity.Subject))

		// Continue to next handler
		c.Next()
	}
}

// AuthorizationMiddleware provides role-based authorization for authenticated identities.
//
// This middleware MUST be used after AuthenticationMiddleware, as it requires an
// authenticated identity to be present in the request context. It checks whether the
// identity's resolved role closure contains at least one of the required roles.
//
// Because the hierarchy closure is already expanded at authentication time, a route
// requiring "user" also admits subjects assigned "manager" or "admin".
//
// Error handling:
//   - No identity in context → 401 Unauthorized (AuthenticationMiddleware not run)
//   - No required role present → 403 Forbidden
//   - Empty requiredRoles → any authenticated identity passes
//
// The identity stays attached to the request context on rejection, so access
// logging downstream still carries the subject.
//
// Usage:
//
//	// Admin-only surface
//	router.POST("/api/v1/auth/revocations",
//	    AuthenticationMiddleware(authUseCase, logger),
//	    AuthorizationMiddleware([]string{"admin"}, logger),
//	    handler)
func AuthorizationMiddleware(
	requiredRoles []string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve authenticated identity from context
		identity, ok := GetIdentity(c.Request.Context())
		if !ok || identity == nil {
			logger.Debug("authorization failed: no authenticated identity in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Check the role closure against the route requirement
		if !identity.HasAnyRole(requiredRoles...) {
			logger.Debug("authorization failed: insufficient role",
				slog.String("subject", identity.Subject),
				slog.Any("required_roles", requiredRoles))
			httputil.HandleErrorGin(c, authDomain.ErrInsufficientRole, logger)
			c.Abort()
			return
		}

		logger.Debug("authorization successful",
			slog.String("subject", identity.Subject),
			slog.String("path", c.Request.URL.Path))

		// Continue to next handler
		c.Next()
	}
}
