// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// TestAdminRateLimitMiddleware_AllowsWithinBurst tests that requests inside the burst pass.
func TestAdminRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	logger := createTestLogger()

	// Create test router with middleware (low refill, burst of 2)
	router := gin.New()
	router.Use(identityInjector(testIdentity()))
	router.Use(AdminRateLimitMiddleware(0.1, 2, logger))
	router.POST("/api/v1/auth/introspect", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// First two requests consume the burst
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
	}

	// Third request exceeds the burst
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "rate_limit_exceeded", response["error"])
}

// TestAdminRateLimitMiddleware_IndependentPerSubject tests that each subject gets its own bucket.
func TestAdminRateLimitMiddleware_IndependentPerSubject(t *testing.T) {
	logger := createTestLogger()

	// Two routers sharing one limiter, keyed by different subjects
	limiter := AdminRateLimitMiddleware(0.1, 1, logger)

	makeRouter := func(subject string) *gin.Engine {
		router := gin.New()
		router.Use(identityInjector(&authDomain.Identity{Subject: subject, Roles: []string{"admin"}}))
		router.Use(limiter)
		router.POST("/api/v1/auth/introspect", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})
		return router
	}

	routerAlice := makeRouter("alice")
	routerBob := makeRouter("bob")

	// Alice exhausts her bucket
	w := httptest.NewRecorder()
	routerAlice.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	routerAlice.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Bob's bucket is untouched
	w = httptest.NewRecorder()
	routerBob.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestAdminRateLimitMiddleware_FallsBackToClientIP tests keying by IP when no identity is present.
func TestAdminRateLimitMiddleware_FallsBackToClientIP(t *testing.T) {
	logger := createTestLogger()

	// Create test router without authentication
	router := gin.New()
	router.Use(AdminRateLimitMiddleware(0.1, 1, logger))
	router.POST("/api/v1/auth/introspect", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// First request from the IP is allowed
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Second request from the same IP exceeds the burst
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/introspect", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
