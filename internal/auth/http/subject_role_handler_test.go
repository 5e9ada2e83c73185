// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/auth/http/dto"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
)

// newSubjectRoleRouter wires the handler under test into a fresh router.
func newSubjectRoleRouter(mockRoleUC *mockRoleUseCase) *gin.Engine {
	handler := NewSubjectRoleHandler(mockRoleUC, createTestLogger())
	router := gin.New()
	router.GET("/api/v1/auth/subjects/:subject/roles", handler.GetHandler)
	router.DELETE("/api/v1/auth/subjects/:subject/roles", handler.InvalidateHandler)
	return router
}

func TestSubjectRoleHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Setup mocks
		mockRoleUC := &mockRoleUseCase{}
		mockRoleUC.On("Resolve", mock.Anything, "user-1").
			Return([]string{"guest", "manager", "user"}, nil).Once()

		router := newSubjectRoleRouter(mockRoleUC)

		// Make request
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/subjects/user-1/roles", nil)
		router.ServeHTTP(w, req)

		// Assertions
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SubjectRolesResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "user-1", response.Subject)
		assert.Equal(t, []string{"guest", "manager", "user"}, response.Roles)

		mockRoleUC.AssertExpectations(t)
	})

	t.Run("Error_SubjectNotFound", func(t *testing.T) {
		// Setup mocks
		mockRoleUC := &mockRoleUseCase{}
		mockRoleUC.On("Resolve", mock.Anything, "ghost").
			Return(nil, authDomain.ErrSubjectNotFound).Once()

		router := newSubjectRoleRouter(mockRoleUC)

		// Make request
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/subjects/ghost/roles", nil)
		router.ServeHTTP(w, req)

		// Assertions
		assert.Equal(t, http.StatusNotFound, w.Code)

		var response httputil.ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "not_found", response.Error)

		mockRoleUC.AssertExpectations(t)
	})

	t.Run("Error_DirectoryFailure", func(t *testing.T) {
		// Setup mocks
		mockRoleUC := &mockRoleUseCase{}
		mockRoleUC.On("Resolve", mock.Anything, "user-1").Return(nil, assert.AnError).Once()

		router := newSubjectRoleRouter(mockRoleUC)

		// Make request
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/subjects/user-1/roles", nil)
		router.ServeHTTP(w, req)

		// Assertions
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockRoleUC.AssertExpectations(t)
	})
}

func TestSubjectRoleHandler_InvalidateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Setup mocks
		mockRoleUC := &mockRoleUseCase{}
		mockRoleUC.On("Invalidate", mock.Anything, "user-1").Return(nil).Once()

		router := newSubjectRoleRouter(mockRoleUC)

		// Make request
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/subjects/user-1/roles", nil)
		router.ServeHTTP(w, req)

		// Assertions
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		mockRoleUC.AssertExpectations(t)
	})

	t.Run("Error_CacheFailure", func(t *testing.T) {
		// Setup mocks
		mockRoleUC := &mockRoleUseCase{}
		mockRoleUC.On("Invalidate", mock.Anything, "user-1").Return(assert.AnError).Once()

		router := newSubjectRoleRouter(mockRoleUC)

		// Make request
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/subjects/user-1/roles", nil)
		router.ServeHTTP(w, req)

		// Assertions
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockRoleUC.AssertExpectations(t)
	})
}
