// Package http provides the gateway's HTTP server: the proxied product
// routes, the admin surface, and the health endpoints.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authHTTP "github.com/email-management-platform/backend/gateway/internal/auth/http"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
	proxyHTTP "github.com/email-management-platform/backend/gateway/internal/proxy/http"
	ratelimitHTTP "github.com/email-management-platform/backend/gateway/internal/ratelimit/http"
	ratelimitUseCase "github.com/email-management-platform/backend/gateway/internal/ratelimit/usecase"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	redis  goredis.UniversalClient
	logger *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterDeps carries everything SetupRouter wires into the main router.
type RouterDeps struct {
	Config            *config.Config
	Redis             goredis.UniversalClient
	AuthUseCase       authUseCase.AuthUseCase
	RoleUseCase       authUseCase.RoleUseCase
	RevocationUseCase authUseCase.RevocationUseCase
	RateLimitUseCase  ratelimitUseCase.RateLimitUseCase
	Routes            *proxyDomain.RouteTable
	UpstreamProxies   map[string]*proxyHTTP.UpstreamProxy

	// SubjectUseCase administers the local subject directory; nil (remote
	// identity backend) removes the subject administration routes.
	SubjectUseCase authUseCase.SubjectUseCase

	// HTTPMetrics is the optional request metrics middleware; nil disables it.
	HTTPMetrics gin.HandlerFunc
}

// SetupRouter builds the gin engine: base middleware, health endpoints, the
// admin surface, and one proxied entry per configured route.
//
// Every request carries a correlation id. An inbound X-Correlation-Id is
// reused so a caller can trace a request across services; otherwise a fresh
// UUIDv7 is generated. The id is echoed on the response and forwarded
// upstream.
func (s *Server) SetupRouter(deps RouterDeps) error {
	s.redis = deps.Redis

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(
		requestid.WithCustomHeaderStrKey(proxyHTTP.HeaderCorrelationID),
		requestid.WithGenerator(func() string {
			return uuid.Must(uuid.NewV7()).String()
		}),
	))
	router.Use(CustomLoggerMiddleware(s.logger))

	if deps.HTTPMetrics != nil {
		router.Use(deps.HTTPMetrics)
	}

	if corsMiddleware := createCORSMiddleware(
		deps.Config.CORSEnabled,
		deps.Config.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	s.registerAdminRoutes(router, deps)

	if err := s.registerProxyRoutes(router, deps); err != nil {
		return err
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		})
	})

	s.router = router
	s.server.Handler = router
	return nil
}

// registerAdminRoutes wires the token administration surface. Everything under
// /api/v1/auth requires an authenticated admin and shares the admin limiter.
func (s *Server) registerAdminRoutes(router *gin.Engine, deps RouterDeps) {
	introspectionHandler := authHTTP.NewIntrospectionHandler(deps.AuthUseCase, s.logger)
	revocationHandler := authHTTP.NewRevocationHandler(deps.RevocationUseCase, s.logger)
	subjectRoleHandler := authHTTP.NewSubjectRoleHandler(deps.RoleUseCase, s.logger)

	admin := router.Group("/api/v1/auth")
	admin.Use(authHTTP.AuthenticationMiddleware(deps.AuthUseCase, s.logger))
	admin.Use(authHTTP.AuthorizationMiddleware([]string{authDomain.RoleAdmin}, s.logger))
	if deps.Config.RateLimitAdminEnabled {
		admin.Use(authHTTP.AdminRateLimitMiddleware(
			deps.Config.RateLimitAdminRequestsPerSec,
			deps.Config.RateLimitAdminBurst,
			s.logger,
		))
	}

	admin.POST("/introspect", introspectionHandler.IntrospectHandler)
	admin.POST("/revocations", revocationHandler.RevokeHandler)
	admin.GET("/revocations", revocationHandler.ListHandler)
	admin.GET("/subjects/:subject/roles", subjectRoleHandler.GetHandler)
	admin.DELETE("/subjects/:subject/roles", subjectRoleHandler.InvalidateHandler)

	if deps.SubjectUseCase != nil {
		subjectAdminHandler := authHTTP.NewSubjectAdminHandler(deps.SubjectUseCase, s.logger)
		admin.POST("/subjects", subjectAdminHandler.CreateHandler)
		admin.GET("/subjects", subjectAdminHandler.ListHandler)
		admin.GET("/subjects/:subject", subjectAdminHandler.GetHandler)
		admin.PUT("/subjects/:subject", subjectAdminHandler.UpdateHandler)
		admin.DELETE("/subjects/:subject", subjectAdminHandler.DeactivateHandler)
	}
}

// registerProxyRoutes registers one middleware chain per route: authentication,
// role authorization, the category limiter, then the upstream proxy. Anonymous
// routes skip the first two; the limiter then keys on client IP.
func (s *Server) registerProxyRoutes(router *gin.Engine, deps RouterDeps) error {
	for _, route := range deps.Routes.Routes() {
		upstreamProxy, ok := deps.UpstreamProxies[route.Upstream]
		if !ok {
			return apperrors.Wrapf(
				apperrors.ErrInvalidInput,
				"route %s: no proxy configured for upstream %s", route.Name, route.Upstream,
			)
		}

		chain := make([]gin.HandlerFunc, 0, 4)
		if !route.AllowAnonymous {
			chain = append(chain, authHTTP.AuthenticationMiddleware(deps.AuthUseCase, s.logger))
			if len(route.RequiredRoles) > 0 {
				chain = append(chain, authHTTP.AuthorizationMiddleware(route.RequiredRoles, s.logger))
			}
		}
		if deps.Config.RateLimitEnabled {
			chain = append(chain, ratelimitHTTP.RateLimitMiddleware(deps.RateLimitUseCase, route.Category, s.logger))
		}
		chain = append(chain, upstreamProxy.Handler())

		router.Any(route.Prefix, chain...)
		router.Any(route.Prefix+"/*path", chain...)
	}
	return nil
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the gateway can serve traffic: the subject
// database must answer, and so must Redis when the shared stores use it.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness check failed: database ping", slog.Any("error", err))
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Error("readiness check failed: redis ping", slog.Any("error", err))
			components["redis"] = "error"
			ready = false
		} else {
			components["redis"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the configured router, or nil before SetupRouter runs.
// Used by tests that mount the server in an httptest.Server.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return apperrors.New("router is not configured, call SetupRouter first")
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
