// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authService "github.com/email-management-platform/backend/gateway/internal/auth/service"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
	"github.com/email-management-platform/backend/gateway/internal/config"
	"github.com/email-management-platform/backend/gateway/internal/database"
	"github.com/email-management-platform/backend/gateway/internal/http"
	"github.com/email-management-platform/backend/gateway/internal/metrics"
	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
	proxyHTTP "github.com/email-management-platform/backend/gateway/internal/proxy/http"
	proxyService "github.com/email-management-platform/backend/gateway/internal/proxy/service"
	"github.com/email-management-platform/backend/gateway/internal/redis"
	ratelimitUseCase "github.com/email-management-platform/backend/gateway/internal/ratelimit/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	redisClient     *goredis.Client
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Auth context
	tokenDigester     authService.TokenDigester
	keySetProvider    authService.KeySetProvider
	tokenValidator    authService.TokenValidator
	roleHierarchy     *authDomain.RoleHierarchy
	tokenCache        authUseCase.TokenCache
	revocationStore   authUseCase.RevocationStore
	roleCache         authUseCase.RoleCache
	subjectDirectory  authUseCase.SubjectDirectory
	subjectStore      authUseCase.SubjectStore
	revocationRepo    authUseCase.RevocationRepository
	authUseCase       authUseCase.AuthUseCase
	roleUseCase       authUseCase.RoleUseCase
	revocationUseCase authUseCase.RevocationUseCase
	subjectUseCase    authUseCase.SubjectUseCase

	// Rate limiting context
	counterStore     ratelimitUseCase.CounterStore
	rateLimitUseCase ratelimitUseCase.RateLimitUseCase

	// Proxy context
	breakerRegistry *proxyService.BreakerRegistry
	routeTable      *proxyDomain.RouteTable
	upstreamProxies map[string]*proxyHTTP.UpstreamProxy

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	redisInit             sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	tokenDigesterInit     sync.Once
	keySetProviderInit    sync.Once
	tokenValidatorInit    sync.Once
	roleHierarchyInit     sync.Once
	tokenCacheInit        sync.Once
	revocationStoreInit   sync.Once
	roleCacheInit         sync.Once
	subjectDirectoryInit  sync.Once
	subjectStoreInit      sync.Once
	revocationRepoInit    sync.Once
	authUseCaseInit       sync.Once
	roleUseCaseInit       sync.Once
	revocationUseCaseInit sync.Once
	subjectUseCaseInit    sync.Once
	counterStoreInit      sync.Once
	rateLimitUseCaseInit  sync.Once
	breakerRegistryInit   sync.Once
	routeTableInit        sync.Once
	upstreamProxiesInit   sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the subject database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager bound to the subject database.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Redis returns the shared Redis client. It is only available when
// RedisEnabled is set; single-instance deployments run on in-memory stores.
func (c *Container) Redis() (*goredis.Client, error) {
	var err error
	c.redisInit.Do(func() {
		c.redisClient, err = c.initRedis()
		if err != nil {
			c.initErrors["redis"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redis"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// MetricsProvider returns the Prometheus metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder used by the use case
// decorators. A no-op recorder is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with the full router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Stop the janitor goroutines of in-memory stores if any were created
	for _, store := range []any{c.tokenCache, c.revocationStore, c.roleCache, c.counterStore} {
		if closer, ok := store.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	// Flush metrics if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close Redis connection if initialized
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager over the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for transaction manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initRedis creates the shared Redis client.
func (c *Container) initRedis() (*goredis.Client, error) {
	if !c.config.RedisEnabled {
		return nil, fmt.Errorf("redis is not enabled")
	}

	client, err := redis.Connect(context.Background(), redis.Config{
		URL: c.config.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer assembles the main server: every use case, the route table,
// and the upstream proxies behind one router.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	var redisClient *goredis.Client
	if c.config.RedisEnabled {
		redisClient, err = c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for http server: %w", err)
		}
	}

	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}
	roleUC, err := c.RoleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get role use case for http server: %w", err)
	}
	revocationUC, err := c.RevocationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation use case for http server: %w", err)
	}
	rateLimitUC, err := c.RateLimitUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit use case for http server: %w", err)
	}
	routes, err := c.RouteTable()
	if err != nil {
		return nil, fmt.Errorf("failed to get route table for http server: %w", err)
	}
	proxies, err := c.UpstreamProxies()
	if err != nil {
		return nil, fmt.Errorf("failed to get upstream proxies for http server: %w", err)
	}

	deps := http.RouterDeps{
		Config:            c.config,
		AuthUseCase:       authUC,
		RoleUseCase:       roleUC,
		RevocationUseCase: revocationUC,
		RateLimitUseCase:  rateLimitUC,
		Routes:            routes,
		UpstreamProxies:   proxies,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	// Subject administration only exists when the gateway owns the identity
	// data; remote identity backends manage subjects on their own side.
	if c.config.IdentityBackend == "sql" {
		subjectUC, err := c.SubjectUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get subject use case for http server: %w", err)
		}
		deps.SubjectUseCase = subjectUC
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		deps.HTTPMetrics = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	if err := server.SetupRouter(deps); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}
	return server, nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, fmt.Errorf("metrics are not enabled")
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
