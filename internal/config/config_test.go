package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5, cfg.DBMaxIdleConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.False(t, cfg.RedisEnabled)
				assert.Equal(t, 60*time.Minute, cfg.JWKSCacheTTL)
				assert.Equal(t, 30*time.Second, cfg.TokenClockSkew)
				assert.Equal(t, 3*time.Second, cfg.TokenValidationTimeout)
				assert.Equal(t, 5*time.Minute, cfg.TokenCacheTTL)
				assert.Equal(t, 10000, cfg.TokenCacheMaxEntries)
				assert.Equal(t, "http", cfg.IdentityBackend)
				assert.Equal(t, 5*time.Minute, cfg.RoleCacheTTL)
				assert.Equal(t, "admin:manager,manager:user,user:guest", cfg.RoleHierarchy)
				assert.Equal(t, 24*time.Hour, cfg.RevocationTTL)
				assert.True(t, cfg.RateLimitEnabled)
				assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
				assert.Equal(t, 100, cfg.RateLimitEmailOperations)
				assert.Equal(t, 200, cfg.RateLimitContextQueries)
				assert.Equal(t, 50, cfg.RateLimitResponseManagement)
				assert.Equal(t, 20, cfg.RateLimitAnalytics)
				assert.Equal(t, 5, cfg.BreakerFailureThreshold)
				assert.Equal(t, 30*time.Second, cfg.BreakerCooldown)
				assert.Equal(t, 300*time.Second, cfg.BreakerMaxCooldown)
				assert.Equal(t, 30*time.Second, cfg.ProxyTimeout)
				assert.True(t, cfg.ProxyStripAuthorization)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "gateway", cfg.MetricsNamespace)
				assert.Equal(t, 8081, cfg.MetricsPort)
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST": "localhost",
				"SERVER_PORT": "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom token validation configuration",
			envVars: map[string]string{
				"JWT_ISSUER":                       "https://issuer.example.com/",
				"JWT_AUDIENCE":                     "https://api.example.com",
				"JWKS_URL":                         "https://issuer.example.com/.well-known/jwks.json",
				"JWKS_CACHE_TTL_MINUTES":           "30",
				"TOKEN_CLOCK_SKEW_SECONDS":         "10",
				"TOKEN_VALIDATION_TIMEOUT_SECONDS": "5",
				"TOKEN_DIGEST_SECRET":              "digest-secret",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://issuer.example.com/", cfg.JWTIssuer)
				assert.Equal(t, "https://api.example.com", cfg.JWTAudience)
				assert.Equal(t, "https://issuer.example.com/.well-known/jwks.json", cfg.JWKSURL)
				assert.Equal(t, 30*time.Minute, cfg.JWKSCacheTTL)
				assert.Equal(t, 10*time.Second, cfg.TokenClockSkew)
				assert.Equal(t, 5*time.Second, cfg.TokenValidationTimeout)
				assert.Equal(t, "digest-secret", cfg.TokenDigestSecret)
			},
		},
		{
			name: "load custom rate limit ceilings",
			envVars: map[string]string{
				"RATE_LIMIT_WINDOW_SECONDS":      "30",
				"RATE_LIMIT_EMAIL_OPERATIONS":    "10",
				"RATE_LIMIT_CONTEXT_QUERIES":     "20",
				"RATE_LIMIT_RESPONSE_MANAGEMENT": "5",
				"RATE_LIMIT_ANALYTICS":           "2",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
				assert.Equal(t, 10, cfg.RateLimitEmailOperations)
				assert.Equal(t, 20, cfg.RateLimitContextQueries)
				assert.Equal(t, 5, cfg.RateLimitResponseManagement)
				assert.Equal(t, 2, cfg.RateLimitAnalytics)
			},
		},
		{
			name: "load custom breaker configuration",
			envVars: map[string]string{
				"BREAKER_FAILURE_THRESHOLD":    "3",
				"BREAKER_COOLDOWN_SECONDS":     "10",
				"BREAKER_MAX_COOLDOWN_SECONDS": "60",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.BreakerFailureThreshold)
				assert.Equal(t, 10*time.Second, cfg.BreakerCooldown)
				assert.Equal(t, 60*time.Second, cfg.BreakerMaxCooldown)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			// Load configuration
			cfg := Load()

			// Validate
			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		want     string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, cfg.GetGinMode())
		})
	}
}
