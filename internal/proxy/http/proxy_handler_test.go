package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authHTTP "github.com/email-management-platform/backend/gateway/internal/auth/http"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
	proxyService "github.com/email-management-platform/backend/gateway/internal/proxy/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestLogger creates a test logger that discards output.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// identityInjector simulates the authentication middleware by storing an
// identity in the context.
func identityInjector(identity *authDomain.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := authHTTP.WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// upstreamCapture records what one upstream request looked like on arrival.
type upstreamCapture struct {
	hits          int
	path          string
	query         string
	host          string
	userID        string
	roles         string
	permissions   string
	authorization string
}

// newCapturingUpstream runs a test upstream that records the forwarded
// request and answers with the given status.
func newCapturingUpstream(t *testing.T, status int, body string) (*httptest.Server, *upstreamCapture) {
	t.Helper()

	capture := &upstreamCapture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture.hits++
		capture.path = r.URL.Path
		capture.query = r.URL.RawQuery
		capture.host = r.Host
		capture.userID = r.Header.Get(HeaderUserID)
		capture.roles = r.Header.Get(HeaderUserRoles)
		capture.permissions = r.Header.Get(HeaderUserPermissions)
		capture.authorization = r.Header.Get("Authorization")

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, capture
}

// newTestProxy builds an UpstreamProxy against the given upstream URL with a
// fresh breaker.
func newTestProxy(t *testing.T, rawURL string, stripAuthorization bool) (*UpstreamProxy, *proxyService.CircuitBreaker) {
	t.Helper()

	target, err := url.Parse(rawURL)
	require.NoError(t, err)

	breaker := proxyService.NewCircuitBreaker(proxyService.BreakerSettings{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	proxy := NewUpstreamProxy(
		proxyDomain.UpstreamEmailService,
		target,
		breaker,
		5*time.Second,
		stripAuthorization,
		createTestLogger(),
	)
	return proxy, breaker
}

// newProxyRouter registers the proxy handler on the emails prefix, optionally
// behind an injected identity.
func newProxyRouter(proxy *UpstreamProxy, identity *authDomain.Identity) *gin.Engine {
	router := gin.New()
	if identity != nil {
		router.Use(identityInjector(identity))
	}
	router.Any("/api/v1/emails", proxy.Handler())
	router.Any("/api/v1/emails/*path", proxy.Handler())
	return router
}

func TestUpstreamProxy_ForwardsWithIdentityHeaders(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusOK, "upstream-ok")
	proxy, _ := newTestProxy(t, upstream.URL, true)

	identity := &authDomain.Identity{
		Subject:     "user-1",
		Roles:       []string{"guest", "user"},
		Permissions: []string{"email:read", "email:send"},
	}
	router := newProxyRouter(proxy, identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/inbox?limit=5", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	router.ServeHTTP(w, req)

	// Assert: response passed through, identity attached, token stripped.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "upstream-ok", w.Body.String())
	assert.Equal(t, 1, capture.hits)
	assert.Equal(t, "/api/v1/emails/inbox", capture.path)
	assert.Equal(t, "limit=5", capture.query)
	assert.Equal(t, "user-1", capture.userID)
	assert.Equal(t, "guest,user", capture.roles)
	assert.Equal(t, "email:read,email:send", capture.permissions)
	assert.Empty(t, capture.authorization)
}

// TestUpstreamProxy_ScrubsInboundIdentityHeaders verifies clients cannot
// smuggle their own identity headers past the gateway.
func TestUpstreamProxy_ScrubsInboundIdentityHeaders(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusOK, "ok")
	proxy, _ := newTestProxy(t, upstream.URL, true)
	router := newProxyRouter(proxy, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil)
	req.Header.Set(HeaderUserID, "forged-admin")
	req.Header.Set(HeaderUserRoles, "admin")
	req.Header.Set(HeaderUserPermissions, "everything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, capture.userID)
	assert.Empty(t, capture.roles)
	assert.Empty(t, capture.permissions)
}

func TestUpstreamProxy_KeepsAuthorizationWhenConfigured(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusOK, "ok")
	proxy, _ := newTestProxy(t, upstream.URL, false)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer some-token", capture.authorization)
}

func TestUpstreamProxy_BreakerOpenRejectsWithoutUpstreamCall(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusOK, "ok")
	proxy, breaker := newTestProxy(t, upstream.URL, true)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	breaker.RecordFailure()
	breaker.RecordFailure()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil)
	router.ServeHTTP(w, req)

	// Assert: rejected before any upstream attempt, with backoff guidance.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, capture.hits)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "service_unavailable", response.Error)
}

func TestUpstreamProxy_TransportFailureReturns503(t *testing.T) {
	// Start and immediately stop an upstream to get a dead address.
	upstream, _ := newCapturingUpstream(t, http.StatusOK, "ok")
	deadURL := upstream.URL
	upstream.Close()

	proxy, _ := newTestProxy(t, deadURL, true)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "service_unavailable", response.Error)
}

func TestUpstreamProxy_TransportFailuresTripBreaker(t *testing.T) {
	upstream, _ := newCapturingUpstream(t, http.StatusOK, "ok")
	deadURL := upstream.URL
	upstream.Close()

	proxy, breaker := newTestProxy(t, deadURL, true)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	// Threshold is two; two transport failures open the breaker.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	}

	_, err := breaker.Allow()
	assert.ErrorIs(t, err, proxyDomain.ErrBreakerOpen)
}

func TestUpstreamProxy_ServerErrorsPassThroughAndTripBreaker(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusBadGateway, "upstream exploded")
	proxy, breaker := newTestProxy(t, upstream.URL, true)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil))

		// The upstream's own error reaches the client unchanged.
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "upstream exploded", w.Body.String())
	}

	assert.Equal(t, 2, capture.hits)
	_, err := breaker.Allow()
	assert.ErrorIs(t, err, proxyDomain.ErrBreakerOpen)
}

func TestUpstreamProxy_ClientErrorsDoNotTripBreaker(t *testing.T) {
	upstream, capture := newCapturingUpstream(t, http.StatusNotFound, "no such mailbox")
	proxy, breaker := newTestProxy(t, upstream.URL, true)
	router := newProxyRouter(proxy, &authDomain.Identity{Subject: "user-1"})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, 5, capture.hits)
	_, err := breaker.Allow()
	assert.NoError(t, err)
}

func TestBuildUpstreamProxies(t *testing.T) {
	registry := proxyService.NewBreakerRegistry(proxyService.BreakerSettings{})

	t.Run("Success_AllUpstreams", func(t *testing.T) {
		cfg := &config.Config{
			UpstreamEmailServiceURL:      "http://email-service:8080",
			UpstreamContextEngineURL:     "http://context-engine:8000",
			UpstreamResponseGeneratorURL: "http://response-generator:8000",
			UpstreamAnalyticsServiceURL:  "http://analytics-service:8080",
			ProxyTimeout:                 30 * time.Second,
			ProxyStripAuthorization:      true,
		}

		proxies, err := BuildUpstreamProxies(cfg, registry, createTestLogger())

		require.NoError(t, err)
		require.Len(t, proxies, 4)
		for _, name := range []string{
			proxyDomain.UpstreamEmailService,
			proxyDomain.UpstreamContextEngine,
			proxyDomain.UpstreamResponseGenerator,
			proxyDomain.UpstreamAnalyticsService,
		} {
			assert.Contains(t, proxies, name)
		}
	})

	t.Run("Error_RelativeUpstreamURL", func(t *testing.T) {
		cfg := &config.Config{
			UpstreamEmailServiceURL:      "email-service:8080",
			UpstreamContextEngineURL:     "http://context-engine:8000",
			UpstreamResponseGeneratorURL: "http://response-generator:8000",
			UpstreamAnalyticsServiceURL:  "http://analytics-service:8080",
		}

		proxies, err := BuildUpstreamProxies(cfg, registry, createTestLogger())

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Nil(t, proxies)
	})
}
