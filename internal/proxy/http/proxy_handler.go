// Package http provides the reverse-proxy handlers that forward gateway
// traffic to upstream services with identity attached.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	stdhttputil "net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/email-management-platform/backend/gateway/internal/auth/http"
	"github.com/email-management-platform/backend/gateway/internal/config"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
	"github.com/email-management-platform/backend/gateway/internal/httputil"
	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
	proxyService "github.com/email-management-platform/backend/gateway/internal/proxy/service"
)

// Identity headers attached to every forwarded request. Upstream services
// trust these instead of re-validating the bearer token.
const (
	HeaderUserID          = "X-User-Id"
	HeaderUserRoles       = "X-User-Roles"
	HeaderUserPermissions = "X-User-Permissions"
	HeaderCorrelationID   = "X-Correlation-Id"
)

// UpstreamProxy forwards requests for one upstream service through its
// circuit breaker, attaching the authenticated identity as headers.
type UpstreamProxy struct {
	name               string
	target             *url.URL
	breaker            *proxyService.CircuitBreaker
	timeout            time.Duration
	stripAuthorization bool
	logger             *slog.Logger
	proxy              *stdhttputil.ReverseProxy
}

// NewUpstreamProxy creates a reverse proxy for the named upstream. timeout
// bounds each forwarded call; stripAuthorization removes the inbound
// Authorization header so upstreams rely on the identity headers alone.
func NewUpstreamProxy(
	name string,
	target *url.URL,
	breaker *proxyService.CircuitBreaker,
	timeout time.Duration,
	stripAuthorization bool,
	logger *slog.Logger,
) *UpstreamProxy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	p := &UpstreamProxy{
		name:               name,
		target:             target,
		breaker:            breaker,
		timeout:            timeout,
		stripAuthorization: stripAuthorization,
		logger:             logger,
	}

	p.proxy = &stdhttputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleProxyError,
	}

	return p
}

// Handler returns the terminal gin handler forwarding to the upstream.
//
// Returns:
//   - 503 Service Unavailable: circuit breaker open (includes Retry-After
//     header) or upstream transport failure
//   - Upstream response: everything else passes through unchanged,
//     including upstream error statuses
func (p *UpstreamProxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		probe, err := p.breaker.Allow()
		if err != nil {
			if wait := p.breaker.RetryAfter(); wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			httputil.HandleErrorGin(c, err, p.logger)
			c.Abort()
			return
		}
		if probe {
			p.logger.Info("admitting circuit breaker probe", slog.String("upstream", p.name))
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), p.timeout)
		defer cancel()

		p.proxy.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	}
}

// rewrite shapes the outbound request: upstream target, forwarding headers,
// and the authenticated identity. Inbound identity headers are always
// dropped first so clients cannot smuggle their own.
func (p *UpstreamProxy) rewrite(r *stdhttputil.ProxyRequest) {
	r.SetURL(p.target)
	r.SetXForwarded()
	r.Out.Host = p.target.Host

	r.Out.Header.Del(HeaderUserID)
	r.Out.Header.Del(HeaderUserRoles)
	r.Out.Header.Del(HeaderUserPermissions)

	if identity, ok := authHTTP.GetIdentity(r.In.Context()); ok && identity != nil {
		r.Out.Header.Set(HeaderUserID, identity.Subject)
		r.Out.Header.Set(HeaderUserRoles, strings.Join(identity.Roles, ","))
		r.Out.Header.Set(HeaderUserPermissions, strings.Join(identity.Permissions, ","))
	}

	if p.stripAuthorization {
		r.Out.Header.Del("Authorization")
	}
}

// modifyResponse feeds the upstream status into the circuit breaker. Server
// errors count as failures; everything else, including client errors, counts
// as a healthy upstream. The response itself passes through unchanged.
func (p *UpstreamProxy) modifyResponse(resp *http.Response) error {
	if resp.StatusCode >= http.StatusInternalServerError {
		p.breaker.RecordFailure()
	} else {
		p.breaker.RecordSuccess()
	}
	return nil
}

// handleProxyError turns transport failures into a JSON 503 and records the
// failure. A canceled inbound request says nothing about upstream health and
// records nothing.
func (p *UpstreamProxy) handleProxyError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.Is(err, context.Canceled) {
		return
	}

	p.breaker.RecordFailure()
	p.logger.Error("upstream request failed",
		slog.String("upstream", p.name),
		slog.String("correlation_id", r.Header.Get(HeaderCorrelationID)),
		slog.Any("error", err),
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(httputil.ErrorResponse{
		Error:   "service_unavailable",
		Message: "The service is temporarily unavailable. Retry later.",
	})
}

// BuildUpstreamProxies creates one UpstreamProxy per configured upstream,
// each guarded by its own breaker from the registry.
func BuildUpstreamProxies(
	cfg *config.Config,
	registry *proxyService.BreakerRegistry,
	logger *slog.Logger,
) (map[string]*UpstreamProxy, error) {
	targets := map[string]string{
		proxyDomain.UpstreamEmailService:      cfg.UpstreamEmailServiceURL,
		proxyDomain.UpstreamContextEngine:     cfg.UpstreamContextEngineURL,
		proxyDomain.UpstreamResponseGenerator: cfg.UpstreamResponseGeneratorURL,
		proxyDomain.UpstreamAnalyticsService:  cfg.UpstreamAnalyticsServiceURL,
	}

	proxies := make(map[string]*UpstreamProxy, len(targets))
	for name, rawURL := range targets {
		target, err := url.Parse(rawURL)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "upstream %s url %q: %v", name, rawURL, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "upstream %s url %q must be absolute", name, rawURL)
		}

		proxies[name] = NewUpstreamProxy(
			name,
			target,
			registry.For(name),
			cfg.ProxyTimeout,
			cfg.ProxyStripAuthorization,
			logger,
		)
	}

	return proxies, nil
}
