// Package domain defines the proxying domain models: the static route table
// mapping path prefixes to upstream services, and the upstream failure
// errors.
package domain

import (
	"strings"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	"github.com/email-management-platform/backend/gateway/internal/errors"
	ratelimitDomain "github.com/email-management-platform/backend/gateway/internal/ratelimit/domain"
)

// Upstream service names. Each name keys a base URL in configuration and a
// circuit breaker at runtime.
const (
	UpstreamEmailService      = "email-service"
	UpstreamContextEngine     = "context-engine"
	UpstreamResponseGenerator = "response-generator"
	UpstreamAnalyticsService  = "analytics-service"
)

// Route maps one path prefix to an upstream service, with the rate limit
// category and role requirement enforced in front of it. A route either
// requires roles or allows anonymous access, never both.
type Route struct {
	Name           string
	Prefix         string
	Upstream       string
	Category       ratelimitDomain.Category
	RequiredRoles  []string
	AllowAnonymous bool
}

// RouteTable is the validated set of proxied routes, built once at startup.
type RouteTable struct {
	routes []Route
}

// NewRouteTable validates the routes and returns the table. Routes with a
// missing name, a malformed or duplicate prefix, an unknown category, or a
// role requirement on an anonymous route are rejected so misconfiguration
// surfaces at startup instead of as misrouted traffic.
func NewRouteTable(routes []Route) (*RouteTable, error) {
	seen := make(map[string]string, len(routes))

	for _, route := range routes {
		if route.Name == "" {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "route with prefix %q has no name", route.Prefix)
		}
		if route.Upstream == "" {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "route %q has no upstream", route.Name)
		}
		if !strings.HasPrefix(route.Prefix, "/") || strings.HasSuffix(route.Prefix, "/") {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "route %q prefix %q must start with / and not end with /", route.Name, route.Prefix)
		}
		if _, err := ratelimitDomain.ParseCategory(route.Category.String()); err != nil {
			return nil, errors.Wrapf(err, "route %q", route.Name)
		}
		if route.AllowAnonymous && len(route.RequiredRoles) > 0 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "route %q cannot both allow anonymous access and require roles", route.Name)
		}
		if existing, ok := seen[route.Prefix]; ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "routes %q and %q share prefix %q", existing, route.Name, route.Prefix)
		}
		seen[route.Prefix] = route.Name
	}

	return &RouteTable{routes: append([]Route(nil), routes...)}, nil
}

// Routes returns the table's routes in declaration order. The slice is a
// copy; mutating it does not affect the table.
func (t *RouteTable) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// DefaultRoutes returns the built-in route table: the product's service
// prefixes with their traffic categories and minimum roles.
func DefaultRoutes() []Route {
	return []Route{
		{
			Name:          "emails",
			Prefix:        "/api/v1/emails",
			Upstream:      UpstreamEmailService,
			Category:      ratelimitDomain.CategoryEmailOperations,
			RequiredRoles: []string{authDomain.RoleUser},
		},
		{
			Name:          "threads",
			Prefix:        "/api/v1/threads",
			Upstream:      UpstreamEmailService,
			Category:      ratelimitDomain.CategoryEmailOperations,
			RequiredRoles: []string{authDomain.RoleUser},
		},
		{
			Name:          "context",
			Prefix:        "/api/v1/context",
			Upstream:      UpstreamContextEngine,
			Category:      ratelimitDomain.CategoryContextQueries,
			RequiredRoles: []string{authDomain.RoleUser},
		},
		{
			Name:          "responses",
			Prefix:        "/api/v1/responses",
			Upstream:      UpstreamResponseGenerator,
			Category:      ratelimitDomain.CategoryResponseManagement,
			RequiredRoles: []string{authDomain.RoleUser},
		},
		{
			Name:          "analytics",
			Prefix:        "/api/v1/analytics",
			Upstream:      UpstreamAnalyticsService,
			Category:      ratelimitDomain.CategoryAnalytics,
			RequiredRoles: []string{authDomain.RoleManager},
		},
	}
}
