package app

import (
	"fmt"

	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
	proxyHTTP "github.com/email-management-platform/backend/gateway/internal/proxy/http"
	proxyService "github.com/email-management-platform/backend/gateway/internal/proxy/service"
)

// BreakerRegistry returns the per-upstream circuit breaker registry.
func (c *Container) BreakerRegistry() *proxyService.BreakerRegistry {
	c.breakerRegistryInit.Do(func() {
		c.breakerRegistry = proxyService.NewBreakerRegistry(proxyService.BreakerSettings{
			FailureThreshold: c.config.BreakerFailureThreshold,
			Cooldown:         c.config.BreakerCooldown,
			MaxCooldown:      c.config.BreakerMaxCooldown,
		})
	})
	return c.breakerRegistry
}

// RouteTable returns the gateway's route table.
func (c *Container) RouteTable() (*proxyDomain.RouteTable, error) {
	var err error
	c.routeTableInit.Do(func() {
		c.routeTable, err = proxyDomain.NewRouteTable(proxyDomain.DefaultRoutes())
		if err != nil {
			c.initErrors["routeTable"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["routeTable"]; exists {
		return nil, storedErr
	}
	return c.routeTable, nil
}

// UpstreamProxies returns the reverse proxies keyed by upstream name.
func (c *Container) UpstreamProxies() (map[string]*proxyHTTP.UpstreamProxy, error) {
	var err error
	c.upstreamProxiesInit.Do(func() {
		c.upstreamProxies, err = c.initUpstreamProxies()
		if err != nil {
			c.initErrors["upstreamProxies"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["upstreamProxies"]; exists {
		return nil, storedErr
	}
	return c.upstreamProxies, nil
}

// initUpstreamProxies builds a reverse proxy for every configured upstream.
func (c *Container) initUpstreamProxies() (map[string]*proxyHTTP.UpstreamProxy, error) {
	proxies, err := proxyHTTP.BuildUpstreamProxies(c.config, c.BreakerRegistry(), c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream proxies: %w", err)
	}
	return proxies, nil
}
