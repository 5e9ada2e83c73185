package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
)

// RunListRoutes prints the effective route table: every proxied prefix with
// its upstream, rate limit category, and role requirement. Useful for
// verifying what a deployment actually exposes.
func RunListRoutes(table *proxyDomain.RouteTable, writer io.Writer, format string) error {
	routes := table.Routes()

	if format == "json" {
		outputRoutesJSON(routes, writer)
	} else {
		outputRoutesText(routes, writer)
	}

	return nil
}

// outputRoutesText outputs the routes in human-readable text format.
func outputRoutesText(routes []proxyDomain.Route, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Configured routes: %d\n\n", len(routes))
	for _, route := range routes {
		_, _ = fmt.Fprintf(writer, "%s\n", route.Name)
		_, _ = fmt.Fprintf(writer, "  Prefix: %s\n", route.Prefix)
		_, _ = fmt.Fprintf(writer, "  Upstream: %s\n", route.Upstream)
		_, _ = fmt.Fprintf(writer, "  Category: %s\n", route.Category.String())
		if route.AllowAnonymous {
			_, _ = fmt.Fprintln(writer, "  Access: anonymous")
		} else {
			_, _ = fmt.Fprintf(writer, "  Required roles: %s\n", strings.Join(route.RequiredRoles, ", "))
		}
	}
}

// outputRoutesJSON outputs the routes in JSON format for machine consumption.
func outputRoutesJSON(routes []proxyDomain.Route, writer io.Writer) {
	items := make([]map[string]interface{}, 0, len(routes))
	for _, route := range routes {
		items = append(items, map[string]interface{}{
			"name":            route.Name,
			"prefix":          route.Prefix,
			"upstream":        route.Upstream,
			"category":        route.Category.String(),
			"required_roles":  route.RequiredRoles,
			"allow_anonymous": route.AllowAnonymous,
		})
	}

	result := map[string]interface{}{
		"count": len(routes),
		"data":  items,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
