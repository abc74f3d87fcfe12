// Package api defines the public endpoints of the identlab gateway.
package api

// API version
const Version = "0.1.0"

// API endpoints
const (
	EndpointHealth = "/health"
	EndpointSafe   = "/safe"
	EndpointVuln   = "/vuln"
	EndpointVulnPG = "/vuln-pg"
)

// Query parameters
const (
	ParamName = "name"
	ParamCol  = "col"
)

// HTTP headers
const (
	HeaderContentType = "Content-Type"
	HeaderQueryID     = "X-Query-ID"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)

// Endpoints lists every route in a stable order.
func Endpoints() []string {
	return []string{EndpointHealth, EndpointSafe, EndpointVuln, EndpointVulnPG}
}
