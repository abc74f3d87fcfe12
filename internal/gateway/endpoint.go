package gateway

import (
	"github.com/canonica-labs/identlab/internal/identifier"
	"github.com/canonica-labs/identlab/internal/storage"
	"github.com/canonica-labs/identlab/pkg/api"
)

// Endpoint is the fixed definition of one query route. Nothing in it comes
// from a request.
type Endpoint struct {
	// Path is the route, e.g. "/vuln".
	Path string

	// Table is the table projected from. It is also the adapter role.
	Table string

	// Quote wraps the identifier fragment.
	Quote identifier.Quote

	// Safe selects allow-list validation instead of escaping.
	Safe bool
}

// Kind returns "safe" or "vuln".
func (e Endpoint) Kind() string {
	if e.Safe {
		return "safe"
	}
	return "vuln"
}

// Endpoints returns the query routes.
func Endpoints() []Endpoint {
	return []Endpoint{
		{Path: api.EndpointSafe, Table: storage.TableFruit, Quote: identifier.Backtick, Safe: true},
		{Path: api.EndpointVuln, Table: storage.TableFruit, Quote: identifier.Backtick},
		{Path: api.EndpointVulnPG, Table: storage.TableUsers, Quote: identifier.DoubleQuote},
	}
}
