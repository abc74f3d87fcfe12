// Package gateway implements the identlab HTTP surface.
//
// Every query endpoint runs the same pipeline: parse the raw query string,
// either validate the column against the allow-list (/safe) or escape it
// (/vuln, /vuln-pg), build the projection statement, execute it on a scoped
// connection and serialize the result.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/canonica-labs/identlab/internal/adapters"
	cerrors "github.com/canonica-labs/identlab/internal/errors"
	"github.com/canonica-labs/identlab/internal/identifier"
	"github.com/canonica-labs/identlab/internal/observability"
	"github.com/canonica-labs/identlab/internal/request"
	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/pkg/api"
	"github.com/canonica-labs/identlab/pkg/models"
)

// Config holds gateway configuration.
type Config struct {
	// Version is reported in the X-Identlab-Version header.
	Version string

	// Logger receives one entry per query request. Defaults to NoopLogger.
	Logger observability.QueryLogger
}

// Gateway is the HTTP handler for the lab.
type Gateway struct {
	routes   map[string]http.HandlerFunc
	registry *adapters.AdapterRegistry
	allow    identifier.AllowList
	logger   observability.QueryLogger
	config   Config
}

// NewGateway builds the static route table. Every endpoint's table must have
// an adapter registered under that role.
func NewGateway(registry *adapters.AdapterRegistry, config Config) (*Gateway, error) {
	if registry == nil || registry.IsEmpty() {
		return nil, fmt.Errorf("gateway: adapter registry is empty")
	}
	if config.Logger == nil {
		config.Logger = observability.NewNoopLogger()
	}

	g := &Gateway{
		routes:   make(map[string]http.HandlerFunc),
		registry: registry,
		allow:    identifier.FruitColumns(),
		logger:   config.Logger,
		config:   config,
	}

	g.routes[api.EndpointHealth] = g.handleHealth
	for _, ep := range Endpoints() {
		adapter, ok := registry.Get(ep.Table)
		if !ok {
			return nil, fmt.Errorf("gateway: no adapter registered for table %q (%s)", ep.Table, ep.Path)
		}
		g.routes[ep.Path] = g.handleQuery(ep, adapter)
	}

	return g, nil
}

// ServeHTTP dispatches on the exact path. Unknown paths are 404 whatever the
// method; known paths accept GET only.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler, ok := g.routes[r.URL.Path]
	if !ok {
		writeNotFound(w)
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if g.config.Version != "" {
		w.Header().Set("X-Identlab-Version", g.config.Version)
	}
	handler(w, r)
}

// AuditSummary returns the logger's aggregate view.
func (g *Gateway) AuditSummary() *observability.AuditSummary {
	return g.logger.GetAuditSummary()
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := g.registry.FirstUnhealthy(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.HealthResponse{OK: false, Error: cerrors.PublicMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{OK: true})
}

func (g *Gateway) handleQuery(ep Endpoint, adapter adapters.Adapter) http.HandlerFunc {
	builder := labsql.NewBuilder(adapter.Dialect())

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		tr := newTrace()
		entry := observability.QueryLogEntry{
			QueryID:  uuid.NewString(),
			Endpoint: ep.Path,
			Path:     ep.Kind(),
		}
		w.Header().Set(api.HeaderQueryID, entry.QueryID)

		req := request.FromRawQuery(r.URL.RawQuery)
		tr.advance(PhaseParsed)
		entry.Column = req.Col

		var fragment string
		if ep.Safe {
			outcome := identifier.Validate(req.Col, g.allow)
			if !outcome.Allowed() {
				tr.advance(PhaseRejected)
				err := cerrors.NewInvalidColumn(req.Col)
				writeError(w, ep, "", err)
				tr.advance(PhaseResponded)

				entry.Outcome = observability.OutcomeRejected
				entry.Error = outcome.Reason()
				g.finish(r, &entry, tr, start)
				return
			}
			fragment = outcome.Column()
		} else {
			fragment = string(identifier.Escape(req.Col, ep.Quote))
		}
		tr.advance(PhaseValidated)

		stmt := builder.Build(ep.Table, fragment, ep.Quote, req.Name)
		tr.advance(PhaseExecuting)
		result, err := adapter.Execute(r.Context(), stmt)

		executed := stmt.Template
		if err != nil {
			var ef *cerrors.ErrExecutionFailed
			if errors.As(err, &ef) && ef.Query != "" {
				executed = ef.Query
			}
		} else if result.Executed != "" {
			executed = result.Executed
		}
		entry.Query = executed
		if !ep.Safe {
			shape := labsql.Inspect(executed, ep.Table)
			entry.Shape = &shape
		}

		if err != nil {
			tr.advance(PhaseFailed)
			writeError(w, ep, stmt.Template, err)
			tr.advance(PhaseResponded)

			entry.Outcome = observability.OutcomeError
			entry.Error = cerrors.PublicMessage(err)
			entry.DriverCode = adapters.DriverCode(errors.Unwrap(err))
			g.finish(r, &entry, tr, start)
			return
		}

		tr.advance(PhaseSucceeded)
		writeRows(w, ep, stmt.Template, result.Rows)
		tr.advance(PhaseResponded)

		entry.Outcome = observability.OutcomeSuccess
		entry.RowCount = result.RowCount
		g.finish(r, &entry, tr, start)
	}
}

// finish logs the entry. A logging failure never changes the response,
// which has already been written.
func (g *Gateway) finish(r *http.Request, entry *observability.QueryLogEntry, tr *trace, start time.Time) {
	entry.ExecutionTime = time.Since(start)
	entry.Phase = string(tr.outcome())
	_ = g.logger.LogQuery(r.Context(), *entry)
}
