// Package observability provides structured logging for the identlab gateway.
//
// Every request emits: query_id, endpoint, column, the SQL text (vulnerable
// endpoints), the inspected shape, row count, execution time, final phase
// and outcome.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// Outcome values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// QueryLogEntry contains all fields logged for one request.
type QueryLogEntry struct {
	// QueryID is the unique identifier for this request.
	QueryID string

	// Endpoint is the route path, e.g. "/vuln".
	Endpoint string

	// Path is "safe" or "vuln".
	Path string

	// Column is the raw col parameter.
	Column string

	// Query is the SQL text sent to the store. Empty when rejected.
	Query string

	// Shape is the inspected structure of Query.
	Shape *labsql.Shape

	// DriverCode is the classified driver error, if any.
	DriverCode string

	// RowCount is the number of rows returned.
	RowCount int

	// ExecutionTime is how long the request took.
	// Must be non-negative.
	ExecutionTime time.Duration

	// Phase is the last phase the request reached.
	Phase string

	// Outcome is "success", "rejected" or "error".
	Outcome string

	// Error contains the error message if the request failed.
	Error string
}

// Validate checks that all required fields are present.
func (e *QueryLogEntry) Validate() error {
	if e.QueryID == "" {
		return fmt.Errorf("observability: query_id is required")
	}
	if e.Endpoint == "" {
		return fmt.Errorf("observability: endpoint is required")
	}
	if e.ExecutionTime < 0 {
		return fmt.Errorf("observability: execution_time cannot be negative")
	}
	return nil
}

// QueryLogger is the interface for request logging.
type QueryLogger interface {
	// LogQuery logs a request event.
	// Returns an error if logging fails or the entry is invalid.
	LogQuery(ctx context.Context, entry QueryLogEntry) error

	// GetAuditSummary returns aggregated audit statistics.
	GetAuditSummary() *AuditSummary
}

// AuditSummary represents aggregated audit statistics.
type AuditSummary struct {
	AcceptedCount       int            `json:"accepted_count"`
	RejectedCount       int            `json:"rejected_count"`
	FailedCount         int            `json:"failed_count"`
	SuspiciousCount     int            `json:"suspicious_count"`
	TopRejectedColumns  []ColumnStat   `json:"top_rejected_columns"`
	TopSuspiciousShapes []ShapeStat    `json:"top_suspicious_shapes"`
	DriverCodes         map[string]int `json:"driver_codes"`
	EndpointCounts      map[string]int `json:"endpoint_counts"`
}

// ColumnStat counts one rejected column value.
type ColumnStat struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// ShapeStat counts one suspicious statement shape.
type ShapeStat struct {
	Shape string `json:"shape"`
	Count int    `json:"count"`
}

func newAuditSummary() *AuditSummary {
	return &AuditSummary{
		TopRejectedColumns:  []ColumnStat{},
		TopSuspiciousShapes: []ShapeStat{},
		DriverCodes:         map[string]int{},
		EndpointCounts:      map[string]int{},
	}
}

// String renders the summary on a few lines for the shutdown log.
func (s *AuditSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "accepted=%d rejected=%d failed=%d suspicious=%d",
		s.AcceptedCount, s.RejectedCount, s.FailedCount, s.SuspiciousCount)
	for _, c := range s.TopRejectedColumns {
		fmt.Fprintf(&b, "\n  rejected col %q x%d", c.Column, c.Count)
	}
	for _, sh := range s.TopSuspiciousShapes {
		fmt.Fprintf(&b, "\n  suspicious %s x%d", sh.Shape, sh.Count)
	}
	return b.String()
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp       string   `json:"timestamp"`
	Level           string   `json:"level"`
	QueryID         string   `json:"query_id"`
	Endpoint        string   `json:"endpoint"`
	Path            string   `json:"path,omitempty"`
	Column          string   `json:"column"`
	Query           string   `json:"query,omitempty"`
	ShapeKind       string   `json:"shape_kind,omitempty"`
	ShapeTables     []string `json:"shape_tables,omitempty"`
	Suspicious      bool     `json:"suspicious,omitempty"`
	DriverCode      string   `json:"driver_code,omitempty"`
	RowCount        int      `json:"row_count"`
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	Phase           string   `json:"phase,omitempty"`
	Outcome         string   `json:"outcome,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func levelOf(entry QueryLogEntry) string {
	switch {
	case entry.Outcome == OutcomeError:
		return "error"
	case entry.Outcome == OutcomeRejected, entry.Shape != nil && entry.Shape.Suspicious:
		return "warn"
	default:
		return "info"
	}
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// maxTrackedKeys bounds the per-column and per-shape tallies. Keys seen
// after the limit still count toward the totals.
const maxTrackedKeys = 1024

// auditCounters is the running state behind AuditSummary. Entries are
// folded in and dropped.
type auditCounters struct {
	accepted, rejected, failed, suspicious int
	rejectedColumns                        map[string]int
	shapes                                 map[string]int
	driverCodes                            map[string]int
	endpoints                              map[string]int
}

func newAuditCounters() auditCounters {
	return auditCounters{
		rejectedColumns: map[string]int{},
		shapes:          map[string]int{},
		driverCodes:     map[string]int{},
		endpoints:       map[string]int{},
	}
}

func (c *auditCounters) add(entry QueryLogEntry) {
	tally(c.endpoints, entry.Endpoint)
	switch entry.Outcome {
	case OutcomeRejected:
		c.rejected++
		tally(c.rejectedColumns, entry.Column)
	case OutcomeError:
		c.failed++
	default:
		c.accepted++
	}
	if entry.DriverCode != "" {
		tally(c.driverCodes, entry.DriverCode)
	}
	if entry.Shape != nil && entry.Shape.Suspicious {
		c.suspicious++
		tally(c.shapes, shapeKey(entry.Shape))
	}
}

func tally(m map[string]int, key string) {
	if _, ok := m[key]; ok || len(m) < maxTrackedKeys {
		m[key]++
	}
}

// JSONLogger implements QueryLogger with one JSON object per line.
type JSONLogger struct {
	writer   io.Writer
	minLevel string
	text     bool
	counters auditCounters
	mu       sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:   w,
		minLevel: "info",
		counters: newAuditCounters(),
	}
}

// NewLogger builds the logger named by the logging config. format is
// "json" or "text"; level is the lowest level written. Entries below the
// level still count toward the audit summary.
func NewLogger(w io.Writer, level, format string) *JSONLogger {
	l := NewJSONLogger(w)
	if _, ok := levelRank[level]; ok {
		l.minLevel = level
	}
	l.text = format == "text"
	return l
}

// LogQuery logs a request event.
func (l *JSONLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.counters.add(entry)
	l.mu.Unlock()

	level := levelOf(entry)
	if levelRank[level] < levelRank[l.minLevel] {
		return nil
	}

	output := jsonLogOutput{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Level:           level,
		QueryID:         entry.QueryID,
		Endpoint:        entry.Endpoint,
		Path:            entry.Path,
		Column:          entry.Column,
		Query:           entry.Query,
		DriverCode:      entry.DriverCode,
		RowCount:        entry.RowCount,
		ExecutionTimeMs: entry.ExecutionTime.Milliseconds(),
		Phase:           entry.Phase,
		Outcome:         entry.Outcome,
		Error:           entry.Error,
	}
	if entry.Shape != nil {
		output.ShapeKind = entry.Shape.Kind
		output.ShapeTables = entry.Shape.Tables
		output.Suspicious = entry.Shape.Suspicious
	}

	var data []byte
	if l.text {
		data = []byte(formatText(output))
	} else {
		var err error
		data, err = json.Marshal(output)
		if err != nil {
			return fmt.Errorf("observability: failed to marshal log: %w", err)
		}
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}

	return nil
}

func formatText(o jsonLogOutput) string {
	s := fmt.Sprintf("%s %s %s endpoint=%s col=%q outcome=%s rows=%d took=%dms",
		o.Timestamp, strings.ToUpper(o.Level), o.QueryID, o.Endpoint, o.Column, o.Outcome, o.RowCount, o.ExecutionTimeMs)
	if o.Query != "" {
		s += fmt.Sprintf(" query=%q", o.Query)
	}
	if o.Suspicious {
		s += fmt.Sprintf(" shape=%s tables=%s", o.ShapeKind, strings.Join(o.ShapeTables, ","))
	}
	if o.Error != "" {
		s += fmt.Sprintf(" error=%q", o.Error)
	}
	return s
}

// GetAuditSummary returns aggregated audit statistics.
func (l *JSONLogger) GetAuditSummary() *AuditSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := &l.counters
	summary := newAuditSummary()
	summary.AcceptedCount = c.accepted
	summary.RejectedCount = c.rejected
	summary.FailedCount = c.failed
	summary.SuspiciousCount = c.suspicious
	for code, n := range c.driverCodes {
		summary.DriverCodes[code] = n
	}
	for endpoint, n := range c.endpoints {
		summary.EndpointCounts[endpoint] = n
	}

	for col, count := range c.rejectedColumns {
		summary.TopRejectedColumns = append(summary.TopRejectedColumns, ColumnStat{Column: col, Count: count})
	}
	sort.Slice(summary.TopRejectedColumns, func(i, j int) bool {
		a, b := summary.TopRejectedColumns[i], summary.TopRejectedColumns[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Column < b.Column
	})
	if len(summary.TopRejectedColumns) > 5 {
		summary.TopRejectedColumns = summary.TopRejectedColumns[:5]
	}

	for shape, count := range c.shapes {
		summary.TopSuspiciousShapes = append(summary.TopSuspiciousShapes, ShapeStat{Shape: shape, Count: count})
	}
	sort.Slice(summary.TopSuspiciousShapes, func(i, j int) bool {
		a, b := summary.TopSuspiciousShapes[i], summary.TopSuspiciousShapes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Shape < b.Shape
	})
	if len(summary.TopSuspiciousShapes) > 5 {
		summary.TopSuspiciousShapes = summary.TopSuspiciousShapes[:5]
	}

	return summary
}

func shapeKey(s *labsql.Shape) string {
	if len(s.Tables) == 0 {
		return s.Kind
	}
	return fmt.Sprintf("%s(%s)", s.Kind, strings.Join(s.Tables, ","))
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogQuery does nothing and always succeeds.
func (l *NoopLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	return nil
}

// GetAuditSummary returns an empty summary for the no-op logger.
func (l *NoopLogger) GetAuditSummary() *AuditSummary {
	return newAuditSummary()
}
