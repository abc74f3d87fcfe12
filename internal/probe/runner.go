package probe

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/internal/storage"
	"github.com/canonica-labs/identlab/pkg/api"
)

// Record is the outcome of one payload against one target.
type Record struct {
	Service    string `json:"service"`
	Dialect    string `json:"dialect"`
	Endpoint   string `json:"endpoint"`
	Tag        string `json:"tag"`
	EncodedCol string `json:"encoded_col"`
	HTTPCode   int    `json:"http_code"`
	Indicator  bool   `json:"indicator"`
	Body       string `json:"body"`
	// ShapeKind and Suspicious describe the echoed query template. Under
	// emulated binding the executed text differs and is only in the
	// gateway log.
	ShapeKind  string `json:"shape_kind,omitempty"`
	Suspicious bool   `json:"suspicious,omitempty"`
}

// SweepRecord is the outcome of one byte of the sweep.
type SweepRecord struct {
	Hex      string `json:"hex"`
	Variant  string `json:"variant"`
	HTTPCode int    `json:"http_code"`
	Body     string `json:"body"`
}

// Runner drives a Client through a corpus and writes reports to OutDir.
// Requests are sent one at a time.
type Runner struct {
	client *Client
	outDir string
	logf   func(format string, args ...any)
}

// NewRunner creates a runner. An empty outDir skips report files.
func NewRunner(client *Client, outDir string) *Runner {
	return &Runner{client: client, outDir: outDir, logf: func(string, ...any) {}}
}

// WithLogf sets a progress printer.
func (r *Runner) WithLogf(logf func(format string, args ...any)) *Runner {
	r.logf = logf
	return r
}

// Run sends every payload of the corpus to every target.
func (r *Runner) Run(ctx context.Context, corpus *Corpus) ([]Record, error) {
	name := corpus.Name
	if name == "" {
		name = "apple"
	}

	var records []Record
	for _, target := range corpus.Targets {
		for _, p := range corpus.Payloads(target.Dialect) {
			if err := ctx.Err(); err != nil {
				return records, err
			}

			resp := r.client.Get(ctx, target.Endpoint, fmt.Sprintf("col=%s&name=%s", p.Encoded, url.QueryEscape(name)))
			rec := Record{
				Service:    target.Service,
				Dialect:    target.Dialect,
				Endpoint:   target.Endpoint,
				Tag:        p.Tag,
				EncodedCol: p.Encoded,
				HTTPCode:   resp.Code,
				Indicator:  HasIndicator(resp.Code, resp.Body, p.Benign()),
				Body:       resp.Body,
			}
			if resp.Envelope != nil && resp.Envelope.Query != nil {
				shape := labsql.Inspect(*resp.Envelope.Query, tableFor(target.Endpoint))
				rec.ShapeKind = shape.Kind
				rec.Suspicious = shape.Suspicious
			}
			records = append(records, rec)
		}
		r.logf("%s%s: %d payloads\n", target.Service, target.Endpoint, len(corpus.Payloads(target.Dialect)))
	}

	if r.outDir != "" {
		if err := WriteProbeReport(r.outDir, records); err != nil {
			return records, err
		}
	}
	return records, nil
}

// Sweep sends every byte 0x00-0xFF as col, raw and suffixed, to endpoint.
func (r *Runner) Sweep(ctx context.Context, endpoint string) ([]SweepRecord, error) {
	records := make([]SweepRecord, 0, 512)
	for _, p := range SweepPayloads() {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		resp := r.client.Get(ctx, endpoint, "col="+p.Encoded+"&name=apple")
		records = append(records, SweepRecord{
			Hex:      p.Hex,
			Variant:  p.Variant,
			HTTPCode: resp.Code,
			Body:     resp.Body,
		})
	}

	if r.outDir != "" {
		if err := WriteSweepReport(r.outDir, r.client.Endpoint()+endpoint, records); err != nil {
			return records, err
		}
	}
	return records, nil
}

// Summary counts indicators per service and endpoint.
type Summary struct {
	Key        string
	Total      int
	Indicators int
	Tags       []string
}

// Summarize groups records by service and endpoint in sorted order.
func Summarize(records []Record) []Summary {
	byKey := make(map[string]*Summary)
	for _, rec := range records {
		key := rec.Service + rec.Endpoint
		s, ok := byKey[key]
		if !ok {
			s = &Summary{Key: key}
			byKey[key] = s
		}
		s.Total++
		if rec.Indicator {
			s.Indicators++
			s.Tags = append(s.Tags, rec.Tag)
		}
	}

	out := make([]Summary, 0, len(byKey))
	for _, s := range byKey {
		sort.Strings(s.Tags)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func tableFor(endpoint string) string {
	if endpoint == api.EndpointVulnPG {
		return storage.TableUsers
	}
	return storage.TableFruit
}
