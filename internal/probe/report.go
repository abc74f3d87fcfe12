package probe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Report file names.
const (
	ProbeNDJSON = "probe.ndjson"
	ProbeJSON   = "probe.json"
	ProbeMD     = "probe.md"
	SweepNDJSON = "sweep.ndjson"
	SweepJSON   = "sweep.json"
	SweepMD     = "sweep.md"
)

// ShapeNote heads the probe summary. The gateway echoes the statement
// template, so shape_kind reflects the template and not the text an emulated
// binding sends to the store.
const ShapeNote = "Shape columns describe the echoed query template. Under emulated binding the executed statement is recorded only in the gateway log."

// WriteProbeReport writes the probe records as NDJSON, a JSON array and a
// Markdown summary.
func WriteProbeReport(dir string, records []Record) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := writeNDJSON(filepath.Join(dir, ProbeNDJSON), records); err != nil {
		return err
	}
	if err := writeJSONArray(filepath.Join(dir, ProbeJSON), records); err != nil {
		return err
	}

	var md strings.Builder
	md.WriteString("# Assetnote-style parser fuzz results\n\n")
	md.WriteString(ShapeNote + "\n\n")
	for _, s := range Summarize(records) {
		fmt.Fprintf(&md, "## %s: indicators %d/%d\n", s.Key, s.Indicators, s.Total)
		tags := s.Tags
		if len(tags) > 10 {
			tags = tags[:10]
		}
		for _, t := range tags {
			fmt.Fprintf(&md, "- %s\n", t)
		}
		md.WriteString("\n")
	}
	return os.WriteFile(filepath.Join(dir, ProbeMD), []byte(md.String()), 0644)
}

// WriteSweepReport writes the sweep records and an HTTP code distribution
// per variant.
func WriteSweepReport(dir, target string, records []SweepRecord) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := writeNDJSON(filepath.Join(dir, SweepNDJSON), records); err != nil {
		return err
	}
	if err := writeJSONArray(filepath.Join(dir, SweepJSON), records); err != nil {
		return err
	}

	var md strings.Builder
	md.WriteString("# Byte sweep summary\n\n")
	fmt.Fprintf(&md, "- Target: %s\n", target)
	fmt.Fprintf(&md, "- Cases: %d (256 bytes x 2 variants)\n\n", len(records))
	for _, variant := range []string{"raw", "suffix"} {
		fmt.Fprintf(&md, "## HTTP code distribution (%s)\n", variant)
		for _, line := range Distribution(records, variant) {
			md.WriteString(line + "\n")
		}
		md.WriteString("\n")
	}
	return os.WriteFile(filepath.Join(dir, SweepMD), []byte(md.String()), 0644)
}

// Distribution returns "- <code>: <count>" lines for one variant, sorted by code.
func Distribution(records []SweepRecord, variant string) []string {
	counts := make(map[int]int)
	for _, r := range records {
		if r.Variant == variant {
			counts[r.HTTPCode]++
		}
	}
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	lines := make([]string, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, fmt.Sprintf("- %d: %d", code, counts[code]))
	}
	return lines
}

func writeNDJSON[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return w.Flush()
}

func writeJSONArray[T any](path string, records []T) error {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
