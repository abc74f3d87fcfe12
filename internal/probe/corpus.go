// Package probe sends identifier payloads to a running gateway and records
// which ones produce injection indicators.
package probe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canonica-labs/identlab/pkg/api"
)

// Payload is one percent-encoded value for the col parameter.
type Payload struct {
	Tag     string `yaml:"tag" json:"tag"`
	Encoded string `yaml:"encoded" json:"encoded"`
}

// Benign reports whether the payload is a control case.
func (p Payload) Benign() bool {
	return strings.HasSuffix(p.Tag, "benign")
}

// Target is one endpoint to probe.
type Target struct {
	Service  string `yaml:"service"`
	Endpoint string `yaml:"endpoint"`
	Dialect  string `yaml:"dialect"`
}

// Corpus is the set of targets and payloads for a run.
type Corpus struct {
	// Name is sent as the name parameter. Default: apple.
	Name string `yaml:"name"`

	Targets []Target `yaml:"targets"`

	// Extra payloads are added to the built-in set of every dialect.
	Extra []Payload `yaml:"payloads"`
}

// DefaultCorpus probes the three query endpoints of one gateway.
func DefaultCorpus() *Corpus {
	return &Corpus{
		Name: "apple",
		Targets: []Target{
			{Service: "identlab", Endpoint: api.EndpointSafe, Dialect: "mysql"},
			{Service: "identlab", Endpoint: api.EndpointVuln, Dialect: "mysql"},
			{Service: "identlab", Endpoint: api.EndpointVulnPG, Dialect: "postgres"},
		},
	}
}

// LoadCorpus reads a YAML corpus. Targets default to DefaultCorpus when the
// file lists none.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse corpus YAML: %w", err)
	}
	if c.Name == "" {
		c.Name = "apple"
	}
	if len(c.Targets) == 0 {
		c.Targets = DefaultCorpus().Targets
	}
	for i, t := range c.Targets {
		if t.Endpoint == "" {
			return nil, fmt.Errorf("target %d: endpoint is required", i)
		}
		if t.Dialect == "" {
			c.Targets[i].Dialect = "mysql"
		}
		if t.Service == "" {
			c.Targets[i].Service = "identlab"
		}
	}
	for i, p := range c.Extra {
		if p.Tag == "" || p.Encoded == "" {
			return nil, fmt.Errorf("payload %d: tag and encoded are required", i)
		}
	}
	return &c, nil
}

// Payloads returns the payloads for dialect, each in a raw form and a form
// suffixed onto the column name.
func (c *Corpus) Payloads(dialect string) []Payload {
	base := AssetnotePayloads(dialect)
	base = append(base, c.Extra...)

	out := make([]Payload, 0, 2*len(base))
	for _, p := range base {
		out = append(out,
			Payload{Tag: "raw_" + p.Tag, Encoded: p.Encoded},
			Payload{Tag: "sfx_" + p.Tag, Encoded: "name" + p.Encoded},
		)
	}
	return out
}

// AssetnotePayloads returns the identifier payloads from the Assetnote
// write-up on placeholder confusion, before raw/suffix expansion.
func AssetnotePayloads(dialect string) []Payload {
	base := []Payload{
		{"benign", "name"},
		{"nul", "%00"},
		{"qmark_nul", "%3F%00"},         // ?\0
		{"qmark_hash_nul", "%3F%23%00"}, // ?#\0
		{"double_q", "%3F%3F"},          // ??
		{"q_semihash_nul", "%3F%3B%23%00"},
	}
	if dialect == "mysql" {
		base = append(base,
			Payload{"name_bt", "name%60"},
			Payload{"name_q", "name%3F"},
			Payload{"named_colon", "%3Aname"},
		)
	} else {
		base = append(base,
			Payload{"dq_in_id", "%22%3F%22"},
			Payload{"name_dq_q", "name%22%3F%22"},
		)
	}
	return base
}

// SweepPayloads returns every byte 0x00-0xFF, raw and suffixed onto "name".
func SweepPayloads() []SweepPayload {
	out := make([]SweepPayload, 0, 512)
	for b := 0; b < 256; b++ {
		hex := fmt.Sprintf("%02X", b)
		out = append(out,
			SweepPayload{Hex: hex, Variant: "raw", Encoded: "%" + hex},
			SweepPayload{Hex: hex, Variant: "suffix", Encoded: "name%" + hex},
		)
	}
	return out
}

// SweepPayload is one byte of the sweep.
type SweepPayload struct {
	Hex     string
	Variant string
	Encoded string
}
