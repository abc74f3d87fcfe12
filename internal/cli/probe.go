package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/probe"
	"github.com/canonica-labs/identlab/pkg/api"
)

func (c *CLI) newProbeCmd() *cobra.Command {
	var (
		outDir     string
		corpusPath string
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send the parser-confusion corpus to a running gateway",
		Long: `Send every payload of the corpus to every target, raw and suffixed onto a
valid column name, and record which responses show an injection indicator.

Reports are written to <out>/probe.ndjson, probe.json and probe.md.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProbe(cmd.Context(), outDir, corpusPath)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "report directory (overrides probe.outDir)")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "YAML corpus file (overrides probe.corpus)")

	return cmd
}

func (c *CLI) runProbe(ctx context.Context, outDir, corpusPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if outDir == "" {
		outDir = c.cfg.Probe.OutDir
	}
	if corpusPath == "" {
		corpusPath = c.cfg.Probe.Corpus
	}

	corpus := probe.DefaultCorpus()
	if corpusPath != "" {
		loaded, err := probe.LoadCorpus(corpusPath)
		if err != nil {
			return err
		}
		corpus = loaded
	}

	runner := c.newRunner(outDir)
	records, err := runner.Run(ctx, corpus)
	if err != nil {
		return err
	}

	summaries := probe.Summarize(records)
	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"out":     outDir,
			"records": len(records),
			"targets": summaries,
		})
	}

	for _, s := range summaries {
		c.printf("%s: indicators %d/%d\n", s.Key, s.Indicators, s.Total)
	}
	c.printf("Wrote %s/{%s,%s,%s}\n", outDir, probe.ProbeNDJSON, probe.ProbeJSON, probe.ProbeMD)
	return nil
}

func (c *CLI) newSweepCmd() *cobra.Command {
	var (
		outDir string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Send every byte 0x00-0xFF as a column to one endpoint",
		Long: `Send each byte value, raw and suffixed onto "name", as the col parameter of
one endpoint, and summarize the HTTP status codes.

Reports are written to <out>/sweep.ndjson, sweep.json and sweep.md.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSweep(cmd.Context(), outDir, path)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "report directory (overrides probe.outDir)")
	cmd.Flags().StringVar(&path, "path", api.EndpointVuln, "endpoint path to sweep")

	return cmd
}

func (c *CLI) runSweep(ctx context.Context, outDir, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if outDir == "" {
		outDir = c.cfg.Probe.OutDir
	}

	records, err := c.newRunner(outDir).Sweep(ctx, path)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"out":    outDir,
			"cases":  len(records),
			"raw":    probe.Distribution(records, "raw"),
			"suffix": probe.Distribution(records, "suffix"),
		})
	}

	c.printf("Cases: %d\n", len(records))
	for _, variant := range []string{"raw", "suffix"} {
		c.printf("%s:\n", variant)
		for _, line := range probe.Distribution(records, variant) {
			c.printf("  %s\n", line)
		}
	}
	return nil
}

func (c *CLI) newRunner(outDir string) *probe.Runner {
	client := probe.NewClient(c.cfg.Endpoint, c.cfg.ProbeTimeout())
	return probe.NewRunner(client, outDir).WithLogf(c.debugf)
}
