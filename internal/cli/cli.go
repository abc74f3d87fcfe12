// Package cli provides the command-line interface for identlab.
// The CLI starts the gateway, seeds the stores, and drives the probe harness
// against a running gateway.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/config"
	cerrors "github.com/canonica-labs/identlab/internal/errors"
)

// Exit codes, one per error code category.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitConnection = 2
	ExitExecution  = 3
	ExitInternal   = 4
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	stdout io.Writer
	stderr io.Writer

	// Global flags
	configPath string
	endpoint   string
	jsonOutput bool
	quiet      bool
	debug      bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{stdout: os.Stdout, stderr: os.Stderr}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// SetOutput redirects normal and error output.
func (c *CLI) SetOutput(stdout, stderr io.Writer) {
	c.stdout = stdout
	c.stderr = stderr
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
}

// SetArgs replaces os.Args[1:].
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		c.errorf("Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func exitCode(err error) int {
	switch cerrors.CodeOf(err) {
	case cerrors.CodeValidation:
		return ExitValidation
	case cerrors.CodeConnection:
		return ExitConnection
	case cerrors.CodeExecution:
		return ExitExecution
	default:
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identlab",
		Short: "identlab - SQL identifier injection lab",
		Long: `identlab serves one safe and two deliberately vulnerable endpoints that
project a caller-chosen column, and probes them with parser-confusion payloads.

  /safe      allow-listed column, bound name
  /vuln      backtick-quoted column on the fruit store
  /vuln-pg   double-quoted column on the users store

Never expose the gateway outside a lab network.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./config.yaml or ~/.identlab/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "gateway endpoint for probe commands")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newMigrateCmd())
	cmd.AddCommand(c.newProbeCmd())
	cmd.AddCommand(c.newSweepCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newInitCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	// Override with flags
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}
	if c.debug {
		c.cfg.Logging.Level = "debug"
	}

	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Fprintf(c.stdout, format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Fprintln(c.stdout, args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.stderr, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Fprintf(c.stderr, "[DEBUG] "+format, args...)
	}
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
