package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/bootstrap"
	"github.com/canonica-labs/identlab/internal/probe"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	var skipStores bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run lab diagnostics.

Checks:
  - configuration values and unknown config keys
  - connectivity to each store
  - gateway /health`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context(), skipStores)
		},
	}

	cmd.Flags().BoolVar(&skipStores, "skip-stores", false, "do not connect to the stores")

	return cmd
}

func (c *CLI) runDoctor(ctx context.Context, skipStores bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.jsonOutput {
		c.println("identlab Diagnostics")
		c.println("====================")
		c.println("")
	}

	checks := []DiagnosticCheck{c.checkConfig()}
	if !skipStores {
		checks = append(checks, c.checkStores(ctx)...)
	}
	checks = append(checks, c.checkGateway(ctx))

	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
	}

	if c.jsonOutput {
		if err := c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		}); err != nil {
			return err
		}
	} else {
		for _, check := range checks {
			c.printCheck(check)
		}
		c.println("")
		if allPassed {
			c.println("✓ All checks passed")
		} else {
			c.println("✗ Some checks failed - see above for details")
		}
	}

	if !allPassed {
		return fmt.Errorf("diagnostics failed")
	}
	return nil
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

// configFile returns the file doctor inspects for unknown keys, or "".
func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	if _, err := os.Stat(bootstrap.ConfigFileName); err == nil {
		return bootstrap.ConfigFileName
	}
	return ""
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}

	if c.cfg == nil {
		check.Message = "No configuration loaded"
		check.Details = "Run 'identlab init' or use --config flag"
		return check
	}

	if path := c.configFile(); path != "" {
		unknown, err := bootstrap.CheckKeys(path)
		if err != nil {
			check.Message = "Cannot read config file"
			check.Details = err.Error()
			return check
		}
		if len(unknown) > 0 {
			check.Message = fmt.Sprintf("Unknown keys in %s", path)
			check.Details = fmt.Sprintf("ignored: %s", strings.Join(unknown, ", "))
			return check
		}
	}

	check.Passed = true
	if c.cfg.Dev.Enabled {
		check.Message = fmt.Sprintf("dev store %s (%s), binding %s", c.cfg.Dev.Engine, c.cfg.Dev.Database, c.cfg.BindingMode())
	} else {
		check.Message = fmt.Sprintf("mysql %s:%d, postgres %s:%d, binding %s",
			c.cfg.MySQL.Host, c.cfg.MySQL.Port, c.cfg.Postgres.Host, c.cfg.Postgres.Port, c.cfg.BindingMode())
	}
	return check
}

func (c *CLI) checkStores(ctx context.Context) []DiagnosticCheck {
	registry, err := bootstrap.OpenStores(c.cfg)
	if err != nil {
		return []DiagnosticCheck{{
			Name:    "Stores",
			Message: "Cannot open stores",
			Details: err.Error(),
		}}
	}
	defer registry.CloseAll()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health := registry.CheckAllHealth(ctx)
	var checks []DiagnosticCheck
	for _, role := range registry.Roles() {
		adapter, _ := registry.Get(role)
		check := DiagnosticCheck{Name: fmt.Sprintf("Store %s", role)}
		if err := health[role]; err != nil {
			check.Message = fmt.Sprintf("%s unreachable", adapter.Name())
			check.Details = err.Error()
		} else {
			check.Passed = true
			check.Message = fmt.Sprintf("%s healthy", adapter.Name())
		}
		checks = append(checks, check)
	}
	return checks
}

func (c *CLI) checkGateway(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Gateway"}

	if c.cfg == nil || c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		check.Details = "Set endpoint in config or use --endpoint flag"
		return check
	}

	client := probe.NewClient(c.cfg.Endpoint, 2*time.Second)
	health, err := client.Health(ctx)
	if err != nil {
		check.Message = "Cannot reach gateway"
		check.Details = err.Error()
		return check
	}
	if !health.OK {
		check.Message = "Gateway reports unhealthy store"
		check.Details = health.Error
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Healthy at %s", c.cfg.Endpoint)
	return check
}
