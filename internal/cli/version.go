package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/probe"
	"github.com/canonica-labs/identlab/pkg/api"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display CLI version information and the status of the configured gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion(cmd.Context())
		},
	}
}

func (c *CLI) runVersion(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	info := VersionInfo{
		Version:    Version,
		APIVersion: api.Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}

	serverStatus := "not configured"
	if c.cfg != nil && c.cfg.Endpoint != "" {
		client := probe.NewClient(c.cfg.Endpoint, 2*time.Second)
		if health, err := client.Health(ctx); err != nil {
			serverStatus = "unavailable"
		} else if health.OK {
			serverStatus = "healthy"
		} else {
			serverStatus = "unhealthy"
		}
	}

	if c.jsonOutput {
		output := struct {
			VersionInfo
			Server struct {
				Endpoint string `json:"endpoint,omitempty"`
				Status   string `json:"status"`
			} `json:"server"`
		}{
			VersionInfo: info,
		}
		if c.cfg != nil {
			output.Server.Endpoint = c.cfg.Endpoint
		}
		output.Server.Status = serverStatus
		return c.outputJSON(output)
	}

	c.println("identlab CLI")
	c.printf("  Version:     %s\n", info.Version)
	c.printf("  API Version: %s\n", info.APIVersion)
	c.printf("  Git Commit:  %s\n", info.GitCommit)
	c.printf("  Build Date:  %s\n", info.BuildDate)
	c.printf("  Go Version:  %s\n", info.GoVersion)
	c.printf("  OS/Arch:     %s/%s\n", info.OS, info.Arch)

	c.println("")
	c.println("Gateway:")
	c.printf("  Status: %s\n", serverStatus)

	return nil
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("identlab version %s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}
