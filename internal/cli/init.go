package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/bootstrap"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Long: `Write config.yaml with every default value. An existing file is never
overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory for configuration file")

	return cmd
}

func (c *CLI) runInit(outputDir string) error {
	configPath, err := bootstrap.Init(outputDir)
	if err != nil {
		return err
	}

	absPath, _ := filepath.Abs(configPath)
	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status": "created",
			"path":   absPath,
		})
	}

	c.printf("✓ Configuration file created: %s\n", absPath)
	c.println("\nNext steps:")
	c.println("  1. Edit the store hosts and credentials")
	c.println("  2. Run 'identlab doctor' to check connectivity")
	c.println("  3. Run 'identlab serve --seed' to start the gateway")
	return nil
}
