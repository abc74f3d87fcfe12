package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/canonica-labs/identlab/internal/config"
)

// ConfigFileName is the file Init writes and config.Load looks for.
const ConfigFileName = "config.yaml"

const configHeader = `# identlab configuration
# Generated by 'identlab init'. Every key can be overridden with an
# IDENTLAB_* environment variable, e.g. IDENTLAB_MYSQL_HOST.

`

// Init writes the default configuration to dir. It refuses to overwrite an
// existing file.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// knownKeys lists the sections config.Config understands.
var knownKeys = map[string]bool{
	"endpoint": true,
	"mysql":    true,
	"postgres": true,
	"dev":      true,
	"binding":  true,
	"logging":  true,
	"server":   true,
	"probe":    true,
}

// CheckKeys reports top-level keys in a YAML config file that viper would
// silently ignore.
func CheckKeys(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	var unknown []string
	for key := range raw {
		if !knownKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}
