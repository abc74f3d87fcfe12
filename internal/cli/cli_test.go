package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonica-labs/identlab/internal/gateway"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := New()
	c.SetOutput(&stdout, &stderr)
	c.SetArgs(args)
	code := c.Execute()
	return code, stdout.String(), stderr.String()
}

func emptyConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// TestInitCommand verifies config generation through the CLI.
//
// Green-Flag: init writes config.yaml and reports the path.
// Red-Flag: a second init fails with a non-zero exit code.
func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t, "")

	code, out, _ := run(t, "--config", cfg, "--json", "init", "-o", dir)
	require.Equal(t, ExitSuccess, code)

	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "created", res["status"])
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	code, _, errOut := run(t, "--config", cfg, "init", "-o", dir)
	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, errOut, "already exists")
}

// TestProbeCommand verifies the probe against an in-process gateway.
func TestProbeCommand(t *testing.T) {
	srv := httptest.NewServer(gateway.NewTestGateway(t))
	defer srv.Close()
	out := t.TempDir()

	code, stdout, stderr := run(t, "--config", emptyConfig(t, ""), "--endpoint", srv.URL, "probe", "-o", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "identlab/safe: indicators ")
	assert.FileExists(t, filepath.Join(out, "probe.md"))
}

// TestSweepCommand verifies the byte sweep through the CLI.
func TestSweepCommand(t *testing.T) {
	srv := httptest.NewServer(gateway.NewTestGateway(t))
	defer srv.Close()

	code, stdout, stderr := run(t, "--config", emptyConfig(t, ""), "--endpoint", srv.URL, "--json", "sweep", "--path", "/safe", "-o", t.TempDir())
	require.Equal(t, ExitSuccess, code, stderr)

	var res struct {
		Cases int      `json:"cases"`
		Raw   []string `json:"raw"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 512, res.Cases)
	assert.Equal(t, []string{"- 400: 256"}, res.Raw)
}

// TestMigrateCommand_Dev verifies seeding the embedded store.
func TestMigrateCommand_Dev(t *testing.T) {
	cfg := emptyConfig(t, "dev:\n  enabled: true\n")

	code, stdout, stderr := run(t, "--config", cfg, "migrate")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "sqlite: 000001_fruit")
	assert.Contains(t, stdout, "sqlite: 000002_users")
}

// TestDoctorCommand verifies diagnostics.
//
// Green-Flag: A healthy dev setup passes every check.
// Red-Flag: Unknown config keys fail the configuration check.
func TestDoctorCommand(t *testing.T) {
	srv := httptest.NewServer(gateway.NewTestGateway(t))
	defer srv.Close()

	good := emptyConfig(t, "dev:\n  enabled: true\n")
	code, stdout, stderr := run(t, "--config", good, "--endpoint", srv.URL, "doctor")
	require.Equal(t, ExitSuccess, code, stdout+stderr)
	assert.Contains(t, stdout, "✓ All checks passed")
	assert.Contains(t, stdout, "Store fruit")

	bad := emptyConfig(t, "dev:\n  enabled: true\ntoken: x\n")
	code, stdout, _ = run(t, "--config", bad, "--endpoint", srv.URL, "doctor", "--skip-stores")
	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, stdout, "ignored: token")
}

// TestVersionCommand verifies version output without a reachable gateway.
func TestVersionCommand(t *testing.T) {
	code, stdout, _ := run(t, "--config", emptyConfig(t, ""), "--endpoint", "http://127.0.0.1:1", "--json", "version")
	require.Equal(t, ExitSuccess, code)

	var res struct {
		Version string `json:"version"`
		Server  struct {
			Status string `json:"status"`
		} `json:"server"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, Version, res.Version)
	assert.Equal(t, "unavailable", res.Server.Status)
}

// TestInvalidConfigExitCode verifies validation errors map to exit code 1.
func TestInvalidConfigExitCode(t *testing.T) {
	code, _, stderr := run(t, "--config", emptyConfig(t, "binding: maybe\n"), "version")
	assert.Equal(t, ExitValidation, code)
	assert.True(t, strings.Contains(stderr, "invalid configuration"))
}
