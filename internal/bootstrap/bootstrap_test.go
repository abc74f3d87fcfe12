package bootstrap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/config"
	"github.com/canonica-labs/identlab/internal/storage"
)

func devConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Dev.Enabled = true
	cfg.Server.Addr = "127.0.0.1:0"
	return cfg
}

func fastRetry() adapters.RetryConfig {
	return adapters.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}
}

// TestOpenStores_DevSharesOneStore verifies dev mode.
//
// Green-Flag: One embedded store serves both roles and is seeded once.
func TestOpenStores_DevSharesOneStore(t *testing.T) {
	registry, err := OpenStores(devConfig())
	require.NoError(t, err)
	defer registry.CloseAll()

	fruit, _ := registry.Get(storage.TableFruit)
	users, _ := registry.Get(storage.TableUsers)
	assert.Same(t, fruit, users)

	require.NoError(t, Prepare(context.Background(), registry, devConfig(), fastRetry(), false))

	n, err := storage.NewSQLRepository(fruit.DB()).Count(context.Background(), storage.TableUsers)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	again, err := Seed(context.Background(), registry)
	require.NoError(t, err)
	assert.Empty(t, again["sqlite"])
}

// TestOpenStores_Networked verifies the split layout without connecting.
func TestOpenStores_Networked(t *testing.T) {
	registry, err := OpenStores(config.DefaultConfig())
	require.NoError(t, err)
	defer registry.CloseAll()

	fruit, _ := registry.Get(storage.TableFruit)
	users, _ := registry.Get(storage.TableUsers)
	assert.Equal(t, "mysql", fruit.Name())
	assert.Equal(t, "postgres", users.Name())
}

// TestInit_WritesLoadableConfig verifies 'identlab init'.
//
// Green-Flag: The generated file loads back to the defaults.
// Red-Flag: An existing file is never overwritten.
func TestInit_WritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	unknown, err := CheckKeys(path)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	_, err = Init(dir)
	assert.Error(t, err)
}

// TestCheckKeys_ReportsUnknown verifies unknown top-level keys are listed.
func TestCheckKeys_ReportsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mysql:\n  host: x\ntoken: abc\nauth: {}\n"), 0644))

	unknown, err := CheckKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "token"}, unknown)
}

// TestServe_DevLifecycle verifies the gateway server end to end.
//
// Green-Flag: The server answers requests and stops cleanly on cancel.
func TestServe_DevLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	var logs bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, devConfig(), ServeOptions{
			Version:   "test",
			Retry:     fastRetry(),
			LogOutput: &logs,
			Ready:     ready,
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/safe?name=apple&col=price")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"rows":["10"]}`, strings.TrimSpace(string(body)))
	assert.Equal(t, "test", resp.Header.Get("X-Identlab-Version"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, logs.String(), `"endpoint":"/safe"`)
}
