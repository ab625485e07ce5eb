package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	assert.Equal(t, 30, cfg.Monitor.CheckInterval)
	assert.Equal(t, 90, cfg.Monitor.RetentionDays)
	assert.Equal(t, "AUD", cfg.Monitor.DefaultCurrency)
	assert.NotEmpty(t, cfg.Retailers["jbhifi"].Selector)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "pricetracker.yml")
	content := []byte(`
database:
  type: sqlite
  name: test
monitor:
  check_interval: 10
  retention_days: 30
retailers:
  myshop:
    name: My Shop
    selector: ".deal-price"
`)
	require.NoError(t, os.WriteFile(cfile, content, 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 10, cfg.Monitor.CheckInterval)
	assert.Equal(t, 30, cfg.Monitor.RetentionDays)
	assert.Equal(t, ".deal-price", cfg.Retailers["myshop"].Selector)
}

func TestLoadConfigIsolated(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "pricetracker.yml")
	require.NoError(t, os.WriteFile(cfile, []byte("monitor:\n  check_interval: 3\n"), 0o644))

	loaded := LoadConfig(cfile)
	assert.Equal(t, 3, loaded.Monitor.CheckInterval)

	// a later load must not see the earlier file's state
	fresh := LoadConfig("")
	assert.Equal(t, 30, fresh.Monitor.CheckInterval)
	assert.Equal(t, 30, DefaultAppConfig.Monitor.CheckInterval)
}

func TestLoadConfigKeepsDefaultRetailers(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "pricetracker.yml")
	require.NoError(t, os.WriteFile(cfile, []byte("retailers:\n  myshop:\n    selector: \".p\"\n"), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, ".p", cfg.Retailers["myshop"].Selector)
	assert.NotEmpty(t, cfg.Retailers["jbhifi"].Selector)
	// the shared default table is untouched
	_, leaked := DefaultRetailers["myshop"]
	assert.False(t, leaked)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PRICETRACKER_CHECK_INTERVAL", "7")
	t.Setenv("PRICETRACKER_BROWSER_DISABLE", "true")
	t.Setenv("PRICETRACKER_DEFAULT_CURRENCY", "NZD")

	cfg := LoadConfig("")
	assert.Equal(t, 7, cfg.Monitor.CheckInterval)
	assert.True(t, cfg.Monitor.BrowserDisable)
	assert.Equal(t, "NZD", cfg.Monitor.DefaultCurrency)
}
