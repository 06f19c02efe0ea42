package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lmxcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  base_url: http://localhost:5173\n")

	m := NewManager()
	require.NoError(t, m.Load(path))

	cfg := m.GetConfig()
	assert.Equal(t, "http://localhost:5173", cfg.Server.BaseURL)
	assert.Equal(t, "30s", cfg.Server.Timeout)
	assert.Equal(t, int64(60), cfg.Defaults.Duration)
	assert.Equal(t, int64(1), cfg.Defaults.ConcurrentUsers)
	assert.Equal(t, int64(1), cfg.Defaults.SpawnRate)
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	path := writeConfig(t, "defaults:\n  duration: 120\n")

	m := NewManager()
	err := m.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base_url")
}

func TestLoadRejectsInvalidTimeout(t *testing.T) {
	path := writeConfig(t, "server:\n  base_url: http://h\n  timeout: soon\n")

	m := NewManager()
	require.Error(t, m.Load(path))
}

func TestLoadRejectsNonPositiveLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  base_url: http://h\ndefaults:\n  concurrent_users: 0\n")

	m := NewManager()
	err := m.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrent_users")
}

func TestTimeoutParsesConfiguredDuration(t *testing.T) {
	path := writeConfig(t, "server:\n  base_url: http://h\n  timeout: 90s\n")

	m := NewManager()
	require.NoError(t, m.Load(path))
	assert.Equal(t, 90*time.Second, m.Timeout())

	// Unloaded manager falls back to the default.
	assert.Equal(t, 30*time.Second, NewManager().Timeout())
}

func TestCreateSampleConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")

	m := NewManager()
	require.NoError(t, m.CreateSampleConfig(path))
	require.NoError(t, m.Load(path))

	cfg := m.GetConfig()
	assert.Equal(t, "http://localhost:5173", cfg.Server.BaseURL)
	assert.Equal(t, int64(60), cfg.Defaults.Duration)
}
