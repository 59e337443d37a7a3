package config_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/internal/config"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "canopy.yaml", `
tree_dir: ./behaviors
main_tree: patrol
tick_interval: 250ms
log_level: debug
log_format: json
listen: ":8080"
redis:
  addr: localhost:6379
  ttl: 1h
blackboard:
  target: 42
  name: rover
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./behaviors", cfg.TreeDir)
	assert.Equal(t, "patrol", cfg.MainTree)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "canopy:", cfg.Redis.Prefix, "default kept")
	assert.Equal(t, map[string]string{"target": "42", "name": "rover"}, cfg.Blackboard)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "canopy.json", `{"main_tree": "main", "tick_interval": "1s"}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.MainTree)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, "trees", cfg.TreeDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = config.Load(write(t, "c.yaml", "tree_dirr: x\n"))
	assert.ErrorContains(t, err, "tree_dirr")

	_, err = config.Load(write(t, "c.yaml", "log_level: loud\n"))
	assert.ErrorContains(t, err, "invalid log level")

	_, err = config.Load(write(t, "c.yaml", "log_format: xml\n"))
	assert.ErrorContains(t, err, "invalid log format")

	_, err = config.Load(write(t, "c.yaml", "tick_interval: soon\n"))
	assert.Error(t, err)

	_, err = config.Load(write(t, "c.yaml", "tick_interval: 0s\n"))
	assert.ErrorContains(t, err, "tick_interval must be positive")

	_, err = config.Load(write(t, "c.yaml", "tree_dir: [unclosed\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval)
}
