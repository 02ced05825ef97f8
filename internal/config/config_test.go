package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFirstRunWritesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "timegrid")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.CacheDir)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Empty(t, cfg.Upstream)
	assert.Zero(t, cfg.QuotaBytes)
	assert.Equal(t, "info", cfg.LogLevel)

	_, err = os.Stat(filepath.Join(dir, configFileExt))
	assert.NoError(t, err, "first run should write a default config.yaml")
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `data_dir: /tmp/td
cache_dir: /tmp/tc
listen: 0.0.0.0:9000
upstream: http://localhost:3000
quota_bytes: 5242880
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/td", cfg.DataDir)
	assert.Equal(t, "/tmp/tc", cfg.CacheDir)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "http://localhost:3000", cfg.Upstream)
	assert.Equal(t, int64(5242880), cfg.QuotaBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDoesNotOverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	custom := []byte("listen: 127.0.0.1:1234\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), custom, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1234", cfg.Listen)

	data, err := os.ReadFile(filepath.Join(dir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

func TestDBPath(t *testing.T) {
	cfg := Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "timegrid.db"), cfg.DBPath())
}
