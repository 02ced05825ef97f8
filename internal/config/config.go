// Package config loads timegrid settings from config.yaml via Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir    = "data_dir"
	cfgKeyCacheDir   = "cache_dir"
	cfgKeyListen     = "listen"
	cfgKeyUpstream   = "upstream"
	cfgKeyQuotaBytes = "quota_bytes"
	cfgKeyLogLevel   = "log_level"

	defaultListen   = "127.0.0.1:8742"
	defaultLogLevel = "info"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# timegrid configuration

# Where the timesheet database lives (default: <config dir>/timegrid)
# data_dir:

# Where the offline page cache lives (default: <data_dir>/cache)
# cache_dir:

# Address for timegrid serve
listen: 127.0.0.1:8742

# Optional upstream to cache pages from. Empty serves the built-in UI.
# upstream: http://localhost:3000

# Storage quota in bytes, 0 = unlimited
quota_bytes: 0

# debug, info or error
log_level: info
`

// Config is the resolved runtime configuration.
type Config struct {
	DataDir    string
	CacheDir   string
	Listen     string
	Upstream   string
	QuotaBytes int64
	LogLevel   string
}

// DBPath returns the timesheet database location under the data dir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "timegrid.db")
}

// DefaultDir returns the per-user config directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "timegrid"), nil
}

// Load reads config.yaml from dir, creating the directory and a default
// file on first run. A missing config.yaml is not an error.
func Load(dir string) (Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDataDir, dir)
	v.SetDefault(cfgKeyListen, defaultListen)
	v.SetDefault(cfgKeyQuotaBytes, 0)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DataDir:    v.GetString(cfgKeyDataDir),
		CacheDir:   v.GetString(cfgKeyCacheDir),
		Listen:     v.GetString(cfgKeyListen),
		Upstream:   v.GetString(cfgKeyUpstream),
		QuotaBytes: v.GetInt64(cfgKeyQuotaBytes),
		LogLevel:   v.GetString(cfgKeyLogLevel),
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}
	return cfg, nil
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
