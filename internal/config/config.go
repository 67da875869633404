// Package config loads drowse configuration from the data directory,
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full drowse configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	LibSQL   LibSQLConfig   `mapstructure:"libsql"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Insights InsightsConfig `mapstructure:"insights"`
	UI       UIConfig       `mapstructure:"ui"`
}

// StorageConfig selects and locates the session store.
type StorageConfig struct {
	// Driver is the registered store backend, "sqlite" or "libsql".
	Driver string `mapstructure:"driver"`
	// Path is the database file. Empty selects a remote-only libsql
	// connection.
	Path string `mapstructure:"path"`
	// CacheDir holds the compiled WASM cache for the sqlite driver.
	CacheDir string `mapstructure:"cache_dir"`
}

// LibSQLConfig configures the embedded replica backend.
type LibSQLConfig struct {
	URL          string        `mapstructure:"url"`
	AuthToken    string        `mapstructure:"auth_token"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// DaemonConfig configures the background daemon.
type DaemonConfig struct {
	Addr          string `mapstructure:"addr"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// InsightsConfig configures the sleep insights command.
type InsightsConfig struct {
	Model     string `mapstructure:"model"`
	MaxNights int    `mapstructure:"max_nights"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	// Theme is a TOML theme file path, relative paths resolve against
	// the data directory. Empty uses the built-in theme.
	Theme string `mapstructure:"theme"`
}

// DefaultDataDir returns the default drowse data directory.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".drowse"), nil
}

// Load reads configuration for the given data directory.
//
// Sources, lowest precedence first: built-in defaults, config.yaml in
// the data directory (or cfgFile when set), then DROWSE_* environment
// variables. A missing config file is not an error.
func Load(dataDir, cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", filepath.Join(dataDir, "drowse.db"))
	v.SetDefault("storage.cache_dir", filepath.Join(dataDir, "cache"))
	v.SetDefault("libsql.url", "")
	v.SetDefault("libsql.auth_token", "")
	v.SetDefault("libsql.sync_interval", "5m")
	v.SetDefault("daemon.addr", "127.0.0.1:7379")
	v.SetDefault("daemon.log_file", filepath.Join(dataDir, "daemon.log"))
	v.SetDefault("daemon.log_max_size_mb", 10)
	v.SetDefault("daemon.log_max_backups", 3)
	v.SetDefault("insights.model", "claude-sonnet-4-5")
	v.SetDefault("insights.max_nights", 30)
	v.SetDefault("ui.theme", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
	}

	v.SetEnvPrefix("DROWSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Driver == "" {
		return fmt.Errorf("storage.driver cannot be empty")
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite driver")
	}
	if c.Storage.Driver == "libsql" && c.LibSQL.URL == "" {
		return fmt.Errorf("libsql.url is required for the libsql driver")
	}
	if c.LibSQL.SyncInterval <= 0 {
		return fmt.Errorf("libsql.sync_interval must be positive")
	}
	if c.Insights.MaxNights <= 0 {
		return fmt.Errorf("insights.max_nights must be positive")
	}
	return nil
}
