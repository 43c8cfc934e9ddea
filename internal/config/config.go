package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Legacy   LegacyConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings for the current ledger store.
type DatabaseConfig struct {
	Path           string
	MigrationsPath string
}

// LegacyConfig points at the old-schema database, when one exists.
type LegacyConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix MONEYWALLET_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "moneywallet", "moneywallet.db"))
	v.SetDefault("database.migrations_path", "internal/database/migrations")
	v.SetDefault("legacy.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "moneywallet", "legacy.db"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MONEYWALLET_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "moneywallet"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MONEYWALLET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
