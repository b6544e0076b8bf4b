package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// cliConfig holds the resolved CLI configuration. Precedence is
// flag > TREELOG_* environment variable > config file > default.
type cliConfig struct {
	StorePath string `mapstructure:"store_path" yaml:"store_path"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose"`
}

// loadConfig resolves configuration through viper. A missing config
// file is fine; a malformed one is not.
func loadConfig() (cliConfig, error) {
	v := viper.New()
	v.SetDefault("store_path", defaultStorePath())
	v.SetDefault("log_level", "warn")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("TREELOG")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(xdgConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// defaultStorePath places the event log in the XDG data directory.
func defaultStorePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "treelog", "events.json")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "treelog", "events.json")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(homeDir, "Library", "Application Support", "treelog", "events.json")
	}
	return filepath.Join(homeDir, ".local", "share", "treelog", "events.json")
}

// xdgConfigDir returns the config directory for treelog.
func xdgConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "treelog")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "treelog")
	}
	return filepath.Join(homeDir, ".config", "treelog")
}
