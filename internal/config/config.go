// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the application configuration from file, environment,
// and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/autobrr/seedcross/internal/domain"
)

const envPrefix = "SEEDCROSS"

// AppConfig wraps the loaded configuration.
type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper
}

// New loads configuration from the given path (a file or a directory
// containing config.toml). An empty path falls back to defaults plus
// environment overrides.
func New(configPath, version string) (*AppConfig, error) {
	c := &AppConfig{viper: viper.New()}

	c.defaults()

	c.viper.SetEnvPrefix(envPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()

	if configPath != "" {
		if err := c.readFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg := &domain.Config{Version: version}
	if err := c.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	c.Config = cfg
	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("dataDir", defaultDataDir())
	c.viper.SetDefault("searchCadence", "1h")
	c.viper.SetDefault("searchLimit", 50)
	c.viper.SetDefault("skipRecheck", false)
}

func (c *AppConfig) readFile(configPath string) error {
	info, err := os.Stat(configPath)
	switch {
	case err == nil && info.IsDir():
		c.viper.SetConfigName("config")
		c.viper.SetConfigType("toml")
		c.viper.AddConfigPath(configPath)
	case err == nil:
		c.viper.SetConfigFile(configPath)
	default:
		return fmt.Errorf("config path %s: %w", configPath, err)
	}

	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

// DatabasePath returns the path of the SQLite database inside the data dir.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.Config.DataDir, "seedcross.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "seedcross")
}
