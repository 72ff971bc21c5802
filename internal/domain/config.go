// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config represents the application configuration.
type Config struct {
	Version       string
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`

	// TorrentDir is scanned for .torrent files to build the local inventory.
	TorrentDir string `toml:"torrentDir" mapstructure:"torrentDir"`
	// OutputDir receives matched metafiles when no download client is configured.
	OutputDir string `toml:"outputDir" mapstructure:"outputDir"`

	// Client is the download client connection URL, with optional embedded
	// credentials. Supported schemes: deluge, qbittorrent.
	Client string `toml:"client" mapstructure:"client"`
	// Category is the label/category applied to injected torrents.
	Category string `toml:"category" mapstructure:"category"`
	// SkipRecheck injects torrents without forcing a piece recheck.
	SkipRecheck bool `toml:"skipRecheck" mapstructure:"skipRecheck"`

	IncludeEpisodes       bool `toml:"includeEpisodes" mapstructure:"includeEpisodes"`
	IncludeSingleEpisodes bool `toml:"includeSingleEpisodes" mapstructure:"includeSingleEpisodes"`
	IncludeNonVideos      bool `toml:"includeNonVideos" mapstructure:"includeNonVideos"`

	// ExcludeOlder skips searchees whose earliest search on any enabled
	// indexer is older than this window. Zero disables the rule.
	ExcludeOlder time.Duration `toml:"excludeOlder" mapstructure:"excludeOlder"`
	// ExcludeRecentSearch skips searchees searched more recently than this
	// window on any enabled indexer. Zero disables the rule.
	ExcludeRecentSearch time.Duration `toml:"excludeRecentSearch" mapstructure:"excludeRecentSearch"`

	// SearchCadence is the interval between pipeline runs in daemon mode.
	SearchCadence time.Duration `toml:"searchCadence" mapstructure:"searchCadence"`
	// SearchLimit caps results requested per indexer query.
	SearchLimit int `toml:"searchLimit" mapstructure:"searchLimit"`

	Indexers []IndexerConfig `toml:"indexers" mapstructure:"indexers"`
}

// IndexerConfig describes a single Torznab indexer.
type IndexerConfig struct {
	Name    string `toml:"name" mapstructure:"name"`
	BaseURL string `toml:"baseUrl" mapstructure:"baseUrl"`
	APIKey  string `toml:"apiKey" mapstructure:"apiKey"`
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
}

// ParseClientURL parses and validates the configured client connection URL.
// A URL that supplies a username without a password is rejected up front;
// no client operation can succeed with half a credential.
func (c *Config) ParseClientURL() (*url.URL, error) {
	if c.Client == "" {
		return nil, nil
	}

	u, err := url.Parse(c.Client)
	if err != nil {
		return nil, fmt.Errorf("invalid client URL %q: %w", c.Client, err)
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); u.User.Username() != "" && !hasPassword {
			return nil, fmt.Errorf("client URL %q supplies a username without a password", u.Redacted())
		}
	}

	switch u.Scheme {
	case "deluge", "qbittorrent", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported client scheme %q", u.Scheme)
	}

	return u, nil
}

// Validate checks settings that must hold before any pipeline work begins.
func (c *Config) Validate() error {
	if c.TorrentDir == "" {
		return errors.New("torrentDir is required")
	}
	if c.Client == "" && c.OutputDir == "" {
		return errors.New("either a client URL or an outputDir is required")
	}
	if _, err := c.ParseClientURL(); err != nil {
		return err
	}
	return nil
}
