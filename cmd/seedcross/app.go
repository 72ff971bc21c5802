// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/autobrr/seedcross/internal/buildinfo"
	"github.com/autobrr/seedcross/internal/client"
	"github.com/autobrr/seedcross/internal/client/deluge"
	"github.com/autobrr/seedcross/internal/client/qbittorrent"
	"github.com/autobrr/seedcross/internal/config"
	"github.com/autobrr/seedcross/internal/database"
	"github.com/autobrr/seedcross/internal/domain"
	"github.com/autobrr/seedcross/internal/logger"
	"github.com/autobrr/seedcross/internal/models"
	"github.com/autobrr/seedcross/internal/pipeline"
	"github.com/autobrr/seedcross/internal/services/crossseed"
)

// app holds the wired application: configuration, storage, and the pipeline
// service.
type app struct {
	cfg     *domain.Config
	db      *database.DB
	service *crossseed.Service
}

// newApp loads configuration and wires every component. Indexers from the
// config file are synced into the database so history rows can reference
// them.
func newApp(ctx context.Context, configPath string) (*app, error) {
	appCfg, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return nil, err
	}
	cfg := appCfg.Config

	logger.Setup(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.New(appCfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	indexerStore := models.NewIndexerStore(db)
	historyStore := models.NewSearchHistoryStore(db)

	seeds := make([]models.IndexerSeed, 0, len(cfg.Indexers))
	for _, idx := range cfg.Indexers {
		seeds = append(seeds, models.IndexerSeed{
			Name:    idx.Name,
			BaseURL: idx.BaseURL,
			APIKey:  idx.APIKey,
			Enabled: idx.Enabled,
		})
	}
	if err := indexerStore.Sync(ctx, seeds); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync indexers: %w", err)
	}

	downloadClient, err := buildClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	gate := pipeline.NewTimestampGate(historyStore, indexerStore, pipeline.GateConfig{
		ExcludeOlder:        cfg.ExcludeOlder,
		ExcludeRecentSearch: cfg.ExcludeRecentSearch,
	})

	service := crossseed.NewService(
		crossseed.Config{
			TorrentDir: cfg.TorrentDir,
			OutputDir:  cfg.OutputDir,
			Filter: pipeline.FilterConfig{
				IncludeEpisodes:       cfg.IncludeEpisodes,
				IncludeSingleEpisodes: cfg.IncludeSingleEpisodes,
				IncludeNonVideos:      cfg.IncludeNonVideos,
			},
			SearchLimit: cfg.SearchLimit,
		},
		indexerStore,
		historyStore,
		gate,
		downloadClient,
		nil,
	)

	return &app{cfg: cfg, db: db, service: service}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// buildClient constructs the download-client backend from the connection URL
// scheme. Construction lives here so the backends stay independent of each
// other.
func buildClient(cfg *domain.Config) (client.Client, error) {
	u, err := cfg.ParseClientURL()
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	switch u.Scheme {
	case "deluge":
		return deluge.New(deluge.Options{
			URL:         cfg.Client,
			Label:       cfg.Category,
			SkipRecheck: cfg.SkipRecheck,
		})
	case "qbittorrent", "http", "https":
		return buildQbitClient(cfg, u), nil
	default:
		return nil, fmt.Errorf("unsupported client scheme %q", u.Scheme)
	}
}

func buildQbitClient(cfg *domain.Config, u *url.URL) *qbittorrent.Client {
	scheme := "http"
	if u.Scheme == "https" {
		scheme = "https"
	}

	var username, password string
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}

	host := scheme + "://" + u.Host
	if path := strings.TrimRight(u.Path, "/"); path != "" {
		host += path
	}

	return qbittorrent.New(qbittorrent.Options{
		Host:        host,
		Username:    username,
		Password:    password,
		Category:    cfg.Category,
		SkipRecheck: cfg.SkipRecheck,
	})
}

// verifyClient authenticates up front so credential problems surface before
// any pipeline work.
func (a *app) verifyClient(ctx context.Context) error {
	cl := a.service.DownloadClient()
	if cl == nil {
		return nil
	}

	authCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := cl.Authenticate(authCtx); err != nil {
		return fmt.Errorf("download client authentication failed: %w", err)
	}
	return nil
}
