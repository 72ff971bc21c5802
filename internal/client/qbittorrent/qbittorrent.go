// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package qbittorrent implements the download-client surface on top of the
// qBittorrent Web API.
package qbittorrent

import (
	"context"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seedcross/internal/client"
)

// minStoppedVersion is the Web API version that renamed the "paused" add
// option to "stopped".
var minStoppedVersion = semver.MustParse("2.11.0")

// Options configures a qBittorrent client.
type Options struct {
	// Host is the Web UI base URL, for example http://localhost:8080.
	Host     string
	Username string
	Password string
	// Category is applied to injected torrents; created on demand.
	Category string
	// Tags are applied after injection, when the client supports them.
	Tags []string
	// SkipRecheck skips hash checking on injection.
	SkipRecheck bool
	// StartPaused adds the torrent without starting it.
	StartPaused bool
}

// Client talks to a single qBittorrent instance.
type Client struct {
	qbt         *qbt.Client
	category    string
	tags        []string
	skipRecheck bool
	startPaused bool

	mu              sync.Mutex
	authenticated   bool
	webAPIVersion   string
	categoryEnsured bool
}

func New(opts Options) *Client {
	return &Client{
		qbt: qbt.NewClient(qbt.Config{
			Host:     opts.Host,
			Username: opts.Username,
			Password: opts.Password,
			Timeout:  30,
		}),
		category:    opts.Category,
		tags:        opts.Tags,
		skipRecheck: opts.SkipRecheck,
		startPaused: opts.StartPaused,
	}
}

// Authenticate logs in and probes the Web API version once per session.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	if c.authenticated {
		return nil
	}

	if err := c.qbt.LoginCtx(ctx); err != nil {
		return errors.Wrap(err, "qbittorrent login")
	}

	version, err := c.qbt.GetWebAPIVersionCtx(ctx)
	if err != nil {
		version = ""
	}
	c.webAPIVersion = version
	c.authenticated = true

	log.Debug().Str("webAPIVersion", version).Msg("qbittorrent session established")
	return nil
}

func (c *Client) ensureAuthenticated(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// usesStoppedOption reports whether the instance expects "stopped" instead
// of the legacy "paused" add option.
func (c *Client) usesStoppedOption() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webAPIVersion == "" {
		return false
	}
	v, err := semver.NewVersion(c.webAPIVersion)
	if err != nil {
		return false
	}
	return !v.LessThan(minStoppedVersion)
}

// CheckCompleted reports whether the torrent is finished on the client. An
// unknown hash reports not complete.
func (c *Client) CheckCompleted(ctx context.Context, infoHash string) (bool, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return false, err
	}

	torrents, err := c.qbt.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{infoHash}})
	if err != nil {
		return false, errors.Wrapf(err, "get torrent %s", infoHash)
	}
	if len(torrents) == 0 {
		return false, nil
	}

	t := torrents[0]
	return t.Progress >= 1 || isSeedingState(t.State), nil
}

func isSeedingState(state qbt.TorrentState) bool {
	switch state {
	case qbt.TorrentStateUploading, qbt.TorrentStateStalledUp,
		qbt.TorrentStateQueuedUp, qbt.TorrentStateForcedUp,
		qbt.TorrentStatePausedUp, qbt.TorrentStateCheckingUp:
		return true
	default:
		return false
	}
}

// Inject verifies source completion and submits the metafile. qBittorrent's
// add endpoint does not reliably report duplicates, so existence is checked
// by infohash first; re-injecting the same torrent yields already-exists.
func (c *Client) Inject(ctx context.Context, req *client.InjectRequest) (client.InjectionResult, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return client.InjectionFailure, err
	}

	if req.Searchee != nil && req.Searchee.InfoHash != "" {
		complete, err := c.CheckCompleted(ctx, req.Searchee.InfoHash)
		if err != nil {
			return client.InjectionFailure, err
		}
		if !complete {
			log.Debug().Msgf("not injecting %s: source torrent is not done seeding", req.Metafile.Name)
			return client.InjectionTorrentNotComplete, nil
		}
	}

	existing, err := c.qbt.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{req.Metafile.InfoHash}})
	if err != nil {
		return client.InjectionFailure, errors.Wrap(err, "check for existing torrent")
	}
	if len(existing) > 0 {
		return client.InjectionAlreadyExists, nil
	}

	if err := c.ensureCategory(ctx); err != nil {
		return client.InjectionFailure, err
	}

	options := map[string]string{
		"autoTMM":       "false",
		"contentLayout": "Original",
	}
	if c.category != "" {
		options["category"] = c.category
	}
	if req.DownloadDir != "" {
		options["savepath"] = req.DownloadDir
	}
	if c.skipRecheck {
		options["skip_checking"] = "true"
	}
	if c.startPaused {
		if c.usesStoppedOption() {
			options["stopped"] = "true"
		} else {
			options["paused"] = "true"
		}
	}

	if err := c.qbt.AddTorrentFromMemoryCtx(ctx, req.Metafile.RawBytes, options); err != nil {
		log.Error().Err(err).Msgf("qbittorrent rejected %s", req.Metafile.Name)
		return client.InjectionFailure, nil
	}

	if len(c.tags) > 0 {
		if err := c.qbt.AddTagsCtx(ctx, []string{req.Metafile.InfoHash}, strings.Join(c.tags, ",")); err != nil {
			log.Warn().Err(err).Msgf("could not tag %s", req.Metafile.Name)
		}
	}

	return client.InjectionSuccess, nil
}

// ensureCategory creates the configured category once per session if the
// client does not have it yet.
func (c *Client) ensureCategory(ctx context.Context) error {
	if c.category == "" {
		return nil
	}

	c.mu.Lock()
	ensured := c.categoryEnsured
	c.mu.Unlock()
	if ensured {
		return nil
	}

	categories, err := c.qbt.GetCategoriesCtx(ctx)
	if err != nil {
		return errors.Wrap(err, "get categories")
	}

	if _, ok := categories[c.category]; !ok {
		if err := c.qbt.CreateCategoryCtx(ctx, c.category, ""); err != nil {
			return errors.Wrapf(err, "create category %q", c.category)
		}
		log.Debug().Msgf("created category %q", c.category)
	}

	c.mu.Lock()
	c.categoryEnsured = true
	c.mu.Unlock()

	return nil
}
