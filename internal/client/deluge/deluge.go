// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package deluge implements the download-client surface against the deluge
// web API: a JSON request/response protocol with a cookie-carried session.
package deluge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seedcross/internal/client"
)

const defaultTimeout = 30 * time.Second

// torrentFileSuffix is appended to the release name to form the submitted
// filename.
const torrentFileSuffix = ".seedcross.torrent"

// Options configures a deluge client.
type Options struct {
	// URL is the web UI endpoint with the password embedded, for example
	// deluge://:password@localhost:8112.
	URL string
	// Label is applied to injected torrents when the Label plugin is
	// enabled. Empty disables labelling.
	Label string
	// SkipRecheck injects in seed mode, skipping the piece recheck.
	SkipRecheck bool
	Timeout     time.Duration
}

// Client talks to a single deluge web endpoint. Session state (auth flag,
// cookie, message id counter) is guarded by a single lock around the
// authenticate-then-call sequence.
type Client struct {
	endpoint    string
	password    string
	label       string
	skipRecheck bool
	httpClient  *http.Client

	mu            sync.Mutex
	authenticated bool
	cookie        string
	msgID         int

	labelProbed bool
	labelOK     bool
}

// New parses and validates the connection URL. Deluge authenticates with a
// password only; a URL carrying a username without a password is a
// configuration error, surfaced before any pipeline work.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid deluge URL %q", opts.URL)
	}

	if u.User == nil {
		return nil, errors.New("deluge URL must embed the web UI password")
	}
	password, hasPassword := u.User.Password()
	if !hasPassword {
		if u.User.Username() != "" {
			return nil, errors.Errorf("deluge URL %s has a username but no password", u.Redacted())
		}
		return nil, errors.New("deluge URL must embed the web UI password")
	}

	scheme := "http"
	if u.Scheme == "https" {
		scheme = "https"
	}
	path := u.Path
	if path == "" || path == "/" {
		path = "/json"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:    scheme + "://" + u.Host + path,
		password:    password,
		label:       opts.Label,
		skipRecheck: opts.SkipRecheck,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// Authenticate establishes a session up front.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.authenticated {
		return nil
	}
	return c.login(ctx)
}

// CheckCompleted reports whether the torrent is done on the client. An
// error reply (unknown hash included) reports not complete; only transport
// failures surface as errors.
func (c *Client) CheckCompleted(ctx context.Context, infoHash string) (bool, error) {
	raw, err := c.call(ctx, "core.get_torrent_status", infoHash, []string{"state", "progress"})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			log.Debug().Msgf("torrent status lookup for %s failed: %s", infoHash, rpcErr.Message)
			return false, nil
		}
		return false, err
	}

	var status struct {
		State    string  `json:"state"`
		Progress float64 `json:"progress"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return false, errors.Wrap(err, "malformed torrent status")
	}

	return status.State == "Seeding" || status.Progress >= 100, nil
}

// Inject verifies source completion, submits the metafile, and interprets
// the reply. Submitting the same torrent twice yields success then
// already-exists, never two successes.
func (c *Client) Inject(ctx context.Context, req *client.InjectRequest) (client.InjectionResult, error) {
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

	options := map[string]any{
		"add_paused":   false,
		"auto_managed": false,
		"seed_mode":    c.skipRecheck,
	}
	if req.DownloadDir != "" {
		options["download_location"] = req.DownloadDir
	}

	filename := req.Metafile.Name + torrentFileSuffix
	encoded := base64.StdEncoding.EncodeToString(req.Metafile.RawBytes)

	_, err := c.call(ctx, "core.add_torrent_file", filename, encoded, options)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			return client.InjectionFailure, err
		}
		if strings.Contains(rpcErr.Message, "already in session") {
			return client.InjectionAlreadyExists, nil
		}
		log.Error().Msgf("deluge rejected %s: %s", req.Metafile.Name, rpcErr.Message)
		return client.InjectionFailure, nil
	}

	// Labelling is best-effort; the injection outcome stands either way.
	if _, err := c.ensureLabel(ctx, req.Metafile.InfoHash); err != nil {
		log.Warn().Err(err).Msgf("could not label %s", req.Metafile.Name)
	}

	return client.InjectionSuccess, nil
}
