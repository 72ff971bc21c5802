// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deluge

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const labelPlugin = "Label"

// ensureLabel applies the configured label to the torrent, creating the
// label on demand. Returns true if a label set was attempted. The
// create-then-retry sequence runs at most once; a second unknown-label
// failure is returned to the caller.
func (c *Client) ensureLabel(ctx context.Context, infoHash string) (bool, error) {
	if c.label == "" {
		return false, nil
	}

	supported, err := c.labelSupported(ctx)
	if err != nil {
		return false, err
	}
	if !supported {
		return false, nil
	}

	err = c.setLabel(ctx, infoHash)
	if isUnknownLabel(err) {
		if _, err := c.call(ctx, "label.add", c.label); err != nil {
			return false, errors.Wrapf(err, "create label %q", c.label)
		}
		if err := c.setLabel(ctx, infoHash); err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (c *Client) setLabel(ctx context.Context, infoHash string) error {
	_, err := c.call(ctx, "label.set_torrent", infoHash, c.label)
	return err
}

// labelSupported probes the client's plugin set once per session; without
// the Label plugin all label operations are no-ops.
func (c *Client) labelSupported(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.labelProbed {
		ok := c.labelOK
		c.mu.Unlock()
		return ok, nil
	}
	c.mu.Unlock()

	raw, err := c.call(ctx, "core.get_enabled_plugins")
	if err != nil {
		return false, err
	}

	var plugins []string
	if err := json.Unmarshal(raw, &plugins); err != nil {
		return false, errors.Wrap(err, "malformed plugin list")
	}

	ok := slices.Contains(plugins, labelPlugin)
	if !ok {
		log.Debug().Msg("deluge Label plugin not enabled, skipping labelling")
	}

	c.mu.Lock()
	c.labelProbed, c.labelOK = true, ok
	c.mu.Unlock()

	return ok, nil
}

func isUnknownLabel(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && strings.Contains(rpcErr.Message, "Unknown Label")
}
