// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deluge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// msgIDCeiling bounds the request id counter. Ids only correlate a request
// with its synchronous response, so wrapping is harmless.
const msgIDCeiling = 1024

type rpcRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RPCError is an application-level error reply from the deluge web API. It
// is data for the caller to interpret, not a transport fault.
type RPCError struct {
	Method  string
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("deluge %s: %s", e.Method, e.Message)
}

// call is the single entry point for authenticated RPCs. A fresh session
// logs in first; an existing session is probed and re-established at most
// once per call, so a systemically broken client cannot cause a retry loop.
func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.authenticated {
		ok, err := c.checkSession(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug().Str("endpoint", c.endpoint).Msg("deluge session expired, re-authenticating")
			c.authenticated = false
		}
	}

	if !c.authenticated {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	return c.do(ctx, method, params)
}

func (c *Client) login(ctx context.Context) error {
	raw, err := c.do(ctx, "auth.login", []any{c.password})
	if err != nil {
		return errors.Wrap(err, "deluge login")
	}

	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil || !ok {
		return errors.New("deluge rejected the configured password")
	}

	c.authenticated = true
	return nil
}

// checkSession probes session validity. An error reply counts as a negative
// probe; only transport failures surface as errors.
func (c *Client) checkSession(ctx context.Context) (bool, error) {
	raw, err := c.do(ctx, "auth.check_session", nil)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return false, nil
		}
		return false, err
	}

	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, errors.Wrap(err, "malformed check_session response")
	}
	return ok, nil
}

func (c *Client) nextID() int {
	id := c.msgID
	c.msgID = (c.msgID + 1) % msgIDCeiling
	return id
}

// do performs a single RPC round trip. Transport failures are connectivity
// errors; an error field in a well-formed reply becomes an *RPCError.
func (c *Client) do(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(rpcRequest{ID: c.nextID(), Method: method, Params: params})
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot reach deluge at %s", c.endpoint)
	}
	defer resp.Body.Close()

	if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
		c.cookie = strings.SplitN(cookie, ";", 2)[0]
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("deluge returned status %d for %s", resp.StatusCode, method)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", method)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrapf(err, "malformed %s response", method)
	}

	if parsed.Error != nil {
		return nil, &RPCError{Method: method, Message: parsed.Error.Message, Code: parsed.Error.Code}
	}

	return parsed.Result, nil
}
