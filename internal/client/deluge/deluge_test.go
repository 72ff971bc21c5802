// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package deluge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seedcross/internal/client"
	"github.com/autobrr/seedcross/internal/metafile"
	"github.com/autobrr/seedcross/internal/pipeline"
)

const testPassword = "secret"

// fakeDeluge scripts the web API endpoint for tests.
type fakeDeluge struct {
	mu           sync.Mutex
	calls        []string
	loginCount   int
	sessionValid bool
	handlers     map[string]func(params []any) (any, *rpcErrorBody)

	server *httptest.Server
}

func newFakeDeluge(t *testing.T) *fakeDeluge {
	t.Helper()

	f := &fakeDeluge{
		sessionValid: true,
		handlers:     map[string]func(params []any) (any, *rpcErrorBody){},
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, req.Method)
		f.mu.Unlock()

		var result any
		var rpcErr *rpcErrorBody

		switch req.Method {
		case "auth.login":
			f.mu.Lock()
			f.loginCount++
			f.mu.Unlock()
			ok := len(req.Params) == 1 && req.Params[0] == testPassword
			if ok {
				f.mu.Lock()
				f.sessionValid = true
				f.mu.Unlock()
				w.Header().Set("Set-Cookie", "_session_id=abc123; Path=/json; HttpOnly")
			}
			result = ok
		case "auth.check_session":
			f.mu.Lock()
			result = f.sessionValid
			f.mu.Unlock()
		default:
			f.mu.Lock()
			handler, ok := f.handlers[req.Method]
			f.mu.Unlock()
			if !ok {
				rpcErr = &rpcErrorBody{Message: "Unknown method " + req.Method, Code: 2}
			} else {
				result, rpcErr = handler(req.Params)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     req.ID,
			"result": result,
			"error":  rpcErr,
		})
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeDeluge) clientURL(t *testing.T, password string) string {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	return "deluge://:" + password + "@" + u.Host
}

func (f *fakeDeluge) handle(method string, handler func(params []any) (any, *rpcErrorBody)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = handler
}

func (f *fakeDeluge) invalidateSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionValid = false
}

func (f *fakeDeluge) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

func (f *fakeDeluge) logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCount
}

func newTestClient(t *testing.T, f *fakeDeluge, opts Options) *Client {
	t.Helper()
	opts.URL = f.clientURL(t, testPassword)
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func testInjectRequest(infoHash string) *client.InjectRequest {
	return &client.InjectRequest{
		Metafile: &metafile.Metafile{
			Name:     "Some.Release.2020.1080p.WEB.x264-GRP",
			InfoHash: "feedfacefeedfacefeedfacefeedfacefeedface",
			RawBytes: []byte("d4:infod4:name4:teste"),
		},
		Searchee: &pipeline.Searchee{
			Name:     "Some.Release.2020.1080p.WEB.x264-GRP",
			InfoHash: infoHash,
			Files:    []pipeline.File{{Name: "f.mkv", Length: 1}},
		},
	}
}

func seedingStatus(params []any) (any, *rpcErrorBody) {
	return map[string]any{"state": "Seeding", "progress": 100.0}, nil
}

func TestNewRejectsBadURLs(t *testing.T) {
	_, err := New(Options{URL: "deluge://localhost:8112"})
	assert.Error(t, err)

	_, err = New(Options{URL: "deluge://admin@localhost:8112"})
	assert.Error(t, err)

	_, err = New(Options{URL: "deluge://:password@localhost:8112"})
	assert.NoError(t, err)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	f := newFakeDeluge(t)

	c, err := New(Options{URL: f.clientURL(t, "wrong")})
	require.NoError(t, err)

	err = c.Authenticate(context.Background())
	assert.ErrorContains(t, err, "rejected")
}

func TestCheckCompleted(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", seedingStatus)

	c := newTestClient(t, f, Options{})

	done, err := c.CheckCompleted(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCheckCompletedUnknownHash(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", func(_ []any) (any, *rpcErrorBody) {
		return nil, &rpcErrorBody{Message: "torrent_id not in session", Code: 4}
	})

	c := newTestClient(t, f, Options{})

	// An RPC error reply means "not complete", never a fault.
	done, err := c.CheckCompleted(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCheckCompletedConnectivityError(t *testing.T) {
	f := newFakeDeluge(t)
	c := newTestClient(t, f, Options{})
	f.server.Close()

	_, err := c.CheckCompleted(context.Background(), "aaaa")
	require.Error(t, err)

	var rpcErr *RPCError
	assert.False(t, errors.As(err, &rpcErr))
}

func TestInjectIdempotence(t *testing.T) {
	f := newFakeDeluge(t)

	added := false
	f.handle("core.add_torrent_file", func(_ []any) (any, *rpcErrorBody) {
		if added {
			return nil, &rpcErrorBody{Message: "Torrent already in session (feedface)", Code: 1}
		}
		added = true
		return "feedface", nil
	})

	c := newTestClient(t, f, Options{})
	req := testInjectRequest("")

	result, err := c.Inject(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, client.InjectionSuccess, result)

	result, err = c.Inject(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, client.InjectionAlreadyExists, result)
}

func TestInjectSourceNotComplete(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", func(_ []any) (any, *rpcErrorBody) {
		return nil, &rpcErrorBody{Message: "torrent_id not in session", Code: 4}
	})

	c := newTestClient(t, f, Options{})

	result, err := c.Inject(context.Background(), testInjectRequest("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, client.InjectionTorrentNotComplete, result)

	// The new torrent must never have been submitted.
	assert.Zero(t, f.callCount("core.add_torrent_file"))
}

func TestInjectLabelCreateRetryOnce(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", seedingStatus)
	f.handle("core.add_torrent_file", func(_ []any) (any, *rpcErrorBody) {
		return "feedface", nil
	})
	f.handle("core.get_enabled_plugins", func(_ []any) (any, *rpcErrorBody) {
		return []string{"Label"}, nil
	})

	labelExists := false
	f.handle("label.add", func(_ []any) (any, *rpcErrorBody) {
		labelExists = true
		return nil, nil
	})
	f.handle("label.set_torrent", func(_ []any) (any, *rpcErrorBody) {
		if !labelExists {
			return nil, &rpcErrorBody{Message: "Unknown Label", Code: 1}
		}
		return nil, nil
	})

	c := newTestClient(t, f, Options{Label: "cross-seed"})

	result, err := c.Inject(context.Background(), testInjectRequest("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, client.InjectionSuccess, result)

	assert.Equal(t, 1, f.callCount("label.add"))
	assert.Equal(t, 2, f.callCount("label.set_torrent"))
}

func TestInjectLabelNoSecondRetry(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", seedingStatus)
	f.handle("core.add_torrent_file", func(_ []any) (any, *rpcErrorBody) {
		return "feedface", nil
	})
	f.handle("core.get_enabled_plugins", func(_ []any) (any, *rpcErrorBody) {
		return []string{"Label"}, nil
	})
	f.handle("label.add", func(_ []any) (any, *rpcErrorBody) {
		return nil, nil
	})
	// The label stays unknown even after creation.
	f.handle("label.set_torrent", func(_ []any) (any, *rpcErrorBody) {
		return nil, &rpcErrorBody{Message: "Unknown Label", Code: 1}
	})

	c := newTestClient(t, f, Options{Label: "cross-seed"})

	// Labelling is best-effort; injection still succeeds.
	result, err := c.Inject(context.Background(), testInjectRequest("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, client.InjectionSuccess, result)

	assert.Equal(t, 1, f.callCount("label.add"))
	assert.Equal(t, 2, f.callCount("label.set_torrent"))
}

func TestInjectLabelPluginDisabled(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", seedingStatus)
	f.handle("core.add_torrent_file", func(_ []any) (any, *rpcErrorBody) {
		return "feedface", nil
	})
	f.handle("core.get_enabled_plugins", func(_ []any) (any, *rpcErrorBody) {
		return []string{"AutoAdd"}, nil
	})

	c := newTestClient(t, f, Options{Label: "cross-seed"})

	result, err := c.Inject(context.Background(), testInjectRequest("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, client.InjectionSuccess, result)

	assert.Zero(t, f.callCount("label.set_torrent"))

	// The plugin probe runs once per client lifetime.
	_, err = c.Inject(context.Background(), testInjectRequest("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.callCount("core.get_enabled_plugins"))
}

func TestSessionReauthenticatesOnce(t *testing.T) {
	f := newFakeDeluge(t)
	f.handle("core.get_torrent_status", seedingStatus)

	c := newTestClient(t, f, Options{})

	_, err := c.CheckCompleted(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.Equal(t, 1, f.logins())

	f.invalidateSession()

	_, err = c.CheckCompleted(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.Equal(t, 2, f.logins())
}
