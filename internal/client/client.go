// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package client defines the download-client surface the injector and the
// pipeline depend on, with one implementation per backend.
package client

import (
	"context"

	"github.com/autobrr/seedcross/internal/metafile"
	"github.com/autobrr/seedcross/internal/pipeline"
)

// InjectionResult is a normal outcome of an injection attempt, never an
// error. Faults (connectivity, authentication) travel separately.
type InjectionResult int

const (
	InjectionSuccess InjectionResult = iota
	InjectionAlreadyExists
	InjectionTorrentNotComplete
	InjectionFailure
)

func (r InjectionResult) String() string {
	switch r {
	case InjectionSuccess:
		return "success"
	case InjectionAlreadyExists:
		return "already exists"
	case InjectionTorrentNotComplete:
		return "source torrent not complete"
	case InjectionFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// InjectRequest carries a candidate metafile and the searchee it matched.
type InjectRequest struct {
	Metafile *metafile.Metafile
	Searchee *pipeline.Searchee
	// DownloadDir overrides the client's default save location.
	DownloadDir string
}

// Client is a download-client backend.
type Client interface {
	// Authenticate establishes a session with the client. Backends also
	// authenticate lazily on first use; calling this up front surfaces
	// credential problems before pipeline work begins.
	Authenticate(ctx context.Context) error

	// CheckCompleted reports whether the torrent with the given infohash is
	// in a seeding/complete state on the client. An unknown hash reports
	// not complete.
	CheckCompleted(ctx context.Context, infoHash string) (bool, error)

	// Inject submits the metafile so it attaches to already-downloaded
	// data. The result is an outcome, not a fault; a non-nil error means
	// the operation itself could not run (connectivity, authentication).
	Inject(ctx context.Context, req *InjectRequest) (InjectionResult, error)
}
