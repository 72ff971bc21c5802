// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pipeline decides which locally-held torrents are worth searching:
// content classification, duplicate resolution, and search-history gating.
package pipeline

import (
	"errors"

	"github.com/autobrr/seedcross/internal/metafile"
)

// File is a single file inside a searchee.
type File struct {
	Name   string
	Length int64
}

// Searchee is a locally-known torrent considered as a candidate for finding
// an equivalent release elsewhere. Immutable within one pipeline pass.
type Searchee struct {
	// Name is the stable identity key for deduplication.
	Name string
	// Path is the optional filesystem location, used to detect season-pack
	// structure around single files.
	Path string
	// InfoHash is set when the searchee is backed by client or metafile
	// metadata rather than a bare filename guess.
	InfoHash string
	Files    []File
}

// NewSearchee constructs a searchee, enforcing the non-empty files invariant.
func NewSearchee(name, path, infoHash string, files []File) (*Searchee, error) {
	if len(files) == 0 {
		return nil, errors.New("searchee must have at least one file")
	}
	return &Searchee{Name: name, Path: path, InfoHash: infoHash, Files: files}, nil
}

// FromMetafile builds a resolved searchee from a parsed metafile.
func FromMetafile(mf *metafile.Metafile) (*Searchee, error) {
	files := make([]File, 0, len(mf.Files))
	for _, f := range mf.Files {
		files = append(files, File{Name: f.Path, Length: f.Length})
	}
	return NewSearchee(mf.Name, "", mf.InfoHash, files)
}

// TotalLength returns the sum of all file lengths.
func (s *Searchee) TotalLength() int64 {
	var total int64
	for _, f := range s.Files {
		total += f.Length
	}
	return total
}
