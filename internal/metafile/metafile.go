// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metafile reads torrent metafiles into the minimal view the
// injection pipeline needs: name, infohash, file layout, and the raw encoded
// bytes to hand to a download client.
package metafile

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/pkg/errors"
	"github.com/zeebo/bencode"
)

// FileEntry is a single file inside a metafile.
type FileEntry struct {
	Path   string
	Length int64
}

// Metafile is a parsed torrent metafile. RawBytes are the original encoded
// bytes, passed through untouched to the client.
type Metafile struct {
	Name     string
	InfoHash string
	Files    []FileEntry
	RawBytes []byte
}

// Load reads and parses a metafile from disk.
func Load(path string) (*Metafile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metafile %s", path)
	}
	mf, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse metafile %s", path)
	}
	return mf, nil
}

// Parse decodes encoded torrent bytes.
func Parse(data []byte) (*Metafile, error) {
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "load metainfo")
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal info dict")
	}

	mf := &Metafile{
		Name:     info.Name,
		InfoHash: mi.HashInfoBytes().HexString(),
		RawBytes: data,
	}

	if len(info.Files) == 0 {
		mf.Files = []FileEntry{{Path: info.Name, Length: info.Length}}
		return mf, nil
	}

	for _, f := range info.Files {
		mf.Files = append(mf.Files, FileEntry{
			Path:   filepath.Join(append([]string{info.Name}, f.Path...)...),
			Length: f.Length,
		})
	}

	return mf, nil
}

// TotalLength returns the sum of all file lengths.
func (m *Metafile) TotalLength() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// ValidateEncoded checks that a downloaded payload is a bencoded dictionary
// carrying an info key, before it is handed to a client. Indexers sometimes
// return HTML error pages with a 200 status.
func ValidateEncoded(data []byte) error {
	var dict map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(data, &dict); err != nil {
		return errors.Wrap(err, "payload is not bencoded")
	}
	if _, ok := dict["info"]; !ok {
		return errors.New("payload has no info dictionary")
	}
	return nil
}
