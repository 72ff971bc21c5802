// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moistari/rls"
	"github.com/rs/zerolog/log"
)

// PrefilterResult is the content classification of a single searchee.
type PrefilterResult int

const (
	Included PrefilterResult = iota
	ExcludedSingleEpisode
	ExcludedSeasonPackEpisode
	ExcludedNonVideos
)

func (r PrefilterResult) String() string {
	switch r {
	case Included:
		return "included"
	case ExcludedSingleEpisode:
		return "single episode"
	case ExcludedSeasonPackEpisode:
		return "season pack episode"
	case ExcludedNonVideos:
		return "non-video"
	default:
		return "unknown"
	}
}

// FilterConfig holds the content-inclusion flags.
type FilterConfig struct {
	// IncludeEpisodes opts into episodes generally, season-pack members
	// included.
	IncludeEpisodes bool
	// IncludeSingleEpisodes opts into standalone single episodes only. A
	// lone file extracted from a season pack is still excluded; the two
	// flags are not equivalent.
	IncludeSingleEpisodes bool
	IncludeNonVideos      bool
}

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".m4v": {}, ".wmv": {}, ".mov": {},
	".ts": {}, ".m2ts": {}, ".vob": {}, ".mpg": {}, ".mpeg": {}, ".webm": {}, ".flv": {},
}

// seasonFolderPattern matches plain season folder names like "Season 01" or
// "Specials" that release-name parsing does not recognize.
var seasonFolderPattern = regexp.MustCompile(`(?i)^(?:season\s*\d+|specials?)$`)

// Classify applies the content rules in order, first match wins.
func Classify(s *Searchee, cfg FilterConfig) PrefilterResult {
	singleEpisode := len(s.Files) == 1 && isEpisodeName(s.Name)
	inSeasonPack := singleEpisode && isSeasonPackDir(parentDirName(s.Path))

	if singleEpisode && !inSeasonPack && !cfg.IncludeEpisodes && !cfg.IncludeSingleEpisodes {
		return ExcludedSingleEpisode
	}

	// A single file inside a season-pack directory is one extracted episode
	// of a pack, not a standalone single. Only the parent directory name
	// disambiguates the two shapes.
	if singleEpisode && inSeasonPack && cfg.IncludeSingleEpisodes && !cfg.IncludeEpisodes {
		return ExcludedSeasonPackEpisode
	}

	if !cfg.IncludeNonVideos && !allVideos(s.Files) {
		return ExcludedNonVideos
	}

	return Included
}

// FilterAll classifies a batch, logging each exclusion and the per-category
// tallies, and returns the included searchees in input order plus the counts.
func FilterAll(searchees []*Searchee, cfg FilterConfig) ([]*Searchee, map[PrefilterResult]int) {
	type tally struct {
		count  int
		reason string
	}

	// Counts and user-facing reasons keyed together so they cannot diverge.
	tallies := map[PrefilterResult]*tally{
		ExcludedSingleEpisode:     {reason: "it is a single episode"},
		ExcludedSeasonPackEpisode: {reason: "it is an episode extracted from a season pack"},
		ExcludedNonVideos:         {reason: "not all of its files are videos"},
	}

	included := make([]*Searchee, 0, len(searchees))
	for _, s := range searchees {
		result := Classify(s, cfg)
		if result == Included {
			included = append(included, s)
			continue
		}
		tallies[result].count++
		log.Debug().Str("name", s.Name).Msgf("not searching %s because %s", s.Name, tallies[result].reason)
	}

	for _, category := range []PrefilterResult{ExcludedSingleEpisode, ExcludedSeasonPackEpisode, ExcludedNonVideos} {
		if t := tallies[category]; t.count > 0 {
			log.Info().Msgf("excluded %d torrents because %s", t.count, t.reason)
		}
	}

	counts := make(map[PrefilterResult]int, len(tallies))
	for category, t := range tallies {
		if t.count > 0 {
			counts[category] = t.count
		}
	}

	return included, counts
}

func isEpisodeName(name string) bool {
	r := rls.ParseString(name)
	return r.Episode > 0
}

// isSeasonPackDir reports whether a directory name looks like a season pack:
// either a bare season folder, or a release name carrying a season but no
// episode number.
func isSeasonPackDir(dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	if seasonFolderPattern.MatchString(dir) {
		return true
	}
	r := rls.ParseString(dir)
	return r.Series > 0 && r.Episode == 0
}

func parentDirName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(filepath.Dir(path))
}

func allVideos(files []File) bool {
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := videoExtensions[ext]; !ok {
			return false
		}
	}
	return true
}
