// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"fmt"
	"strings"

	"github.com/moistari/rls"

	"github.com/autobrr/seedcross/internal/pipeline"
	"github.com/autobrr/seedcross/internal/torznab"
)

// defaultSizeTolerance is the allowed relative size difference between a
// searchee and a candidate. Cross-seedable releases carry the same data, so
// only padding and metadata should differ.
const defaultSizeTolerance = 0.02

// buildQuery derives a search query from the searchee name: the parsed title
// plus whichever of season/episode or year identifies the release.
func buildQuery(name string) string {
	r := rls.ParseString(name)
	if r.Title == "" {
		return strings.ReplaceAll(name, ".", " ")
	}

	var b strings.Builder
	b.WriteString(r.Title)

	switch {
	case r.Series > 0 && r.Episode > 0:
		fmt.Fprintf(&b, " S%02dE%02d", r.Series, r.Episode)
	case r.Series > 0:
		fmt.Fprintf(&b, " S%02d", r.Series)
	case r.Year > 0:
		fmt.Fprintf(&b, " %d", r.Year)
	}

	return b.String()
}

// matchesSearchee decides whether a search result plausibly carries the same
// data as the searchee. Titles must agree loosely, season/episode and year
// strictly when both sides have them, and sizes within tolerance.
func matchesSearchee(s *pipeline.Searchee, result torznab.Result, tolerance float64) bool {
	source := rls.ParseString(s.Name)
	candidate := rls.ParseString(result.Title)

	sourceTitle := strings.ToLower(strings.TrimSpace(source.Title))
	candidateTitle := strings.ToLower(strings.TrimSpace(candidate.Title))
	if sourceTitle == "" || candidateTitle == "" {
		return false
	}
	if sourceTitle != candidateTitle &&
		!strings.Contains(sourceTitle, candidateTitle) &&
		!strings.Contains(candidateTitle, sourceTitle) {
		return false
	}

	if source.Year > 0 && candidate.Year > 0 && source.Year != candidate.Year {
		return false
	}

	// A different season or episode is different data, never cross-seedable.
	if source.Series != candidate.Series || source.Episode != candidate.Episode {
		return false
	}

	if result.Size > 0 {
		return sizeWithinTolerance(s.TotalLength(), result.Size, tolerance)
	}

	return true
}

func sizeWithinTolerance(sourceSize, candidateSize int64, tolerance float64) bool {
	if sourceSize <= 0 || candidateSize <= 0 {
		return false
	}
	diff := sourceSize - candidateSize
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= float64(sourceSize)*tolerance
}
