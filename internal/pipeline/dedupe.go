// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"github.com/rs/zerolog/log"
)

// Dedupe collapses searchees sharing a name. A candidate carrying an
// infohash strictly supersedes one without, regardless of arrival order;
// ties keep the first seen. Output preserves first-seen order of the
// surviving names.
func Dedupe(searchees []*Searchee) []*Searchee {
	byName := make(map[string]*Searchee, len(searchees))
	order := make([]string, 0, len(searchees))

	for _, s := range searchees {
		existing, ok := byName[s.Name]
		if !ok {
			byName[s.Name] = s
			order = append(order, s.Name)
			continue
		}
		if existing.InfoHash == "" && s.InfoHash != "" {
			byName[s.Name] = s
		}
	}

	if removed := len(searchees) - len(order); removed > 0 {
		log.Info().Msgf("removed %d duplicate torrents by name", removed)
	}

	result := make([]*Searchee, 0, len(order))
	for _, name := range order {
		result = append(result, byName[name])
	}

	return result
}
