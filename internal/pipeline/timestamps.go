// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/seedcross/internal/models"
)

// HistoryStore is the persisted search-history aggregate view.
type HistoryStore interface {
	GetTimestamps(ctx context.Context, searcheeName string, indexerIDs []int) (*models.SearchTimestamps, error)
}

// IndexerSource supplies the set of indexers currently eligible to search.
type IndexerSource interface {
	ListEnabled(ctx context.Context) ([]*models.Indexer, error)
}

// GateConfig holds the search-eligibility windows. Zero disables a rule.
type GateConfig struct {
	ExcludeOlder        time.Duration
	ExcludeRecentSearch time.Duration
}

// TimestampGate enforces the "not too old" / "not too recent" search
// eligibility windows against the persisted search history.
type TimestampGate struct {
	history  HistoryStore
	indexers IndexerSource
	cfg      GateConfig
	now      func() time.Time
}

func NewTimestampGate(history HistoryStore, indexers IndexerSource, cfg GateConfig) *TimestampGate {
	return &TimestampGate{
		history:  history,
		indexers: indexers,
		cfg:      cfg,
		now:      time.Now,
	}
}

// IsEligible reports whether the searchee may be searched now, given its
// history across the currently enabled indexers. A searchee never searched
// on any enabled indexer is always eligible.
func (g *TimestampGate) IsEligible(ctx context.Context, s *Searchee) (bool, error) {
	enabled, err := g.indexers.ListEnabled(ctx)
	if err != nil {
		return false, fmt.Errorf("list enabled indexers: %w", err)
	}

	ids := make([]int, 0, len(enabled))
	for _, idx := range enabled {
		ids = append(ids, idx.ID)
	}

	ts, err := g.history.GetTimestamps(ctx, s.Name, ids)
	if err != nil {
		return false, fmt.Errorf("get timestamps: %w", err)
	}

	now := g.now()

	// "Older than" is exclusive: a first search exactly at the boundary is
	// still eligible.
	if g.cfg.ExcludeOlder > 0 && !ts.FirstSearchedAny.IsZero() &&
		ts.FirstSearchedAny.Before(now.Add(-g.cfg.ExcludeOlder)) {
		log.Debug().Msgf("skipping %s because its first search is older than %s", s.Name, g.cfg.ExcludeOlder)
		return false, nil
	}

	if g.cfg.ExcludeRecentSearch > 0 && !ts.LastSearchedAll.IsZero() &&
		ts.LastSearchedAll.After(now.Add(-g.cfg.ExcludeRecentSearch)) {
		log.Debug().Msgf("skipping %s because it was searched within the last %s", s.Name, g.cfg.ExcludeRecentSearch)
		return false, nil
	}

	return true, nil
}

// gateConcurrency bounds parallel history reads. Checks for distinct
// searchees are independent; the same searchee is never checked twice in one
// batch (Dedupe runs first).
const gateConcurrency = 4

// Eligible filters a batch through the gate, preserving input order.
func (g *TimestampGate) Eligible(ctx context.Context, searchees []*Searchee) ([]*Searchee, error) {
	eligible := make([]bool, len(searchees))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(gateConcurrency)

	for i, s := range searchees {
		grp.Go(func() error {
			ok, err := g.IsEligible(gctx, s)
			if err != nil {
				return err
			}
			eligible[i] = ok
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	result := make([]*Searchee, 0, len(searchees))
	for i, s := range searchees {
		if eligible[i] {
			result = append(result, s)
		}
	}

	return result, nil
}
