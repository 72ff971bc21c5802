// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/seedcross/internal/dbinterface"
)

// SearchTimestamps aggregates a searchee's search history across a set of
// indexers. A zero FirstSearchedAny means the searchee was never searched on
// any of the indexers (nothing can be "too old"); a zero LastSearchedAll
// means no indexer has touched it recently (nothing can be "too recent").
type SearchTimestamps struct {
	FirstSearchedAny time.Time
	LastSearchedAll  time.Time
}

// SearchHistoryStore persists per-(searchee, indexer) search timestamps.
type SearchHistoryStore struct {
	db dbinterface.Querier
}

func NewSearchHistoryStore(db dbinterface.Querier) *SearchHistoryStore {
	return &SearchHistoryStore{db: db}
}

// GetTimestamps computes the aggregate over exactly the given indexer IDs:
// the earliest first-search time and the latest last-search time. No matching
// rows yields the zero sentinels, not an error.
func (s *SearchHistoryStore) GetTimestamps(ctx context.Context, searcheeName string, indexerIDs []int) (*SearchTimestamps, error) {
	ts := &SearchTimestamps{}
	if len(indexerIDs) == 0 {
		return ts, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(indexerIDs)), ",")
	query := fmt.Sprintf(`
		SELECT MIN(first_searched), MAX(last_searched)
		FROM search_history
		WHERE searchee_name = ? AND indexer_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(indexerIDs)+1)
	args = append(args, searcheeName)
	for _, id := range indexerIDs {
		args = append(args, id)
	}

	var first, last sql.NullTime
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&first, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get search timestamps for %s: %w", searcheeName, err)
	}

	if first.Valid {
		ts.FirstSearchedAny = first.Time
	}
	if last.Valid {
		ts.LastSearchedAll = last.Time
	}

	return ts, nil
}

// RecordSearch records that the searchee was searched on the indexer at the
// given time. The first-search time is kept from the initial insert.
func (s *SearchHistoryStore) RecordSearch(ctx context.Context, searcheeName string, indexerID int, at time.Time) error {
	query := `
		INSERT INTO search_history (searchee_name, indexer_id, first_searched, last_searched)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (searchee_name, indexer_id) DO UPDATE SET
			last_searched = excluded.last_searched
	`

	if _, err := s.db.ExecContext(ctx, query, searcheeName, indexerID, at, at); err != nil {
		return fmt.Errorf("record search for %s on indexer %d: %w", searcheeName, indexerID, err)
	}

	return nil
}
