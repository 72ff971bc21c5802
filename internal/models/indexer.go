// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/autobrr/seedcross/internal/dbinterface"
)

var ErrIndexerNotFound = errors.New("indexer not found")

// Indexer represents a Torznab search source.
type Indexer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	APIKey    string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndexerStore manages indexers in the database.
type IndexerStore struct {
	db dbinterface.Querier
}

func NewIndexerStore(db dbinterface.Querier) *IndexerStore {
	return &IndexerStore{db: db}
}

// Upsert creates or updates an indexer keyed by name and returns it.
func (s *IndexerStore) Upsert(ctx context.Context, name, baseURL, apiKey string, enabled bool) (*Indexer, error) {
	if name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if baseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	query := `
		INSERT INTO indexers (name, base_url, api_key, enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			base_url = excluded.base_url,
			api_key = excluded.api_key,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, name, baseURL, apiKey, enabled); err != nil {
		return nil, fmt.Errorf("upsert indexer %s: %w", name, err)
	}

	return s.GetByName(ctx, name)
}

// GetByName retrieves an indexer by its unique name.
func (s *IndexerStore) GetByName(ctx context.Context, name string) (*Indexer, error) {
	query := `
		SELECT id, name, base_url, api_key, enabled, created_at, updated_at
		FROM indexers
		WHERE name = ?
	`

	indexer := &Indexer{}
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&indexer.ID, &indexer.Name, &indexer.BaseURL, &indexer.APIKey,
		&indexer.Enabled, &indexer.CreatedAt, &indexer.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIndexerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get indexer %s: %w", name, err)
	}

	return indexer, nil
}

// List returns all indexers ordered by name.
func (s *IndexerStore) List(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, false)
}

// ListEnabled returns the set of indexers currently eligible to be searched.
func (s *IndexerStore) ListEnabled(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, true)
}

func (s *IndexerStore) list(ctx context.Context, enabledOnly bool) ([]*Indexer, error) {
	query := `
		SELECT id, name, base_url, api_key, enabled, created_at, updated_at
		FROM indexers
	`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list indexers: %w", err)
	}
	defer rows.Close()

	var indexers []*Indexer
	for rows.Next() {
		indexer := &Indexer{}
		if err := rows.Scan(
			&indexer.ID, &indexer.Name, &indexer.BaseURL, &indexer.APIKey,
			&indexer.Enabled, &indexer.CreatedAt, &indexer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan indexer: %w", err)
		}
		indexers = append(indexers, indexer)
	}

	return indexers, rows.Err()
}

// SetEnabled flips an indexer's enabled flag.
func (s *IndexerStore) SetEnabled(ctx context.Context, name string, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE indexers SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?",
		enabled, name,
	)
	if err != nil {
		return fmt.Errorf("set indexer enabled: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrIndexerNotFound
	}

	return nil
}

// IndexerSeed is the configuration-shaped input for Sync.
type IndexerSeed struct {
	Name    string
	BaseURL string
	APIKey  string
	Enabled bool
}

// Sync upserts the configured indexers and disables stored indexers that are
// no longer configured.
func (s *IndexerStore) Sync(ctx context.Context, configured []IndexerSeed) error {
	seen := make(map[string]struct{}, len(configured))
	for _, c := range configured {
		if _, err := s.Upsert(ctx, c.Name, c.BaseURL, c.APIKey, c.Enabled); err != nil {
			return err
		}
		seen[c.Name] = struct{}{}
	}

	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, idx := range existing {
		if _, ok := seen[idx.Name]; !ok && idx.Enabled {
			if err := s.SetEnabled(ctx, idx.Name, false); err != nil {
				return err
			}
		}
	}

	return nil
}
