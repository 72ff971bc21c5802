// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seedcross/internal/models"
)

type fakeHistory struct {
	timestamps map[string]*models.SearchTimestamps
}

func (f *fakeHistory) GetTimestamps(_ context.Context, name string, _ []int) (*models.SearchTimestamps, error) {
	if ts, ok := f.timestamps[name]; ok {
		return ts, nil
	}
	return &models.SearchTimestamps{}, nil
}

type fakeIndexers struct {
	indexers []*models.Indexer
}

func (f *fakeIndexers) ListEnabled(_ context.Context) ([]*models.Indexer, error) {
	return f.indexers, nil
}

func newTestGate(history *fakeHistory, cfg GateConfig, now time.Time) *TimestampGate {
	gate := NewTimestampGate(history, &fakeIndexers{
		indexers: []*models.Indexer{{ID: 1, Name: "tracker-a", Enabled: true}},
	}, cfg)
	gate.now = func() time.Time { return now }
	return gate
}

func TestGateNeverSearchedAlwaysEligible(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gate := newTestGate(&fakeHistory{timestamps: map[string]*models.SearchTimestamps{}}, GateConfig{
		ExcludeOlder:        24 * time.Hour,
		ExcludeRecentSearch: 24 * time.Hour,
	}, now)

	ok, err := gate.IsEligible(context.Background(), &Searchee{Name: "Fresh.Release", Files: []File{{Name: "f.mkv", Length: 1}}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateExcludeOlderBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 10 * 24 * time.Hour

	tests := []struct {
		name          string
		firstSearched time.Time
		want          bool
	}{
		{
			name:          "exactly at the boundary stays eligible",
			firstSearched: now.Add(-window),
			want:          true,
		},
		{
			name:          "older than the boundary is excluded",
			firstSearched: now.Add(-window - time.Second),
			want:          false,
		},
		{
			name:          "newer than the boundary is eligible",
			firstSearched: now.Add(-window + time.Hour),
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &fakeHistory{timestamps: map[string]*models.SearchTimestamps{
				"Some.Release": {FirstSearchedAny: tt.firstSearched},
			}}
			gate := newTestGate(history, GateConfig{ExcludeOlder: window}, now)

			ok, err := gate.IsEligible(context.Background(), &Searchee{Name: "Some.Release", Files: []File{{Name: "f.mkv", Length: 1}}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestGateExcludeRecentSearch(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Hour

	history := &fakeHistory{timestamps: map[string]*models.SearchTimestamps{
		"Recent.Release": {FirstSearchedAny: now.Add(-48 * time.Hour), LastSearchedAll: now.Add(-time.Hour)},
		"Stale.Release":  {FirstSearchedAny: now.Add(-48 * time.Hour), LastSearchedAll: now.Add(-3 * time.Hour)},
	}}
	gate := newTestGate(history, GateConfig{ExcludeRecentSearch: window}, now)

	ok, err := gate.IsEligible(context.Background(), &Searchee{Name: "Recent.Release", Files: []File{{Name: "f.mkv", Length: 1}}})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gate.IsEligible(context.Background(), &Searchee{Name: "Stale.Release", Files: []File{{Name: "f.mkv", Length: 1}}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateZeroWindowsDisableRules(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	history := &fakeHistory{timestamps: map[string]*models.SearchTimestamps{
		"Old.Release": {FirstSearchedAny: now.Add(-365 * 24 * time.Hour), LastSearchedAll: now.Add(-time.Minute)},
	}}
	gate := newTestGate(history, GateConfig{}, now)

	ok, err := gate.IsEligible(context.Background(), &Searchee{Name: "Old.Release", Files: []File{{Name: "f.mkv", Length: 1}}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateEligiblePreservesOrder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Hour

	history := &fakeHistory{timestamps: map[string]*models.SearchTimestamps{
		"B": {LastSearchedAll: now.Add(-time.Minute)},
	}}
	gate := newTestGate(history, GateConfig{ExcludeRecentSearch: window}, now)

	input := []*Searchee{
		{Name: "A", Files: []File{{Name: "a.mkv", Length: 1}}},
		{Name: "B", Files: []File{{Name: "b.mkv", Length: 1}}},
		{Name: "C", Files: []File{{Name: "c.mkv", Length: 1}}},
		{Name: "D", Files: []File{{Name: "d.mkv", Length: 1}}},
	}

	result, err := gate.Eligible(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "A", result[0].Name)
	assert.Equal(t, "C", result[1].Name)
	assert.Equal(t, "D", result[2].Name)
}
