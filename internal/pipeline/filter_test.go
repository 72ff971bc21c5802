// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movieSearchee(name string) *Searchee {
	return &Searchee{
		Name: name,
		Files: []File{
			{Name: name + ".mkv", Length: 4 << 30},
		},
	}
}

func episodeSearchee(name, path string) *Searchee {
	return &Searchee{
		Name: name,
		Path: path,
		Files: []File{
			{Name: name + ".mkv", Length: 700 << 20},
		},
	}
}

func TestClassifySingleEpisode(t *testing.T) {
	standalone := episodeSearchee("Breaking.Show.S01E05.720p.WEB.x264-GRP", "/downloads/Breaking.Show.S01E05.720p.WEB.x264-GRP.mkv")

	tests := []struct {
		name string
		cfg  FilterConfig
		want PrefilterResult
	}{
		{
			name: "excluded by default",
			cfg:  FilterConfig{},
			want: ExcludedSingleEpisode,
		},
		{
			name: "included with includeEpisodes",
			cfg:  FilterConfig{IncludeEpisodes: true},
			want: Included,
		},
		{
			name: "included with includeSingleEpisodes",
			cfg:  FilterConfig{IncludeSingleEpisodes: true},
			want: Included,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(standalone, tt.cfg))
		})
	}
}

func TestClassifySeasonPackEpisode(t *testing.T) {
	inPack := episodeSearchee(
		"Breaking.Show.S01E05.720p.WEB.x264-GRP",
		"/downloads/Breaking.Show.S01.720p.WEB.x264-GRP/Breaking.Show.S01E05.720p.WEB.x264-GRP.mkv",
	)

	// includeSingleEpisodes must not leak season-pack members in; the two
	// flags are not equivalent.
	result := Classify(inPack, FilterConfig{IncludeSingleEpisodes: true})
	assert.Equal(t, ExcludedSeasonPackEpisode, result)

	result = Classify(inPack, FilterConfig{IncludeEpisodes: true})
	assert.Equal(t, Included, result)
}

func TestClassifySeasonFolderName(t *testing.T) {
	inPack := episodeSearchee(
		"Breaking.Show.S01E05.720p.WEB.x264-GRP",
		"/downloads/Season 01/Breaking.Show.S01E05.720p.WEB.x264-GRP.mkv",
	)

	result := Classify(inPack, FilterConfig{IncludeSingleEpisodes: true})
	assert.Equal(t, ExcludedSeasonPackEpisode, result)
}

func TestClassifyNonVideos(t *testing.T) {
	mixed := &Searchee{
		Name: "Some.Release.2020-GRP",
		Files: []File{
			{Name: "Some.Release.2020-GRP.mkv", Length: 4 << 30},
			{Name: "Some.Release.2020-GRP.nfo", Length: 1024},
		},
	}

	assert.Equal(t, ExcludedNonVideos, Classify(mixed, FilterConfig{}))
	assert.Equal(t, Included, Classify(mixed, FilterConfig{IncludeNonVideos: true}))
}

func TestClassifyMovieIncluded(t *testing.T) {
	assert.Equal(t, Included, Classify(movieSearchee("Big.Movie.2019.1080p.BluRay.x264-GRP"), FilterConfig{}))
}

func TestFilterAllTalliesAndOrder(t *testing.T) {
	searchees := []*Searchee{
		movieSearchee("Movie.One.2019.1080p.BluRay.x264-GRP"),
		{Name: "Linux.ISO.Pack", Files: []File{{Name: "distro.iso", Length: 1 << 30}}},
		episodeSearchee("Show.A.S02E03.720p.WEB.x264-GRP", "/dl/Show.A.S02E03.720p.WEB.x264-GRP.mkv"),
		movieSearchee("Movie.Two.2020.2160p.WEB.x265-GRP"),
		{Name: "Ebook.Collection", Files: []File{{Name: "book.epub", Length: 5 << 20}}},
		movieSearchee("Movie.Three.2021.720p.BluRay.x264-GRP"),
		episodeSearchee("Show.B.S01E01.1080p.WEB.x264-GRP", "/dl/Show.B.S01E01.1080p.WEB.x264-GRP.mkv"),
		{Name: "Soundtrack.FLAC", Files: []File{{Name: "track01.flac", Length: 40 << 20}}},
		movieSearchee("Movie.Four.2018.1080p.WEB.x264-GRP"),
		movieSearchee("Movie.Five.2022.1080p.BluRay.x264-GRP"),
	}

	included, counts := FilterAll(searchees, FilterConfig{})

	require.Len(t, included, 5)
	assert.Equal(t, "Movie.One.2019.1080p.BluRay.x264-GRP", included[0].Name)
	assert.Equal(t, "Movie.Two.2020.2160p.WEB.x265-GRP", included[1].Name)
	assert.Equal(t, "Movie.Three.2021.720p.BluRay.x264-GRP", included[2].Name)
	assert.Equal(t, "Movie.Four.2018.1080p.WEB.x264-GRP", included[3].Name)
	assert.Equal(t, "Movie.Five.2022.1080p.BluRay.x264-GRP", included[4].Name)

	// Only nonzero categories appear.
	assert.Equal(t, map[PrefilterResult]int{
		ExcludedSingleEpisode: 2,
		ExcludedNonVideos:     3,
	}, counts)
}
