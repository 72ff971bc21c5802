// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package crossseed drives the cross-seeding pipeline end to end: scan the
// torrent directory, decide what is worth searching, query the configured
// indexers, and inject or save whatever matches.
package crossseed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seedcross/internal/client"
	"github.com/autobrr/seedcross/internal/metafile"
	"github.com/autobrr/seedcross/internal/models"
	"github.com/autobrr/seedcross/internal/pipeline"
	"github.com/autobrr/seedcross/internal/torznab"
)

// Searcher is the per-indexer search surface.
type Searcher interface {
	Search(ctx context.Context, query string) ([]torznab.Result, error)
	Download(ctx context.Context, downloadURL string) ([]byte, error)
}

// SearcherFactory builds a search client for one indexer.
type SearcherFactory func(indexer *models.Indexer) Searcher

// Config holds the run-scoped settings.
type Config struct {
	TorrentDir string
	// OutputDir receives matched metafiles when no client is configured (or
	// in addition to injection when set).
	OutputDir string
	Filter    pipeline.FilterConfig
	// SearchLimit caps how many searchees one run may search. Zero means no
	// cap.
	SearchLimit int
	// SizeTolerance overrides the default relative size tolerance for
	// matching. Zero keeps the default.
	SizeTolerance float64
}

// Service owns one pipeline pass over the torrent directory.
type Service struct {
	cfg         Config
	indexers    *models.IndexerStore
	history     *models.SearchHistoryStore
	gate        *pipeline.TimestampGate
	client      client.Client
	newSearcher SearcherFactory
	now         func() time.Time
}

// NewService wires the pipeline. client may be nil when matches are only
// saved to the output directory.
func NewService(
	cfg Config,
	indexers *models.IndexerStore,
	history *models.SearchHistoryStore,
	gate *pipeline.TimestampGate,
	downloadClient client.Client,
	newSearcher SearcherFactory,
) *Service {
	if cfg.SizeTolerance == 0 {
		cfg.SizeTolerance = defaultSizeTolerance
	}
	if newSearcher == nil {
		newSearcher = func(indexer *models.Indexer) Searcher {
			return torznab.NewClient(indexer.BaseURL, indexer.APIKey, 0)
		}
	}

	return &Service{
		cfg:         cfg,
		indexers:    indexers,
		history:     history,
		gate:        gate,
		client:      downloadClient,
		newSearcher: newSearcher,
		now:         time.Now,
	}
}

// DownloadClient exposes the configured client, nil when matches are only
// saved to the output directory.
func (s *Service) DownloadClient() client.Client {
	return s.client
}

// RunSummary tallies one pipeline pass.
type RunSummary struct {
	Scanned       int
	Excluded      int
	Eligible      int
	Searched      int
	Matched       int
	Injected      int
	AlreadyExists int
	NotComplete   int
	Failed        int
	Saved         int
}

// Run executes one full pass: scan, filter, dedupe, gate, search, inject.
func (s *Service) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	searchees, err := s.ScanTorrentDir()
	if err != nil {
		return nil, err
	}
	summary.Scanned = len(searchees)

	included, excludedCounts := pipeline.FilterAll(searchees, s.cfg.Filter)
	for _, n := range excludedCounts {
		summary.Excluded += n
	}

	deduped := pipeline.Dedupe(included)

	eligible, err := s.gate.Eligible(ctx, deduped)
	if err != nil {
		return nil, fmt.Errorf("gate searchees: %w", err)
	}
	summary.Eligible = len(eligible)

	if s.cfg.SearchLimit > 0 && len(eligible) > s.cfg.SearchLimit {
		log.Info().Msgf("limiting run to %d of %d eligible searchees", s.cfg.SearchLimit, len(eligible))
		eligible = eligible[:s.cfg.SearchLimit]
	}

	indexers, err := s.indexers.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled indexers: %w", err)
	}
	if len(indexers) == 0 {
		log.Warn().Msg("no enabled indexers, nothing to search")
		return summary, nil
	}

	for _, searchee := range eligible {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.searchOne(ctx, searchee, indexers, summary)
	}

	log.Info().
		Int("scanned", summary.Scanned).
		Int("eligible", summary.Eligible).
		Int("searched", summary.Searched).
		Int("matched", summary.Matched).
		Int("injected", summary.Injected).
		Int("alreadyExists", summary.AlreadyExists).
		Int("failed", summary.Failed).
		Int("saved", summary.Saved).
		Msg("cross-seed run finished")

	return summary, nil
}

// ScanTorrentDir loads every parseable metafile in the torrent directory.
// Unparseable files are logged and skipped, never fatal.
func (s *Service) ScanTorrentDir() ([]*pipeline.Searchee, error) {
	paths, err := filepath.Glob(filepath.Join(s.cfg.TorrentDir, "*.torrent"))
	if err != nil {
		return nil, fmt.Errorf("scan torrent dir %s: %w", s.cfg.TorrentDir, err)
	}

	searchees := make([]*pipeline.Searchee, 0, len(paths))
	for _, path := range paths {
		mf, err := metafile.Load(path)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping unparseable metafile %s", path)
			continue
		}
		searchee, err := pipeline.FromMetafile(mf)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping metafile %s", path)
			continue
		}
		searchees = append(searchees, searchee)
	}

	log.Debug().Msgf("found %d searchees in %s", len(searchees), s.cfg.TorrentDir)
	return searchees, nil
}

// searchOne queries every enabled indexer for one searchee and processes the
// matches. Failures on one indexer never stop the others.
func (s *Service) searchOne(ctx context.Context, searchee *pipeline.Searchee, indexers []*models.Indexer, summary *RunSummary) {
	query := buildQuery(searchee.Name)
	summary.Searched++

	for _, indexer := range indexers {
		searcher := s.newSearcher(indexer)

		results, err := searcher.Search(ctx, query)

		// The search attempt counts toward history even when it fails or
		// returns nothing; the gate reasons about attempts, not outcomes.
		if histErr := s.history.RecordSearch(ctx, searchee.Name, indexer.ID, s.now()); histErr != nil {
			log.Error().Err(histErr).Msgf("could not record search of %s on %s", searchee.Name, indexer.Name)
		}

		if err != nil {
			log.Error().Err(err).Msgf("search for %s on %s failed", searchee.Name, indexer.Name)
			continue
		}

		for _, result := range results {
			if !matchesSearchee(searchee, result, s.cfg.SizeTolerance) {
				continue
			}
			if result.InfoHash != "" && strings.EqualFold(result.InfoHash, searchee.InfoHash) {
				continue
			}
			summary.Matched++
			s.processMatch(ctx, searchee, indexer, searcher, result, summary)
		}
	}
}

// processMatch downloads, validates, and injects (or saves) one candidate.
func (s *Service) processMatch(ctx context.Context, searchee *pipeline.Searchee, indexer *models.Indexer, searcher Searcher, result torznab.Result, summary *RunSummary) {
	data, err := searcher.Download(ctx, result.Link)
	if err != nil {
		log.Error().Err(err).Msgf("could not download %s from %s", result.Title, indexer.Name)
		summary.Failed++
		return
	}

	if err := metafile.ValidateEncoded(data); err != nil {
		log.Warn().Err(err).Msgf("%s returned an invalid torrent payload for %s", indexer.Name, result.Title)
		summary.Failed++
		return
	}

	mf, err := metafile.Parse(data)
	if err != nil {
		log.Warn().Err(err).Msgf("could not parse torrent for %s", result.Title)
		summary.Failed++
		return
	}

	// The indexer may serve the very torrent we already hold.
	if strings.EqualFold(mf.InfoHash, searchee.InfoHash) {
		summary.Matched--
		return
	}

	if s.client != nil {
		s.inject(ctx, searchee, indexer, mf, summary)
		return
	}

	s.save(indexer, mf, summary)
}

func (s *Service) inject(ctx context.Context, searchee *pipeline.Searchee, indexer *models.Indexer, mf *metafile.Metafile, summary *RunSummary) {
	outcome, err := s.client.Inject(ctx, &client.InjectRequest{
		Metafile: mf,
		Searchee: searchee,
	})
	if err != nil {
		log.Error().Err(err).Msgf("injection of %s failed", mf.Name)
		summary.Failed++
		return
	}

	switch outcome {
	case client.InjectionSuccess:
		log.Info().Msgf("injected %s from %s", mf.Name, indexer.Name)
		summary.Injected++
	case client.InjectionAlreadyExists:
		log.Debug().Msgf("%s is already in the client", mf.Name)
		summary.AlreadyExists++
	case client.InjectionTorrentNotComplete:
		summary.NotComplete++
	default:
		log.Warn().Msgf("client rejected %s", mf.Name)
		summary.Failed++
	}
}

// save writes the metafile to the output directory for manual handling.
func (s *Service) save(indexer *models.Indexer, mf *metafile.Metafile, summary *RunSummary) {
	name := fmt.Sprintf("%s.%s.torrent", sanitizeFilename(mf.Name), sanitizeFilename(indexer.Name))
	path := filepath.Join(s.cfg.OutputDir, name)

	if err := os.WriteFile(path, mf.RawBytes, 0o644); err != nil {
		log.Error().Err(err).Msgf("could not save %s", path)
		summary.Failed++
		return
	}

	log.Info().Msgf("saved %s", path)
	summary.Saved++
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, name)
}
