// Package jobs runs the background work that keeps the local title catalog
// fresh.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/cache"
)

// Upserter stores fetched titles.
type Upserter interface {
	UpsertCandidates(ctx context.Context, cands []model.Candidate) (int, error)
}

// CatalogSync copies popular and per-genre titles from a remote source into
// the local store.
type CatalogSync struct {
	source   catalog.Source
	store    Upserter
	cache    cache.Cache
	popular  int
	perGenre int
}

func NewCatalogSync(source catalog.Source, store Upserter, c cache.Cache) *CatalogSync {
	return &CatalogSync{source: source, store: store, cache: c, popular: 100, perGenre: 40}
}

// Run performs one sync. Per-genre failures are logged and skipped; the
// sync fails only when nothing could be fetched.
func (s *CatalogSync) Run(ctx context.Context) (int, error) {
	seen := make(map[string]struct{})
	var all []model.Candidate
	add := func(cs []model.Candidate) {
		for _, c := range cs {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			all = append(all, c)
		}
	}

	popular, err := s.source.FetchPopular(ctx, s.popular)
	if err != nil {
		log.Warn().Err(err).Str("source", s.source.Name()).Msg("catalog sync: popular fetch failed")
	}
	add(popular)
	for _, g := range model.Genres {
		f := model.Filter{Genres: []string{g}, ContentType: model.ContentEither}
		cs, err := s.source.FetchByFilter(ctx, f, s.perGenre)
		if err != nil {
			log.Warn().Err(err).Str("genre", g).Msg("catalog sync: genre fetch failed")
			continue
		}
		add(cs)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("catalog sync from %s: nothing fetched", s.source.Name())
	}
	n, err := s.store.UpsertCandidates(ctx, all)
	if err != nil {
		return 0, fmt.Errorf("upsert titles: %w", err)
	}
	if s.cache != nil {
		if err := catalog.Invalidate(ctx, s.cache); err != nil {
			log.Warn().Err(err).Msg("catalog cache invalidation failed")
		}
	}
	return n, nil
}

// nextWeeklyRun returns the next Monday 03:00 UTC strictly after now.
func nextWeeklyRun(now time.Time) time.Time {
	now = now.UTC()
	daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, time.UTC).AddDate(0, 0, daysUntilMonday)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// StartCatalogSync runs the sync every Monday at 03:00 UTC.
func StartCatalogSync(ctx context.Context, s *CatalogSync) {
	if s == nil {
		log.Warn().Msg("catalog sync not configured; skipping weekly sync")
		return
	}
	go func() {
		t := time.NewTimer(time.Until(nextWeeklyRun(time.Now())))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.runAndLog(ctx, "weekly")
				t.Reset(time.Until(nextWeeklyRun(time.Now())))
			}
		}
	}()
}

// StartCatalogSyncTest runs the sync every 30 seconds, for development.
func StartCatalogSyncTest(ctx context.Context, s *CatalogSync) {
	if s == nil {
		log.Warn().Msg("catalog sync not configured; skipping test sync")
		return
	}
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runAndLog(ctx, "test")
			}
		}
	}()
}

func (s *CatalogSync) runAndLog(ctx context.Context, schedule string) {
	n, err := s.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("catalog sync failed")
		return
	}
	log.Info().Int("count", n).Str("schedule", schedule).Msg("catalog sync upserted titles")
}
