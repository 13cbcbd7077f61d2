// Package catalog supplies the candidate titles a battle is seeded with.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zabege/tg-rec-bot/internal/metrics"
	"github.com/zabege/tg-rec-bot/internal/model"
)

// Source fetches candidates. Both calls may return fewer than count.
type Source interface {
	Name() string
	FetchByFilter(ctx context.Context, f model.Filter, count int) ([]model.Candidate, error)
	FetchPopular(ctx context.Context, count int) ([]model.Candidate, error)
}

// Chain asks sources in order until it has count distinct candidates.
// Source failures are logged and skipped; the chain only fails when fewer
// than two candidates remain overall.
type Chain struct {
	sources []Source
}

func WithFallback(primary Source, fallbacks ...Source) *Chain {
	srcs := make([]Source, 0, 1+len(fallbacks))
	for _, s := range append([]Source{primary}, fallbacks...) {
		if s != nil {
			srcs = append(srcs, s)
		}
	}
	return &Chain{sources: srcs}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) FetchByFilter(ctx context.Context, f model.Filter, count int) ([]model.Candidate, error) {
	if f.IsZero() {
		return c.FetchPopular(ctx, count)
	}
	return c.collect(ctx, count, func(s Source) ([]model.Candidate, error) {
		return s.FetchByFilter(ctx, f, count)
	})
}

func (c *Chain) FetchPopular(ctx context.Context, count int) ([]model.Candidate, error) {
	return c.collect(ctx, count, func(s Source) ([]model.Candidate, error) {
		return s.FetchPopular(ctx, count)
	})
}

func (c *Chain) collect(ctx context.Context, count int, fetch func(Source) ([]model.Candidate, error)) ([]model.Candidate, error) {
	if count < 2 {
		return nil, fmt.Errorf("candidate count %d: %w", count, model.ErrInvalidInput)
	}
	out := make([]model.Candidate, 0, count)
	seen := make(map[string]struct{}, count)
	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		got, err := fetch(s)
		metrics.CatalogFetchDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.CatalogFetches.WithLabelValues(s.Name(), "error").Inc()
			log.Warn().Err(err).Str("source", s.Name()).Msg("candidate source failed; trying next")
			continue
		}
		metrics.CatalogFetches.WithLabelValues(s.Name(), "ok").Inc()
		for _, cand := range got {
			if cand.ID == "" {
				continue
			}
			if _, dup := seen[cand.ID]; dup {
				continue
			}
			seen[cand.ID] = struct{}{}
			out = append(out, cand)
			if len(out) == count {
				return out, nil
			}
		}
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%d candidates available: %w", len(out), model.ErrInsufficientCandidates)
	}
	return out, nil
}
