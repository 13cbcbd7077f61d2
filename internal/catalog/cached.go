package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/cache"
)

// CachePrefix namespaces catalog entries in the shared cache.
const CachePrefix = "catalog:"

// Cached memoizes another source's results and collapses identical
// concurrent fetches into one upstream call.
type Cached struct {
	inner Source
	cache cache.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCached(inner Source, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (s *Cached) Name() string { return s.inner.Name() }

func (s *Cached) FetchByFilter(ctx context.Context, f model.Filter, count int) ([]model.Candidate, error) {
	key := fmt.Sprintf("%s%s:filter:%s:%s:%s:%d", CachePrefix, s.inner.Name(),
		strings.Join(f.Genres, ","), f.ContentType, f.Era, count)
	return s.load(ctx, key, func() ([]model.Candidate, error) {
		return s.inner.FetchByFilter(ctx, f, count)
	})
}

func (s *Cached) FetchPopular(ctx context.Context, count int) ([]model.Candidate, error) {
	key := fmt.Sprintf("%s%s:popular:%d", CachePrefix, s.inner.Name(), count)
	return s.load(ctx, key, func() ([]model.Candidate, error) {
		return s.inner.FetchPopular(ctx, count)
	})
}

func (s *Cached) load(ctx context.Context, key string, fetch func() ([]model.Candidate, error)) ([]model.Candidate, error) {
	if v, ok := s.cache.Get(ctx, key); ok {
		var cands []model.Candidate
		if err := json.Unmarshal([]byte(v), &cands); err == nil {
			return cands, nil
		}
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		cands, err := fetch()
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			if b, err := json.Marshal(cands); err == nil {
				if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("catalog cache set failed")
				}
			}
		}
		return cands, nil
	})
	if err != nil {
		return nil, err
	}
	// Shared result; hand each caller its own slice.
	return append([]model.Candidate(nil), v.([]model.Candidate)...), nil
}

// Invalidate drops every cached catalog entry.
func Invalidate(ctx context.Context, c cache.Cache) error {
	return c.DeletePrefix(ctx, CachePrefix)
}
