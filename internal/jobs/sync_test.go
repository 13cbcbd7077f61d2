package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/cache"
)

type stubSource struct {
	popular []model.Candidate
	byGenre map[string][]model.Candidate
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchByFilter(_ context.Context, f model.Filter, _ int) ([]model.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byGenre[f.Genres[0]], nil
}

func (s *stubSource) FetchPopular(_ context.Context, _ int) ([]model.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.popular, nil
}

type stubStore struct {
	got []model.Candidate
	has bool
}

func (s *stubStore) UpsertCandidates(_ context.Context, cs []model.Candidate) (int, error) {
	s.got = append(s.got, cs...)
	return len(cs), nil
}

func (s *stubStore) HasMovies(context.Context) (bool, error) { return s.has, nil }

func cand(id string) model.Candidate { return model.Candidate{ID: id, Kind: model.KindMovie, Title: id} }

func TestCatalogSyncDedupsAndInvalidates(t *testing.T) {
	src := &stubSource{
		popular: []model.Candidate{cand("movie/1"), cand("movie/2")},
		byGenre: map[string][]model.Candidate{
			model.GenreComedy: {cand("movie/2"), cand("movie/3")},
			model.GenreDrama:  {cand("movie/4")},
		},
	}
	store := &stubStore{}
	c := cache.NewInMemory()
	require.NoError(t, c.Set(context.Background(), catalog.CachePrefix+"stub:popular:8", "[]", time.Hour))

	n, err := NewCatalogSync(src, store, c).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	ids := make([]string, len(store.got))
	for i, c := range store.got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"movie/1", "movie/2", "movie/3", "movie/4"}, ids)

	_, ok := c.Get(context.Background(), catalog.CachePrefix+"stub:popular:8")
	assert.False(t, ok)
}

func TestCatalogSyncFailsWhenNothingFetched(t *testing.T) {
	store := &stubStore{}
	_, err := NewCatalogSync(&stubSource{err: errors.New("down")}, store, nil).Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, store.got)
}

func TestSeedCatalogIfEmpty(t *testing.T) {
	src := &stubSource{popular: []model.Candidate{cand("movie/1")}}

	full := &stubStore{has: true}
	require.NoError(t, SeedCatalogIfEmpty(context.Background(), full, NewCatalogSync(src, full, nil)))
	assert.Empty(t, full.got)

	empty := &stubStore{}
	require.NoError(t, SeedCatalogIfEmpty(context.Background(), empty, NewCatalogSync(src, empty, nil)))
	assert.Len(t, empty.got, 1)

	assert.NoError(t, SeedCatalogIfEmpty(context.Background(), empty, nil))
}

func TestNextWeeklyRun(t *testing.T) {
	// 2026-10-19 is a Monday
	before := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC), nextWeeklyRun(before))

	after := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 26, 3, 0, 0, 0, time.UTC), nextWeeklyRun(after))

	wed := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 26, 3, 0, 0, 0, time.UTC), nextWeeklyRun(wed))
}
