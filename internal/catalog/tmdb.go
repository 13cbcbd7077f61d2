package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/tmdb"
)

const tmdbPageSize = 20

// TMDB reads candidates live from The Movie Database.
type TMDB struct {
	client   *tmdb.Client
	maxPages int
}

func NewTMDB(c *tmdb.Client) *TMDB {
	return &TMDB{client: c, maxPages: 5}
}

func (s *TMDB) Name() string { return "tmdb" }

func (s *TMDB) FetchByFilter(ctx context.Context, f model.Filter, count int) ([]model.Candidate, error) {
	from, to := f.Era.YearRange()
	var out []model.Candidate
	for _, kind := range kindsFor(f.ContentType) {
		titles, err := s.client.Discover(ctx, tmdb.Query{
			Kind:     kind,
			GenreIDs: genreIDs(kind, f.Genres),
			FromYear: from,
			ToYear:   to,
		}, s.pages(count))
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", kind, err)
		}
		out = append(out, candidatesFromTitles(titles)...)
	}
	return topByPopularity(out, count), nil
}

func (s *TMDB) FetchPopular(ctx context.Context, count int) ([]model.Candidate, error) {
	titles, err := s.client.Popular(ctx, tmdb.KindMovie, s.pages(count))
	if err != nil {
		return nil, fmt.Errorf("popular: %w", err)
	}
	return topByPopularity(candidatesFromTitles(titles), count), nil
}

func (s *TMDB) pages(count int) int {
	n := (count + tmdbPageSize - 1) / tmdbPageSize
	return min(max(n, 1), s.maxPages)
}

func candidatesFromTitles(titles []tmdb.Title) []model.Candidate {
	out := make([]model.Candidate, 0, len(titles))
	for _, t := range titles {
		c := model.Candidate{
			ID:         fmt.Sprintf("%s/%d", t.Kind, t.TMDBID),
			Kind:       t.Kind,
			Title:      t.Title,
			Overview:   t.Overview,
			PosterPath: t.PosterPath,
			Popularity: t.Popularity,
			Genres:     genreNames(t.Kind, t.GenreIDs),
		}
		if !t.ReleaseDate.IsZero() {
			c.Year = t.ReleaseDate.Year()
		}
		out = append(out, c)
	}
	return out
}

func topByPopularity(cands []model.Candidate, count int) []model.Candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Popularity > cands[j].Popularity })
	if count > 0 && len(cands) > count {
		cands = cands[:count]
	}
	return cands
}
