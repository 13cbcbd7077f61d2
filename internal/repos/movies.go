package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zabege/tg-rec-bot/internal/model"
)

type MoviesRepo struct {
	db *pgxpool.Pool
}

// UpsertCandidates inserts or refreshes catalog titles by id. Returns count upserted.
func (r *MoviesRepo) UpsertCandidates(ctx context.Context, cands []model.Candidate) (int, error) {
	if len(cands) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, c := range cands {
		genres := c.Genres
		if genres == nil {
			genres = []string{}
		}
		batch.Queue(`
			INSERT INTO movies (id, kind, title, overview, poster_path, release_year, popularity, genres)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title,
			    overview = EXCLUDED.overview,
			    poster_path = EXCLUDED.poster_path,
			    release_year = EXCLUDED.release_year,
			    popularity = EXCLUDED.popularity,
			    genres = EXCLUDED.genres,
			    updated_at = NOW()`,
			c.ID, c.Kind, c.Title, textVal(c.Overview), textVal(c.PosterPath), int4Val(c.Year), c.Popularity, genres)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	count := 0
	for range cands {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upsert movie: %w", err)
		}
		count++
	}
	return count, nil
}

// ListByFilter returns the most popular stored titles matching f.
func (r *MoviesRepo) ListByFilter(ctx context.Context, f model.Filter, limit int) ([]model.Candidate, error) {
	var kind pgtype.Text
	switch f.ContentType {
	case model.ContentVideo:
		kind = textVal(model.KindMovie)
	case model.ContentSeries:
		kind = textVal(model.KindTV)
	}
	from, to := f.Era.YearRange()
	genres := f.Genres
	if genres == nil {
		genres = []string{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, title, overview, poster_path, release_year, popularity, genres
		FROM movies
		WHERE (cardinality($1::text[]) = 0 OR genres && $1)
		  AND ($2::text IS NULL OR kind = $2)
		  AND ($3::int IS NULL OR release_year >= $3)
		  AND ($4::int IS NULL OR release_year <= $4)
		ORDER BY popularity DESC, id
		LIMIT $5`,
		genres, kind, int4Val(from), int4Val(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Candidate, 0, limit)
	for rows.Next() {
		var (
			c                model.Candidate
			overview, poster pgtype.Text
			year             pgtype.Int4
		)
		if err := rows.Scan(&c.ID, &c.Kind, &c.Title, &overview, &poster, &year, &c.Popularity, &c.Genres); err != nil {
			return nil, err
		}
		c.Overview = textOr(overview)
		c.PosterPath = textOr(poster)
		c.Year = int4Or(year)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *MoviesRepo) HasMovies(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movies)`).Scan(&exists)
	return exists, err
}
