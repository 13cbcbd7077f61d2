package catalog

import (
	"context"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// MovieLister is the stored catalog filled by the sync job.
type MovieLister interface {
	ListByFilter(ctx context.Context, f model.Filter, limit int) ([]model.Candidate, error)
}

// Stored reads candidates from the local catalog table.
type Stored struct {
	movies MovieLister
}

func NewStored(m MovieLister) *Stored { return &Stored{movies: m} }

func (s *Stored) Name() string { return "stored" }

func (s *Stored) FetchByFilter(ctx context.Context, f model.Filter, count int) ([]model.Candidate, error) {
	return s.movies.ListByFilter(ctx, f, count)
}

func (s *Stored) FetchPopular(ctx context.Context, count int) ([]model.Candidate, error) {
	return s.movies.ListByFilter(ctx, model.Filter{}, count)
}
