package jobs

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Emptiness reports whether the local catalog holds any titles.
type Emptiness interface {
	HasMovies(ctx context.Context) (bool, error)
}

// SeedCatalogIfEmpty runs one sync when the local catalog is empty.
// No-op when s is nil or titles already exist.
func SeedCatalogIfEmpty(ctx context.Context, store Emptiness, s *CatalogSync) error {
	if s == nil {
		return nil
	}
	has, err := store.HasMovies(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	n, err := s.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("count", n).Msg("seeded catalog as table was empty")
	return nil
}
