package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zabege/tg-rec-bot/internal/model"
)

type LocationsRepo struct {
	db *pgxpool.Pool
}

// SetMemberCount records how many members a chat has, the bot included.
func (r *LocationsRepo) SetMemberCount(ctx context.Context, location string, count int) error {
	if location == "" || count < 1 {
		return fmt.Errorf("location %q count %d: %w", location, count, model.ErrInvalidInput)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO locations (id, member_count) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET member_count = EXCLUDED.member_count, updated_at = NOW()`,
		location, count)
	return err
}

func (r *LocationsRepo) EligibleVoterCount(ctx context.Context, location string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT member_count FROM locations WHERE id = $1`, location).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultMemberCount, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
