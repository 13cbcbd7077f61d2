package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// WinnersCursor is the keyset position of the last winner on a page.
type WinnersCursor struct {
	FinishedAt time.Time
	SessionID  string
}

type WinnersRepo struct {
	db *pgxpool.Pool
}

// RecordWinner is idempotent per session.
func (r *WinnersRepo) RecordWinner(ctx context.Context, w model.Winner) error {
	b, err := json.Marshal(w.Candidate)
	if err != nil {
		return fmt.Errorf("encode winner: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO winners (session_id, location, mode, candidate, rounds, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING`,
		w.SessionID, w.Location, string(w.Mode), string(b), w.Rounds, w.FinishedAt)
	return err
}

// ListWinnersPage returns winners finished in [from, to), newest first.
func (r *WinnersRepo) ListWinnersPage(ctx context.Context, from, to time.Time, cursor *WinnersCursor, limit int32) ([]model.Winner, error) {
	var (
		curAt time.Time
		curID string
	)
	if cursor != nil {
		curAt, curID = cursor.FinishedAt, cursor.SessionID
	}
	rows, err := r.db.Query(ctx, `
		SELECT session_id, location, mode, candidate, rounds, finished_at
		FROM winners
		WHERE finished_at >= $1 AND finished_at < $2
		  AND ($3::timestamptz IS NULL OR (finished_at, session_id) < ($3, $4))
		ORDER BY finished_at DESC, session_id DESC
		LIMIT $5`,
		from, to, tsVal(curAt), curID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Winner, 0, limit)
	for rows.Next() {
		var (
			w    model.Winner
			mode string
			cand []byte
		)
		if err := rows.Scan(&w.SessionID, &w.Location, &mode, &cand, &w.Rounds, &w.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cand, &w.Candidate); err != nil {
			return nil, fmt.Errorf("decode winner: %w", err)
		}
		w.Mode = model.Mode(mode)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WinnersRepo) CountWinners(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM winners WHERE finished_at >= $1 AND finished_at < $2`, from, to).Scan(&n)
	return n, err
}
