package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zabege/tg-rec-bot/internal/model"
)

type SessionsRepo struct {
	db *pgxpool.Pool
}

const sessionColumns = `id, owner, location, mode, state, candidates, round, total_rounds, current_pair, votes, winner, created_at, updated_at`

func (r *SessionsRepo) Create(ctx context.Context, s *model.Session) error {
	a, err := encodeSession(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.Owner, s.Location, string(s.Mode), a.state, a.candidates, s.Round, s.TotalRounds,
		a.pair, a.votes, a.winner, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) Load(ctx context.Context, id string) (*model.Session, error) {
	return scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// Update locks the session row for the duration of fn, so concurrent votes on
// one session are serialized while other sessions proceed untouched.
func (r *SessionsRepo) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	var out *model.Session
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now().UTC()
		a, err := encodeSession(s)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE sessions
			SET state = $2, candidates = $3, round = $4, total_rounds = $5,
			    current_pair = $6, votes = $7, winner = $8, updated_at = $9
			WHERE id = $1`,
			s.ID, a.state, a.candidates, s.Round, s.TotalRounds, a.pair, a.votes, a.winner, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SessionsRepo) LatestForParticipant(ctx context.Context, participant, location string) (*model.Session, error) {
	return scanSession(r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE owner = $1 AND location = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, participant, location))
}

func (r *SessionsRepo) LatestGroupForLocation(ctx context.Context, location string) (*model.Session, error) {
	return scanSession(r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE mode = 'group' AND location = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, location))
}

type sessionArgs struct {
	state      string
	candidates string
	pair       *string
	votes      string
	winner     *string
}

func encodeSession(s *model.Session) (sessionArgs, error) {
	var a sessionArgs
	a.state = s.State.String()
	b, err := json.Marshal(s.Candidates)
	if err != nil {
		return a, fmt.Errorf("encode candidates: %w", err)
	}
	a.candidates = string(b)
	votes := s.Votes
	if votes == nil {
		votes = map[string]int{}
	}
	if b, err = json.Marshal(votes); err != nil {
		return a, fmt.Errorf("encode votes: %w", err)
	}
	a.votes = string(b)
	if len(s.CurrentPair) > 0 {
		if b, err = json.Marshal(s.CurrentPair); err != nil {
			return a, fmt.Errorf("encode pair: %w", err)
		}
		p := string(b)
		a.pair = &p
	}
	if s.Winner != nil {
		if b, err = json.Marshal(s.Winner); err != nil {
			return a, fmt.Errorf("encode winner: %w", err)
		}
		w := string(b)
		a.winner = &w
	}
	return a, nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		s                               model.Session
		mode, state                     string
		candidates, pair, votes, winner []byte
	)
	err := row.Scan(&s.ID, &s.Owner, &s.Location, &mode, &state, &candidates, &s.Round, &s.TotalRounds,
		&pair, &votes, &winner, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.Mode = model.Mode(mode)
	if err := s.State.UnmarshalText([]byte(state)); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(candidates, &s.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	s.Votes = map[string]int{}
	if len(votes) > 0 {
		if err := json.Unmarshal(votes, &s.Votes); err != nil {
			return nil, fmt.Errorf("decode votes: %w", err)
		}
	}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair, &s.CurrentPair); err != nil {
			return nil, fmt.Errorf("decode pair: %w", err)
		}
	}
	if len(winner) > 0 {
		var w model.Candidate
		if err := json.Unmarshal(winner, &w); err != nil {
			return nil, fmt.Errorf("decode winner: %w", err)
		}
		s.Winner = &w
	}
	return &s, nil
}
