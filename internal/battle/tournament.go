// Package battle runs pairwise-elimination tournaments: session creation,
// pairing, vote collection and round resolution.
//
// The functions in this file are pure transitions on a *model.Session. Engine
// wraps them in the store's per-session critical section and adds the side
// effects (timers, delivery, winner history).
package battle

import (
	"fmt"
	"time"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// Draw is the result of drawing the next pair: either a pair to vote on or
// the terminal winner.
type Draw struct {
	Pair        []model.Candidate
	Round       int
	TotalRounds int
	Terminal    bool
	Winner      *model.Candidate
}

// NewSession builds a session from an ordered candidate list. The first two
// candidates become the initial pair; the order is never changed here.
func NewSession(id, owner, location string, mode model.Mode, candidates []model.Candidate, now time.Time) (*model.Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("mode %q: %w", mode, model.ErrInvalidInput)
	}
	if owner == "" || location == "" {
		return nil, fmt.Errorf("owner and location are required: %w", model.ErrInvalidInput)
	}
	if len(candidates) < 2 {
		return nil, fmt.Errorf("need at least 2 candidates, got %d: %w", len(candidates), model.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("candidate %q has no id: %w", c.Title, model.ErrInvalidInput)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate %s: %w", c.ID, model.ErrInvalidInput)
		}
		seen[c.ID] = struct{}{}
	}
	s := &model.Session{
		ID:          id,
		Owner:       owner,
		Location:    location,
		Mode:        mode,
		State:       model.StateCreated,
		Candidates:  append([]model.Candidate(nil), candidates...),
		Round:       1,
		TotalRounds: len(candidates) - 1,
		Votes:       map[string]int{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	DrawNextPair(s)
	return s, nil
}

// DrawNextPair sets the current pair to the first two remaining candidates and
// clears the votes. With fewer than two candidates left the session becomes
// terminal and the sole survivor (if any) is reported as winner.
func DrawNextPair(s *model.Session) Draw {
	if s.State == model.StateTerminal || len(s.Candidates) < 2 {
		s.State = model.StateTerminal
		s.CurrentPair = nil
		s.Votes = map[string]int{}
		if len(s.Candidates) == 1 && s.Winner == nil {
			w := s.Candidates[0]
			s.Winner = &w
		}
		return Draw{Round: s.Round, TotalRounds: s.TotalRounds, Terminal: true, Winner: s.Winner}
	}
	s.CurrentPair = []model.Candidate{s.Candidates[0], s.Candidates[1]}
	s.Votes = map[string]int{}
	s.State = model.StatePaired
	return Draw{
		Pair:        append([]model.Candidate(nil), s.CurrentPair...),
		Round:       s.Round,
		TotalRounds: s.TotalRounds,
	}
}

// AdvanceRound removes one occurrence of loser and moves to the next round.
// It does not draw the next pair. A loser that is not in the list means the
// caller's view of the session is corrupt and yields ErrNotFound.
func AdvanceRound(s *model.Session, loser model.Candidate) error {
	if s.State == model.StateTerminal {
		return model.ErrSessionFinished
	}
	idx := -1
	for i, c := range s.Candidates {
		if c.ID == loser.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("candidate %s in session %s: %w", loser.ID, s.ID, model.ErrNotFound)
	}
	s.Candidates = append(s.Candidates[:idx:idx], s.Candidates[idx+1:]...)
	s.Round++
	s.State = model.StateRoundDecided
	return nil
}
