package battle

import (
	"fmt"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// Positions a participant may vote for within the current pair.
const (
	PositionFirst  = 1
	PositionSecond = 2
)

// Quorum is the number of distinct votes that resolves a group round.
// eligibleVoters counts location members including the bot account.
func Quorum(eligibleVoters int) int {
	return max(3, min(eligibleVoters-1, 5))
}

// Tally counts the votes for each position of the current pair.
type Tally struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

func (t Tally) Total() int { return t.First + t.Second }

// CountVotes tallies the session's current-round votes.
func CountVotes(s *model.Session) Tally {
	var t Tally
	for _, p := range s.Votes {
		switch p {
		case PositionFirst:
			t.First++
		case PositionSecond:
			t.Second++
		}
	}
	return t
}

// RecordVote stores participant's choice for the current round. It never
// overwrites an existing vote.
func RecordVote(s *model.Session, participant string, position int) error {
	if participant == "" {
		return fmt.Errorf("participant is required: %w", model.ErrInvalidInput)
	}
	if position != PositionFirst && position != PositionSecond {
		return fmt.Errorf("position %d: %w", position, model.ErrInvalidInput)
	}
	switch s.State {
	case model.StateTerminal:
		return model.ErrSessionFinished
	case model.StatePaired:
	default:
		return fmt.Errorf("session %s is %s: %w", s.ID, s.State, model.ErrStaleRound)
	}
	if s.Mode == model.ModeSingle && participant != s.Owner {
		return fmt.Errorf("only the owner votes in a single battle: %w", model.ErrInvalidInput)
	}
	if _, ok := s.Votes[participant]; ok {
		return fmt.Errorf("participant %s in round %d: %w", participant, s.Round, model.ErrDuplicateVote)
	}
	if s.Votes == nil {
		s.Votes = map[string]int{}
	}
	s.Votes[participant] = position
	return nil
}

// Resolve picks the winner of the current pair: the position with more votes
// wins, an exact tie (including no votes) is settled by coin. coin returning
// true selects the first position.
func Resolve(s *model.Session, coin func() bool) (winner, loser model.Candidate, err error) {
	if len(s.CurrentPair) != 2 {
		return winner, loser, fmt.Errorf("session %s has no pair under vote: %w", s.ID, model.ErrStaleRound)
	}
	t := CountVotes(s)
	first := t.First > t.Second
	if t.First == t.Second {
		first = coin()
	}
	if first {
		return s.CurrentPair[0], s.CurrentPair[1], nil
	}
	return s.CurrentPair[1], s.CurrentPair[0], nil
}

// ResolveSingle returns the winner/loser implied by one decisive vote.
func ResolveSingle(s *model.Session, position int) (winner, loser model.Candidate) {
	if position == PositionFirst {
		return s.CurrentPair[0], s.CurrentPair[1]
	}
	return s.CurrentPair[1], s.CurrentPair[0]
}
