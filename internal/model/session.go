package model

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle position of a battle.
type SessionState int

const (
	StateCreated SessionState = iota
	// StatePaired has a current pair awaiting votes.
	StatePaired
	// StateRoundDecided has resolved the current pair; the next pair is not drawn yet.
	StateRoundDecided
	// StateTerminal is absorbing: one candidate remains.
	StateTerminal
)

var stateNames = map[SessionState]string{
	StateCreated:      "created",
	StatePaired:       "paired",
	StateRoundDecided: "round_decided",
	StateTerminal:     "terminal",
}

func (s SessionState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SessionState) UnmarshalText(b []byte) error {
	for k, v := range stateNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", string(b))
}

// Session is one elimination tournament.
type Session struct {
	ID          string         `json:"id"`
	Owner       string         `json:"owner"`
	Location    string         `json:"location"`
	Mode        Mode           `json:"mode"`
	State       SessionState   `json:"state"`
	Candidates  []Candidate    `json:"candidates"`
	Round       int            `json:"round"`
	TotalRounds int            `json:"total_rounds"`
	CurrentPair []Candidate    `json:"current_pair,omitempty"`
	Votes       map[string]int `json:"votes"`
	Winner      *Candidate     `json:"winner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so stores can hand out sessions without sharing state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Candidates = append([]Candidate(nil), s.Candidates...)
	if s.CurrentPair != nil {
		c.CurrentPair = append([]Candidate(nil), s.CurrentPair...)
	}
	c.Votes = make(map[string]int, len(s.Votes))
	for k, v := range s.Votes {
		c.Votes[k] = v
	}
	if s.Winner != nil {
		w := *s.Winner
		c.Winner = &w
	}
	return &c
}

// Finished reports whether the session accepts no further votes.
func (s *Session) Finished() bool { return s.State == StateTerminal }

// Winner is a finished battle as kept in the history.
type Winner struct {
	SessionID  string    `json:"session_id"`
	Location   string    `json:"location"`
	Mode       Mode      `json:"mode"`
	Candidate  Candidate `json:"candidate"`
	Rounds     int       `json:"rounds"`
	FinishedAt time.Time `json:"finished_at"`
}
