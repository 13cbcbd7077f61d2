package battle

import (
	"fmt"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// EventKind tells the presentation layer which message to render.
type EventKind int

const (
	EventPairDrawn EventKind = iota + 1
	EventTallyUpdate
	EventRoundWinner
	EventTournamentWinner
)

var eventNames = map[EventKind]string{
	EventPairDrawn:        "pair_drawn",
	EventTallyUpdate:      "tally_update",
	EventRoundWinner:      "round_winner",
	EventTournamentWinner: "tournament_winner",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	for kind, name := range eventNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(b))
}

// Event is one observable state change. Only the fields relevant to Kind are set.
type Event struct {
	Kind        EventKind         `json:"kind"`
	SessionID   string            `json:"session_id"`
	Location    string            `json:"location"`
	Round       int               `json:"round,omitempty"`
	TotalRounds int               `json:"total_rounds,omitempty"`
	Pair        []model.Candidate `json:"pair,omitempty"`
	Tally       *Tally            `json:"tally,omitempty"`
	VotesNeeded int               `json:"votes_needed,omitempty"`
	Winner      *model.Candidate  `json:"winner,omitempty"`
}

// Outcome is what an engine operation reports back: the events it produced
// and the session as persisted.
type Outcome struct {
	Events  []Event        `json:"events"`
	Session *model.Session `json:"session"`
}

// Last returns the final event, which is what a caller usually renders.
func (o Outcome) Last() (Event, bool) {
	if len(o.Events) == 0 {
		return Event{}, false
	}
	return o.Events[len(o.Events)-1], true
}

func drawEvent(s *model.Session, d Draw) Event {
	if d.Terminal {
		return Event{Kind: EventTournamentWinner, SessionID: s.ID, Location: s.Location, Round: d.Round, TotalRounds: d.TotalRounds, Winner: d.Winner}
	}
	return Event{Kind: EventPairDrawn, SessionID: s.ID, Location: s.Location, Round: d.Round, TotalRounds: d.TotalRounds, Pair: d.Pair}
}

func tallyEvent(s *model.Session, quorum int) Event {
	t := CountVotes(s)
	return Event{
		Kind:        EventTallyUpdate,
		SessionID:   s.ID,
		Location:    s.Location,
		Round:       s.Round,
		TotalRounds: s.TotalRounds,
		Pair:        append([]model.Candidate(nil), s.CurrentPair...),
		Tally:       &t,
		VotesNeeded: max(quorum-t.Total(), 0),
	}
}

func roundWinnerEvent(s *model.Session, round int, winner model.Candidate) Event {
	w := winner
	return Event{Kind: EventRoundWinner, SessionID: s.ID, Location: s.Location, Round: round, TotalRounds: s.TotalRounds, Winner: &w}
}
