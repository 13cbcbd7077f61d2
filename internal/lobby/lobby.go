// Package lobby gets battles started: it gathers survey answers, seeds the
// candidate list, and hands it to the battle engine.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zabege/tg-rec-bot/internal/battle"
	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/internal/preference"
)

type Starter interface {
	CreateSession(ctx context.Context, owner, location string, mode model.Mode, candidates []model.Candidate) (battle.Outcome, error)
}

type Sessions interface {
	LatestForParticipant(ctx context.Context, participant, location string) (*model.Session, error)
	LatestGroupForLocation(ctx context.Context, location string) (*model.Session, error)
}

type Preferences interface {
	SaveResponse(ctx context.Context, r model.SurveyResponse) error
	LoadResponses(ctx context.Context, location string) ([]model.SurveyResponse, error)
	CountDistinctParticipants(ctx context.Context, location string) (int, error)
	ClearResponses(ctx context.Context, location string) error
}

// SurveyResult reports what a submitted survey led to.
type SurveyResult struct {
	Count   int             `json:"count"`
	Needed  int             `json:"needed"`
	Started bool            `json:"started"`
	Active  string          `json:"active_session_id,omitempty"`
	Outcome *battle.Outcome `json:"outcome,omitempty"`
}

type Lobby struct {
	engine   Starter
	sessions Sessions
	prefs    Preferences
	members  battle.Membership
	source   catalog.Source

	battleSize int
	shuffle    func([]model.Candidate)

	locks sync.Map // location -> *sync.Mutex
}

type Option func(*Lobby)

// WithBattleSize sets how many candidates a battle starts with.
func WithBattleSize(n int) Option { return func(l *Lobby) { l.battleSize = n } }

func WithShuffle(fn func([]model.Candidate)) Option { return func(l *Lobby) { l.shuffle = fn } }

func New(engine Starter, sessions Sessions, prefs Preferences, members battle.Membership, source catalog.Source, opts ...Option) *Lobby {
	l := &Lobby{
		engine:     engine,
		sessions:   sessions,
		prefs:      prefs,
		members:    members,
		source:     source,
		battleSize: 8,
		shuffle: func(c []model.Candidate) {
			rand.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// StartSingle starts a one-person battle. A zero filter means popular titles.
func (l *Lobby) StartSingle(ctx context.Context, owner, location string, f model.Filter) (battle.Outcome, error) {
	return l.start(ctx, owner, location, model.ModeSingle, f)
}

// SubmitSurvey stores a finished survey. In single mode it starts the
// participant's battle right away. In group mode it starts the location's
// battle once enough members answered and no group battle is running.
func (l *Lobby) SubmitSurvey(ctx context.Context, resp model.SurveyResponse, mode model.Mode) (SurveyResult, error) {
	if err := preference.Validate(resp); err != nil {
		return SurveyResult{}, err
	}
	if !mode.Valid() {
		return SurveyResult{}, fmt.Errorf("mode %q: %w", mode, model.ErrInvalidInput)
	}
	if mode == model.ModeSingle {
		if err := l.prefs.SaveResponse(ctx, resp); err != nil {
			return SurveyResult{}, fmt.Errorf("save survey: %w", err)
		}
		out, err := l.start(ctx, resp.Participant, resp.Location, model.ModeSingle, preference.AggregateSingle(resp))
		if err != nil {
			return SurveyResult{}, err
		}
		return SurveyResult{Count: 1, Needed: 1, Started: true, Outcome: &out}, nil
	}

	mu := l.lock(resp.Location)
	mu.Lock()
	defer mu.Unlock()

	if err := l.prefs.SaveResponse(ctx, resp); err != nil {
		return SurveyResult{}, fmt.Errorf("save survey: %w", err)
	}
	count, err := l.prefs.CountDistinctParticipants(ctx, resp.Location)
	if err != nil {
		return SurveyResult{}, fmt.Errorf("count respondents: %w", err)
	}
	eligible, err := l.members.EligibleVoterCount(ctx, resp.Location)
	if err != nil {
		return SurveyResult{}, fmt.Errorf("eligible voters for %s: %w", resp.Location, err)
	}
	res := SurveyResult{Count: count, Needed: preference.CompletionThreshold(eligible)}
	if count < res.Needed {
		return res, nil
	}

	active, err := l.sessions.LatestGroupForLocation(ctx, resp.Location)
	switch {
	case err == nil && !active.Finished():
		res.Active = active.ID
		return res, nil
	case err != nil && !errors.Is(err, model.ErrNotFound):
		return SurveyResult{}, fmt.Errorf("active group battle: %w", err)
	}

	responses, err := l.prefs.LoadResponses(ctx, resp.Location)
	if err != nil {
		return SurveyResult{}, fmt.Errorf("load surveys: %w", err)
	}
	f, err := preference.AggregateGroup(responses)
	if err != nil {
		return SurveyResult{}, err
	}
	out, err := l.start(ctx, resp.Participant, resp.Location, model.ModeGroup, f)
	if err != nil {
		return SurveyResult{}, err
	}
	if err := l.prefs.ClearResponses(ctx, resp.Location); err != nil {
		log.Warn().Err(err).Str("location", resp.Location).Msg("clearing survey responses failed")
	}
	res.Started = true
	res.Outcome = &out
	return res, nil
}

// Current returns the participant's latest battle in location, or the
// location's latest group battle when the participant never started one.
func (l *Lobby) Current(ctx context.Context, participant, location string) (*model.Session, error) {
	if location == "" {
		return nil, fmt.Errorf("location required: %w", model.ErrInvalidInput)
	}
	if participant != "" {
		s, err := l.sessions.LatestForParticipant(ctx, participant, location)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}
	return l.sessions.LatestGroupForLocation(ctx, location)
}

func (l *Lobby) start(ctx context.Context, owner, location string, mode model.Mode, f model.Filter) (battle.Outcome, error) {
	var (
		cands []model.Candidate
		err   error
	)
	if f.IsZero() {
		cands, err = l.source.FetchPopular(ctx, l.battleSize)
	} else {
		cands, err = l.source.FetchByFilter(ctx, f, l.battleSize)
	}
	if err != nil {
		return battle.Outcome{}, err
	}
	if len(cands) < 2 {
		return battle.Outcome{}, fmt.Errorf("%d candidates: %w", len(cands), model.ErrInsufficientCandidates)
	}
	cands = append([]model.Candidate(nil), cands...)
	l.shuffle(cands)
	return l.engine.CreateSession(ctx, owner, location, mode, cands)
}

func (l *Lobby) lock(location string) *sync.Mutex {
	v, _ := l.locks.LoadOrStore(location, &sync.Mutex{})
	return v.(*sync.Mutex)
}
