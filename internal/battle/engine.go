package battle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zabege/tg-rec-bot/internal/metrics"
	"github.com/zabege/tg-rec-bot/internal/model"
)

var tracer = otel.Tracer("github.com/zabege/tg-rec-bot/internal/battle")

// Store persists sessions. Update must run fn inside an exclusive critical
// section scoped to one session and persist the session only if fn succeeds.
type Store interface {
	Create(ctx context.Context, s *model.Session) error
	Load(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error)
	LatestForParticipant(ctx context.Context, participant, location string) (*model.Session, error)
	LatestGroupForLocation(ctx context.Context, location string) (*model.Session, error)
}

// Membership reports how many members a location has, the bot included.
type Membership interface {
	EligibleVoterCount(ctx context.Context, location string) (int, error)
}

// WinnerRecorder keeps the history of finished battles.
type WinnerRecorder interface {
	RecordWinner(ctx context.Context, w model.Winner) error
}

// SchedulerRequester is the participant id used for timer-driven resolutions.
const SchedulerRequester = "scheduler"

// Engine applies the battle state machine to stored sessions.
type Engine struct {
	store   Store
	members Membership
	winners WinnerRecorder
	deliver Deliverer
	sched   *Scheduler

	coin  func() bool
	now   func() time.Time
	newID func() string

	voteWindow    time.Duration
	nextPairDelay time.Duration
	taskTimeout   time.Duration
}

type Option func(*Engine)

// WithCoin replaces the tie-break coin; true picks the first position.
func WithCoin(coin func() bool) Option { return func(e *Engine) { e.coin = coin } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDGenerator(fn func() string) Option { return func(e *Engine) { e.newID = fn } }

// WithVoteWindow sets how long a group round stays open before it is forced.
// Zero disables the deadline.
func WithVoteWindow(d time.Duration) Option { return func(e *Engine) { e.voteWindow = d } }

// WithNextPairDelay sets the countdown between a decided group round and the
// next pair. Zero draws the next pair in the same call.
func WithNextPairDelay(d time.Duration) Option { return func(e *Engine) { e.nextPairDelay = d } }

func WithDeliverer(d Deliverer) Option { return func(e *Engine) { e.deliver = d } }

func WithWinnerRecorder(w WinnerRecorder) Option { return func(e *Engine) { e.winners = w } }

func New(store Store, members Membership, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		members:       members,
		deliver:       LogDeliverer{},
		sched:         NewScheduler(),
		coin:          func() bool { return rand.IntN(2) == 0 },
		now:           time.Now,
		newID:         func() string { return xid.New().String() },
		voteWindow:    60 * time.Second,
		nextPairDelay: 3 * time.Second,
		taskTimeout:   10 * time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Close cancels every pending timer.
func (e *Engine) Close() { e.sched.Stop() }

// change collects what happened inside one critical section so side effects
// run after the session is persisted.
type change struct {
	events   []Event
	trigger  string
	resolved bool
	paired   bool
	decided  bool
	finished bool
}

// CreateSession starts a battle over candidates in the order given.
func (e *Engine) CreateSession(ctx context.Context, owner, location string, mode model.Mode, candidates []model.Candidate) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "battle.CreateSession", trace.WithAttributes(
		attribute.String("location", location),
		attribute.String("mode", string(mode)),
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()

	s, err := NewSession(e.newID(), owner, location, mode, candidates, e.now().UTC())
	if err != nil {
		return Outcome{}, spanErr(span, err)
	}
	if err := e.store.Create(ctx, s); err != nil {
		return Outcome{}, spanErr(span, fmt.Errorf("create session: %w", err))
	}
	metrics.SessionsCreated.WithLabelValues(string(mode)).Inc()
	log.Info().Str("session_id", s.ID).Str("location", location).Str("mode", string(mode)).Int("candidates", len(candidates)).Msg("battle started")

	ch := change{paired: true}
	ch.events = append(ch.events, drawEvent(s, Draw{Pair: s.CurrentPair, Round: s.Round, TotalRounds: s.TotalRounds}))
	e.afterCommit(s, &ch)
	return Outcome{Events: ch.events, Session: s}, nil
}

// Get returns a stored session.
func (e *Engine) Get(ctx context.Context, id string) (*model.Session, error) {
	return e.store.Load(ctx, id)
}

// DrawNextPair draws the pair for the current round. A session that is
// already paired reports its pair unchanged, so a manual draw racing a
// countdown never wipes votes; a terminal session reports its winner.
func (e *Engine) DrawNextPair(ctx context.Context, id string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "battle.DrawNextPair", trace.WithAttributes(attribute.String("session_id", id)))
	defer span.End()

	var ch change
	s, err := e.store.Update(ctx, id, func(s *model.Session) error {
		ch = change{}
		switch s.State {
		case model.StatePaired:
			ch.events = append(ch.events, drawEvent(s, Draw{Pair: s.CurrentPair, Round: s.Round, TotalRounds: s.TotalRounds}))
		case model.StateTerminal:
			ch.events = append(ch.events, drawEvent(s, Draw{Round: s.Round, TotalRounds: s.TotalRounds, Terminal: true, Winner: s.Winner}))
		default:
			d := DrawNextPair(s)
			ch.events = append(ch.events, drawEvent(s, d))
			ch.paired = !d.Terminal
			ch.finished = d.Terminal
		}
		return nil
	})
	if err != nil {
		return Outcome{}, spanErr(span, err)
	}
	e.afterCommit(s, &ch)
	return Outcome{Events: ch.events, Session: s}, nil
}

// CastVote records participant's vote for position. round is the round the
// participant saw; zero means "whatever round is open".
//
// Single battles resolve on the vote. Group battles report the tally until
// the quorum is reached; the vote that reaches it resolves the round.
func (e *Engine) CastVote(ctx context.Context, id, participant string, position, round int) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "battle.CastVote", trace.WithAttributes(
		attribute.String("session_id", id),
		attribute.Int("position", position),
	))
	defer span.End()

	base, err := e.store.Load(ctx, id)
	if err != nil {
		return Outcome{}, spanErr(span, err)
	}
	quorum := 0
	if base.Mode == model.ModeGroup {
		eligible, err := e.members.EligibleVoterCount(ctx, base.Location)
		if err != nil {
			return Outcome{}, spanErr(span, fmt.Errorf("eligible voters for %s: %w", base.Location, err))
		}
		quorum = Quorum(eligible)
	}

	var ch change
	s, err := e.store.Update(ctx, id, func(s *model.Session) error {
		ch = change{}
		if round > 0 && round != s.Round && !s.Finished() {
			return fmt.Errorf("vote for round %d, session is at %d: %w", round, s.Round, model.ErrStaleRound)
		}
		if err := RecordVote(s, participant, position); err != nil {
			return err
		}
		if s.Mode == model.ModeSingle {
			ch.trigger = "single"
			w, l := ResolveSingle(s, position)
			return e.decide(s, w, l, &ch)
		}
		if len(s.Votes) < quorum {
			ch.events = append(ch.events, tallyEvent(s, quorum))
			return nil
		}
		ch.trigger = "quorum"
		w, l, err := Resolve(s, e.coin)
		if err != nil {
			return err
		}
		return e.decide(s, w, l, &ch)
	})
	metrics.Votes.WithLabelValues(string(base.Mode), voteResult(err)).Inc()
	if err != nil {
		return Outcome{}, spanErr(span, err)
	}
	e.afterCommit(s, &ch)
	return Outcome{Events: ch.events, Session: s}, nil
}

// ForceResolve closes the open round with whatever votes it has. Anyone may
// call it. round guards against resolving a round twice; zero skips the guard.
func (e *Engine) ForceResolve(ctx context.Context, id, requester string, round int) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "battle.ForceResolve", trace.WithAttributes(
		attribute.String("session_id", id),
		attribute.String("requester", requester),
	))
	defer span.End()

	if requester == "" {
		return Outcome{}, spanErr(span, fmt.Errorf("requester is required: %w", model.ErrInvalidInput))
	}
	var ch change
	s, err := e.store.Update(ctx, id, func(s *model.Session) error {
		ch = change{}
		if s.Finished() {
			return model.ErrSessionFinished
		}
		if s.State != model.StatePaired || (round > 0 && round != s.Round) {
			return fmt.Errorf("force round %d, session %s is %s at round %d: %w", round, s.ID, s.State, s.Round, model.ErrStaleRound)
		}
		ch.trigger = "force"
		if requester == SchedulerRequester {
			ch.trigger = "deadline"
		}
		w, l, err := Resolve(s, e.coin)
		if err != nil {
			return err
		}
		return e.decide(s, w, l, &ch)
	})
	if err != nil {
		return Outcome{}, spanErr(span, err)
	}
	log.Info().Str("session_id", id).Str("requester", requester).Int("round", s.Round-1).Msg("round forced")
	e.afterCommit(s, &ch)
	return Outcome{Events: ch.events, Session: s}, nil
}

// decide applies a resolved round. Single battles, last rounds and group
// battles without a countdown draw the next pair right away.
func (e *Engine) decide(s *model.Session, winner, loser model.Candidate, ch *change) error {
	round := s.Round
	if err := AdvanceRound(s, loser); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.ConsistencyErrors.Inc()
			log.Error().Err(err).
				Str("session_id", s.ID).
				Str("candidate_id", loser.ID).
				Int("round", round).
				Msg("candidate missing from session")
		}
		return err
	}
	ch.resolved = true
	ch.events = append(ch.events, roundWinnerEvent(s, round, winner))
	if s.Mode == model.ModeSingle || len(s.Candidates) < 2 || e.nextPairDelay <= 0 {
		d := DrawNextPair(s)
		ch.events = append(ch.events, drawEvent(s, d))
		ch.paired = !d.Terminal
		ch.finished = d.Terminal
		return nil
	}
	ch.decided = true
	return nil
}

// afterCommit runs the side effects of a persisted change: metrics, winner
// history and timers.
func (e *Engine) afterCommit(s *model.Session, ch *change) {
	if ch.resolved {
		metrics.RoundsResolved.WithLabelValues(string(s.Mode), ch.trigger).Inc()
	}
	switch {
	case ch.finished:
		e.sched.Cancel(s.ID)
		metrics.SessionsFinished.WithLabelValues(string(s.Mode)).Inc()
		e.recordWinner(s)
	case ch.decided:
		id := s.ID
		e.sched.Schedule(id, e.nextPairDelay, func() {
			e.runTask("next_pair", id, func(ctx context.Context) (Outcome, error) {
				return e.DrawNextPair(ctx, id)
			})
		})
	case ch.paired && s.Mode == model.ModeGroup && e.voteWindow > 0:
		id, round := s.ID, s.Round
		e.sched.Schedule(id, e.voteWindow, func() {
			e.runTask("vote_deadline", id, func(ctx context.Context) (Outcome, error) {
				return e.ForceResolve(ctx, id, SchedulerRequester, round)
			})
		})
	}
}

func (e *Engine) recordWinner(s *model.Session) {
	if e.winners == nil || s.Winner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.taskTimeout)
	defer cancel()
	w := model.Winner{
		SessionID:  s.ID,
		Location:   s.Location,
		Mode:       s.Mode,
		Candidate:  *s.Winner,
		Rounds:     s.TotalRounds,
		FinishedAt: e.now().UTC().Truncate(time.Microsecond),
	}
	if err := e.winners.RecordWinner(ctx, w); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("record winner failed")
		return
	}
	log.Info().Str("session_id", s.ID).Str("winner", s.Winner.ID).Msg("battle finished")
}

// runTask executes a timer-driven operation and delivers its events.
// Losing a race to a manual action is expected and only logged at debug.
func (e *Engine) runTask(name, id string, fn func(ctx context.Context) (Outcome, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), e.taskTimeout)
	defer cancel()
	out, err := fn(ctx)
	if err != nil {
		if errors.Is(err, model.ErrStaleRound) || errors.Is(err, model.ErrSessionFinished) {
			log.Debug().Err(err).Str("task", name).Str("session_id", id).Msg("scheduled task superseded")
			return
		}
		log.Error().Err(err).Str("task", name).Str("session_id", id).Msg("scheduled task failed")
		return
	}
	for _, ev := range out.Events {
		if err := e.deliver.Deliver(ctx, ev); err != nil {
			log.Warn().Err(err).Str("session_id", id).Str("kind", ev.Kind.String()).Msg("deliver event failed")
		}
	}
}

func voteResult(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, model.ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, model.ErrStaleRound), errors.Is(err, model.ErrSessionFinished):
		return "stale"
	default:
		return "rejected"
	}
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
