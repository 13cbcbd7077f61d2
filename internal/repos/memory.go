package repos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// In-memory stores back the service when DATABASE_URL is empty and in tests.
// They honour the same contracts as the Postgres repos, including the
// per-session critical section of Update.

type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	order    []string
	locks    map[string]*sync.Mutex
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string]*model.Session),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

func (m *MemorySessions) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemorySessions) Load(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	return s.Clone(), nil
}

// sessionLock returns the mutex serializing updates of one session. Sessions
// never share a lock.
func (m *MemorySessions) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *MemorySessions) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	l := m.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	s, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now().UTC()
	m.mu.Lock()
	m.sessions[id] = s.Clone()
	m.mu.Unlock()
	return s, nil
}

func (m *MemorySessions) LatestForParticipant(_ context.Context, participant, location string) (*model.Session, error) {
	return m.latest(func(s *model.Session) bool { return s.Owner == participant && s.Location == location })
}

func (m *MemorySessions) LatestGroupForLocation(_ context.Context, location string) (*model.Session, error) {
	return m.latest(func(s *model.Session) bool { return s.Mode == model.ModeGroup && s.Location == location })
}

func (m *MemorySessions) latest(match func(*model.Session) bool) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if s := m.sessions[m.order[i]]; match(s) {
			return s.Clone(), nil
		}
	}
	return nil, fmt.Errorf("latest session: %w", model.ErrNotFound)
}

type MemoryPreferences struct {
	mu         sync.Mutex
	byLocation map[string]map[string]model.SurveyResponse
	order      map[string][]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{
		byLocation: make(map[string]map[string]model.SurveyResponse),
		order:      make(map[string][]string),
	}
}

// SaveResponse upserts by participant+location. A replaced response keeps its
// original position in LoadResponses.
func (m *MemoryPreferences) SaveResponse(_ context.Context, r model.SurveyResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.byLocation[r.Location]
	if !ok {
		loc = make(map[string]model.SurveyResponse)
		m.byLocation[r.Location] = loc
	}
	if _, exists := loc[r.Participant]; !exists {
		m.order[r.Location] = append(m.order[r.Location], r.Participant)
	}
	r.Genres = append([]string(nil), r.Genres...)
	loc[r.Participant] = r
	return nil
}

func (m *MemoryPreferences) LoadResponses(_ context.Context, location string) ([]model.SurveyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SurveyResponse, 0, len(m.order[location]))
	for _, p := range m.order[location] {
		out = append(out, m.byLocation[location][p])
	}
	return out, nil
}

func (m *MemoryPreferences) CountDistinctParticipants(_ context.Context, location string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byLocation[location]), nil
}

func (m *MemoryPreferences) ClearResponses(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byLocation, location)
	delete(m.order, location)
	return nil
}

type MemoryLocations struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewMemoryLocations() *MemoryLocations {
	return &MemoryLocations{counts: make(map[string]int)}
}

func (m *MemoryLocations) SetMemberCount(_ context.Context, location string, count int) error {
	if location == "" || count < 1 {
		return fmt.Errorf("location %q count %d: %w", location, count, model.ErrInvalidInput)
	}
	m.mu.Lock()
	m.counts[location] = count
	m.mu.Unlock()
	return nil
}

func (m *MemoryLocations) EligibleVoterCount(_ context.Context, location string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.counts[location]; ok {
		return n, nil
	}
	return DefaultMemberCount, nil
}

type MemoryWinners struct {
	mu      sync.Mutex
	winners []model.Winner
}

func NewMemoryWinners() *MemoryWinners { return &MemoryWinners{} }

func (m *MemoryWinners) RecordWinner(_ context.Context, w model.Winner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.winners {
		if x.SessionID == w.SessionID {
			return nil
		}
	}
	m.winners = append(m.winners, w)
	return nil
}

func (m *MemoryWinners) ListWinnersPage(_ context.Context, from, to time.Time, cursor *WinnersCursor, limit int32) ([]model.Winner, error) {
	m.mu.Lock()
	sorted := append([]model.Winner(nil), m.winners...)
	m.mu.Unlock()
	sort.Slice(sorted, func(i, j int) bool { return winnerBefore(sorted[i], sorted[j]) })
	out := make([]model.Winner, 0, limit)
	for _, w := range sorted {
		if w.FinishedAt.Before(from) || !w.FinishedAt.Before(to) {
			continue
		}
		if cursor != nil && !winnerBefore(w, model.Winner{FinishedAt: cursor.FinishedAt, SessionID: cursor.SessionID}) {
			continue
		}
		out = append(out, w)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryWinners) CountWinners(_ context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, w := range m.winners {
		if !w.FinishedAt.Before(from) && w.FinishedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

// winnerBefore orders winners newest first, session id descending on ties.
func winnerBefore(a, b model.Winner) bool {
	if !a.FinishedAt.Equal(b.FinishedAt) {
		return a.FinishedAt.After(b.FinishedAt)
	}
	return a.SessionID > b.SessionID
}
