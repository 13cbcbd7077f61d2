package battle

import (
	"sync"
	"time"
)

// Scheduler keeps at most one pending delayed task per key. Scheduling a new
// task for a key cancels the previous one, so a forced resolution supersedes
// a pending vote deadline and a manual draw supersedes a countdown.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	seq     uint64
	stopped bool
}

type task struct {
	id    uint64
	timer *time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]*task)}
}

// Schedule runs fn after delay unless it is cancelled or replaced first.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}
	s.seq++
	t := &task{id: s.seq}
	t.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		cur, ok := s.tasks[key]
		if !ok || cur.id != t.id {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()
		fn()
	})
	s.tasks[key] = t
}

// Cancel drops the pending task for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}

// Pending reports whether key has a task waiting to fire.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Stop cancels every pending task and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, k)
	}
	s.stopped = true
}
