package service

import (
	"sync"
	"time"
)

// startupGraceDelay delays expiries whose deadline already passed, e.g.
// giveaways reloaded after a restart, so startup wiring can finish first.
const startupGraceDelay = 500 * time.Millisecond

// Scheduler keeps one pending expiry timer per active giveaway, keyed by
// giveaway id. Re-arming an id cancels its prior timer so an expiry can
// never fire twice.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Arm installs fire to run at the given time, replacing any pending timer
// for the same id. A deadline in the past fires near-immediately.
func (s *Scheduler) Arm(id string, at time.Time, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}

	d := time.Until(at)
	if d <= 0 {
		d = startupGraceDelay
	}
	s.timers[id] = time.AfterFunc(d, func() {
		s.forget(id)
		fire()
	})
}

// Cancel drops the pending timer for id, if any.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}
