package discord

import (
	"sync"
	"time"
)

// scheduler runs delayed deletions that can all be cancelled on shutdown
type scheduler struct {
	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[*time.Timer]struct{})}
}

// After runs fn once d has elapsed unless Stop is called first.
// It returns false when the scheduler is already stopped.
func (s *scheduler) After(d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, pending := s.timers[timer]
		delete(s.timers, timer)
		s.mu.Unlock()

		if pending {
			fn()
		}
	})
	s.timers[timer] = struct{}{}
	return true
}

// Pending returns the number of scheduled tasks that have not run
func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending task
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for timer := range s.timers {
		timer.Stop()
		delete(s.timers, timer)
	}
}
