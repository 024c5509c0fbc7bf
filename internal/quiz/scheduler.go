package quiz

import (
	"strings"
	"sync"
	"time"

	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

// Scheduler dispatches named one-shot delayed callbacks. Scheduling under an
// existing name supersedes (cancels) the previous instance, so a task name
// can never fire twice concurrently. Callbacks run on their own goroutine and
// must re-validate any state they touch: a callback may still start after its
// owner decided to cancel, and it is expected to detect that and no-op.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arranges fn to run after delay under the given name. An existing
// task with the same name is cancelled first.
func (s *Scheduler) Schedule(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		logger.Debug("Scheduler stopped, dropping task", "task", name)
		return
	}

	if old, exists := s.timers[name]; exists {
		old.Stop()
		logger.Debug("Superseding scheduled task", "task", name)
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A timer that fires after being superseded or cancelled no longer
		// owns its name and must not run.
		current, ok := s.timers[name]
		if !ok || current != timer || s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.timers, name)
		s.mu.Unlock()

		fn()
	})
	s.timers[name] = timer
}

// Cancel removes the named task. Returns true when a pending task existed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, exists := s.timers[name]
	if !exists {
		return false
	}
	timer.Stop()
	delete(s.timers, name)
	return true
}

// CancelPrefix cancels every pending task whose name starts with prefix and
// returns how many were cancelled. Used to tear down all tasks owned by one
// session in a single sweep.
func (s *Scheduler) CancelPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	for name, timer := range s.timers {
		if strings.HasPrefix(name, prefix) {
			timer.Stop()
			delete(s.timers, name)
			cancelled++
		}
	}
	return cancelled
}

// Pending reports whether a task with the given name is scheduled.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.timers[name]
	return exists
}

// Stop cancels everything and rejects further scheduling. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for name, timer := range s.timers {
		timer.Stop()
		delete(s.timers, name)
	}
}
