package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/julianstephens/habitgrid/internal/constants"
)

// Scheduler debounces sync triggers. Every local write calls ScheduleAfterWrite;
// a burst of writes collapses into one sync that fires after the burst quiets
// down.
type Scheduler struct {
	engine *Engine

	mu    stdsync.Mutex
	timer *time.Timer
	done  bool
}

func NewScheduler(engine *Engine) *Scheduler {
	return &Scheduler{engine: engine}
}

// ScheduleAfterWrite arms (or re-arms) the debounce timer.
func (s *Scheduler) ScheduleAfterWrite() {
	s.scheduleIn(constants.WriteDebounce)
}

// ScheduleInitial queues the first sync after startup, deferred so the UI
// gets on screen before any network traffic starts.
func (s *Scheduler) ScheduleInitial() {
	s.scheduleIn(constants.InitialSyncDelay)
}

func (s *Scheduler) scheduleIn(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() {
		s.engine.Sync(context.Background())
	})
}

// Stop cancels any pending trigger. Further scheduling is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
