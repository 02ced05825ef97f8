package timesheet

import (
	"sync"
	"time"
)

// timerHandle is a cancelable pending callback.
type timerHandle interface {
	Stop() bool
}

// scheduler schedules deferred callbacks. The production implementation is
// time.AfterFunc; tests substitute a fake to observe delays without sleeping.
type scheduler interface {
	AfterFunc(d time.Duration, f func()) timerHandle
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) timerHandle {
	return time.AfterFunc(d, f)
}

// timerSlot holds at most one pending timer. Scheduling cancels whatever
// was pending, so a slot can never accumulate overlapping callbacks.
type timerSlot struct {
	mu      sync.Mutex
	pending timerHandle
}

func (s *timerSlot) schedule(sched scheduler, d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
	}
	var handle timerHandle
	handle = sched.AfterFunc(d, func() {
		s.mu.Lock()
		if s.pending == handle {
			s.pending = nil
		}
		s.mu.Unlock()
		f()
	})
	s.pending = handle
}

func (s *timerSlot) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
