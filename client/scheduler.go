package client

import (
	"sort"
	"sync"
	"time"
)

// Scheduler abstracts timer creation so animation sequencing can run
// against a manual clock in tests instead of wall time.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Timer is a cancelable scheduled callback.
type Timer interface {
	Stop() bool
}

type wallScheduler struct{}

// NewWallScheduler returns the real-time scheduler backed by
// time.AfterFunc.
func NewWallScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (wallScheduler) Now() time.Time {
	return time.Now()
}

type manualTimer struct {
	sched    *ManualScheduler
	deadline time.Time
	seq      uint64
	f        func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// ManualScheduler is a deterministic scheduler for tests: timers only
// fire when Advance moves the clock past their deadline.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	timers []*manualTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Unix(0, 0)}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &manualTimer{sched: s, deadline: s.now.Add(d), seq: s.nextID, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward, firing due timers in deadline order.
// Callbacks run without the scheduler lock so they may schedule new
// timers; timers scheduled inside a callback fire in the same Advance
// if they fall within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		s.now = t.deadline
		s.mu.Unlock()
		t.f()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

func (s *ManualScheduler) popDue(target time.Time) *manualTimer {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.Slice(s.timers, func(i, j int) bool {
		if s.timers[i].deadline.Equal(s.timers[j].deadline) {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].deadline.Before(s.timers[j].deadline)
	})
	if len(s.timers) == 0 || s.timers[0].deadline.After(target) {
		return nil
	}
	t := s.timers[0]
	s.timers = s.timers[1:]
	return t
}
