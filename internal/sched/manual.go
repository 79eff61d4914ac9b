package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-clock scheduler. Time only moves when Advance is
// called, and due callbacks run synchronously inside Advance in deadline
// order. It is intended for tests and for replaying recorded sessions.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
	posted  []func()
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

type manualTimer struct {
	m        *Manual
	at       time.Time
	seq      uint64
	fn       func()
	canceled bool
	fired    bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.canceled || t.fired {
		return false
	}
	t.canceled = true
	return true
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Post queues fn to run on the next Advance or Flush.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, fn)
}

// Flush runs posted callbacks without moving time.
func (m *Manual) Flush() {
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, firing every timer that becomes due.
// Timers scheduled by callbacks during Advance fire too if they fall inside
// the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.Flush()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
		m.Flush()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue pops the earliest live timer due at or before target and moves the
// clock to its deadline.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.canceled && !t.fired {
			live = append(live, t)
		}
	}
	m.pending = live

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at.Equal(m.pending[j].at) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].at.Before(m.pending[j].at)
	})

	if len(m.pending) == 0 || m.pending[0].at.After(target) {
		return nil
	}
	t := m.pending[0]
	m.pending = m.pending[1:]
	t.fired = true
	if t.at.After(m.now) {
		m.now = t.at
	}
	return t
}

// PendingCount returns the number of live timers.
func (m *Manual) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.canceled && !t.fired {
			n++
		}
	}
	return n
}
