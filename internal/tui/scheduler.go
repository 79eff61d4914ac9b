package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/notchd/internal/sched"
)

// teaScheduler runs engine callbacks inside the bubbletea update loop.
// Timers fire on runtime goroutines and queue their callback; Update drains
// the queue one callback per message.
type teaScheduler struct {
	events chan func()
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{events: make(chan func(), 64)}
}

var _ sched.Scheduler = (*teaScheduler)(nil)

func (s *teaScheduler) Now() time.Time {
	return time.Now()
}

func (s *teaScheduler) AfterFunc(d time.Duration, fn func()) sched.Timer {
	t := &teaTimer{}
	t.timer = time.AfterFunc(d, func() {
		s.events <- func() {
			if t.claim() {
				fn()
			}
		}
	})
	return t
}

func (s *teaScheduler) Post(fn func()) {
	go func() { s.events <- fn }()
}

// wait returns a command that delivers the next queued callback.
func (s *teaScheduler) wait() tea.Msg {
	return callbackMsg(<-s.events)
}

type teaTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
}

// claim marks the timer fired unless it was stopped after being queued.
func (t *teaTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}

func (t *teaTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// callbackMsg carries an engine callback into Update.
type callbackMsg func()
