package surface

import (
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/notchd/internal/sched"
)

// GLibScheduler runs engine callbacks on the GTK main loop.
// AfterFunc and Stop must be called from the main loop; Post is safe from
// any goroutine.
type GLibScheduler struct{}

var _ sched.Scheduler = GLibScheduler{}

// Now returns the wall clock.
func (GLibScheduler) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn with g_timeout_add.
func (GLibScheduler) AfterFunc(d time.Duration, fn func()) sched.Timer {
	t := &glibTimer{}
	t.handle = coreglib.TimeoutAdd(timeoutMillis(d), func() bool {
		if t.done {
			return false
		}
		t.done = true
		fn()
		return false
	})
	return t
}

// Post schedules fn with g_idle_add.
func (GLibScheduler) Post(fn func()) {
	coreglib.IdleAdd(fn)
}

type glibTimer struct {
	handle coreglib.SourceHandle
	done   bool
}

func (t *glibTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	coreglib.SourceRemove(t.handle)
	return true
}

// timeoutMillis rounds d up to whole milliseconds so a timer never fires
// before its deadline.
func timeoutMillis(d time.Duration) uint {
	if d <= 0 {
		return 0
	}
	return uint((d + time.Millisecond - 1) / time.Millisecond)
}
