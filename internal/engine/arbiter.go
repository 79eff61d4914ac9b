package engine

import (
	"crypto/rand"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// Slot is the single installed ephemeral overlay.
type Slot struct {
	ID          ulid.ULID        `json:"id" yaml:"id"`
	Kind        model.SignalKind `json:"kind" yaml:"kind"`
	Value       float64          `json:"value" yaml:"value"`
	InstalledAt time.Time        `json:"installed_at" yaml:"installed_at"`
	ExpiresAt   time.Time        `json:"expires_at" yaml:"expires_at"`
}

// Arbiter owns the ephemeral slot. A newer submission always replaces the
// current one, and at most one dismiss timer is outstanding.
type Arbiter struct {
	sched   sched.Scheduler
	own     *Ownership
	logger  *slog.Logger
	entropy io.Reader

	slot    *Slot
	dismiss sched.Timer

	onChange  func()
	onInstall func(Slot)
}

// NewArbiter creates an arbiter. Installing a slot clears hover ownership
// held in own.
func NewArbiter(s sched.Scheduler, own *Ownership, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{
		sched:   s,
		own:     own,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// SetChangeCallback sets the function called when the slot empties on its own.
func (a *Arbiter) SetChangeCallback(fn func()) {
	a.onChange = fn
}

// SetInstallCallback sets the function called after every install.
func (a *Arbiter) SetInstallCallback(fn func(Slot)) {
	a.onInstall = fn
}

// Submit installs an overlay, replacing whatever is showing. A non-positive
// duration is clamped to zero, which expires on the next timer tick.
func (a *Arbiter) Submit(kind model.SignalKind, value float64, duration time.Duration) Slot {
	if duration < 0 {
		duration = 0
	}

	// Cancel before install so a superseded timer can never clear the new slot.
	sched.StopTimer(a.dismiss)
	a.dismiss = nil

	now := a.sched.Now()
	slot := Slot{
		ID:          ulid.MustNew(ulid.Timestamp(now), a.entropy),
		Kind:        kind,
		Value:       model.ClampValue(value),
		InstalledAt: now,
		ExpiresAt:   now.Add(duration),
	}
	if a.slot != nil && a.slot.Kind != kind {
		a.logger.Debug("ephemeral preempted", "previous", a.slot.Kind, "kind", kind)
	}
	a.slot = &slot

	// An overlay takes over the surface, so interactive hover is dropped.
	if a.own != nil {
		a.own.clearHover()
	}

	id := slot.ID
	a.dismiss = a.sched.AfterFunc(duration, func() { a.expire(id) })

	a.logger.Debug("ephemeral installed", "kind", kind, "value", slot.Value, "duration", duration)
	if a.onInstall != nil {
		a.onInstall(slot)
	}
	return slot
}

// expire clears the slot only if it still holds the install that armed the
// timer.
func (a *Arbiter) expire(id ulid.ULID) {
	if a.slot == nil || a.slot.ID != id {
		return
	}
	a.logger.Debug("ephemeral expired", "kind", a.slot.Kind)
	a.slot = nil
	a.dismiss = nil
	if a.onChange != nil {
		a.onChange()
	}
}

// Dismiss clears the slot immediately. Returns false if nothing was showing.
func (a *Arbiter) Dismiss() bool {
	sched.StopTimer(a.dismiss)
	a.dismiss = nil
	if a.slot == nil {
		return false
	}
	a.logger.Debug("ephemeral dismissed", "kind", a.slot.Kind)
	a.slot = nil
	return true
}

// Active returns the installed slot.
func (a *Arbiter) Active() (Slot, bool) {
	if a.slot == nil {
		return Slot{}, false
	}
	return *a.slot, true
}
