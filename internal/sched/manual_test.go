package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual(epoch)
	var order []string

	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	m.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(2*time.Second), m.Now())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestManual_StopCancels(t *testing.T) {
	m := NewManual(epoch)
	fired := false

	timer := m.AfterFunc(time.Second, func() { fired = true })
	assert.Equal(t, 1, m.PendingCount())
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.Equal(t, 0, m.PendingCount())

	m.Advance(5 * time.Second)
	assert.False(t, fired)
}

func TestManual_NowInsideCallbackIsDeadline(t *testing.T) {
	m := NewManual(epoch)
	var seen time.Time

	m.AfterFunc(750*time.Millisecond, func() { seen = m.Now() })
	m.Advance(2 * time.Second)

	assert.Equal(t, epoch.Add(750*time.Millisecond), seen)
}

func TestManual_ChainedTimersWithinWindow(t *testing.T) {
	m := NewManual(epoch)
	count := 0

	m.AfterFunc(time.Second, func() {
		count++
		m.AfterFunc(time.Second, func() { count++ })
	})

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, 1, count)
	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 2, count)
}

func TestManual_PostRunsOnFlush(t *testing.T) {
	m := NewManual(epoch)
	ran := false
	m.Post(func() { ran = true })
	require.False(t, ran)
	m.Flush()
	assert.True(t, ran)
}

func TestStopTimer_Nil(t *testing.T) {
	assert.False(t, StopTimer(nil))
}
