package signal

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/store"
)

func TestFocusMonitor_EmitsOnFlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	initial := store.DefaultSharedState()
	initial.SetFocus(true, store.FocusTriggerUser, "focus on", "test")
	require.NoError(t, store.SaveSharedStateTo(initial, path))

	var mu sync.Mutex
	var got []model.Signal
	emit := func(s model.Signal) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	}

	m := NewFocusMonitor(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx, emit))
	defer m.Stop()
	assert.True(t, m.Enabled())

	// Writing the same value does not emit.
	require.NoError(t, store.SaveSharedStateTo(initial, path))

	_, err := store.UpdateSharedState(path, func(s *store.SharedState) error {
		s.SetFocus(false, store.FocusTriggerUser, "focus off", "test")
		return nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, model.SignalFocusMode, got[0].Kind)
	assert.Equal(t, 0.0, got[0].Value)
}

func TestFocusMonitor_StateCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	var states []*store.SharedState
	m := NewFocusMonitor(path, nil)
	m.SetStateCallback(func(s *store.SharedState) { states = append(states, s) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx, func(model.Signal) {}))
	defer m.Stop()

	require.Len(t, states, 1)
	assert.False(t, states[0].FocusEnabled)
}
