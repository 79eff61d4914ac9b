package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
)

// Manager plays the sound configured for each signal kind.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	enabled bool

	sounds map[model.SignalKind]string
}

// NewManager creates a manager from cfg. A nil cfg leaves audio disabled.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player.Invalidate, logger),
		sounds:  make(map[model.SignalKind]string),
	}
	m.apply(cfg)
	return m
}

// apply replaces the enabled flag, volume and sound map from cfg.
func (m *Manager) apply(cfg *config.DaemonConfig) {
	sounds := make(map[model.SignalKind]string)
	enabled := false

	if cfg != nil {
		enabled = cfg.Audio.Enabled
		m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

		for _, kind := range model.AllSignalKinds() {
			path := cfg.GetSoundForKind(kind)
			if path == "" {
				continue
			}
			if !Supported(path) {
				m.logger.Warn("unsupported sound format", "kind", kind, "path", path)
				continue
			}
			if _, err := os.Stat(path); err != nil {
				m.logger.Warn("sound file not found", "kind", kind, "path", path)
				continue
			}
			sounds[kind] = path
		}
	}

	m.mu.Lock()
	m.enabled = enabled
	m.sounds = sounds
	m.mu.Unlock()
}

// Sounds returns a copy of the resolved kind to path map.
func (m *Manager) Sounds() map[model.SignalKind]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.sounds)
}

// Enabled reports whether cues are played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Start preloads the configured sounds and watches them for edits.
func (m *Manager) Start(ctx context.Context) error {
	sounds := m.Sounds()
	if m.Enabled() {
		m.preload(sounds)
	}
	if err := m.watcher.Start(ctx); err != nil {
		return err
	}
	m.watchAll(sounds)
	m.logger.Info("audio manager started", "sounds", len(sounds), "enabled", m.Enabled())
	return nil
}

// Stop shuts down the watcher and the speaker.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayForKind plays the cue for kind. Missing cues are not an error.
func (m *Manager) PlayForKind(kind model.SignalKind) error {
	m.mu.RLock()
	path, ok := m.sounds[kind]
	enabled := m.enabled
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	if !ok {
		m.logger.Debug("no sound configured for kind", "kind", kind)
		return nil
	}
	return m.player.Play(path)
}

// PlayFile plays path when audio is enabled.
func (m *Manager) PlayFile(path string) error {
	if !m.Enabled() {
		return nil
	}
	return m.player.Play(path)
}

// UpdateConfig swaps the configuration on hot reload.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.player.ClearCache()
	m.apply(cfg)

	sounds := m.Sounds()
	if m.Enabled() {
		m.preload(sounds)
	}
	m.watchAll(sounds)
	m.logger.Debug("audio manager config updated", "sounds", len(sounds))
}

func (m *Manager) preload(sounds map[model.SignalKind]string) {
	for kind, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "kind", kind, "path", path, "error", err)
		}
	}
}

func (m *Manager) watchAll(sounds map[model.SignalKind]string) {
	for _, path := range sounds {
		if err := m.watcher.Watch(path); err != nil {
			m.logger.Debug("failed to watch sound", "path", path, "error", err)
		}
	}
}
