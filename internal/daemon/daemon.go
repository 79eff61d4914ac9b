package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notchd/internal/audio"
	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/signal"
	"github.com/jmylchreest/notchd/internal/store"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath is the config file watched for hot reload.
	ConfigPath string
	// StatePath is the shared state file holding focus mode and display
	// style preferences.
	StatePath string
	// NoBus skips every D-Bus service: the control server, the signal
	// monitors and desktop notifications.
	NoBus bool
	// EngineOptions are passed to engine.New.
	EngineOptions []engine.Option
	// Headless means no renderer enumerates monitors. Displays come from
	// the config overrides plus Displays, and are re-read on reload.
	Headless bool
	// Displays lists extra connectors to register in headless mode.
	Displays []string
}

// Daemon owns the engine and everything that feeds it. Engine state is
// only touched on the scheduler thread; collaborators running on their
// own goroutines reach it through Post.
type Daemon struct {
	sched  sched.Scheduler
	logger *slog.Logger
	opts   Options

	engine     *engine.Engine
	dispatcher *signal.Dispatcher
	audio      *audio.Manager
	focus      *signal.FocusMonitor
	watcher    *ConfigWatcher
	notifier   *InternalNotifier

	control  *dbus.ControlServer
	monitors []signal.Monitor
	playback *dbus.PlaybackMonitor

	// Accessed only on the scheduler thread.
	onConfig  []func(*config.DaemonConfig)
	published map[model.DisplayID]string
	publish   func(model.Presentation) error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a daemon around a new engine driven by s.
func New(s sched.Scheduler, cfg *config.DaemonConfig, opts Options, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}

	d := &Daemon{
		sched:     s,
		logger:    logger,
		opts:      opts,
		audio:     audio.NewManager(cfg, logger.With("component", "audio")),
		watcher:   NewConfigWatcher(opts.ConfigPath, logger.With("component", "config")),
		notifier:  NewInternalNotifier(logger.With("component", "notifier")),
		published: make(map[model.DisplayID]string),
	}

	engineOpts := append([]engine.Option{engine.WithInstallHook(d.playCue)}, opts.EngineOptions...)
	d.engine = engine.New(s, nil, cfg, logger.With("component", "engine"), engineOpts...)
	d.dispatcher = signal.NewDispatcher(s, signal.SubmitFunc(d.submit), logger.With("component", "dispatcher"))
	d.focus = signal.NewFocusMonitor(opts.StatePath, logger.With("component", "focus"))
	return d
}

// Engine returns the daemon's engine.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// Dispatcher returns the signal dispatcher feeding the engine.
func (d *Daemon) Dispatcher() *signal.Dispatcher { return d.dispatcher }

// Notifier returns the internal notifier.
func (d *Daemon) Notifier() *InternalNotifier { return d.notifier }

// OnConfigChange registers fn to run on the scheduler thread after each
// successful config reload. Call before Start.
func (d *Daemon) OnConfigChange(fn func(*config.DaemonConfig)) {
	d.onConfig = append(d.onConfig, fn)
}

// Start brings up every collaborator. Only a failure to own the control
// bus name is fatal. Sources that cannot start are logged and reported.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	cfg := d.engine.Config()
	d.engine.OnChange(d.publishChanges)
	if d.opts.Headless {
		d.sched.Post(func() { d.syncStatic(d.engine.Config()) })
	}

	if !d.opts.NoBus {
		if err := d.startBus(ctx, cfg); err != nil {
			d.Stop()
			return err
		}
	}

	if err := d.audio.Start(ctx); err != nil {
		d.logger.Warn("failed to start audio manager", "error", err)
	}

	d.focus.SetStateCallback(d.applyState)
	if err := d.focus.Start(ctx, d.emitFocus); err != nil {
		d.logger.Warn("failed to start focus monitor", "path", d.opts.StatePath, "error", err)
	}

	d.watcher.SetReloadCallback(func(cfg *config.DaemonConfig) {
		d.sched.Post(func() { d.applyConfig(cfg) })
	})
	d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
	if err := d.watcher.Start(ctx, cfg); err != nil {
		d.logger.Warn("failed to start config watcher", "error", err)
	}

	d.logger.Info("daemon started", "bus", !d.opts.NoBus)
	return nil
}

// startBus starts the control server, desktop notifications and the
// enabled D-Bus monitors.
func (d *Daemon) startBus(ctx context.Context, cfg *config.DaemonConfig) error {
	if n, err := dbus.NewDesktopNotifier(d.logger.With("component", "notify")); err != nil {
		d.logger.Warn("desktop notifications unavailable", "error", err)
	} else {
		d.notifier.SetSendFunc(n.Send)
	}

	d.control = dbus.NewControlServer(d.sched, d.engine, d.dispatcher.Emit, d.logger.With("component", "control"))
	if err := d.control.Start(); err != nil {
		return fmt.Errorf("failed to start control server: %w", err)
	}
	d.publish = d.control.EmitPresentationChanged

	enabled := cfg.Monitors
	if enabled.Battery {
		d.monitors = append(d.monitors, dbus.NewBatteryMonitor(d.logger.With("monitor", "battery")))
	}
	if enabled.Accessory {
		d.monitors = append(d.monitors, dbus.NewAccessoryMonitor(d.logger.With("monitor", "accessory")))
	}
	if enabled.ScreenLock {
		d.monitors = append(d.monitors, dbus.NewScreenLockMonitor(d.logger.With("monitor", "screenlock")))
	}
	for _, m := range d.monitors {
		if err := m.Start(ctx, d.dispatcher.EmitFunc()); err != nil {
			d.logger.Warn("failed to start monitor", "monitor", m.Name(), "error", err)
			d.notifier.NotifyMonitorError(m.Name(), err)
		}
	}

	if enabled.Playback {
		d.playback = dbus.NewPlaybackMonitor(d.logger.With("monitor", "playback"))
		if err := d.playback.Start(ctx, d.playbackChanged); err != nil {
			d.logger.Warn("failed to start monitor", "monitor", d.playback.Name(), "error", err)
			d.notifier.NotifyMonitorError(d.playback.Name(), err)
		}
	}
	return nil
}

// Stop shuts down every collaborator. It is safe to call more than once.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	d.watcher.Stop()
	if err := d.focus.Stop(); err != nil {
		d.logger.Debug("failed to stop focus monitor", "error", err)
	}
	for _, m := range d.monitors {
		if err := m.Stop(); err != nil {
			d.logger.Debug("failed to stop monitor", "monitor", m.Name(), "error", err)
		}
	}
	if d.playback != nil {
		_ = d.playback.Stop()
	}
	if d.control != nil {
		if err := d.control.Stop(); err != nil {
			d.logger.Warn("failed to stop control server", "error", err)
		}
	}
	d.audio.Stop()
	cancel()

	d.logger.Info("daemon stopped")
}

func (d *Daemon) submit(kind model.SignalKind, value float64, duration time.Duration) {
	d.engine.Submit(kind, value, duration)
}

// playCue plays the sound for an installed slot off the scheduler thread.
func (d *Daemon) playCue(slot engine.Slot) {
	go func() {
		if err := d.audio.PlayForKind(slot.Kind); err != nil {
			d.logger.Debug("failed to play cue", "kind", slot.Kind, "error", err)
		}
	}()
}

// emitFocus forwards focus mode changes while the focus source is enabled.
func (d *Daemon) emitFocus(sig model.Signal) {
	d.sched.Post(func() {
		if !d.engine.Config().Monitors.Focus {
			return
		}
		d.dispatcher.Emit(sig)
	})
}

// applyState pushes persisted display style preferences into the engine.
func (d *Daemon) applyState(state *store.SharedState) {
	prefs := state.StylePreferences()
	d.sched.Post(func() { d.engine.SetStylePreferences(prefs) })
}

func (d *Daemon) playbackChanged(playing bool, track string) {
	d.sched.Post(func() { d.engine.PlaybackChanged(playing, track) })
}

// applyConfig swaps a reloaded config into every consumer.
func (d *Daemon) applyConfig(cfg *config.DaemonConfig) {
	if cfg.Monitors != d.engine.Config().Monitors {
		d.logger.Info("signal source changes take effect on restart")
	}
	d.engine.UpdateConfig(cfg)
	if d.opts.Headless {
		d.syncStatic(cfg)
	}
	d.audio.UpdateConfig(cfg)
	for _, fn := range d.onConfig {
		fn(cfg)
	}
	d.notifier.NotifyConfigReloaded()
}

// syncStatic registers the displays declared in cfg and Options.Displays.
func (d *Daemon) syncStatic(cfg *config.DaemonConfig) {
	monitors := StaticMonitors(cfg, d.opts.Displays)
	if len(monitors) == 0 {
		d.logger.Warn("no displays declared for headless mode, add [[display.overrides]] or -display")
	}
	d.engine.SyncDisplays(monitors)
}

// StaticMonitors returns one monitor per override connector in cfg followed
// by each extra connector not already listed.
func StaticMonitors(cfg *config.DaemonConfig, extra []string) []display.Monitor {
	seen := make(map[string]bool)
	var out []display.Monitor
	add := func(connector string) {
		if connector == "" || seen[connector] {
			return
		}
		seen[connector] = true
		out = append(out, display.Monitor{Connector: connector, Name: connector})
	}
	for _, o := range cfg.Display.Overrides {
		add(o.Connector)
	}
	for _, c := range extra {
		add(c)
	}
	return out
}

// publishChanges emits PresentationChanged for each display whose mode or
// kind moved since the last emission.
func (d *Daemon) publishChanges(presentations []model.Presentation) {
	seen := make(map[model.DisplayID]bool, len(presentations))
	for _, p := range presentations {
		seen[p.Display] = true
		label := p.Label()
		if prev, ok := d.published[p.Display]; ok && prev == label {
			continue
		}
		d.published[p.Display] = label
		if d.publish == nil {
			continue
		}
		if err := d.publish(p); err != nil {
			d.logger.Debug("failed to publish presentation", "display", p.Display, "error", err)
		}
	}
	for id := range d.published {
		if !seen[id] {
			delete(d.published, id)
		}
	}
}
