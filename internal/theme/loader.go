package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the GTK CSS provider for notch surfaces. Methods other than
// Watch must run on the GTK main thread.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	dir      string
	theme    *Theme
	watcher  *Watcher
	onError  func(error)
}

// NewLoader creates a loader that searches dir for user themes.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		dir:      dir,
	}
}

// SetErrorCallback sets a function called when a requested theme cannot
// be loaded and the default is used instead.
func (l *Loader) SetErrorCallback(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = fn
}

// Load resolves name and pushes its CSS into the provider.
func (l *Loader) Load(name string) {
	t, err := Load(name, l.dir)
	if err != nil {
		l.logger.Warn("theme not found, using default", "theme", name, "error", err)
		l.mu.Lock()
		onError := l.onError
		l.mu.Unlock()
		if onError != nil {
			onError(err)
		}
	}

	l.mu.Lock()
	l.theme = t
	l.mu.Unlock()

	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled, "path", t.Path)
}

// Current returns the loaded theme.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// Apply attaches the provider to display, or the default display when nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// Watch reloads the current theme on the main loop whenever the user theme
// directory changes. Bundled themes are watched too, since a user file may
// later shadow them.
func (l *Loader) Watch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil || l.dir == "" {
		return
	}

	w := NewWatcher(l.dir, func() {
		glib.IdleAdd(func() {
			if t := l.Current(); t != nil {
				l.Load(t.Name)
			}
		})
	}, l.logger)
	if err := w.Start(); err != nil {
		l.logger.Debug("theme hot-reload unavailable", "dir", l.dir, "error", err)
		return
	}
	l.watcher = w
}

// Close stops hot-reload.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}
