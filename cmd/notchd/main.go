// Package main is the entry point for the notchd overlay daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/daemon"
	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/surface"
	"github.com/jmylchreest/notchd/internal/theme"
)

const appID = "io.github.jmylchreest.notchd"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	headless := flag.Bool("headless", false, "Run the engine and D-Bus services without drawing surfaces")
	showVersion := flag.Bool("version", false, "Show version and exit")
	var displays stringList
	flag.Var(&displays, "display", "Connector to register in headless mode (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Println("notchd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	configPath, err := config.DaemonConfigPath()
	if err != nil {
		logger.Error("failed to get config path", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadDaemonConfigFrom(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.EnsureDataDir(); err != nil {
		logger.Warn("failed to create data directory", "error", err)
	}

	opts := daemon.Options{
		ConfigPath: configPath,
		StatePath:  config.StatePath(),
		Headless:   *headless,
		Displays:   displays,
	}

	if *headless {
		runHeadless(logger, cfg, opts)
		return
	}
	runSurfaces(logger, cfg, opts)
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// runHeadless drives the engine from a goroutine event loop. Presentation
// changes are still published on D-Bus, so another renderer can follow.
func runHeadless(logger *slog.Logger, cfg *config.DaemonConfig, opts daemon.Options) {
	logger.Info("starting notchd in headless mode", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loop := sched.NewLoop(0, logger.With("component", "loop"))
	d := daemon.New(loop, cfg, opts, logger)

	started := make(chan error, 1)
	loop.Post(func() { started <- d.Start(ctx) })
	go loop.Run(ctx)

	if err := <-started; err != nil {
		logger.Error("failed to start daemon", "error", err)
		os.Exit(1)
	}
	logger.Info("notchd ready")

	<-ctx.Done()
	logger.Info("shutting down")
	<-loop.Done()
	d.Stop()
}

// runSurfaces runs notchd with a layer-shell notch on every monitor.
func runSurfaces(logger *slog.Logger, cfg *config.DaemonConfig, opts daemon.Options) {
	logger.Info("starting notchd", "version", version)

	app := adw.NewApplication(appID, 0)

	var (
		d           *daemon.Daemon
		surfaces    *surface.Manager
		themeLoader *theme.Loader
		running     atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(config.ThemesDir(), logger.With("component", "theme"))
		themeLoader.Load(cfg.Theme.Name)
		themeLoader.Apply(nil)
		themeLoader.Watch()

		// The surface manager needs the engine, and the engine asks the
		// surfaces whether a menu is open before collapsing.
		opts.EngineOptions = append(opts.EngineOptions, engine.WithMenuProbe(engine.MenuProbeFunc(func() bool {
			return surfaces != nil && surfaces.MenuOpen()
		})))
		d = daemon.New(surface.GLibScheduler{}, cfg, opts, logger)
		themeLoader.SetErrorCallback(d.Notifier().NotifyThemeError)
		d.OnConfigChange(func(cfg *config.DaemonConfig) {
			if t := themeLoader.Current(); t == nil || t.Name != cfg.Theme.Name {
				themeLoader.Load(cfg.Theme.Name)
			}
		})

		surfaces = surface.NewManager(&app.Application, d.Engine(), logger.With("component", "surface"))
		if err := surfaces.Start(); err != nil {
			logger.Error("failed to start surface manager", "error", err)
			app.Quit()
			return
		}

		if err := d.Start(ctx); err != nil {
			logger.Error("failed to start daemon", "error", err)
			app.Quit()
			return
		}

		// Keep the application alive while every notch is hidden.
		app.Hold()

		logger.Info("notchd ready", "displays", len(surfaces.Displays()))
	})

	app.ConnectShutdown(func() {
		if !running.Load() {
			return
		}
		running.Store(false)
		if d != nil {
			d.Stop()
		}
		if surfaces != nil {
			surfaces.Stop()
		}
		if themeLoader != nil {
			themeLoader.Close()
		}
		cancel()
		logger.Info("notchd stopped")
	})

	if code := app.Run(os.Args[:1]); code > 0 {
		os.Exit(code)
	}
}
