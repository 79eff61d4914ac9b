// Package main provides the notch CLI for controlling notchd.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose   bool
		stateFile string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notch",
	Short: "Control the notchd overlay daemon",
	Long: `notch controls notchd, the notch overlay daemon.

It drives the running daemon over D-Bus (tray, media, ephemeral signals),
manages persisted preferences (focus mode and per-display style), and can
run a terminal preview of the overlay engine without a daemon.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.stateFile, "state-file", "",
		"Path to shared state file (default: ~/.local/share/notchd/state.json)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}
	// Log to stderr so stdout is clean for output
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// statePath returns the shared state file in use.
func statePath() string {
	if globalOpts.stateFile != "" {
		return globalOpts.stateFile
	}
	return config.StatePath()
}

// connect returns a control client, with a friendlier error when the
// daemon is not running.
func connect() (*dbus.Client, error) {
	c, err := dbus.NewClient()
	if errors.Is(err, dbus.ErrNotRunning) {
		return nil, fmt.Errorf("%w (start it with notchd)", err)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to notchd")
	return c, nil
}
