package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/tui"
)

var previewOpts struct {
	configPath string
	monitors   []string
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run the overlay engine in the terminal",
	Long: `Run an in-process overlay engine and draw each display's notch in the
terminal. Keys stand in for hover, drag, the shelf, media players and
signal sources. No daemon is needed.

Monitors are given as CONNECTOR or CONNECTOR:WIDTHxHEIGHT, where the size
declares a camera housing. The default is a laptop panel with a cutout
plus one external display.

Key bindings:
  tab         Next display
  h / g       Hover / drag over the focused display
  enter       Toggle the tray
  + / -       Add / remove shelf items
  up / down   Volume
  b / B       Brightness / battery
  k f a l     Caps lock, focus, accessory, screen lock
  space / n   Play-pause / next track
  m / M       Toggle / hide media
  x           Dismiss overlay
  ?           Show help
  q           Quit

Examples:
  notch preview
  notch preview --monitor eDP-1:200x34 --monitor DP-2`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/notchd/notchd.toml)")
	previewCmd.Flags().StringArrayVarP(&previewOpts.monitors, "monitor", "m", nil,
		"Simulated monitor, CONNECTOR[:WxH] (repeatable)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	var cfg *config.DaemonConfig
	var err error
	if previewOpts.configPath != "" {
		cfg, err = config.LoadDaemonConfigFrom(previewOpts.configPath)
	} else {
		cfg, err = config.LoadDaemonConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	monitors := tui.DefaultMonitors()
	if len(previewOpts.monitors) > 0 {
		if monitors, err = parseMonitors(previewOpts.monitors); err != nil {
			return err
		}
	}

	p := tea.NewProgram(tui.New(cfg, monitors), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// parseMonitors parses CONNECTOR[:WxH] values.
func parseMonitors(values []string) ([]display.Monitor, error) {
	out := make([]display.Monitor, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, arg := range values {
		connector, size, hasSize := strings.Cut(arg, ":")
		if connector == "" {
			return nil, fmt.Errorf("invalid monitor %q: missing connector", arg)
		}
		if seen[connector] {
			return nil, fmt.Errorf("duplicate monitor %q", connector)
		}
		seen[connector] = true

		m := display.Monitor{Connector: connector, Name: connector}
		if hasSize {
			w, h, ok := strings.Cut(size, "x")
			width, werr := strconv.Atoi(w)
			height, herr := strconv.Atoi(h)
			if !ok || werr != nil || herr != nil || width <= 0 || height <= 0 {
				return nil, fmt.Errorf("invalid monitor %q: cutout must be WIDTHxHEIGHT", arg)
			}
			m.MeasuredCutout = &model.Size{Width: width, Height: height}
		}
		out = append(out, m)
	}
	return out, nil
}
