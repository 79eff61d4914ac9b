package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/store"
)

var focusOpts struct {
	quiet bool // Suppress output, report state through the exit code
}

// focusCmd represents the focus command group.
var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Manage focus mode",
	Long: `Manage focus mode.

Focus mode is persisted in the shared state file. notchd watches the file
and shows a focus overlay whenever the mode changes.

Use 'notch focus status' to check the current state.
Use 'notch focus on' to enable focus mode.
Use 'notch focus off' to disable focus mode.
Use 'notch focus toggle' to toggle focus mode.

With --quiet nothing is printed and the exit code reports the resulting
state (0=off, 1=on).`,
	Args: cobra.NoArgs,
	RunE: focusStatusRun,
}

var focusOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable focus mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFocus(cmd, func(s *store.SharedState) {
			s.SetFocus(true, store.FocusTriggerUser, "focus on", "cli")
		})
	},
}

var focusOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable focus mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFocus(cmd, func(s *store.SharedState) {
			s.SetFocus(false, store.FocusTriggerUser, "focus off", "cli")
		})
	},
}

var focusToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle focus mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFocus(cmd, func(s *store.SharedState) {
			s.ToggleFocus(store.FocusTriggerUser, "focus toggle", "cli")
		})
	},
}

var focusStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show focus mode status",
	Args:  cobra.NoArgs,
	RunE:  focusStatusRun,
}

func init() {
	focusCmd.AddCommand(focusOnCmd)
	focusCmd.AddCommand(focusOffCmd)
	focusCmd.AddCommand(focusToggleCmd)
	focusCmd.AddCommand(focusStatusCmd)

	focusCmd.PersistentFlags().BoolVarP(&focusOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=off, 1=on)")

	rootCmd.AddCommand(focusCmd)
}

func setFocus(cmd *cobra.Command, fn func(*store.SharedState)) error {
	state, err := store.UpdateSharedState(statePath(), func(s *store.SharedState) error {
		fn(s)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	logger.Debug("focus mode updated", "enabled", state.FocusEnabled, "path", statePath())
	return reportFocus(cmd, state, false)
}

func focusStatusRun(cmd *cobra.Command, args []string) error {
	state, err := store.LoadSharedStateFrom(statePath())
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	return reportFocus(cmd, state, true)
}

func reportFocus(cmd *cobra.Command, state *store.SharedState, detail bool) error {
	if focusOpts.quiet {
		if state.FocusEnabled {
			os.Exit(1)
		}
		return nil
	}
	if detail {
		fmt.Fprint(cmd.OutOrStdout(), formatFocusStatus(state, time.Now()))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Focus mode:", enabledLabel(state.FocusEnabled))
	}
	return nil
}

// formatFocusStatus describes the focus mode and its last transition.
func formatFocusStatus(state *store.SharedState, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Focus mode: %s\n", enabledLabel(state.FocusEnabled))
	if t := state.FocusLastTransition; t != nil {
		fmt.Fprintf(&b, "  Last change: %s\n", humanize.RelTime(time.Unix(t.Timestamp, 0), now, "ago", "from now"))
		fmt.Fprintf(&b, "  Trigger: %s\n", t.Trigger)
		if t.Reason != "" {
			fmt.Fprintf(&b, "  Reason: %s\n", t.Reason)
		}
		if t.Source != "" {
			fmt.Fprintf(&b, "  Source: %s\n", t.Source)
		}
	}
	return b.String()
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
