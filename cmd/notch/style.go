package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/store"
)

var styleCmd = &cobra.Command{
	Use:   "style [display] [auto|cutout|pill]",
	Short: "Show or set per-display notch style",
	Long: `Show or set the notch style preference for a display.

auto follows the display's hardware: a cutout style on displays with a
camera housing, a pill elsewhere. cutout and pill force a style.

Without arguments, lists the stored preferences. With only a display,
shows that display's preference.

Examples:
  notch style
  notch style HDMI-A-1 pill
  notch style eDP-1 auto`,
	Args: cobra.MaximumNArgs(2),
	RunE: runStyle,
}

func init() {
	rootCmd.AddCommand(styleCmd)
}

func runStyle(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) < 2 {
		state, err := store.LoadSharedStateFrom(statePath())
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}
		prefs := state.StylePreferences()
		if len(args) == 1 {
			writeStyle(out, model.DisplayID(args[0]), prefs)
			return nil
		}
		writeStyles(out, prefs)
		return nil
	}

	pref, err := model.ParseStylePreference(args[1])
	if err != nil {
		return err
	}
	id := model.DisplayID(args[0])
	if _, err := store.UpdateSharedState(statePath(), func(s *store.SharedState) error {
		s.SetDisplayStyle(id, pref)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	logger.Debug("display style updated", "display", id, "style", pref)
	fmt.Fprintf(out, "%s: %s\n", id, pref)
	return nil
}

func writeStyle(w io.Writer, id model.DisplayID, prefs map[model.DisplayID]model.StylePreference) {
	pref, ok := prefs[id]
	if !ok {
		pref = model.StylePreferenceAuto
	}
	fmt.Fprintf(w, "%s: %s\n", id, pref)
}

func writeStyles(w io.Writer, prefs map[model.DisplayID]model.StylePreference) {
	if len(prefs) == 0 {
		fmt.Fprintln(w, "All displays: auto")
		return
	}
	ids := make([]model.DisplayID, 0, len(prefs))
	for id := range prefs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s: %s\n", id, prefs[id])
	}
}
