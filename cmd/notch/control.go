package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notchd/internal/model"
)

var signalOpts struct {
	duration time.Duration
}

var expandCmd = &cobra.Command{
	Use:   "expand [display]",
	Short: "Expand the tray on a display",
	Long: `Expand the tray on a display. Without a display the first connected
display is used. Expanding on another display moves the tray there.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Expand(optionalArg(args))
	},
}

var collapseCmd = &cobra.Command{
	Use:   "collapse",
	Short: "Collapse the tray",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Collapse()
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [display]",
	Short: "Toggle the tray on a display",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.ToggleExpand(optionalArg(args))
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Control the now-playing presentation",
	Long: `Control the now-playing presentation.

Without a subcommand, toggles media visibility.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		shown, err := c.ToggleMedia()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Media:", shownLabel(shown))
		return nil
	},
}

var mediaPinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Force the now-playing presentation visible",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		ok, err := c.PinMedia()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("nothing is playing")
		}
		return nil
	},
}

var mediaHideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the now-playing presentation until playback restarts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		return c.HideMedia()
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the ephemeral overlay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		dismissed, err := c.Dismiss()
		if err != nil {
			return err
		}
		if !dismissed {
			fmt.Fprintln(cmd.OutOrStdout(), "No overlay showing")
		}
		return nil
	},
}

var signalCmd = &cobra.Command{
	Use:   "signal <kind> [value]",
	Short: "Show an ephemeral overlay",
	Long: `Push an ephemeral signal to notchd, as a volume key or a battery
event would.

Kinds: ` + strings.Join(kindNames(), ", ") + `

The value is a level between 0 and 1 (or a percentage such as 40%), or
on/off for state kinds. It defaults to on.

Examples:
  notch signal volume 0.4
  notch signal brightness 75%
  notch signal capslock off
  notch signal battery 15% --duration 5s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseSignalKind(args[0])
		if err != nil {
			return err
		}
		value := 1.0
		if len(args) == 2 {
			if value, err = parseSignalValue(args[1]); err != nil {
				return err
			}
		}
		c, err := connect()
		if err != nil {
			return err
		}
		return c.Signal(kind, value, signalOpts.duration)
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items <count> [display]",
	Short: "Report the shelf item count",
	Long: `Report the number of items held by the tray shelf. The display names
the drop site that received the change, if any.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.Atoi(args[0])
		if err != nil || count < 0 {
			return fmt.Errorf("invalid item count %q", args[0])
		}
		c, err := connect()
		if err != nil {
			return err
		}
		return c.SetItems(count, optionalArg(args[1:]))
	},
}

var playbackCmd = &cobra.Command{
	Use:   "playback <playing|paused|stopped> [track]",
	Short: "Report player state",
	Long: `Report player state to notchd, for players that are not on MPRIS.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var playing bool
		switch strings.ToLower(args[0]) {
		case "playing", "play":
			playing = true
		case "paused", "pause", "stopped", "stop":
		default:
			return fmt.Errorf("unknown playback state %q", args[0])
		}
		c, err := connect()
		if err != nil {
			return err
		}
		return c.SetPlayback(playing, optionalArg(args[1:]))
	},
}

func init() {
	signalCmd.Flags().DurationVarP(&signalOpts.duration, "duration", "d", 0,
		"How long the overlay stays visible (default: per-kind daemon setting)")

	mediaCmd.AddCommand(mediaPinCmd)
	mediaCmd.AddCommand(mediaHideCmd)

	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(collapseCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(playbackCmd)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseSignalValue accepts 0-1 levels, percentages and on/off words.
func parseSignalValue(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return 1, nil
	case "off", "false", "no":
		return 0, nil
	}

	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid signal value %q", s)
	}
	if percent {
		v /= 100
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0, fmt.Errorf("signal value %q out of range", s)
	}
	return v, nil
}

func kindNames() []string {
	kinds := model.AllSignalKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

func shownLabel(shown bool) string {
	if shown {
		return "shown"
	}
	return "hidden"
}
