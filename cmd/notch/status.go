package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notchd/internal/engine"
)

var statusOpts struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what every notch is presenting",
	Long: `Show the daemon's engine state: each display's style and current
presentation, the ephemeral slot, media and tray state.

Formats: text (default), json, yaml.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "text",
		"Output format (text, json, yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	st, err := c.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	return writeStatus(cmd.OutOrStdout(), st, statusOpts.format, time.Now())
}

// writeStatus renders st in format. now anchors relative times.
func writeStatus(w io.Writer, st *engine.Status, format string, now time.Time) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		_, err := io.WriteString(w, formatStatusText(st, now))
		return err
	default:
		return fmt.Errorf("unknown format %q (expected text, json or yaml)", format)
	}
}

func formatStatusText(st *engine.Status, now time.Time) string {
	var b strings.Builder

	styles := make(map[string]string, len(st.Displays))
	for _, d := range st.Displays {
		styles[string(d.ID)] = d.Style.String()
	}

	if len(st.Presentations) == 0 {
		b.WriteString("Displays: none\n")
	} else {
		b.WriteString("Displays:\n")
	}
	for _, p := range st.Presentations {
		fmt.Fprintf(&b, "  %-10s %-7s %-22s %dx%d r%d\n",
			p.Display, styles[string(p.Display)], p.Label(),
			p.Geometry.Width, p.Geometry.Height, p.Geometry.CornerRadius)
	}

	snap := st.Snapshot
	if s := snap.Slot; s != nil {
		fmt.Fprintf(&b, "Ephemeral: %s %.0f%%, expires %s\n",
			s.Kind, s.Value*100, relative(s.ExpiresAt, now))
	} else {
		b.WriteString("Ephemeral: none\n")
	}

	media := snap.Media
	switch {
	case media.Track == "" && !media.Playing:
		b.WriteString("Media: no player\n")
	default:
		state := "paused"
		if media.Playing {
			state = "playing"
		}
		visible := "hidden"
		if snap.MediaVisible {
			visible = "visible"
		}
		fmt.Fprintf(&b, "Media: %s, %s (%s)", state, visible, media.Phase)
		if media.ForcedVisible {
			b.WriteString(", pinned")
		}
		if media.Track != "" {
			fmt.Fprintf(&b, ", %q", media.Track)
		}
		b.WriteString("\n")
	}

	tray := snap.Tray
	if tray.Owner == "" {
		fmt.Fprintf(&b, "Tray: collapsed, %s\n", itemCount(tray.Items))
	} else {
		fmt.Fprintf(&b, "Tray: expanded on %s, %s", tray.Owner, itemCount(tray.Items))
		if !tray.Deadline.IsZero() {
			fmt.Fprintf(&b, ", collapses %s", relative(tray.Deadline, now))
		}
		b.WriteString("\n")
	}

	if snap.HoverOwner != "" {
		fmt.Fprintf(&b, "Hover: %s\n", snap.HoverOwner)
	}
	if snap.DragOver != "" {
		fmt.Fprintf(&b, "Drag: %s\n", snap.DragOver)
	}
	return b.String()
}

func relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return humanize.Comma(int64(n)) + " items"
}
