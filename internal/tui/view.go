package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
)

// pxPerCell converts logical pixels to terminal cells.
const (
	pxPerCol = 8
	pxPerRow = 18
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)

// View renders the preview.
func (m Model) View() string {
	var b strings.Builder
	snap := m.eng.Snapshot()

	b.WriteString(titleStyle.Render("notchd preview"))
	b.WriteString("\n")

	for _, p := range m.eng.ResolveAll() {
		b.WriteString(sectionStyle.Render(m.renderDisplay(p, snap)))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render(renderState(snap, m.items)))
	b.WriteString("\n")

	if len(m.log.entries) > 0 {
		b.WriteString(sectionStyle.Render(m.renderHistory()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m Model) renderDisplay(p model.Presentation, snap engine.Snapshot) string {
	header := fmt.Sprintf("%s (%s)  %s  %dx%d r%d", p.Display, p.Style, p.Label(),
		p.Geometry.Width, p.Geometry.Height, p.Geometry.CornerRadius)
	if p.Display == m.focused() {
		header = focusStyle.Render("▶ " + header)
	} else {
		header = dimStyle.Render("  " + header)
	}
	return header + "\n" + renderNotch(p, snap.Tray.Items)
}

// renderNotch draws the surface scaled down to terminal cells.
func renderNotch(p model.Presentation, items int) string {
	if p.Mode == model.ModeHidden {
		return dimStyle.Render("  ┄┄┄┄┄┄┄┄ hidden ┄┄┄┄┄┄┄┄")
	}

	width := max(p.Geometry.Width/pxPerCol, 6)
	height := max(p.Geometry.Height/pxPerRow, 1)

	border := lipgloss.NormalBorder()
	if p.Geometry.CornerRadius >= 14 {
		border = lipgloss.RoundedBorder()
	}
	box := lipgloss.NewStyle().
		Border(border).
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		MarginLeft(2)

	return box.Render(labelStyle.Render(content(p, items, width)))
}

// content is the text inside the notch.
func content(p model.Presentation, items, width int) string {
	switch p.Mode {
	case model.ModeEphemeral:
		if p.Kind == nil {
			return ""
		}
		text := fmt.Sprintf("%s %s", p.Kind, percent(p.Value))
		if w := width - len(text) - 1; w >= 4 {
			text += " " + bar(p.Value, w)
		}
		return text
	case model.ModeMedia:
		return "♪ " + p.Track
	case model.ModeExpanded:
		lines := []string{fmt.Sprintf("shelf · %d items", items)}
		if p.Track != "" {
			lines = append(lines, "♪ "+p.Track)
		} else if items == 0 {
			lines = append(lines, "drop files here")
		}
		return strings.Join(lines, "\n")
	case model.ModeHoverPeek:
		return "·"
	case model.ModeDragPeek:
		return "⇣"
	default:
		return ""
	}
}

func renderState(snap engine.Snapshot, items int) string {
	var lines []string

	if s := snap.Slot; s != nil {
		lines = append(lines, fmt.Sprintf("overlay  %s %s, expires in %s  [%s]",
			s.Kind, percent(s.Value), remaining(snap.At, s.ExpiresAt), s.ID))
	} else {
		lines = append(lines, "overlay  none")
	}

	media := fmt.Sprintf("media    %s playing=%t visible=%t", snap.Media.Phase, snap.Media.Playing, snap.MediaVisible)
	switch {
	case snap.Media.ForcedVisible:
		media += " pinned"
	case snap.Media.UserHidden:
		media += " hidden-by-user"
	}
	if snap.Media.Track != "" {
		media += "  " + snap.Media.Track
	}
	lines = append(lines, media)

	tray := fmt.Sprintf("tray     items=%d", items)
	if snap.Tray.Owner != "" {
		tray += " owner=" + string(snap.Tray.Owner)
		if !snap.Tray.Deadline.IsZero() {
			tray += ", collapses in " + remaining(snap.At, snap.Tray.Deadline)
		} else {
			tray += ", held open"
		}
	}
	lines = append(lines, tray)

	pointer := "pointer  "
	switch {
	case snap.HoverOwner != "":
		pointer += "hovering " + string(snap.HoverOwner)
	case snap.DragOver != "":
		pointer += "dragging over " + string(snap.DragOver)
	default:
		pointer += "away"
	}
	lines = append(lines, pointer)

	return strings.Join(lines, "\n")
}

func (m Model) renderHistory() string {
	lines := make([]string, 0, len(m.log.entries))
	for _, e := range m.log.entries {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s  %-9s %s → %s",
			e.At.Format("15:04:05.000"), e.Display, e.From, e.To)))
	}
	return strings.Join(lines, "\n")
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(v*100+0.5))
}

// bar draws a level meter w cells wide.
func bar(v float64, w int) string {
	filled := int(v*float64(w) + 0.5)
	filled = min(max(filled, 0), w)
	return strings.Repeat("█", filled) + strings.Repeat("░", w-filled)
}
