package surface

import (
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/theme"
)

// Controller receives the gestures a notch window observes.
// *engine.Engine satisfies it.
type Controller interface {
	SetHover(d model.DisplayID, hovering bool)
	SetContentHover(d model.DisplayID, inside bool)
	SetDragging(d model.DisplayID, dragging bool)
	ToggleExpand(d model.DisplayID) error
	Collapse() bool
	Dismiss() bool
	PinMedia() bool
	HideMedia()
}

// hiddenHeight keeps a hidden pill hoverable along the top edge.
const hiddenHeight = 2

// Notch is the layer-shell window for one display.
type Notch struct {
	id     model.DisplayID
	window *gtk.Window
	ctrl   Controller
	logger *slog.Logger

	// Widgets
	body      *gtk.Box
	glyph     *gtk.Label
	level     *gtk.LevelBar
	caption   *gtk.Label
	track     *gtk.Label
	tray      *gtk.Box
	header    *gtk.Label
	emptyHint *gtk.Label
	menu      *gtk.Popover

	classes  []string
	menuOpen bool
	label    string
	width    int // Last visible width, kept while hidden
}

// NewNotch creates the window for id on monitor.
func NewNotch(app *gtk.Application, id model.DisplayID, monitor *gdk.Monitor, ctrl Controller, logger *slog.Logger) *Notch {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notch{
		id:     id,
		ctrl:   ctrl,
		logger: logger.With("display", id),
	}

	n.window = gtk.NewWindow()
	n.window.SetApplication(app)
	n.window.SetDecorated(false)
	n.window.SetResizable(false)
	n.window.AddCSSClass("notch")

	layershell.InitForWindow(n.window)
	layershell.SetLayer(n.window, layershell.LayerShellLayerOverlay)
	layershell.SetAnchor(n.window, layershell.LayerShellEdgeTop, true)
	layershell.SetExclusiveZone(n.window, -1) // Sit over panels, reserve nothing
	layershell.SetKeyboardMode(n.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(n.window, "notchd")
	if monitor != nil {
		layershell.SetMonitor(n.window, monitor)
	}

	n.buildUI()
	n.connectSignals()
	return n
}

func (n *Notch) buildUI() {
	n.body = gtk.NewBox(gtk.OrientationVertical, 0)
	n.body.SetHAlign(gtk.AlignCenter)
	n.body.SetVAlign(gtk.AlignStart)
	if adw.StyleManagerGetDefault().Dark() {
		n.body.AddCSSClass("dark")
	}

	// Compact row: glyph, level and caption for overlays, track for media.
	row := gtk.NewBox(gtk.OrientationHorizontal, 8)
	row.SetVAlign(gtk.AlignCenter)
	row.SetVExpand(true)

	n.glyph = gtk.NewLabel("")
	n.glyph.AddCSSClass("glyph")
	row.Append(n.glyph)

	n.level = gtk.NewLevelBar()
	n.level.AddCSSClass("level")
	n.level.SetHExpand(true)
	n.level.SetVAlign(gtk.AlignCenter)
	row.Append(n.level)

	n.caption = gtk.NewLabel("")
	n.caption.AddCSSClass("caption")
	row.Append(n.caption)

	n.track = gtk.NewLabel("")
	n.track.AddCSSClass("track")
	n.track.SetHExpand(true)
	n.track.SetXAlign(0.5)
	row.Append(n.track)

	n.body.Append(row)

	// Expanded tray content. Items themselves belong to the shelf.
	n.tray = gtk.NewBox(gtk.OrientationVertical, 4)
	n.tray.AddCSSClass("tray")
	n.header = gtk.NewLabel("")
	n.header.AddCSSClass("tray-header")
	n.header.SetXAlign(0)
	n.tray.Append(n.header)
	n.emptyHint = gtk.NewLabel("Drop files here")
	n.emptyHint.AddCSSClass("tray-empty")
	n.tray.Append(n.emptyHint)
	n.body.Append(n.tray)

	n.menu = n.buildMenu()
	n.window.SetChild(n.body)
}

func (n *Notch) buildMenu() *gtk.Popover {
	box := gtk.NewBox(gtk.OrientationVertical, 2)
	add := func(label string, fn func()) {
		btn := gtk.NewButtonWithLabel(label)
		btn.AddCSSClass("flat")
		btn.ConnectClicked(func() {
			n.menu.Popdown()
			fn()
		})
		box.Append(btn)
	}
	add("Show media", func() { n.ctrl.PinMedia() })
	add("Hide media", func() { n.ctrl.HideMedia() })
	add("Dismiss overlay", func() { n.ctrl.Dismiss() })
	add("Collapse", func() { n.ctrl.Collapse() })

	menu := gtk.NewPopover()
	menu.SetChild(box)
	menu.SetParent(n.body)
	menu.ConnectClosed(func() { n.menuOpen = false })
	return menu
}

func (n *Notch) connectSignals() {
	hover := gtk.NewEventControllerMotion()
	hover.ConnectEnter(func(x, y float64) { n.ctrl.SetHover(n.id, true) })
	hover.ConnectLeave(func() { n.ctrl.SetHover(n.id, false) })
	n.body.AddController(hover)

	content := gtk.NewEventControllerMotion()
	content.ConnectEnter(func(x, y float64) { n.ctrl.SetContentHover(n.id, true) })
	content.ConnectLeave(func() { n.ctrl.SetContentHover(n.id, false) })
	n.tray.AddController(content)

	drag := gtk.NewDropControllerMotion()
	drag.ConnectEnter(func(x, y float64) { n.ctrl.SetDragging(n.id, true) })
	drag.ConnectLeave(func() { n.ctrl.SetDragging(n.id, false) })
	n.body.AddController(drag)

	click := gtk.NewGestureClick()
	click.SetButton(0) // All buttons
	click.ConnectReleased(func(nPress int, x, y float64) {
		n.handleClick(click.CurrentButton())
	})
	n.body.AddController(click)
}

func (n *Notch) handleClick(button uint) {
	switch button {
	case 1:
		if err := n.ctrl.ToggleExpand(n.id); err != nil {
			n.logger.Warn("failed to toggle tray", "error", err)
		}
	case 2:
		n.ctrl.Dismiss()
	case 3:
		n.menuOpen = true
		n.menu.Popup()
	}
}

// MenuOpen reports whether the context menu is showing.
func (n *Notch) MenuOpen() bool {
	return n.menuOpen
}

// Render draws p. items is the tray item count, shown in the header.
func (n *Notch) Render(p model.Presentation, items int) {
	for _, c := range n.classes {
		if c != theme.BodyClass {
			n.body.RemoveCSSClass(c)
		}
	}
	n.classes = theme.Classes(p)
	for _, c := range n.classes {
		n.body.AddCSSClass(c)
	}

	ephemeral := p.Mode == model.ModeEphemeral && p.Kind != nil
	media := p.Mode == model.ModeMedia || (p.Mode == model.ModeExpanded && p.Track != "")

	n.glyph.SetVisible(ephemeral)
	n.level.SetVisible(ephemeral && showsLevel(*p.Kind))
	n.caption.SetVisible(ephemeral)
	if ephemeral {
		n.glyph.SetText(glyph(*p.Kind, p.Value))
		n.level.SetValue(p.Value)
		n.caption.SetText(caption(*p.Kind, p.Value))
	}

	n.track.SetVisible(media)
	n.track.SetText(p.Track)

	expanded := p.Mode == model.ModeExpanded
	n.tray.SetVisible(expanded)
	if expanded {
		n.header.SetText(trayHeader(items))
		n.emptyHint.SetVisible(items == 0 && p.Track == "")
	}

	w, h := p.Geometry.Width, p.Geometry.Height
	if p.Mode == model.ModeHidden {
		w, h = max(n.width, 1), hiddenHeight
	} else {
		n.width = w
	}
	n.body.SetSizeRequest(w, h)
	n.window.SetDefaultSize(w, h)
	n.window.SetVisible(true)

	if label := p.Label(); label != n.label {
		n.label = label
		n.logger.Debug("rendered", "mode", label, "width", w, "height", h)
	}
}

// Close destroys the window.
func (n *Notch) Close() {
	if n.menu != nil {
		n.menu.Unparent()
	}
	n.window.Destroy()
}
