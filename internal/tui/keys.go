package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the preview.
type KeyMap struct {
	// Displays
	NextDisplay key.Binding
	Hover       key.Binding
	Drag        key.Binding

	// Tray
	Expand    key.Binding
	Collapse  key.Binding
	AddItem   key.Binding
	DropItem  key.Binding
	ClearTray key.Binding

	// Signals
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Brightness key.Binding
	Battery    key.Binding
	CapsLock   key.Binding
	Focus      key.Binding
	Accessory  key.Binding
	ScreenLock key.Binding
	Dismiss    key.Binding

	// Media
	PlayPause key.Binding
	NextTrack key.Binding
	PinMedia  key.Binding
	HideMedia key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextDisplay, k.Hover, k.Expand, k.VolumeUp, k.PlayPause, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextDisplay, k.Hover, k.Drag},
		{k.Expand, k.Collapse, k.AddItem, k.DropItem, k.ClearTray},
		{k.VolumeUp, k.VolumeDown, k.Brightness, k.Battery, k.CapsLock},
		{k.Focus, k.Accessory, k.ScreenLock, k.Dismiss},
		{k.PlayPause, k.NextTrack, k.PinMedia, k.HideMedia},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextDisplay: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next display"),
		),
		Hover: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hover"),
		),
		Drag: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "drag over"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter/e", "toggle tray"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "collapse"),
		),
		AddItem: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "add item"),
		),
		DropItem: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "remove item"),
		),
		ClearTray: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "empty tray"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up", "v"),
			key.WithHelp("↑/v", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down", "V"),
			key.WithHelp("↓/V", "volume down"),
		),
		Brightness: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "brightness"),
		),
		Battery: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "battery"),
		),
		CapsLock: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "caps lock"),
		),
		Focus: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "focus mode"),
		),
		Accessory: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accessory"),
		),
		ScreenLock: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "screen lock"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss overlay"),
		),
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space/p", "play/pause"),
		),
		NextTrack: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next track"),
		),
		PinMedia: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle media"),
		),
		HideMedia: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "hide media"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
