package surface

import (
	"fmt"
	"math"

	"github.com/jmylchreest/notchd/internal/model"
)

// glyph returns the symbol drawn for an ephemeral overlay.
func glyph(kind model.SignalKind, value float64) string {
	switch kind {
	case model.SignalVolume:
		switch {
		case value <= 0:
			return "🔇"
		case value < 0.34:
			return "🔈"
		case value < 0.67:
			return "🔉"
		default:
			return "🔊"
		}
	case model.SignalBrightness:
		if value < 0.5 {
			return "🔅"
		}
		return "🔆"
	case model.SignalBattery:
		if value <= 0.2 {
			return "🪫"
		}
		return "🔋"
	case model.SignalCapsLock:
		return "⇪"
	case model.SignalFocusMode:
		return "☾"
	case model.SignalAccessoryConnect:
		return "🎧"
	case model.SignalScreenLock:
		if value > 0 {
			return "🔒"
		}
		return "🔓"
	default:
		return "•"
	}
}

// showsLevel reports whether kind carries a continuous level.
func showsLevel(kind model.SignalKind) bool {
	switch kind {
	case model.SignalVolume, model.SignalBrightness, model.SignalBattery:
		return true
	default:
		return false
	}
}

// caption returns the trailing text of an ephemeral overlay.
func caption(kind model.SignalKind, value float64) string {
	switch kind {
	case model.SignalVolume, model.SignalBrightness, model.SignalBattery:
		return fmt.Sprintf("%d%%", int(math.Round(value*100)))
	default:
		if value > 0 {
			return "On"
		}
		return "Off"
	}
}

// trayHeader returns the expanded tray title.
func trayHeader(items int) string {
	switch items {
	case 0:
		return "Shelf"
	case 1:
		return "Shelf · 1 item"
	default:
		return fmt.Sprintf("Shelf · %d items", items)
	}
}
