package theme

import (
	"github.com/jmylchreest/notchd/internal/model"
)

// BodyClass is the CSS class of the element that carries the geometry.
const BodyClass = "notch-body"

// lowLevel is the battery fraction at or below which "low" is added.
const lowLevel = 0.2

// Classes returns the CSS classes for p, e.g. ["notch-body", "cutout",
// "ephemeral", "kind-battery", "low"].
func Classes(p model.Presentation) []string {
	classes := []string{BodyClass, p.Style.String(), p.Mode.String()}
	if p.Mode == model.ModeEphemeral && p.Kind != nil {
		classes = append(classes, "kind-"+p.Kind.String())
		if *p.Kind == model.SignalBattery && p.Value <= lowLevel {
			classes = append(classes, "low")
		}
	}
	return classes
}

// AllModeClasses returns every class Classes may add besides BodyClass, so
// a renderer can remove stale ones before applying new ones.
func AllModeClasses() []string {
	classes := []string{model.StyleCutout.String(), model.StylePill.String(), "low"}
	for m := model.ModeIdle; m <= model.ModeHidden; m++ {
		classes = append(classes, m.String())
	}
	for _, k := range model.AllSignalKinds() {
		classes = append(classes, "kind-"+k.String())
	}
	return classes
}
