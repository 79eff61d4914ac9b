package surface

import (
	"unsafe"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
)

// output pairs a registry monitor with its GDK handle.
type output struct {
	monitor display.Monitor
	gdk     *gdk.Monitor
}

// enumerate lists the monitors of d in GDK order. Monitors without a
// connector name are skipped since the connector is the display ID.
func enumerate(d *gdk.Display) []output {
	if d == nil {
		return nil
	}
	list := d.Monitors()
	if list == nil {
		return nil
	}

	var out []output
	for i := uint(0); i < list.NItems(); i++ {
		m := wrapMonitor(list.Item(i))
		if m == nil {
			continue
		}
		connector := m.Connector()
		if connector == "" {
			continue
		}
		out = append(out, output{
			monitor: display.Monitor{
				Connector: connector,
				Name:      monitorName(m.Manufacturer(), m.Model(), m.Description()),
				// Wayland does not report camera housings; cutouts come
				// from display overrides.
			},
			gdk: m,
		})
	}
	return out
}

// monitors extracts the registry view of outs.
func monitors(outs []output) []display.Monitor {
	ms := make([]display.Monitor, len(outs))
	for i, o := range outs {
		ms[i] = o.monitor
	}
	return ms
}

// byID indexes outs by display ID.
func byID(outs []output) map[model.DisplayID]*gdk.Monitor {
	m := make(map[model.DisplayID]*gdk.Monitor, len(outs))
	for _, o := range outs {
		m[model.DisplayID(o.monitor.Connector)] = o.gdk
	}
	return m
}

// monitorName prefers the compositor description, then manufacturer and
// model.
func monitorName(manufacturer, modelName, description string) string {
	if description != "" {
		return description
	}
	switch {
	case manufacturer != "" && modelName != "":
		return manufacturer + " " + modelName
	case modelName != "":
		return modelName
	default:
		return manufacturer
	}
}

// wrapMonitor wraps a list item as a gdk.Monitor. gotk4 does not export
// its wrapper, so this mirrors its struct layout.
func wrapMonitor(obj *coreglib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*coreglib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
