// Package dbus connects notchd to the desktop buses. It exports the
// io.github.jmylchreest.Notch control service used by the notch CLI and by
// compositor scripts, observes UPower, BlueZ, logind and MPRIS for signals,
// and sends desktop notifications through org.freedesktop.Notifications.
package dbus
