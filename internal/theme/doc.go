// Package theme loads the CSS that styles notch surfaces. Themes are looked
// up in ~/.config/notchd/themes/ first, then among the bundled themes, and
// user themes are hot-reloaded when their directory changes.
package theme
