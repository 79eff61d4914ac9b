package theme

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed themes/*.css
var embedded embed.FS

// DefaultThemeName is the theme used when none is configured or found.
const DefaultThemeName = "default"

// BundledThemes lists the embedded theme names.
var BundledThemes = []string{"default", "minimal"}

// Embedded returns a bundled theme or partial by file name without the
// .css extension, e.g. "default" or "_base".
func Embedded(name string) (string, bool) {
	data, err := embedded.ReadFile(path.Join("themes", strings.TrimSuffix(name, ".css")+".css"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListEmbedded returns the bundled theme names. Partials (leading
// underscore) are excluded.
func ListEmbedded() []string {
	entries, err := fs.ReadDir(embedded, "themes")
	if err != nil {
		return slices.Clone(BundledThemes)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	return names
}
