package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// importRegex matches @import "file.css"; @import 'file.css'; and
// @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet with its imports inlined.
type Theme struct {
	Name    string
	Path    string // Empty for bundled themes
	CSS     string
	Bundled bool
}

// Load resolves name against dir and then the bundled themes. An unknown
// name falls back to the default theme and reports an error alongside it.
func Load(name, dir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if dir != "" {
		p := filepath.Join(dir, name+".css")
		if data, err := os.ReadFile(p); err == nil {
			return &Theme{
				Name: name,
				Path: p,
				CSS:  ProcessImports(string(data), dir, map[string]bool{p: true}),
			}, nil
		}
	}

	if css, ok := Embedded(name); ok && !strings.HasPrefix(name, "_") {
		return bundled(name, css), nil
	}

	css, _ := Embedded(DefaultThemeName)
	return bundled(DefaultThemeName, css), fmt.Errorf("theme %q not found", name)
}

func bundled(name, css string) *Theme {
	return &Theme{Name: name, CSS: ProcessImports(css, "", nil), Bundled: true}
}

// ProcessImports inlines @import statements. Paths resolve relative to
// baseDir, falling back to bundled files of the same base name. seen
// guards against cycles and may be nil.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		ref := sub[1]

		full := ref
		if !filepath.IsAbs(ref) {
			full = filepath.Join(baseDir, ref)
		}
		if seen[full] {
			return "/* circular import skipped: " + ref + " */"
		}
		seen[full] = true

		// Bundled themes have no directory, so relative imports go
		// straight to the embedded files.
		var data []byte
		err := os.ErrNotExist
		if baseDir != "" || filepath.IsAbs(ref) {
			data, err = os.ReadFile(full)
		}
		if err != nil {
			if css, ok := Embedded(filepath.Base(ref)); ok {
				return "/* imported (bundled): " + ref + " */\n" + ProcessImports(css, "", seen)
			}
			return "/* import failed: " + ref + ": " + err.Error() + " */"
		}
		return "/* imported: " + ref + " */\n" + ProcessImports(string(data), filepath.Dir(full), seen)
	})
}

// Available lists bundled themes followed by user themes in dir that do not
// shadow a bundled name.
func Available(dir string) []string {
	names := ListEmbedded()
	if dir == "" {
		return names
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return names
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || filepath.Ext(name) != ".css" {
			continue
		}
		name = strings.TrimSuffix(name, ".css")
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}
