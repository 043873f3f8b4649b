package export

import (
	"path"
	"path/filepath"
	"strings"
)

// Target is a resolved export destination: the directory receiving the
// output files and the material's engine-facing name.
type Target struct {
	// Dir is the directory all output files are written to.
	Dir string
	// Name is the material name the engine loads it under: the output
	// filename without extension, prefixed with the path components between
	// the nearest `materials` ancestor and the file, joined with '/'.
	Name string
}

// IsolatedName returns the last component of the material name. Output
// filenames are derived from it.
func (t Target) IsolatedName() string {
	return path.Base(t.Name)
}

// ResolveTarget derives the export target from a chosen output file path.
// The walk stops at the nearest ancestor directory named `materials`; a
// path without one yields the bare filename. Pure; never touches the
// filesystem.
func ResolveTarget(outputPath string) Target {
	dir := filepath.Dir(outputPath)

	base := filepath.Base(outputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	prefix := ""
	for d := dir; ; {
		component := filepath.Base(d)
		parent := filepath.Dir(d)
		if component == "materials" {
			name = prefix + name
			break
		}
		if parent == d || component == "." {
			break
		}
		prefix = component + "/" + prefix
		d = parent
	}

	return Target{Dir: dir, Name: name}
}
