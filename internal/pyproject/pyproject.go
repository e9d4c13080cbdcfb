// Package pyproject reads the dependency list of a PEP 621 pyproject.toml.
package pyproject

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// errNoProject is returned when the file has no [project] table.
var errNoProject = errors.New("pyproject has no [project] table")

// File is the subset of pyproject.toml the packager understands.
type File struct {
	Project *Project `toml:"project"`
}

// Project is the PEP 621 [project] table.
type Project struct {
	Name                 string              `toml:"name"`
	Dependencies         []string            `toml:"dependencies"`
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
}

// Load parses the pyproject.toml at path.
func Load(path string) (*File, error) {
	var file File

	if _, err := toml.DecodeFile(filepath.Clean(path), &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if file.Project == nil {
		return nil, fmt.Errorf("%s: %w", path, errNoProject)
	}

	return &file, nil
}

// Dependencies returns the runtime dependencies plus the named extras,
// trimmed and without blanks.
func (f *File) Dependencies(extras ...string) []string {
	deps := make([]string, 0, len(f.Project.Dependencies))
	deps = appendNonBlank(deps, f.Project.Dependencies)

	for _, extra := range extras {
		deps = appendNonBlank(deps, f.Project.OptionalDependencies[extra])
	}

	return deps
}

// Merge appends the entries of extra missing from base, keeping order.
func Merge(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))

	for _, list := range [][]string{base, extra} {
		for _, dep := range list {
			if _, dup := seen[dep]; dup {
				continue
			}

			seen[dep] = struct{}{}
			merged = append(merged, dep)
		}
	}

	return merged
}

func appendNonBlank(dst, src []string) []string {
	for _, dep := range src {
		if dep = strings.TrimSpace(dep); dep != "" {
			dst = append(dst, dep)
		}
	}

	return dst
}
