// Package schema knows which model schema versions this build can read.
//
// Versions are declared in a CUE document:
//
//	current: "v3"
//	versions: {
//	    v1: description: "initial model"
//	    v2: description: "adds Project.archived"
//	    v3: description: "renames Task.title to Task.name"
//	}
//
// current names the version new and consolidated baselines are written
// with and must itself be declared.
package schema

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/baselines/internal/ir"
)

// Version describes one known schema version.
type Version struct {
	Tag         string
	Description string
}

// Registry is an immutable set of known schema versions.
type Registry struct {
	current  string
	versions map[string]Version
}

// Load reads and parses a CUE registry file.
func Load(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema registry: %w", err)
	}
	reg, err := parse(src, path)
	if err != nil {
		return nil, fmt.Errorf("load schema registry %s: %w", path, err)
	}
	return reg, nil
}

// Parse parses a CUE registry document.
func Parse(src []byte) (*Registry, error) {
	return parse(src, "schema.cue")
}

func parse(src []byte, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	currentVal := value.LookupPath(cue.ParsePath("current"))
	if !currentVal.Exists() {
		return nil, fmt.Errorf("missing field: current")
	}
	current, err := currentVal.String()
	if err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}

	versionsVal := value.LookupPath(cue.ParsePath("versions"))
	if !versionsVal.Exists() {
		return nil, fmt.Errorf("missing field: versions")
	}
	iter, err := versionsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}

	reg := &Registry{current: current, versions: make(map[string]Version)}
	for iter.Next() {
		v := Version{Tag: iter.Label()}
		if desc := iter.Value().LookupPath(cue.ParsePath("description")); desc.Exists() {
			s, err := desc.String()
			if err != nil {
				return nil, fmt.Errorf("versions.%s.description: %w", v.Tag, err)
			}
			v.Description = s
		}
		reg.versions[v.Tag] = v
	}

	if _, ok := reg.versions[current]; !ok {
		return nil, fmt.Errorf("current version %q is not declared in versions", current)
	}
	return reg, nil
}

// Static builds a registry in code. current is always known.
func Static(current string, known ...string) *Registry {
	reg := &Registry{current: current, versions: make(map[string]Version)}
	reg.versions[current] = Version{Tag: current}
	for _, tag := range known {
		reg.versions[tag] = Version{Tag: tag}
	}
	return reg
}

// Current returns the version consolidated baselines are written with.
func (r *Registry) Current() string {
	return r.current
}

// Known reports whether tag is a declared version.
func (r *Registry) Known(tag string) bool {
	_, ok := r.versions[tag]
	return ok
}

// Versions returns the declared versions sorted by tag.
func (r *Registry) Versions() []Version {
	out := make([]Version, 0, len(r.versions))
	for _, v := range r.versions {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Version) int { return cmp.Compare(a.Tag, b.Tag) })
	return out
}

// CheckVersionsKnown reports whether every entry carries a known version.
func (r *Registry) CheckVersionsKnown(entries []*ir.LogEntry) bool {
	return len(r.Unknown(entries)) == 0
}

// Unknown returns the distinct unknown version tags among entries, sorted.
func (r *Registry) Unknown(entries []*ir.LogEntry) []string {
	var unknown []string
	for _, e := range entries {
		if !r.Known(e.SchemaVersion) && !slices.Contains(unknown, e.SchemaVersion) {
			unknown = append(unknown, e.SchemaVersion)
		}
	}
	slices.Sort(unknown)
	return unknown
}
