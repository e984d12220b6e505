// Package overlay stores annotations outside a schema and applies them to it.
//
// Annotations are addressed by path: "" for the schema itself, a group or
// named type name, or "Group.field" for a field. Applying an overlay never
// touches bindings, types or requiredness.
package overlay

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/msgskema"
)

// Mode selects how overlay entries combine with existing annotations.
type Mode int

const (
	// Merge overlays entries onto the existing annotations; overlay keys win.
	Merge Mode = iota
	// Replace discards the existing annotations of every addressed path.
	Replace
)

func (m Mode) String() string {
	if m == Replace {
		return "replace"
	}
	return "merge"
}

// ErrUnknownPath is returned by Apply for a path naming no schema entity.
var ErrUnknownPath = errors.New("overlay: unknown path")

// Overlay maps paths to annotation entries. The zero value is empty and
// ready to use. An Overlay is not safe for concurrent mutation.
type Overlay struct {
	paths map[string]map[string]string
}

// New returns an empty overlay.
func New() *Overlay { return &Overlay{} }

// Set stores value under key at path.
func (o *Overlay) Set(path, key, value string) {
	if o.paths == nil {
		o.paths = map[string]map[string]string{}
	}
	m, ok := o.paths[path]
	if !ok {
		m = map[string]string{}
		o.paths[path] = m
	}
	m[key] = value
}

// Get returns the value stored under key at path.
func (o *Overlay) Get(path, key string) (string, bool) {
	v, ok := o.paths[path][key]
	return v, ok
}

// Paths returns the addressed paths in sorted order.
func (o *Overlay) Paths() []string {
	out := make([]string, 0, len(o.paths))
	for p := range o.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Annotations returns the entries stored at path.
func (o *Overlay) Annotations(path string) msgskema.Annotations {
	return msgskema.NewAnnotations(o.paths[path])
}

// Merge copies the entries of other into o; entries of other win.
func (o *Overlay) Merge(other *Overlay) {
	if other == nil {
		return
	}
	for p, m := range other.paths {
		for k, v := range m {
			o.Set(p, k, v)
		}
	}
}

// Len returns the number of entries across all paths.
func (o *Overlay) Len() int {
	n := 0
	for _, m := range o.paths {
		n += len(m)
	}
	return n
}

// FieldPath returns the path of a field.
func FieldPath(group, field string) string { return group + "." + field }

func splitPath(p string) (string, string) {
	if i := strings.IndexByte(p, '.'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

func (o *Overlay) combine(existing msgskema.Annotations, path string, mode Mode) msgskema.Annotations {
	m, ok := o.paths[path]
	if !ok {
		return existing
	}
	if mode == Replace {
		return msgskema.NewAnnotations(m)
	}
	return existing.Merge(msgskema.NewAnnotations(m))
}

// Apply returns a copy of s with the overlay applied. Every path must name
// the schema, a group, a named type or a field declared by a group.
func (o *Overlay) Apply(s *msgskema.Schema, mode Mode) (*msgskema.Schema, error) {
	for _, p := range o.Paths() {
		if err := checkPath(s, p); err != nil {
			return nil, err
		}
	}
	groups := s.Groups()
	for i, g := range groups {
		fields := g.Fields()
		for j, f := range fields {
			fields[j] = f.WithAnnotations(o.combine(f.Annotations(), FieldPath(g.Name(), f.Name()), mode))
		}
		groups[i] = g.WithFields(fields...).WithAnnotations(o.combine(g.Annotations(), g.Name(), mode))
	}
	types := s.NamedTypes()
	for i, nt := range types {
		types[i] = nt.WithAnnotations(o.combine(nt.Annotations(), nt.Name(), mode))
	}
	return s.Rebuild(groups, types, msgskema.WithSchemaAnnotations(o.combine(s.Annotations(), "", mode)))
}

func checkPath(s *msgskema.Schema, p string) error {
	if p == "" {
		return nil
	}
	group, field := splitPath(p)
	if field == "" {
		if _, ok := s.Group(group); ok {
			return nil
		}
		if _, ok := s.NamedType(group); ok {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	g, ok := s.Group(group)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	if _, ok := g.Field(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	return nil
}

// Extract collects the annotations of s into an overlay.
func Extract(s *msgskema.Schema) *Overlay {
	o := New()
	put := func(path string, a msgskema.Annotations) {
		for _, k := range a.Keys() {
			v, _ := a.Get(k)
			o.Set(path, k, v)
		}
	}
	put("", s.Annotations())
	for _, g := range s.Groups() {
		put(g.Name(), g.Annotations())
		for _, f := range g.Fields() {
			put(FieldPath(g.Name(), f.Name()), f.Annotations())
		}
	}
	for _, nt := range s.NamedTypes() {
		put(nt.Name(), nt.Annotations())
	}
	return o
}
