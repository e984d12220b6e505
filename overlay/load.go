package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileOverlay is the on-disk layout shared by the YAML and TOML forms:
//
//	[schema]
//	owner = "payments"
//
//	[paths.Person]
//	doc = "A natural person"
//
//	[paths."Person.name"]
//	pii = "true"
type fileOverlay struct {
	Schema map[string]string            `yaml:"schema,omitempty" toml:"schema,omitempty"`
	Paths  map[string]map[string]string `yaml:"paths,omitempty" toml:"paths,omitempty"`
}

func (f fileOverlay) overlay() (*Overlay, error) {
	o := New()
	for k, v := range f.Schema {
		o.Set("", k, v)
	}
	for p, m := range f.Paths {
		if strings.TrimSpace(p) == "" {
			return nil, errors.New("overlay: empty path; use the schema table for schema annotations")
		}
		for k, v := range m {
			o.Set(p, k, v)
		}
	}
	return o, nil
}

func toFile(o *Overlay) fileOverlay {
	f := fileOverlay{}
	for _, p := range o.Paths() {
		m := o.Annotations(p).Map()
		if p == "" {
			f.Schema = m
			continue
		}
		if f.Paths == nil {
			f.Paths = map[string]map[string]string{}
		}
		f.Paths[p] = m
	}
	return f
}

// ParseYAML decodes a YAML overlay document. Unknown top-level keys are
// rejected.
func ParseYAML(data []byte) (*Overlay, error) {
	var f fileOverlay
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("overlay: parse yaml: %w", err)
	}
	return f.overlay()
}

// ParseTOML decodes a TOML overlay document. Unknown top-level keys are
// rejected.
func ParseTOML(data []byte) (*Overlay, error) {
	var f fileOverlay
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse toml: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("overlay: unknown keys: %v", undec)
	}
	return f.overlay()
}

// LoadYAML reads a YAML overlay file.
func LoadYAML(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// LoadTOML reads a TOML overlay file.
func LoadTOML(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTOML(data)
}

// Load reads an overlay file, choosing the format by extension
// (.yaml, .yml or .toml).
func Load(path string) (*Overlay, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".toml":
		return LoadTOML(path)
	}
	return nil, fmt.Errorf("overlay: unsupported file type %q", filepath.Ext(path))
}

// MarshalYAML encodes o in the YAML file layout.
func (o *Overlay) MarshalYAML() (any, error) { return toFile(o), nil }

// WriteTOML encodes o in the TOML file layout.
func (o *Overlay) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(toFile(o))
}
