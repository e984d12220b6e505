// Package document reads and writes schemas as structured JSON or YAML
// documents. Documents describe unbound schemas only; bindings are attached
// afterwards by the program.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/msgskema"
)

// ErrInvalidDocument reports a document that cannot describe a schema.
var ErrInvalidDocument = errors.New("document: invalid document")

// Document is the serialized form of a schema.
type Document struct {
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Groups      []Group           `json:"groups" yaml:"groups"`
	Types       []NamedType       `json:"types,omitempty" yaml:"types,omitempty"`
}

// Group is the serialized form of a group.
type Group struct {
	Name        string            `json:"name" yaml:"name"`
	ID          *int32            `json:"id,omitempty" yaml:"id,omitempty"`
	Super       string            `json:"super,omitempty" yaml:"super,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields      []Field           `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field is the serialized form of a field.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	ID          *int32            `json:"id,omitempty" yaml:"id,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Type        Type              `json:"type" yaml:"type"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// NamedType is the serialized form of a named type.
type NamedType struct {
	Name        string            `json:"name" yaml:"name"`
	Type        Type              `json:"type" yaml:"type"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

func idPtr(id int32) *int32 {
	if id == msgskema.NoID {
		return nil
	}
	return &id
}

func annotationMap(a msgskema.Annotations) map[string]string {
	if a.Len() == 0 {
		return nil
	}
	return a.Map()
}

// FromSchema describes s. Bindings are dropped.
func FromSchema(s *msgskema.Schema) *Document {
	d := &Document{Annotations: annotationMap(s.Annotations())}
	for _, g := range s.Groups() {
		dg := Group{
			Name:        g.Name(),
			ID:          idPtr(g.ID()),
			Super:       g.Super(),
			Annotations: annotationMap(g.Annotations()),
		}
		for _, f := range g.Fields() {
			dg.Fields = append(dg.Fields, Field{
				Name:        f.Name(),
				ID:          idPtr(f.ID()),
				Required:    f.Required(),
				Type:        FromType(f.Type()),
				Annotations: annotationMap(f.Annotations()),
			})
		}
		d.Groups = append(d.Groups, dg)
	}
	for _, nt := range s.NamedTypes() {
		d.Types = append(d.Types, NamedType{
			Name:        nt.Name(),
			Type:        FromType(nt.Type()),
			Annotations: annotationMap(nt.Annotations()),
		})
	}
	return d
}

// Schema builds and validates the described schema.
func (d *Document) Schema(opts ...msgskema.SchemaOption) (*msgskema.Schema, error) {
	groups := make([]*msgskema.GroupDef, 0, len(d.Groups))
	for _, dg := range d.Groups {
		fields := make([]*msgskema.FieldDef, 0, len(dg.Fields))
		for _, df := range dg.Fields {
			td, err := df.Type.TypeDef()
			if err != nil {
				return nil, fmt.Errorf("group %s field %s: %w", dg.Name, df.Name, err)
			}
			f := msgskema.NewField(df.Name, td).
				WithRequired(df.Required).
				WithAnnotations(msgskema.NewAnnotations(df.Annotations))
			if df.ID != nil {
				f = f.WithID(*df.ID)
			}
			fields = append(fields, f)
		}
		g := msgskema.NewGroup(dg.Name, fields...).
			WithSuper(dg.Super).
			WithAnnotations(msgskema.NewAnnotations(dg.Annotations))
		if dg.ID != nil {
			g = g.WithID(*dg.ID)
		}
		groups = append(groups, g)
	}
	types := make([]*msgskema.NamedType, 0, len(d.Types))
	for _, dt := range d.Types {
		td, err := dt.Type.TypeDef()
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", dt.Name, err)
		}
		types = append(types, msgskema.NewNamedType(dt.Name, td).WithAnnotations(msgskema.NewAnnotations(dt.Annotations)))
	}
	base := []msgskema.SchemaOption{msgskema.WithSchemaAnnotations(msgskema.NewAnnotations(d.Annotations))}
	return msgskema.NewSchema(groups, types, append(base, opts...)...)
}

// ParseJSON decodes a JSON document. Unknown fields are rejected.
func ParseJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &d, nil
}

// ParseYAML decodes a YAML document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Document
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &d, nil
}

// JSON encodes d as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAML encodes d as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("document: unsupported file type %q", filepath.Ext(path))
}

// Load reads a document, choosing the format by extension (.json, .yaml or
// .yml).
func Load(path string) (*Document, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f == formatYAML {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// LoadSchema reads a document and builds its schema.
func LoadSchema(path string, opts ...msgskema.SchemaOption) (*msgskema.Schema, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	s, err := d.Schema(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes d, choosing the format by extension.
func (d *Document) Save(path string) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	if f == formatYAML {
		data, err = d.YAML()
	} else {
		data, err = d.JSON()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
