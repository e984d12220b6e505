package jsonschema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/reoring/msgskema"
)

// DocAnnotation is the annotation key exported as "description".
const DocAnnotation = "doc"

// Export describes every group and named type of s as a definition under
// $defs. Groups become closed objects listing inherited fields first.
// Dynamic references become a oneOf over the referenced group and its
// sub-groups.
func Export(s *msgskema.Schema) (*Schema, error) {
	root := &Schema{
		Dialect: Draft,
		Defs:    make(map[string]*Schema, len(s.Groups())+len(s.NamedTypes())),
	}
	if doc, ok := s.Annotations().Get(DocAnnotation); ok {
		root.Description = doc
	}
	for _, nt := range s.NamedTypes() {
		def, err := typeSchema(s, nt.Type())
		if err != nil {
			return nil, fmt.Errorf("jsonschema: type %s: %w", nt.Name(), err)
		}
		if doc, ok := nt.Annotations().Get(DocAnnotation); ok {
			def.Description = doc
		}
		root.Defs[nt.Name()] = def
	}
	for _, g := range s.Groups() {
		def, err := groupSchema(s, g)
		if err != nil {
			return nil, err
		}
		root.Defs[g.Name()] = def
	}
	return root, nil
}

// ExportGroup is Export with the root pointing at one group.
func ExportGroup(s *msgskema.Schema, name string) (*Schema, error) {
	if _, ok := s.Group(name); !ok {
		return nil, &msgskema.LookupError{Code: msgskema.CodeUnknownGroup, Group: name}
	}
	root, err := Export(s)
	if err != nil {
		return nil, err
	}
	root.Ref = ref(name)
	return root, nil
}

// Marshal renders js as indented JSON.
func Marshal(js *Schema) ([]byte, error) {
	data, err := json.Marshal(js)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ref(name string) string { return "#/$defs/" + name }

func groupSchema(s *msgskema.Schema, g *msgskema.GroupDef) (*Schema, error) {
	fields := s.AllFields(g)
	out := &Schema{
		Type:                 "object",
		Title:                g.Name(),
		Properties:           make(map[string]*Schema, len(fields)),
		AdditionalProperties: false,
	}
	if doc, ok := g.Annotation(DocAnnotation); ok {
		out.Description = doc
	}
	for _, f := range fields {
		fs, err := typeSchema(s, f.Type())
		if err != nil {
			return nil, fmt.Errorf("jsonschema: field %s.%s: %w", g.Name(), f.Name(), err)
		}
		if doc, ok := f.Annotation(DocAnnotation); ok {
			fs.Description = doc
		}
		out.Properties[f.Name()] = fs
		if f.Required() {
			out.Required = append(out.Required, f.Name())
		}
	}
	return out, nil
}

func typeSchema(s *msgskema.Schema, t msgskema.TypeDef) (*Schema, error) {
	switch x := t.(type) {
	case msgskema.Scalar:
		return scalarSchema(x.Kind()), nil
	case msgskema.StringType:
		out := &Schema{Type: "string"}
		if x.MaxSize > 0 {
			out.MaxLength = intPtr(int(x.MaxSize))
		}
		return out, nil
	case msgskema.BinaryType:
		out := &Schema{Type: "string", ContentEncoding: "base64"}
		if x.MaxSize > 0 {
			// base64 length of MaxSize bytes
			out.MaxLength = intPtr(4 * ((int(x.MaxSize) + 2) / 3))
		}
		return out, nil
	case msgskema.TimeType:
		desc := x.Unit.String() + " since " + x.Epoch.String()
		if x.Zone != "" {
			desc += " (" + x.Zone + ")"
		}
		return &Schema{Type: "integer", Format: "int64", Description: desc}, nil
	case msgskema.EnumType:
		names := make([]any, len(x.Symbols))
		for i, sym := range x.Symbols {
			names[i] = sym.Name
		}
		return &Schema{Type: "string", Enum: names}, nil
	case msgskema.SequenceType:
		items, err := typeSchema(s, x.Component)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case msgskema.ReferenceType:
		return &Schema{Ref: ref(x.Target)}, nil
	case msgskema.DynamicReferenceType:
		g, err := s.ResolveToGroup(x)
		if err != nil {
			return nil, err
		}
		groups := s.Groups()
		if g != nil {
			groups = s.DynamicGroups(g.Name())
		}
		switch len(groups) {
		case 0:
			return &Schema{}, nil
		case 1:
			return &Schema{Ref: ref(groups[0].Name())}, nil
		}
		out := &Schema{OneOf: make([]*Schema, len(groups))}
		for i, sg := range groups {
			out.OneOf[i] = &Schema{Ref: ref(sg.Name())}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %v", t)
}

func scalarSchema(k msgskema.Kind) *Schema {
	switch {
	case k.IsInteger() && k.Bits() == 64:
		out := &Schema{Type: "integer", Format: "int64"}
		if k.IsUnsigned() {
			out.Format = "uint64"
			out.Minimum = floatPtr(0)
		}
		return out
	case k.IsUnsigned():
		return &Schema{Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(float64(uint64(1)<<k.Bits() - 1))}
	case k.IsInteger():
		half := float64(int64(1) << (k.Bits() - 1))
		return &Schema{Type: "integer", Minimum: floatPtr(-half), Maximum: floatPtr(half - 1)}
	case k == msgskema.KindFloat32:
		return &Schema{Type: "number", Format: "float"}
	case k == msgskema.KindFloat64:
		return &Schema{Type: "number", Format: "double"}
	case k == msgskema.KindDecimal, k == msgskema.KindBigDecimal:
		return &Schema{Type: "number"}
	case k == msgskema.KindBigInt:
		return &Schema{Type: "integer"}
	case k == msgskema.KindBoolean:
		return &Schema{Type: "boolean"}
	}
	return &Schema{}
}
