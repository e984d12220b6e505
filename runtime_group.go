package msgskema

import (
	"reflect"

	"github.com/reoring/msgskema/internal/layout"
)

// groupLayout is the field table of one group: every field, inherited ones
// first, with its slot index.
type groupLayout struct {
	group string
	names []string
	index map[string]int
}

type schemaLayout map[string]*groupLayout

var layouts layout.Cache[Schema, schemaLayout]

func layoutOf(s *Schema) schemaLayout {
	return layouts.Get(s, s.id, func() schemaLayout {
		return computeLayout(s)
	})
}

func computeLayout(s *Schema) schemaLayout {
	out := make(schemaLayout, len(s.groups))
	for _, g := range s.groups {
		fields := s.AllFields(g)
		gl := &groupLayout{group: g.name, names: make([]string, len(fields)), index: make(map[string]int, len(fields))}
		for i, f := range fields {
			gl.names[i] = f.name
			gl.index[f.name] = i
		}
		out[g.name] = gl
	}
	return out
}

// RuntimeGroup is a generic message instance of a group, holding one value
// slot per field (declared and inherited). Empty slots hold nil.
//
// A RuntimeGroup is not safe for concurrent use.
type RuntimeGroup struct {
	layout *groupLayout
	values []any
}

// NewRuntimeGroup allocates an empty instance of the named group.
func NewRuntimeGroup(s *Schema, group string) (*RuntimeGroup, error) {
	gl, ok := layoutOf(s)[group]
	if !ok {
		return nil, unknownGroup(group)
	}
	return newRuntimeGroup(gl), nil
}

func newRuntimeGroup(gl *groupLayout) *RuntimeGroup {
	return &RuntimeGroup{layout: gl, values: make([]any, len(gl.names))}
}

// GroupName returns the name of the instance's group.
func (r *RuntimeGroup) GroupName() string { return r.layout.group }

// Len returns the number of field slots.
func (r *RuntimeGroup) Len() int { return len(r.values) }

// FieldNames returns the field names in slot order.
func (r *RuntimeGroup) FieldNames() []string { return append([]string(nil), r.layout.names...) }

// Index returns the slot index of a field.
func (r *RuntimeGroup) Index(field string) (int, bool) {
	i, ok := r.layout.index[field]
	return i, ok
}

// Get returns the value of a field, nil when empty.
func (r *RuntimeGroup) Get(field string) (any, error) {
	i, ok := r.layout.index[field]
	if !ok {
		return nil, unknownField(r.layout.group, field)
	}
	return r.values[i], nil
}

// Set stores a value; nil empties the field.
func (r *RuntimeGroup) Set(field string, value any) error {
	i, ok := r.layout.index[field]
	if !ok {
		return unknownField(r.layout.group, field)
	}
	r.values[i] = value
	return nil
}

// GetAt returns the value in slot i.
func (r *RuntimeGroup) GetAt(i int) any { return r.values[i] }

// SetAt stores value in slot i.
func (r *RuntimeGroup) SetAt(i int, value any) { r.values[i] = value }

// Clear empties every slot.
func (r *RuntimeGroup) Clear() {
	for i := range r.values {
		r.values[i] = nil
	}
}

// RuntimeGroupType dispatches RuntimeGroup instances by group name.
type RuntimeGroupType struct{}

func (RuntimeGroupType) GroupType(value any) any {
	if r, ok := value.(*RuntimeGroup); ok {
		return r.layout.group
	}
	return nil
}

var runtimeGroupType = reflect.TypeOf((*RuntimeGroup)(nil))

// BindRuntimeGroups returns a new schema whose groups create RuntimeGroup
// instances and whose fields use slot accessors. Enum fields are bound to
// IntSymbols. The group type key of each group is its name.
func BindRuntimeGroups(s *Schema) (*Schema, error) {
	bl := layoutOf(s)
	groups := make([]*GroupDef, 0, len(s.groups))
	for _, g := range s.groups {
		gl := bl[g.name]
		fields := make([]*FieldDef, len(g.fields))
		for i, f := range g.fields {
			fb, err := runtimeFieldBinding(s, f, gl.index[f.name])
			if err != nil {
				return nil, err
			}
			fields[i] = f.WithBinding(fb)
		}
		gb := &GroupBinding{
			Factory:   FactoryFunc(func() any { return newRuntimeGroup(gl) }),
			GroupType: g.name,
		}
		groups = append(groups, g.WithFields(fields...).WithBinding(gb))
	}
	return s.Rebuild(groups, s.typeOrder, WithGroupTypeAccessor(RuntimeGroupType{}))
}

func runtimeFieldBinding(s *Schema, f *FieldDef, slot int) (*FieldBinding, error) {
	rt, err := s.ResolveToType(f.typ, true)
	if err != nil {
		return nil, err
	}
	fb := &FieldBinding{Accessor: SlotAccessor(slot), ValueType: ValueTypeOf(rt)}
	switch x := rt.(type) {
	case EnumType:
		fb.Symbols = NewIntSymbols(x)
	case SequenceType:
		fb.ComponentType = ValueTypeOf(x.Component)
		if e, ok := x.Component.(EnumType); ok {
			fb.Symbols = NewIntSymbols(e)
		}
	}
	return fb, nil
}
