package msgskema

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// maxRuntimeHierarchyDepth bounds walks over a HierarchyAccessor.
const maxRuntimeHierarchyDepth = 256

// Schema is the validated, immutable set of groups and named types of one
// protocol version. Construction either yields a fully valid schema or an
// error; no partially valid schema exists. A Schema is safe for concurrent
// use.
type Schema struct {
	id          uuid.UUID
	groups      []*GroupDef // super-groups before sub-groups
	byName      map[string]*GroupDef
	byID        map[int32]*GroupDef
	byType      map[any]*GroupDef
	depth       map[string]int
	types       map[string]*NamedType
	typeOrder   []*NamedType
	accessor    GroupTypeAccessor
	annotations Annotations
}

type schemaConfig struct {
	accessor    GroupTypeAccessor
	annotations Annotations
}

// SchemaOption configures NewSchema.
type SchemaOption func(*schemaConfig)

// WithGroupTypeAccessor binds the schema to a runtime type dispatch. Every
// group of a bound schema must carry a GroupBinding. A nil accessor yields an
// unbound schema.
func WithGroupTypeAccessor(a GroupTypeAccessor) SchemaOption {
	return func(c *schemaConfig) { c.accessor = a }
}

// WithSchemaAnnotations sets the schema level annotations.
func WithSchemaAnnotations(a Annotations) SchemaOption {
	return func(c *schemaConfig) { c.annotations = a }
}

// NewSchema validates groups and named types and builds a Schema.
func NewSchema(groups []*GroupDef, types []*NamedType, opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	s := &Schema{
		id:          uuid.New(),
		byName:      make(map[string]*GroupDef, len(groups)),
		byID:        make(map[int32]*GroupDef, len(groups)),
		byType:      make(map[any]*GroupDef, len(groups)),
		depth:       make(map[string]int, len(groups)),
		types:       make(map[string]*NamedType, len(types)),
		typeOrder:   append([]*NamedType(nil), types...),
		accessor:    cfg.accessor,
		annotations: cfg.annotations,
	}
	if err := s.indexNames(groups); err != nil {
		return nil, err
	}
	if err := s.indexHierarchy(groups); err != nil {
		return nil, err
	}
	s.groups = append([]*GroupDef(nil), groups...)
	sort.SliceStable(s.groups, func(i, j int) bool {
		a, b := s.groups[i], s.groups[j]
		if da, db := s.depth[a.name], s.depth[b.name]; da != db {
			return da < db
		}
		if a.id != b.id {
			return a.id < b.id
		}
		return a.name < b.name
	})
	if err := s.validateTypes(); err != nil {
		return nil, err
	}
	if err := s.indexBindings(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) indexNames(groups []*GroupDef) error {
	for _, nt := range s.typeOrder {
		if _, dup := s.types[nt.name]; dup {
			return &SchemaError{Code: CodeDuplicateName, Type: nt.name}
		}
		if nt.typ == nil {
			return &SchemaError{Code: CodeInvalidType, Type: nt.name, Detail: "missing type"}
		}
		s.types[nt.name] = nt
	}
	for _, g := range groups {
		if _, dup := s.byName[g.name]; dup {
			return &SchemaError{Code: CodeDuplicateName, Group: g.name}
		}
		if _, dup := s.types[g.name]; dup {
			return &SchemaError{Code: CodeDuplicateName, Group: g.name, Detail: "also a named type"}
		}
		s.byName[g.name] = g
		if g.id != NoID {
			if other, dup := s.byID[g.id]; dup {
				return &SchemaError{Code: CodeDuplicateID, Group: g.name, Detail: fmt.Sprintf("id %d used by %s", g.id, other.name)}
			}
			s.byID[g.id] = g
		}
		seen := make(map[string]struct{}, len(g.fields))
		for _, f := range g.fields {
			if _, dup := seen[f.name]; dup {
				return &SchemaError{Code: CodeDuplicateField, Group: g.name, Field: f.name}
			}
			seen[f.name] = struct{}{}
			if f.typ == nil {
				return &SchemaError{Code: CodeInvalidType, Group: g.name, Field: f.name, Detail: "missing type"}
			}
		}
	}
	return nil
}

// indexHierarchy resolves super-groups and computes the super-chain length
// of every group. Chains are followed at most len(groups) hops.
func (s *Schema) indexHierarchy(groups []*GroupDef) error {
	for _, g := range groups {
		d := 0
		budget := len(groups)
		for cur := g; cur.super != ""; d++ {
			next, ok := s.byName[cur.super]
			if !ok {
				return &SchemaError{Code: CodeUnresolvedSuper, Group: cur.name, Detail: cur.super}
			}
			if budget == 0 {
				return &SchemaError{Code: CodeInheritanceCycle, Group: g.name}
			}
			budget--
			cur = next
		}
		s.depth[g.name] = d
		// inherited field names must not collide with declared ones
		if g.super != "" {
			inherited := s.inheritedFieldNames(g)
			for _, f := range g.fields {
				if _, dup := inherited[f.name]; dup {
					return &SchemaError{Code: CodeDuplicateField, Group: g.name, Field: f.name, Detail: "also inherited"}
				}
			}
		}
	}
	return nil
}

func (s *Schema) inheritedFieldNames(g *GroupDef) map[string]struct{} {
	names := map[string]struct{}{}
	for cur, ok := s.byName[g.super]; ok; cur, ok = s.byName[cur.super] {
		for _, f := range cur.fields {
			names[f.name] = struct{}{}
		}
	}
	return names
}

func (s *Schema) validateTypes() error {
	for _, nt := range s.typeOrder {
		if err := s.validateType(nt.typ); err != nil {
			if se, ok := err.(*SchemaError); ok && se.Group == "" && se.Type == "" {
				se.Type = nt.name
			}
			return err
		}
	}
	for _, g := range s.groups {
		for _, f := range g.fields {
			if err := s.validateType(f.typ); err != nil {
				if se, ok := err.(*SchemaError); ok {
					se.at(g.name, f.name)
				}
				return err
			}
		}
	}
	return nil
}

func (s *Schema) validateType(t TypeDef) error {
	if err := checkInline(t); err != nil {
		return err
	}
	rt, err := s.ResolveToType(t, true)
	if err != nil {
		return err
	}
	if seq, ok := rt.(SequenceType); ok {
		if seq.Component.Kind() == KindSequence {
			return &SchemaError{Code: CodeNestedSequence, Detail: typeString(t)}
		}
	}
	return nil
}

// checkInline validates the parts of a type that need no name resolution.
func checkInline(t TypeDef) error {
	switch x := t.(type) {
	case nil:
		return &SchemaError{Code: CodeInvalidType, Detail: "missing type"}
	case EnumType:
		names := make(map[string]struct{}, len(x.Symbols))
		ids := make(map[int32]struct{}, len(x.Symbols))
		for _, sym := range x.Symbols {
			if _, dup := names[sym.Name]; dup {
				return &SchemaError{Code: CodeInvalidType, Detail: "duplicate symbol name " + sym.Name}
			}
			if _, dup := ids[sym.ID]; dup {
				return &SchemaError{Code: CodeInvalidType, Detail: fmt.Sprintf("duplicate symbol id %d", sym.ID)}
			}
			names[sym.Name] = struct{}{}
			ids[sym.ID] = struct{}{}
		}
	case SequenceType:
		if x.Component == nil {
			return &SchemaError{Code: CodeInvalidType, Detail: "sequence without component"}
		}
		return checkInline(x.Component)
	case ReferenceType:
		if x.Target == "" {
			return &SchemaError{Code: CodeInvalidType, Detail: "reference without target"}
		}
	}
	return nil
}

func (s *Schema) indexBindings() error {
	if s.accessor == nil {
		return nil
	}
	for _, g := range s.groups {
		if g.binding == nil || g.binding.GroupType == nil {
			return &SchemaError{Code: CodeMissingBinding, Group: g.name}
		}
		key := g.binding.GroupType
		existing, dup := s.byType[key]
		switch {
		case !dup:
			s.byType[key] = g
		case s.isAncestor(existing, g):
			// The more specific group wins the key, unless it only shares
			// its ancestor's binding and has no runtime type of its own.
			if g.binding != existing.binding {
				s.byType[key] = g
			}
		case s.isAncestor(g, existing):
		default:
			return &SchemaError{Code: CodeDuplicateGroupType, Group: g.name, Detail: fmt.Sprintf("%v also bound to %s", key, existing.name)}
		}
	}
	if h, ok := s.accessor.(HierarchyAccessor); ok {
		return s.checkHierarchy(h)
	}
	return nil
}

// checkHierarchy verifies that, for every group, the nearest runtime super
// type that belongs to some group is the type of the declared super-group.
func (s *Schema) checkHierarchy(h HierarchyAccessor) error {
	owners := make(map[any]struct{}, len(s.groups))
	for _, g := range s.groups {
		owners[g.binding.GroupType] = struct{}{}
	}
	for _, g := range s.groups {
		key := g.binding.GroupType
		var want any
		if sg, ok := s.byName[g.super]; ok {
			want = sg.binding.GroupType
			if want == key {
				// inherited binding shares the super-group type
				continue
			}
		}
		var got any
		cur := key
		for i := 0; i < maxRuntimeHierarchyDepth; i++ {
			parent, ok := h.SuperType(cur)
			if !ok {
				break
			}
			if _, owned := owners[parent]; owned {
				got = parent
				break
			}
			cur = parent
		}
		if got != want {
			return &SchemaError{Code: CodeHierarchyMismatch, Group: g.name, Detail: fmt.Sprintf("runtime super type %v, declared super-group type %v", got, want)}
		}
	}
	return nil
}

// isAncestor reports whether a is a direct or indirect super-group of g.
func (s *Schema) isAncestor(a, g *GroupDef) bool {
	for cur, ok := s.byName[g.super]; ok; cur, ok = s.byName[cur.super] {
		if cur.name == a.name {
			return true
		}
	}
	return false
}

// ID returns the unique identity of this schema instance. Structurally equal
// schemas built separately have different identities.
func (s *Schema) ID() uuid.UUID { return s.id }

// Groups returns all groups ordered by super-chain length, then id, then
// name. Every group appears after its super-group.
func (s *Schema) Groups() []*GroupDef { return append([]*GroupDef(nil), s.groups...) }

// NamedTypes returns the named types in declaration order.
func (s *Schema) NamedTypes() []*NamedType { return append([]*NamedType(nil), s.typeOrder...) }

func (s *Schema) Group(name string) (*GroupDef, bool) {
	g, ok := s.byName[name]
	return g, ok
}

func (s *Schema) GroupByID(id int32) (*GroupDef, bool) {
	g, ok := s.byID[id]
	return g, ok
}

// GroupByType returns the group bound to the group type key.
func (s *Schema) GroupByType(key any) (*GroupDef, bool) {
	g, ok := s.byType[key]
	return g, ok
}

// GroupFor returns the group of a runtime instance using the schema's
// group type accessor.
func (s *Schema) GroupFor(value any) (*GroupDef, error) {
	if s.accessor == nil {
		return nil, unknownGroup(fmt.Sprintf("%T", value))
	}
	key := s.accessor.GroupType(value)
	if g, ok := s.byType[key]; ok {
		return g, nil
	}
	return nil, unknownGroup(fmt.Sprint(key))
}

func (s *Schema) NamedType(name string) (*NamedType, bool) {
	nt, ok := s.types[name]
	return nt, ok
}

// SuperGroup returns the super-group of g, if any.
func (s *Schema) SuperGroup(g *GroupDef) (*GroupDef, bool) {
	if g.super == "" {
		return nil, false
	}
	sg, ok := s.byName[g.super]
	return sg, ok
}

// Depth returns the super-chain length of the named group.
func (s *Schema) Depth(name string) int { return s.depth[name] }

// AllFields returns inherited fields (root-most first) followed by the
// declared fields of g.
func (s *Schema) AllFields(g *GroupDef) []*FieldDef {
	var chain []*GroupDef
	for cur, ok := g, true; ok; cur, ok = s.SuperGroup(cur) {
		chain = append(chain, cur)
	}
	var out []*FieldDef
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].fields...)
	}
	return out
}

// DynamicGroups returns the named group and all of its direct and indirect
// sub-groups in schema order. An empty name selects every group.
func (s *Schema) DynamicGroups(name string) []*GroupDef {
	if name == "" {
		return s.Groups()
	}
	root, ok := s.byName[name]
	if !ok {
		return nil
	}
	var out []*GroupDef
	for _, g := range s.groups {
		if g == root || s.isAncestor(root, g) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Schema) Annotations() Annotations { return s.annotations }

// GroupTypeAccessor returns the runtime type dispatch, nil when unbound.
func (s *Schema) GroupTypeAccessor() GroupTypeAccessor { return s.accessor }

// IsBound reports whether the schema carries runtime bindings.
func (s *Schema) IsBound() bool { return s.accessor != nil }

// Rebuild constructs a new schema from groups and types, inheriting this
// schema's accessor and annotations unless overridden by opts.
func (s *Schema) Rebuild(groups []*GroupDef, types []*NamedType, opts ...SchemaOption) (*Schema, error) {
	base := []SchemaOption{WithGroupTypeAccessor(s.accessor), WithSchemaAnnotations(s.annotations)}
	return NewSchema(groups, types, append(base, opts...)...)
}

// Unbind returns a copy of the schema with every binding stripped.
func (s *Schema) Unbind() *Schema {
	groups := make([]*GroupDef, 0, len(s.groups))
	for _, g := range s.groups {
		fields := make([]*FieldDef, len(g.fields))
		for i, f := range g.fields {
			fields[i] = f.WithBinding(nil)
		}
		groups = append(groups, g.WithFields(fields...).WithBinding(nil))
	}
	u, err := NewSchema(groups, s.typeOrder, WithSchemaAnnotations(s.annotations))
	if err != nil {
		// stripping bindings only removes constraints
		panic(err)
	}
	return u
}

// Equal compares groups, named types and annotations structurally.
func (s *Schema) Equal(o *Schema) bool {
	if len(s.groups) != len(o.groups) || len(s.typeOrder) != len(o.typeOrder) ||
		!s.annotations.Equal(o.annotations) {
		return false
	}
	for i := range s.groups {
		if !s.groups[i].Equal(o.groups[i]) {
			return false
		}
	}
	for _, nt := range s.typeOrder {
		if !nt.Equal(o.types[nt.name]) {
			return false
		}
	}
	return true
}
