package msgskema

// GroupDef is an immutable group definition holding its declared fields.
// Inherited fields live on the super-group, which is referenced by name.
type GroupDef struct {
	name        string
	id          int32
	super       string
	fields      []*FieldDef
	byName      map[string]int
	annotations Annotations
	binding     *GroupBinding
}

// NewGroup returns an unbound group without id or super-group.
func NewGroup(name string, fields ...*FieldDef) *GroupDef {
	g := &GroupDef{name: name, id: NoID}
	g.setFields(fields)
	return g
}

func (g *GroupDef) setFields(fields []*FieldDef) {
	g.fields = append([]*FieldDef(nil), fields...)
	g.byName = make(map[string]int, len(fields))
	for i, f := range g.fields {
		if _, dup := g.byName[f.name]; !dup {
			g.byName[f.name] = i
		}
	}
}

func (g *GroupDef) Name() string             { return g.name }
func (g *GroupDef) ID() int32                { return g.id }
func (g *GroupDef) HasID() bool              { return g.id != NoID }
func (g *GroupDef) Super() string            { return g.super }
func (g *GroupDef) Annotations() Annotations { return g.annotations }
func (g *GroupDef) Binding() *GroupBinding   { return g.binding }
func (g *GroupDef) Annotation(key string) (string, bool) {
	return g.annotations.Get(key)
}

// Fields returns the declared fields in order.
func (g *GroupDef) Fields() []*FieldDef { return append([]*FieldDef(nil), g.fields...) }

// NumFields returns the number of declared fields.
func (g *GroupDef) NumFields() int { return len(g.fields) }

// Field returns the declared field with the given name.
func (g *GroupDef) Field(name string) (*FieldDef, bool) {
	i, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.fields[i], true
}

// GroupType returns the bound group type key, nil when unbound.
func (g *GroupDef) GroupType() any {
	if g.binding == nil {
		return nil
	}
	return g.binding.GroupType
}

func (g *GroupDef) clone() *GroupDef {
	cp := *g
	return &cp
}

func (g *GroupDef) WithID(id int32) *GroupDef {
	cp := g.clone()
	cp.id = id
	return cp
}

// WithSuper returns a copy inheriting from the named group; "" clears it.
func (g *GroupDef) WithSuper(super string) *GroupDef {
	cp := g.clone()
	cp.super = super
	return cp
}

func (g *GroupDef) WithFields(fields ...*FieldDef) *GroupDef {
	cp := g.clone()
	cp.setFields(fields)
	return cp
}

func (g *GroupDef) WithAnnotations(a Annotations) *GroupDef {
	cp := g.clone()
	cp.annotations = a
	return cp
}

// WithBinding returns a copy bound to b; nil strips the binding.
func (g *GroupDef) WithBinding(b *GroupBinding) *GroupDef {
	cp := g.clone()
	cp.binding = b
	return cp
}

// Equal compares everything except bindings.
func (g *GroupDef) Equal(o *GroupDef) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.name != o.name || g.id != o.id || g.super != o.super ||
		len(g.fields) != len(o.fields) || !g.annotations.Equal(o.annotations) {
		return false
	}
	for i := range g.fields {
		if !g.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}
