package msgskema

// NoID marks an unspecified field or group id.
const NoID int32 = -1

// FieldDef is an immutable field definition. The With* methods return
// modified copies.
type FieldDef struct {
	name        string
	id          int32
	required    bool
	typ         TypeDef
	annotations Annotations
	binding     *FieldBinding
}

// NewField returns an optional, unbound field without id.
func NewField(name string, typ TypeDef) *FieldDef {
	return &FieldDef{name: name, id: NoID, typ: typ}
}

func (f *FieldDef) Name() string             { return f.name }
func (f *FieldDef) ID() int32                { return f.id }
func (f *FieldDef) HasID() bool              { return f.id != NoID }
func (f *FieldDef) Required() bool           { return f.required }
func (f *FieldDef) Type() TypeDef            { return f.typ }
func (f *FieldDef) Annotations() Annotations { return f.annotations }
func (f *FieldDef) Binding() *FieldBinding   { return f.binding }
func (f *FieldDef) Annotation(key string) (string, bool) {
	return f.annotations.Get(key)
}

// Accessor returns the bound accessor, nil for unbound fields.
func (f *FieldDef) Accessor() Accessor {
	if f.binding == nil {
		return nil
	}
	return f.binding.Accessor
}

func (f *FieldDef) clone() *FieldDef {
	cp := *f
	return &cp
}

func (f *FieldDef) WithID(id int32) *FieldDef {
	cp := f.clone()
	cp.id = id
	return cp
}

func (f *FieldDef) WithRequired(required bool) *FieldDef {
	cp := f.clone()
	cp.required = required
	return cp
}

func (f *FieldDef) WithType(t TypeDef) *FieldDef {
	cp := f.clone()
	cp.typ = t
	return cp
}

func (f *FieldDef) WithAnnotations(a Annotations) *FieldDef {
	cp := f.clone()
	cp.annotations = a
	return cp
}

// WithBinding returns a copy bound to b; nil strips the binding.
func (f *FieldDef) WithBinding(b *FieldBinding) *FieldDef {
	cp := f.clone()
	cp.binding = b
	return cp
}

// Equal compares name, id, requiredness, type and annotations. Bindings are
// not part of the comparison.
func (f *FieldDef) Equal(o *FieldDef) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.name == o.name && f.id == o.id && f.required == o.required &&
		TypesEqual(f.typ, o.typ) && f.annotations.Equal(o.annotations)
}

func (f *FieldDef) String() string {
	s := typeString(f.typ) + " " + f.name
	if f.required {
		return s
	}
	return s + "?"
}
