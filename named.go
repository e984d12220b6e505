package msgskema

// NamedType is a reusable type alias, typically an enum, referenced by name
// from ReferenceType and DynamicReferenceType.
type NamedType struct {
	name        string
	typ         TypeDef
	annotations Annotations
}

func NewNamedType(name string, typ TypeDef) *NamedType {
	return &NamedType{name: name, typ: typ}
}

func (n *NamedType) Name() string             { return n.name }
func (n *NamedType) Type() TypeDef            { return n.typ }
func (n *NamedType) Annotations() Annotations { return n.annotations }

func (n *NamedType) WithAnnotations(a Annotations) *NamedType {
	cp := *n
	cp.annotations = a
	return &cp
}

func (n *NamedType) Equal(o *NamedType) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.name == o.name && TypesEqual(n.typ, o.typ) && n.annotations.Equal(o.annotations)
}
