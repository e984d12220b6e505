package msgskema

// AccessorFunc binds a field through a pair of closures over the owner.
type AccessorFunc struct {
	GetFunc func(owner any) any
	SetFunc func(owner any, value any)
}

func (a AccessorFunc) Get(owner any) any        { return a.GetFunc(owner) }
func (a AccessorFunc) Set(owner any, value any) { a.SetFunc(owner, value) }

// StructField binds a field of owner type *O holding values of type V. A nil
// value written through Set stores the zero V.
func StructField[O any, V any](get func(*O) V, set func(*O, V)) Accessor {
	return structField[O, V]{get: get, set: set}
}

type structField[O any, V any] struct {
	get func(*O) V
	set func(*O, V)
}

func (a structField[O, V]) Get(owner any) any { return a.get(owner.(*O)) }

func (a structField[O, V]) Set(owner any, value any) {
	var v V
	if value != nil {
		v = value.(V)
	}
	a.set(owner.(*O), v)
}

// OptionalField binds an optional field stored as *V. Get yields nil for an
// empty field and the pointed-to V otherwise.
func OptionalField[O any, V any](get func(*O) *V, set func(*O, *V)) Accessor {
	return optionalField[O, V]{get: get, set: set}
}

type optionalField[O any, V any] struct {
	get func(*O) *V
	set func(*O, *V)
}

func (a optionalField[O, V]) Get(owner any) any {
	p := a.get(owner.(*O))
	if p == nil {
		return nil
	}
	return *p
}

func (a optionalField[O, V]) Set(owner any, value any) {
	if value == nil {
		a.set(owner.(*O), nil)
		return
	}
	v := value.(V)
	a.set(owner.(*O), &v)
}

// IgnoreAccessor reads nothing and discards writes.
type IgnoreAccessor struct{}

func (IgnoreAccessor) Get(any) any  { return nil }
func (IgnoreAccessor) Set(any, any) {}

// CreateAccessor always yields a fresh default value and discards writes.
type CreateAccessor struct {
	New func() any
}

// NewCreateAccessor returns a CreateAccessor yielding DefaultValue(t).
func NewCreateAccessor(t TypeDef) CreateAccessor {
	return CreateAccessor{New: func() any { return DefaultValue(t) }}
}

func (a CreateAccessor) Get(any) any { return a.New() }
func (CreateAccessor) Set(any, any)  {}

// SlotAccessor reads and writes one slot of a RuntimeGroup.
type SlotAccessor int

func (i SlotAccessor) Get(owner any) any        { return owner.(*RuntimeGroup).values[i] }
func (i SlotAccessor) Set(owner any, value any) { owner.(*RuntimeGroup).values[i] = value }
