package msgskema

import "reflect"

// Accessor reads and writes one field of a runtime group instance. A nil
// value stands for an empty (absent) field.
type Accessor interface {
	Get(owner any) any
	Set(owner any, value any)
}

// Factory creates new runtime instances of a group.
type Factory interface {
	New() any
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() any

func (f FactoryFunc) New() any { return f() }

// GroupTypeAccessor derives the group type key of a runtime instance. Keys
// must be comparable.
type GroupTypeAccessor interface {
	GroupType(value any) any
}

// HierarchyAccessor is a GroupTypeAccessor whose keys form a runtime type
// hierarchy. Schemas bound with one check that the hierarchy mirrors the
// declared super-groups.
type HierarchyAccessor interface {
	GroupTypeAccessor
	// SuperType returns the parent key of key, if any.
	SuperType(key any) (any, bool)
}

// GroupTypeFunc adapts a function to GroupTypeAccessor.
type GroupTypeFunc func(value any) any

func (f GroupTypeFunc) GroupType(value any) any { return f(value) }

// FieldBinding attaches runtime capability to a field.
type FieldBinding struct {
	Accessor Accessor
	// ValueType is the Go type of field values.
	ValueType reflect.Type
	// ComponentType is the Go type of sequence elements, nil otherwise.
	ComponentType reflect.Type
	// Symbols maps enum values; set for enums and sequences of enums.
	Symbols SymbolMapping
}

// GroupBinding attaches runtime capability to a group.
type GroupBinding struct {
	Factory Factory
	// GroupType is the key GroupTypeAccessor yields for instances.
	GroupType any
}
