package msgskema

// Name resolution walks named-type aliases. Every walk shares one hop budget
// equal to the number of named types; a walk that needs more hops is a
// reference cycle.

// ResolveToGroup returns the group a ReferenceType or DynamicReferenceType
// points to, following named-type aliases. Scalars, sequences and "any
// group" dynamic references yield (nil, nil).
func (s *Schema) ResolveToGroup(t TypeDef) (*GroupDef, error) {
	var target string
	switch x := t.(type) {
	case ReferenceType:
		target = x.Target
	case DynamicReferenceType:
		if x.IsAny() {
			return nil, nil
		}
		target = x.Target
	default:
		return nil, nil
	}
	hops := len(s.types)
	for {
		if g, ok := s.byName[target]; ok {
			return g, nil
		}
		nt, err := s.hop(target, &hops)
		if err != nil {
			return nil, err
		}
		switch y := nt.typ.(type) {
		case ReferenceType:
			target = y.Target
		case DynamicReferenceType:
			if y.IsAny() {
				return nil, nil
			}
			target = y.Target
		default:
			return nil, nil
		}
	}
}

// hop looks up a named type, spending one unit of the hop budget.
func (s *Schema) hop(name string, hops *int) (*NamedType, error) {
	nt, ok := s.types[name]
	if !ok {
		return nil, &SchemaError{Code: CodeUnresolvedReference, Detail: name}
	}
	if *hops == 0 {
		return nil, &SchemaError{Code: CodeReferenceCycle, Detail: name}
	}
	*hops--
	return nt, nil
}

// ResolveToType replaces references to named types with their definitions.
// A returned ReferenceType always targets a group. When full is set,
// dynamic references are rewritten to target a group directly (or any
// group) and sequence components are resolved as well.
func (s *Schema) ResolveToType(t TypeDef, full bool) (TypeDef, error) {
	hops := len(s.types)
	return s.resolveType(t, full, &hops)
}

func (s *Schema) resolveType(t TypeDef, full bool, hops *int) (TypeDef, error) {
	switch x := t.(type) {
	case ReferenceType:
		if _, ok := s.byName[x.Target]; ok {
			return x, nil
		}
		nt, err := s.hop(x.Target, hops)
		if err != nil {
			return nil, err
		}
		return s.resolveType(nt.typ, full, hops)
	case DynamicReferenceType:
		if !full || x.IsAny() {
			return x, nil
		}
		return s.resolveDynamic(x, hops)
	case SequenceType:
		if !full {
			return x, nil
		}
		c, err := s.resolveType(x.Component, true, hops)
		if err != nil {
			return nil, err
		}
		return SequenceType{Component: c}, nil
	}
	return t, nil
}

func (s *Schema) resolveDynamic(x DynamicReferenceType, hops *int) (TypeDef, error) {
	target := x.Target
	for {
		if _, ok := s.byName[target]; ok {
			return DynamicReferenceType{Target: target}, nil
		}
		nt, err := s.hop(target, hops)
		if err != nil {
			return nil, err
		}
		switch y := nt.typ.(type) {
		case ReferenceType:
			target = y.Target
		case DynamicReferenceType:
			if y.IsAny() {
				return y, nil
			}
			target = y.Target
		default:
			return nil, &SchemaError{Code: CodeIllegalDynamicRef, Detail: x.Target + " resolves to " + typeString(y)}
		}
	}
}
