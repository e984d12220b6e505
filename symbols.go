package msgskema

import "fmt"

// SymbolMapping translates between wire symbols and runtime enum values.
// Every lookup miss returns an error matching ErrNoSuchSymbol.
type SymbolMapping interface {
	ValueByID(id int32) (any, error)
	ValueByName(name string) (any, error)
	ID(value any) (int32, error)
	Name(value any) (string, error)
}

// EnumSymbols maps a Go enumeration type E to the symbols of an enum. The
// lookup tables are computed once at construction.
type EnumSymbols[E comparable] struct {
	byID    map[int32]E
	byName  map[string]E
	byValue map[E]Symbol
}

// NewEnumSymbols builds a mapping from symbol names to runtime values. Symbols
// of enum without an entry in values stay unmapped.
func NewEnumSymbols[E comparable](enum EnumType, values map[string]E) *EnumSymbols[E] {
	m := &EnumSymbols[E]{
		byID:    make(map[int32]E, len(enum.Symbols)),
		byName:  make(map[string]E, len(enum.Symbols)),
		byValue: make(map[E]Symbol, len(enum.Symbols)),
	}
	for _, s := range enum.Symbols {
		v, ok := values[s.Name]
		if !ok {
			continue
		}
		m.byID[s.ID] = v
		m.byName[s.Name] = v
		m.byValue[v] = s
	}
	return m
}

// EnumSymbolsOf builds a mapping for enum values whose String method returns
// the symbol name.
func EnumSymbolsOf[E interface {
	comparable
	fmt.Stringer
}](enum EnumType, values ...E) *EnumSymbols[E] {
	byName := make(map[string]E, len(values))
	for _, v := range values {
		byName[v.String()] = v
	}
	return NewEnumSymbols(enum, byName)
}

func (m *EnumSymbols[E]) ValueByID(id int32) (any, error) {
	if v, ok := m.byID[id]; ok {
		return v, nil
	}
	return nil, NoSuchSymbol("id", id)
}

func (m *EnumSymbols[E]) ValueByName(name string) (any, error) {
	if v, ok := m.byName[name]; ok {
		return v, nil
	}
	return nil, NoSuchSymbol("name", name)
}

func (m *EnumSymbols[E]) symbol(value any) (Symbol, error) {
	if v, ok := value.(E); ok {
		if s, ok := m.byValue[v]; ok {
			return s, nil
		}
	}
	return Symbol{}, NoSuchSymbol("value", value)
}

func (m *EnumSymbols[E]) ID(value any) (int32, error) {
	s, err := m.symbol(value)
	return s.ID, err
}

func (m *EnumSymbols[E]) Name(value any) (string, error) {
	s, err := m.symbol(value)
	return s.Name, err
}

// IntSymbols represents enum values by their int32 symbol id.
type IntSymbols struct {
	byID   map[int32]Symbol
	byName map[string]Symbol
}

// NewIntSymbols returns the identity mapping over the ids of enum.
func NewIntSymbols(enum EnumType) *IntSymbols {
	m := &IntSymbols{
		byID:   make(map[int32]Symbol, len(enum.Symbols)),
		byName: make(map[string]Symbol, len(enum.Symbols)),
	}
	for _, s := range enum.Symbols {
		m.byID[s.ID] = s
		m.byName[s.Name] = s
	}
	return m
}

func (m *IntSymbols) ValueByID(id int32) (any, error) {
	if _, ok := m.byID[id]; ok {
		return id, nil
	}
	return nil, NoSuchSymbol("id", id)
}

func (m *IntSymbols) ValueByName(name string) (any, error) {
	if s, ok := m.byName[name]; ok {
		return s.ID, nil
	}
	return nil, NoSuchSymbol("name", name)
}

func (m *IntSymbols) ID(value any) (int32, error) {
	if id, ok := value.(int32); ok {
		if _, ok := m.byID[id]; ok {
			return id, nil
		}
	}
	return 0, NoSuchSymbol("value", value)
}

func (m *IntSymbols) Name(value any) (string, error) {
	if id, ok := value.(int32); ok {
		if s, ok := m.byID[id]; ok {
			return s.Name, nil
		}
	}
	return "", NoSuchSymbol("value", value)
}
