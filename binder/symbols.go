package binder

import "github.com/reoring/msgskema"

// converterSymbols maps destination symbols onto runtime values of a source
// mapping, matching symbols by name. Destination symbols the source does not
// know stay unmapped and fail at lookup time.
type converterSymbols struct {
	byID    map[int32]any
	byName  map[string]any
	byValue map[any]msgskema.Symbol
}

// ConvertSymbols builds a SymbolMapping for dest on top of src.
func ConvertSymbols(dest msgskema.EnumType, src msgskema.SymbolMapping) msgskema.SymbolMapping {
	m := &converterSymbols{
		byID:    make(map[int32]any, len(dest.Symbols)),
		byName:  make(map[string]any, len(dest.Symbols)),
		byValue: make(map[any]msgskema.Symbol, len(dest.Symbols)),
	}
	for _, s := range dest.Symbols {
		v, err := src.ValueByName(s.Name)
		if err != nil {
			continue
		}
		m.byID[s.ID] = v
		m.byName[s.Name] = v
		m.byValue[v] = s
	}
	return m
}

func (m *converterSymbols) ValueByID(id int32) (any, error) {
	if v, ok := m.byID[id]; ok {
		return v, nil
	}
	return nil, msgskema.NoSuchSymbol("id", id)
}

func (m *converterSymbols) ValueByName(name string) (any, error) {
	if v, ok := m.byName[name]; ok {
		return v, nil
	}
	return nil, msgskema.NoSuchSymbol("name", name)
}

func (m *converterSymbols) ID(value any) (int32, error) {
	if s, ok := m.byValue[value]; ok {
		return s.ID, nil
	}
	return 0, msgskema.NoSuchSymbol("value", value)
}

func (m *converterSymbols) Name(value any) (string, error) {
	if s, ok := m.byValue[value]; ok {
		return s.Name, nil
	}
	return "", msgskema.NoSuchSymbol("value", value)
}
