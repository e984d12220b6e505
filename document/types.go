package document

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/msgskema"
)

// Type is the serialized form of a msgskema.TypeDef. Types whose kind takes
// no parameters are written as a bare kind name ("i32", "string").
type Type struct {
	Kind      string   `json:"kind" yaml:"kind"`
	MaxSize   uint32   `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	Unit      string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Epoch     string   `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Zone      string   `json:"zone,omitempty" yaml:"zone,omitempty"`
	Symbols   []Symbol `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Component *Type    `json:"component,omitempty" yaml:"component,omitempty"`
	Target    string   `json:"target,omitempty" yaml:"target,omitempty"`
}

// Symbol is the serialized form of an enum symbol.
type Symbol struct {
	Name string `json:"name" yaml:"name"`
	ID   int32  `json:"id" yaml:"id"`
}

// short reports whether t carries nothing but its kind.
func (t Type) short() bool {
	return t.MaxSize == 0 && t.Unit == "" && t.Epoch == "" && t.Zone == "" &&
		len(t.Symbols) == 0 && t.Component == nil && t.Target == ""
}

// typeFields has the fields of Type without its methods.
type typeFields Type

func (t Type) MarshalJSON() ([]byte, error) {
	if t.short() && t.Kind != kindEnum && t.Kind != kindTime {
		return json.Marshal(t.Kind)
	}
	return json.Marshal(typeFields(t))
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var kind string
	if err := json.Unmarshal(b, &kind); err == nil {
		*t = Type{Kind: kind}
		return nil
	}
	var f typeFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*t = Type(f)
	return nil
}

func (t Type) MarshalYAML() (any, error) {
	if t.short() && t.Kind != kindEnum && t.Kind != kindTime {
		return t.Kind, nil
	}
	return typeFields(t), nil
}

func (t *Type) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*t = Type{Kind: n.Value}
		return nil
	}
	var f typeFields
	if err := n.Decode(&f); err != nil {
		return err
	}
	*t = Type(f)
	return nil
}

var (
	kindEnum = msgskema.KindEnum.String()
	kindTime = msgskema.KindTime.String()
)

// FromType serializes a TypeDef.
func FromType(td msgskema.TypeDef) Type {
	t := Type{Kind: td.Kind().String()}
	switch x := td.(type) {
	case msgskema.StringType:
		t.MaxSize = x.MaxSize
	case msgskema.BinaryType:
		t.MaxSize = x.MaxSize
	case msgskema.TimeType:
		t.Unit = x.Unit.String()
		t.Epoch = x.Epoch.String()
		t.Zone = x.Zone
	case msgskema.EnumType:
		t.Symbols = make([]Symbol, len(x.Symbols))
		for i, s := range x.Symbols {
			t.Symbols[i] = Symbol{Name: s.Name, ID: s.ID}
		}
	case msgskema.SequenceType:
		c := FromType(x.Component)
		t.Component = &c
	case msgskema.ReferenceType:
		t.Target = x.Target
	case msgskema.DynamicReferenceType:
		t.Target = x.Target
	}
	return t
}

// TypeDef converts t back into a msgskema.TypeDef.
func (t Type) TypeDef() (msgskema.TypeDef, error) {
	k, ok := msgskema.ParseKind(t.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDocument, t.Kind)
	}
	switch k {
	case msgskema.KindString:
		return msgskema.StringType{MaxSize: t.MaxSize}, nil
	case msgskema.KindBinary:
		return msgskema.BinaryType{MaxSize: t.MaxSize}, nil
	case msgskema.KindTime:
		tt := msgskema.TimeType{Zone: t.Zone}
		if t.Unit != "" {
			if tt.Unit, ok = msgskema.ParseTimeUnit(t.Unit); !ok {
				return nil, fmt.Errorf("%w: unknown time unit %q", ErrInvalidDocument, t.Unit)
			}
		}
		if t.Epoch != "" {
			if tt.Epoch, ok = msgskema.ParseEpoch(t.Epoch); !ok {
				return nil, fmt.Errorf("%w: unknown epoch %q", ErrInvalidDocument, t.Epoch)
			}
		}
		return tt, nil
	case msgskema.KindEnum:
		syms := make([]msgskema.Symbol, len(t.Symbols))
		for i, s := range t.Symbols {
			syms[i] = msgskema.Symbol{Name: s.Name, ID: s.ID}
		}
		return msgskema.Enum(syms...), nil
	case msgskema.KindSequence:
		if t.Component == nil {
			return nil, fmt.Errorf("%w: sequence without component", ErrInvalidDocument)
		}
		c, err := t.Component.TypeDef()
		if err != nil {
			return nil, err
		}
		return msgskema.Sequence(c), nil
	case msgskema.KindReference:
		if t.Target == "" {
			return nil, fmt.Errorf("%w: reference without target", ErrInvalidDocument)
		}
		return msgskema.Reference(t.Target), nil
	case msgskema.KindDynamicReference:
		return msgskema.DynamicReference(t.Target), nil
	}
	return msgskema.Scalar(k), nil
}
