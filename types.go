package msgskema

import (
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies a TypeDef variant.
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindBigDecimal
	KindBigInt
	KindBoolean
	KindString
	KindBinary
	KindTime
	KindEnum
	KindSequence
	KindReference
	KindDynamicReference
)

var kindNames = [...]string{
	KindInt8:             "i8",
	KindInt16:            "i16",
	KindInt32:            "i32",
	KindInt64:            "i64",
	KindUInt8:            "u8",
	KindUInt16:           "u16",
	KindUInt32:           "u32",
	KindUInt64:           "u64",
	KindFloat32:          "f32",
	KindFloat64:          "f64",
	KindDecimal:          "decimal",
	KindBigDecimal:       "bigDecimal",
	KindBigInt:           "bigInt",
	KindBoolean:          "bool",
	KindString:           "string",
	KindBinary:           "binary",
	KindTime:             "time",
	KindEnum:             "enum",
	KindSequence:         "sequence",
	KindReference:        "reference",
	KindDynamicReference: "dynamicReference",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind maps the short name of a kind (as returned by Kind.String) back
// to the Kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k Kind) IsInteger() bool { return k >= KindInt8 && k <= KindUInt64 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool { return k >= KindUInt8 && k <= KindUInt64 }

// IsFloat reports whether k is a binary floating point kind.
func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

// Bits returns the width of fixed-width numeric kinds and 0 otherwise.
func (k Kind) Bits() int {
	switch k {
	case KindInt8, KindUInt8:
		return 8
	case KindInt16, KindUInt16:
		return 16
	case KindInt32, KindUInt32, KindFloat32:
		return 32
	case KindInt64, KindUInt64, KindFloat64:
		return 64
	}
	return 0
}

// TypeDef describes the type of a field or named type. The set of
// implementations is closed: Scalar, StringType, BinaryType, TimeType,
// EnumType, SequenceType, ReferenceType and DynamicReferenceType.
type TypeDef interface {
	Kind() Kind
	String() string
	typeDef()
}

// Scalar is a type without parameters (numbers, decimals and booleans).
type Scalar Kind

func (s Scalar) Kind() Kind     { return Kind(s) }
func (s Scalar) String() string { return Kind(s).String() }
func (Scalar) typeDef()         {}

// Scalar types.
var (
	Int8       TypeDef = Scalar(KindInt8)
	Int16      TypeDef = Scalar(KindInt16)
	Int32      TypeDef = Scalar(KindInt32)
	Int64      TypeDef = Scalar(KindInt64)
	UInt8      TypeDef = Scalar(KindUInt8)
	UInt16     TypeDef = Scalar(KindUInt16)
	UInt32     TypeDef = Scalar(KindUInt32)
	UInt64     TypeDef = Scalar(KindUInt64)
	Float32    TypeDef = Scalar(KindFloat32)
	Float64    TypeDef = Scalar(KindFloat64)
	Decimal    TypeDef = Scalar(KindDecimal)
	BigDecimal TypeDef = Scalar(KindBigDecimal)
	BigInt     TypeDef = Scalar(KindBigInt)
	Boolean    TypeDef = Scalar(KindBoolean)
)

// StringType is a unicode string. MaxSize 0 means unbounded.
type StringType struct {
	MaxSize uint32
}

func (StringType) Kind() Kind { return KindString }
func (t StringType) String() string {
	if t.MaxSize == 0 {
		return "string"
	}
	return "string(" + strconv.FormatUint(uint64(t.MaxSize), 10) + ")"
}
func (StringType) typeDef() {}

// String returns an unbounded string type.
func String() TypeDef { return StringType{} }

// BinaryType is an opaque byte string. MaxSize 0 means unbounded.
type BinaryType struct {
	MaxSize uint32
}

func (BinaryType) Kind() Kind { return KindBinary }
func (t BinaryType) String() string {
	if t.MaxSize == 0 {
		return "binary"
	}
	return "binary(" + strconv.FormatUint(uint64(t.MaxSize), 10) + ")"
}
func (BinaryType) typeDef() {}

// Binary returns an unbounded binary type.
func Binary() TypeDef { return BinaryType{} }

// TimeUnit is the resolution of a time value.
type TimeUnit int

const (
	Millisecond TimeUnit = iota
	Nanosecond
	Microsecond
	Second
	Minute
	Hour
	Day
)

var timeUnitNames = [...]string{"millis", "nanos", "micros", "seconds", "minutes", "hours", "days"}

func (u TimeUnit) String() string {
	if u < 0 || int(u) >= len(timeUnitNames) {
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
	return timeUnitNames[u]
}

// ParseTimeUnit is the inverse of TimeUnit.String.
func ParseTimeUnit(s string) (TimeUnit, bool) {
	for i, n := range timeUnitNames {
		if n == s {
			return TimeUnit(i), true
		}
	}
	return 0, false
}

// Epoch is the origin a time value counts from.
type Epoch int

const (
	EpochUnix Epoch = iota
	EpochY2K
	// EpochMidnight makes the value a time of day.
	EpochMidnight
)

var epochNames = [...]string{"unix", "y2k", "midnight"}

func (e Epoch) String() string {
	if e < 0 || int(e) >= len(epochNames) {
		return "epoch(" + strconv.Itoa(int(e)) + ")"
	}
	return epochNames[e]
}

// ParseEpoch is the inverse of Epoch.String.
func ParseEpoch(s string) (Epoch, bool) {
	for i, n := range epochNames {
		if n == s {
			return Epoch(i), true
		}
	}
	return 0, false
}

// TimeType is a point in time counted in Unit since Epoch. Zone is an
// optional IANA zone name; "" means no zone.
type TimeType struct {
	Unit  TimeUnit
	Epoch Epoch
	Zone  string
}

func (TimeType) Kind() Kind { return KindTime }
func (t TimeType) String() string {
	s := "time(" + t.Unit.String() + "," + t.Epoch.String()
	if t.Zone != "" {
		s += "," + t.Zone
	}
	return s + ")"
}
func (TimeType) typeDef() {}

// Symbol is a named, numbered enumeration value as it appears on the wire.
type Symbol struct {
	Name string
	ID   int32
}

// EnumType is an ordered set of symbols.
type EnumType struct {
	Symbols []Symbol
}

// Enum builds an enum from symbols, copying the slice.
func Enum(symbols ...Symbol) EnumType {
	return EnumType{Symbols: append([]Symbol(nil), symbols...)}
}

func (EnumType) Kind() Kind { return KindEnum }
func (t EnumType) String() string {
	b := &strings.Builder{}
	b.WriteString("enum(")
	for i, s := range t.Symbols {
		if i > 0 {
			b.WriteString("|")
		}
		b.WriteString(s.Name)
		b.WriteString("/")
		b.WriteString(strconv.Itoa(int(s.ID)))
	}
	b.WriteString(")")
	return b.String()
}
func (EnumType) typeDef() {}

// SymbolByName returns the symbol with the given name.
func (t EnumType) SymbolByName(name string) (Symbol, bool) {
	for _, s := range t.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// SymbolByID returns the symbol with the given id.
func (t EnumType) SymbolByID(id int32) (Symbol, bool) {
	for _, s := range t.Symbols {
		if s.ID == id {
			return s, true
		}
	}
	return Symbol{}, false
}

// SequenceType is an ordered list of Component values.
type SequenceType struct {
	Component TypeDef
}

// Sequence returns a sequence of component.
func Sequence(component TypeDef) SequenceType { return SequenceType{Component: component} }

func (SequenceType) Kind() Kind       { return KindSequence }
func (t SequenceType) String() string { return typeString(t.Component) + "[]" }
func (SequenceType) typeDef()         {}

// ReferenceType is a static reference to exactly one group or named type.
type ReferenceType struct {
	Target string
}

// Reference returns a static reference to target.
func Reference(target string) ReferenceType { return ReferenceType{Target: target} }

func (ReferenceType) Kind() Kind       { return KindReference }
func (t ReferenceType) String() string { return t.Target }
func (ReferenceType) typeDef()         {}

// DynamicReferenceType references a group or any of its sub-groups. An empty
// Target means any group.
type DynamicReferenceType struct {
	Target string
}

// DynamicReference returns a dynamic reference to target ("" for any group).
func DynamicReference(target string) DynamicReferenceType {
	return DynamicReferenceType{Target: target}
}

func (DynamicReferenceType) Kind() Kind { return KindDynamicReference }
func (t DynamicReferenceType) String() string {
	if t.Target == "" {
		return "object"
	}
	return t.Target + "*"
}
func (DynamicReferenceType) typeDef() {}

// IsAny reports whether the reference accepts any group.
func (t DynamicReferenceType) IsAny() bool { return t.Target == "" }

func typeString(t TypeDef) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// TypesEqual reports whether a and b are structurally equal.
func TypesEqual(a, b TypeDef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case EnumType:
		y, ok := b.(EnumType)
		if !ok || len(x.Symbols) != len(y.Symbols) {
			return false
		}
		for i := range x.Symbols {
			if x.Symbols[i] != y.Symbols[i] {
				return false
			}
		}
		return true
	case SequenceType:
		y, ok := b.(SequenceType)
		return ok && TypesEqual(x.Component, y.Component)
	default:
		return a == b
	}
}

// DecimalValue is a fixed precision decimal: Mantissa * 10^Exponent.
type DecimalValue struct {
	Mantissa int64
	Exponent int8
}

// BigDecimalValue is an arbitrary precision decimal: Mantissa * 10^Exponent.
type BigDecimalValue struct {
	Mantissa *big.Int
	Exponent int32
}

// DefaultValue returns the runtime value used when a value of type t must be
// synthesized. References, enums and sequences have no default and yield nil.
func DefaultValue(t TypeDef) any {
	switch t.Kind() {
	case KindInt8:
		return int8(0)
	case KindInt16:
		return int16(0)
	case KindInt32:
		return int32(0)
	case KindInt64:
		return int64(0)
	case KindUInt8:
		return uint8(0)
	case KindUInt16:
		return uint16(0)
	case KindUInt32:
		return uint32(0)
	case KindUInt64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindDecimal:
		return DecimalValue{}
	case KindBigDecimal:
		return BigDecimalValue{Mantissa: new(big.Int)}
	case KindBigInt:
		return new(big.Int)
	case KindBoolean:
		return false
	case KindString:
		return ""
	case KindBinary:
		return []byte{}
	case KindTime:
		return int64(0)
	}
	return nil
}
