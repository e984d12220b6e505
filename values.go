package msgskema

import (
	"math/big"
	"reflect"
)

var canonicalTypes = map[Kind]reflect.Type{
	KindInt8:       reflect.TypeOf(int8(0)),
	KindInt16:      reflect.TypeOf(int16(0)),
	KindInt32:      reflect.TypeOf(int32(0)),
	KindInt64:      reflect.TypeOf(int64(0)),
	KindUInt8:      reflect.TypeOf(uint8(0)),
	KindUInt16:     reflect.TypeOf(uint16(0)),
	KindUInt32:     reflect.TypeOf(uint32(0)),
	KindUInt64:     reflect.TypeOf(uint64(0)),
	KindFloat32:    reflect.TypeOf(float32(0)),
	KindFloat64:    reflect.TypeOf(float64(0)),
	KindDecimal:    reflect.TypeOf(DecimalValue{}),
	KindBigDecimal: reflect.TypeOf(BigDecimalValue{}),
	KindBigInt:     reflect.TypeOf((*big.Int)(nil)),
	KindBoolean:    reflect.TypeOf(false),
	KindString:     reflect.TypeOf(""),
	KindBinary:     reflect.TypeOf([]byte(nil)),
	KindTime:       reflect.TypeOf(int64(0)),
	// enums are carried as their int32 symbol id
	KindEnum:             reflect.TypeOf(int32(0)),
	KindSequence:         reflect.TypeOf([]any(nil)),
	KindReference:        runtimeGroupType,
	KindDynamicReference: runtimeGroupType,
}

// ValueTypeOf returns the Go type RuntimeGroup bindings use for values of t.
func ValueTypeOf(t TypeDef) reflect.Type {
	if t == nil {
		return nil
	}
	return canonicalTypes[t.Kind()]
}
