package binder

import (
	"fmt"

	"github.com/reoring/msgskema"
)

// Converter translates field values between the source representation and
// the destination representation of a field.
type Converter struct {
	Source msgskema.Kind
	Dest   msgskema.Kind
	// ToDest is applied when reading from the source object.
	ToDest func(v any) any
	// ToSource is applied when writing into the source object.
	ToSource func(v any) any
}

func (c Converter) String() string { return fmt.Sprintf("%s->%s", c.Source, c.Dest) }

// NumericConverter returns the converter for a field declared src in the
// source schema and dst in the destination schema, if the pair is legal for
// d. Inbound requires dst to be obtainable from src by narrowing and Outbound
// requires src to widen to dst. Both never converts.
func NumericConverter(src, dst msgskema.Kind, d Direction) (Converter, bool) {
	var ok bool
	switch d {
	case Inbound:
		ok = narrows(src, dst)
	case Outbound:
		ok = narrows(dst, src)
	}
	if !ok {
		return Converter{}, false
	}
	return Converter{
		Source:   src,
		Dest:     dst,
		ToDest:   func(v any) any { return convertNumber(v, src, dst) },
		ToSource: func(v any) any { return convertNumber(v, dst, src) },
	}, true
}

// narrows reports whether kind narrow can be obtained from kind wide.
// This includes reinterpretation between signed and unsigned integers of
// equal width.
func narrows(wide, narrow msgskema.Kind) bool {
	switch {
	case wide.IsInteger() && narrow.IsInteger():
		return narrow.Bits() <= wide.Bits()
	case wide.IsFloat() && narrow.IsFloat():
		return narrow.Bits() <= wide.Bits()
	}
	return false
}

func convertNumber(v any, from, to msgskema.Kind) any {
	if from.IsFloat() {
		f := toFloat(v)
		if to == msgskema.KindFloat32 {
			return float32(f)
		}
		return f
	}
	return fromBits(toBits(v), to)
}

// toBits widens an integer to 64 bits. Signed values are sign-extended,
// unsigned values zero-extended.
func toBits(v any) uint64 {
	switch x := v.(type) {
	case int8:
		return uint64(int64(x))
	case int16:
		return uint64(int64(x))
	case int32:
		return uint64(int64(x))
	case int64:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case int:
		return uint64(int64(x))
	case uint:
		return uint64(x)
	}
	panic(fmt.Sprintf("binder: not an integer: %T", v))
}

// fromBits keeps the low-order bits that fit kind k.
func fromBits(b uint64, k msgskema.Kind) any {
	switch k {
	case msgskema.KindInt8:
		return int8(b)
	case msgskema.KindInt16:
		return int16(b)
	case msgskema.KindInt32:
		return int32(b)
	case msgskema.KindInt64:
		return int64(b)
	case msgskema.KindUInt8:
		return uint8(b)
	case msgskema.KindUInt16:
		return uint16(b)
	case msgskema.KindUInt32:
		return uint32(b)
	case msgskema.KindUInt64:
		return b
	}
	panic("binder: not an integer kind: " + k.String())
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	panic(fmt.Sprintf("binder: not a float: %T", v))
}

// convertingAccessor wraps a source accessor with a Converter.
type convertingAccessor struct {
	inner msgskema.Accessor
	conv  Converter
}

func (a convertingAccessor) Get(owner any) any {
	v := a.inner.Get(owner)
	if v == nil {
		return nil
	}
	return a.conv.ToDest(v)
}

func (a convertingAccessor) Set(owner any, value any) {
	if value == nil {
		a.inner.Set(owner, nil)
		return
	}
	a.inner.Set(owner, a.conv.ToSource(value))
}

// ConvertingAccessor returns an accessor that reads and writes through inner,
// converting values with conv.
func ConvertingAccessor(inner msgskema.Accessor, conv Converter) msgskema.Accessor {
	return convertingAccessor{inner: inner, conv: conv}
}
