// Package codec converts between the runtime representation of schema
// values and richer Go types.
package codec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/reoring/msgskema"
)

var (
	unixEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	y2kEpoch  = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	timeType = reflect.TypeOf(time.Time{})
)

// unitSeconds holds the length of units of one second or more.
var unitSeconds = map[msgskema.TimeUnit]int64{
	msgskema.Second: 1,
	msgskema.Minute: 60,
	msgskema.Hour:   3600,
	msgskema.Day:    86400,
}

// unitsPerSecond holds the count of sub-second units in a second.
var unitsPerSecond = map[msgskema.TimeUnit]int64{
	msgskema.Millisecond: 1e3,
	msgskema.Microsecond: 1e6,
	msgskema.Nanosecond:  1e9,
}

// Time converts between the int64 counts a time field holds and time.Time.
type Time struct {
	typ msgskema.TimeType
	loc *time.Location
}

// NewTime returns a codec for t. A zone-less type decodes to UTC.
func NewTime(t msgskema.TimeType) (*Time, error) {
	if _, ok := unitSeconds[t.Unit]; !ok {
		if _, ok := unitsPerSecond[t.Unit]; !ok {
			return nil, fmt.Errorf("codec: unknown time unit %s", t.Unit)
		}
	}
	if t.Epoch < msgskema.EpochUnix || t.Epoch > msgskema.EpochMidnight {
		return nil, fmt.Errorf("codec: unknown epoch %s", t.Epoch)
	}
	loc := time.UTC
	if t.Zone != "" {
		l, err := time.LoadLocation(t.Zone)
		if err != nil {
			return nil, fmt.Errorf("codec: zone %q: %w", t.Zone, err)
		}
		loc = l
	}
	return &Time{typ: t, loc: loc}, nil
}

// Type returns the time type c converts.
func (c *Time) Type() msgskema.TimeType { return c.typ }

// Decode turns a count of units since the epoch into a time. Times of day
// (EpochMidnight) are placed on January 1st of year 0.
func (c *Time) Decode(v int64) time.Time {
	base := c.origin()
	if n, ok := unitsPerSecond[c.typ.Unit]; ok {
		sec, frac := floorDiv(v, n), floorMod(v, n)
		return time.Unix(base.Unix()+sec, frac*(1e9/n)).In(c.loc)
	}
	return time.Unix(base.Unix()+v*unitSeconds[c.typ.Unit], 0).In(c.loc)
}

// Encode turns t into a count of units since the epoch, rounding toward
// the past.
func (c *Time) Encode(t time.Time) int64 {
	var sec, nsec int64
	if c.typ.Epoch == msgskema.EpochMidnight {
		h, m, s := t.In(c.loc).Clock()
		sec, nsec = int64(h*3600+m*60+s), int64(t.Nanosecond())
	} else {
		sec, nsec = t.Unix()-c.origin().Unix(), int64(t.Nanosecond())
	}
	if n, ok := unitsPerSecond[c.typ.Unit]; ok {
		return sec*n + nsec/(1e9/n)
	}
	return floorDiv(sec, unitSeconds[c.typ.Unit])
}

func (c *Time) origin() time.Time {
	switch c.typ.Epoch {
	case msgskema.EpochY2K:
		return y2kEpoch
	case msgskema.EpochMidnight:
		return time.Date(0, 1, 1, 0, 0, 0, 0, c.loc)
	}
	return unixEpoch
}

// Accessor wraps an accessor over int64 storage so that it reads and
// accepts time.Time values. Set passes raw int64 values and nil through.
func (c *Time) Accessor(inner msgskema.Accessor) msgskema.Accessor {
	return timeAccessor{inner: inner, codec: c}
}

type timeAccessor struct {
	inner msgskema.Accessor
	codec *Time
}

func (a timeAccessor) Get(owner any) any {
	if v, ok := a.inner.Get(owner).(int64); ok {
		return a.codec.Decode(v)
	}
	return nil
}

func (a timeAccessor) Set(owner any, value any) {
	switch v := value.(type) {
	case time.Time:
		a.inner.Set(owner, a.codec.Encode(v))
	case *time.Time:
		if v == nil {
			a.inner.Set(owner, nil)
			return
		}
		a.inner.Set(owner, a.codec.Encode(*v))
	default:
		a.inner.Set(owner, value)
	}
}

// BindTime returns a copy of f whose accessor speaks time.Time. f must be
// a bound field of a TimeType.
func BindTime(f *msgskema.FieldDef) (*msgskema.FieldDef, error) {
	tt, ok := f.Type().(msgskema.TimeType)
	if !ok {
		return nil, fmt.Errorf("codec: field %s is %s, not a time", f.Name(), f.Type())
	}
	b := f.Binding()
	if b == nil || b.Accessor == nil {
		return nil, fmt.Errorf("codec: field %s is not bound", f.Name())
	}
	c, err := NewTime(tt)
	if err != nil {
		return nil, err
	}
	nb := *b
	nb.Accessor = c.Accessor(b.Accessor)
	nb.ValueType = timeType
	return f.WithBinding(&nb), nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 { return a - floorDiv(a, b)*b }
