package binder_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	ms "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/binder"
	"github.com/reoring/msgskema/metrics"
)

func mustSchema(t *testing.T, groups []*ms.GroupDef, types ...*ms.NamedType) *ms.Schema {
	t.Helper()
	s, err := ms.NewSchema(groups, types)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func mustRuntime(t *testing.T, s *ms.Schema) *ms.Schema {
	t.Helper()
	b, err := ms.BindRuntimeGroups(s)
	if err != nil {
		t.Fatalf("BindRuntimeGroups: %v", err)
	}
	return b
}

func field(t *testing.T, s *ms.Schema, group, name string) *ms.FieldDef {
	t.Helper()
	g, ok := s.Group(group)
	if !ok {
		t.Fatalf("no group %s", group)
	}
	f, ok := g.Field(name)
	if !ok {
		t.Fatalf("no field %s.%s", group, name)
	}
	return f
}

func newInstance(t *testing.T, s *ms.Schema, group string) *ms.RuntimeGroup {
	t.Helper()
	g, _ := s.Group(group)
	r, ok := g.Binding().Factory.New().(*ms.RuntimeGroup)
	if !ok {
		t.Fatalf("factory of %s did not yield a RuntimeGroup", group)
	}
	return r
}

func expectIncompatible(t *testing.T, err error, code, group, fieldName string) {
	t.Helper()
	if !errors.Is(err, binder.ErrIncompatibleSchema) {
		t.Fatalf("expected incompatible schema, got %v", err)
	}
	ie, _ := binder.AsIncompatible(err)
	if ie.Code != code || ie.Group != group || ie.Field != fieldName {
		t.Fatalf("got %s at %s.%s, want %s at %s.%s", ie.Code, ie.Group, ie.Field, code, group, fieldName)
	}
}

func personSchema(t *testing.T) *ms.Schema {
	return mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Person",
			ms.NewField("name", ms.String()).WithRequired(true),
			ms.NewField("mom", ms.DynamicReference("Person")),
			ms.NewField("dad", ms.DynamicReference("Person")),
			ms.NewField("color", ms.Reference("Color")),
		),
		ms.NewGroup("Employee", ms.NewField("salary", ms.Int64)).WithSuper("Person"),
	}, ms.NewNamedType("Color", ms.Enum(ms.Symbol{Name: "Red", ID: 0}, ms.Symbol{Name: "Blue", ID: 1})))
}

func TestBind_IdentityBoth(t *testing.T) {
	src := mustRuntime(t, personSchema(t))
	out, err := binder.New(src).Bind(src, binder.Fixed(binder.Both))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if out.GroupTypeAccessor() != src.GroupTypeAccessor() {
		t.Fatalf("output not dispatched through the source accessor")
	}
	for _, g := range src.Groups() {
		og, ok := out.Group(g.Name())
		if !ok {
			t.Fatalf("missing group %s", g.Name())
		}
		if og.Binding() != g.Binding() {
			t.Fatalf("%s: group binding replaced", g.Name())
		}
		for _, f := range g.Fields() {
			of, _ := og.Field(f.Name())
			if of.Binding() != f.Binding() {
				t.Fatalf("%s.%s: accessor not reused", g.Name(), f.Name())
			}
		}
	}
	if !out.Equal(src) {
		t.Fatalf("output shape differs from destination")
	}
}

func quoteSchemas(t *testing.T, srcSize, destSize ms.TypeDef) (*ms.Schema, *ms.Schema) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Quote", ms.NewField("size", srcSize)),
	}))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Quote", ms.NewField("size", destSize)).WithID(9),
	})
	return src, dest
}

func TestBind_NarrowingInbound(t *testing.T) {
	src, dest := quoteSchemas(t, ms.UInt64, ms.UInt32)
	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if q, _ := out.Group("Quote"); q.ID() != 9 {
		t.Fatalf("destination id not kept: %d", q.ID())
	}
	size := field(t, out, "Quote", "size")
	if !ms.TypesEqual(size.Type(), ms.UInt32) {
		t.Fatalf("destination type not kept: %v", size.Type())
	}
	if size.Binding().ValueType != reflect.TypeOf(uint32(0)) {
		t.Fatalf("value type %v", size.Binding().ValueType)
	}
	r := newInstance(t, src, "Quote")
	cases := []struct {
		in   uint64
		want uint32
	}{
		{0, 0},
		{123456, 123456},
		{1<<32 - 1, 1<<32 - 1},
		{1 << 32, 0},
		{1<<32 + 5, 5},
	}
	for _, tc := range cases {
		_ = r.Set("size", tc.in)
		got := size.Accessor().Get(r)
		if got != tc.want {
			t.Fatalf("narrow(%d) = %v, want %d", tc.in, got, tc.want)
		}
		size.Accessor().Set(r, got)
		back, _ := r.Get("size")
		if back != tc.in%(1<<32) {
			t.Fatalf("widen back = %v, want %d", back, tc.in%(1<<32))
		}
	}
	_ = r.Set("size", nil)
	if size.Accessor().Get(r) != nil {
		t.Fatalf("empty field must stay empty")
	}
}

func TestBind_NumericDirections(t *testing.T) {
	cases := []struct {
		name     string
		src, dst ms.TypeDef
		d        binder.Direction
		ok       bool
	}{
		{"widen outbound", ms.Int16, ms.Int64, binder.Outbound, true},
		{"widen inbound", ms.Int16, ms.Int64, binder.Inbound, false},
		{"narrow outbound", ms.Int64, ms.Int16, binder.Outbound, false},
		{"float narrow inbound", ms.Float64, ms.Float32, binder.Inbound, true},
		{"float widen outbound", ms.Float32, ms.Float64, binder.Outbound, true},
		{"reinterpret inbound", ms.Int32, ms.UInt32, binder.Inbound, true},
		{"reinterpret outbound", ms.UInt8, ms.Int8, binder.Outbound, true},
		{"int to float", ms.Int32, ms.Float32, binder.Inbound, false},
		{"string to int", ms.String(), ms.Int32, binder.Inbound, false},
		{"both mismatch", ms.Int32, ms.Int64, binder.Both, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, dest := quoteSchemas(t, tc.src, tc.dst)
			_, err := binder.New(src).Bind(dest, binder.Fixed(tc.d))
			if tc.ok && err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if !tc.ok {
				expectIncompatible(t, err, binder.CodeTypeMismatch, "Quote", "size")
			}
		})
	}
}

func TestBind_ReinterpretSigned(t *testing.T) {
	src, dest := quoteSchemas(t, ms.Int32, ms.UInt32)
	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	r := newInstance(t, src, "Quote")
	_ = r.Set("size", int32(-1))
	size := field(t, out, "Quote", "size")
	if got := size.Accessor().Get(r); got != uint32(0xFFFFFFFF) {
		t.Fatalf("reinterpret = %v", got)
	}
	size.Accessor().Set(r, uint32(0xFFFFFFFE))
	if v, _ := r.Get("size"); v != int32(-2) {
		t.Fatalf("reinterpret back = %v", v)
	}
}

func requiredSchemas(t *testing.T, srcRequired bool) (*ms.Schema, *ms.Schema) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Order", ms.NewField("qty", ms.Int32).WithRequired(srcRequired)),
	}))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Order", ms.NewField("qty", ms.Int32).WithRequired(!srcRequired)),
	})
	return src, dest
}

func TestBind_Requiredness(t *testing.T) {
	cases := []struct {
		name        string
		srcRequired bool
		d           binder.Direction
		ok          bool
	}{
		{"opt to req outbound", false, binder.Outbound, false},
		{"opt to req both", false, binder.Both, false},
		{"opt to req inbound", false, binder.Inbound, true},
		{"req to opt inbound", true, binder.Inbound, false},
		{"req to opt both", true, binder.Both, false},
		{"req to opt outbound", true, binder.Outbound, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, dest := requiredSchemas(t, tc.srcRequired)
			out, err := binder.New(src).Bind(dest, binder.Fixed(tc.d))
			if !tc.ok {
				expectIncompatible(t, err, binder.CodeRequiredChange, "Order", "qty")
				return
			}
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if field(t, out, "Order", "qty").Required() == tc.srcRequired {
				t.Fatalf("requiredness must follow the destination")
			}
		})
	}
}

func TestBind_MissingSourceField(t *testing.T) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Shape"),
		ms.NewGroup("Order", ms.NewField("qty", ms.Int32)),
	}))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Shape"),
		ms.NewGroup("Order",
			ms.NewField("qty", ms.Int32),
			ms.NewField("note", ms.String()),
			ms.NewField("price", ms.Int64).WithRequired(true),
			ms.NewField("shape", ms.Reference("Shape")).WithRequired(true),
		),
	})

	_, err := binder.New(src).Bind(dest, binder.Fixed(binder.Outbound))
	expectIncompatible(t, err, binder.CodeMissingRequired, "Order", "price")
	_, err = binder.New(src).Bind(dest, binder.Fixed(binder.Both))
	expectIncompatible(t, err, binder.CodeMissingRequired, "Order", "price")

	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	r := newInstance(t, src, "Order")
	note := field(t, out, "Order", "note").Accessor()
	note.Set(r, "ignored")
	if note.Get(r) != nil {
		t.Fatalf("optional missing field must be ignored")
	}
	price := field(t, out, "Order", "price").Accessor()
	if _, ok := price.(ms.CreateAccessor); !ok {
		t.Fatalf("required missing field bound with %T", price)
	}
	if price.Get(r) != int64(0) {
		t.Fatalf("create accessor = %v", price.Get(r))
	}
	shape := field(t, out, "Order", "shape").Accessor()
	inst, ok := shape.Get(r).(*ms.RuntimeGroup)
	if !ok || inst.GroupName() != "Shape" {
		t.Fatalf("create accessor for group reference yielded %T", shape.Get(r))
	}
	if shape.Get(r) == inst {
		t.Fatalf("create accessor reused an instance")
	}
}

func TestBind_SuperMismatch(t *testing.T) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("A"),
		ms.NewGroup("B").WithSuper("A"),
	}))
	dest := mustSchema(t, []*ms.GroupDef{ms.NewGroup("A"), ms.NewGroup("B")})
	_, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	expectIncompatible(t, err, binder.CodeSuperMismatch, "B", "")
}

func TestBind_MissingGroups(t *testing.T) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Shape", ms.NewField("name", ms.String())),
	}))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Shape", ms.NewField("name", ms.String())),
		ms.NewGroup("Circle", ms.NewField("radius", ms.Float64)).WithSuper("Shape"),
		ms.NewGroup("Audit", ms.NewField("who", ms.String()).WithRequired(true)),
	})
	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Both))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	shape, _ := out.Group("Shape")
	circle, _ := out.Group("Circle")
	if circle.Binding() != shape.Binding() {
		t.Fatalf("sub-group binding not flattened into super-group")
	}
	r := newInstance(t, src, "Shape")
	if g, err := out.GroupFor(r); err != nil || g.Name() != "Shape" {
		t.Fatalf("GroupFor(Shape instance) = %v, %v; want Shape", g, err)
	}
	radius := field(t, out, "Circle", "radius").Accessor()
	radius.Set(r, 1.5)
	if radius.Get(r) != nil {
		t.Fatalf("fields of missing groups must be ignored")
	}
	audit, _ := out.Group("Audit")
	if audit.Binding() == nil || audit.Binding().Factory.New() != nil {
		t.Fatalf("destination-only group must not be materialized")
	}
	if audit.Binding().GroupType == shape.Binding().GroupType {
		t.Fatalf("placeholder key collides with a source group")
	}
}

func TestBind_EnumGrowth(t *testing.T) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Letter",
			ms.NewField("one", ms.Reference("Abc")),
			ms.NewField("many", ms.Sequence(ms.Reference("Abc"))),
		),
	}, ms.NewNamedType("Abc", ms.Enum(ms.Symbol{Name: "A", ID: 0}, ms.Symbol{Name: "B", ID: 1}))))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Letter",
			ms.NewField("one", ms.Reference("Abc")),
			ms.NewField("many", ms.Sequence(ms.Reference("Abc"))),
		),
	}, ms.NewNamedType("Abc", ms.Enum(ms.Symbol{Name: "A", ID: 0}, ms.Symbol{Name: "B", ID: 1}, ms.Symbol{Name: "C", ID: 2})))

	if _, err := binder.New(src).Bind(dest, binder.Fixed(binder.Both)); err == nil {
		t.Fatalf("Both must reject differing enums")
	}
	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for _, name := range []string{"one", "many"} {
		syms := field(t, out, "Letter", name).Binding().Symbols
		if syms == nil {
			t.Fatalf("%s: no converter mapping", name)
		}
		if _, err := syms.ValueByName("C"); !errors.Is(err, ms.ErrNoSuchSymbol) {
			t.Fatalf("%s: C resolved: %v", name, err)
		}
		if _, err := syms.ValueByID(2); !errors.Is(err, ms.ErrNoSuchSymbol) {
			t.Fatalf("%s: id 2 resolved: %v", name, err)
		}
		for id, sym := range []string{"A", "B"} {
			v, err := syms.ValueByName(sym)
			if err != nil || v != int32(id) {
				t.Fatalf("%s: %s = %v, %v", name, sym, v, err)
			}
			if n, err := syms.Name(v); err != nil || n != sym {
				t.Fatalf("%s: Name(%v) = %q, %v", name, v, n, err)
			}
		}
	}
}

type side int

const (
	buy side = iota
	sell
)

func (s side) String() string {
	if s == buy {
		return "Buy"
	}
	return "Sell"
}

type order struct {
	Side side
	Qty  int64
}

func TestBind_StructSourceEnumRemap(t *testing.T) {
	srcEnum := ms.Enum(ms.Symbol{Name: "Buy", ID: 1}, ms.Symbol{Name: "Sell", ID: 2})
	orderType := reflect.TypeOf(&order{})
	src, err := ms.NewSchema([]*ms.GroupDef{
		ms.NewGroup("Order",
			ms.NewField("side", srcEnum).WithBinding(&ms.FieldBinding{
				Accessor: ms.StructField(func(o *order) side { return o.Side }, func(o *order, v side) { o.Side = v }),
				Symbols:  ms.EnumSymbolsOf(srcEnum, buy, sell),
			}),
			ms.NewField("qty", ms.Int64).WithBinding(&ms.FieldBinding{
				Accessor: ms.StructField(func(o *order) int64 { return o.Qty }, func(o *order, v int64) { o.Qty = v }),
			}),
		).WithBinding(&ms.GroupBinding{
			Factory:   ms.FactoryFunc(func() any { return &order{} }),
			GroupType: orderType,
		}),
	}, nil, ms.WithGroupTypeAccessor(ms.GroupTypeFunc(func(v any) any { return reflect.TypeOf(v) })))
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	// the wire renumbers the symbols and narrows qty
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Order",
			ms.NewField("side", ms.Enum(ms.Symbol{Name: "Sell", ID: 0}, ms.Symbol{Name: "Buy", ID: 5})),
			ms.NewField("qty", ms.Int32),
		),
	})
	out, err := binder.New(src).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	o := &order{Side: sell, Qty: 42}
	if g, err := out.GroupFor(o); err != nil || g.Name() != "Order" {
		t.Fatalf("GroupFor: %v %v", g, err)
	}
	sideField := field(t, out, "Order", "side")
	v := sideField.Accessor().Get(o)
	if id, err := sideField.Binding().Symbols.ID(v); err != nil || id != 0 {
		t.Fatalf("wire id of %v = %d, %v", v, id, err)
	}
	if v, err := sideField.Binding().Symbols.ValueByID(5); err != nil || v != buy {
		t.Fatalf("ValueByID(5) = %v, %v", v, err)
	}
	qty := field(t, out, "Order", "qty").Accessor()
	if qty.Get(o) != int32(42) {
		t.Fatalf("qty = %v", qty.Get(o))
	}
	qty.Set(o, int32(-7))
	if o.Qty != -7 {
		t.Fatalf("qty written back as %d", o.Qty)
	}
}

func TestBind_PolicyCalledOncePerGroup(t *testing.T) {
	src := mustRuntime(t, personSchema(t))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Person", ms.NewField("name", ms.String()).WithRequired(true)),
		ms.NewGroup("Employee").WithSuper("Person"),
		ms.NewGroup("Manager").WithSuper("Employee"),
	})
	calls := map[string]int{}
	policy := binder.PolicyFunc(func(g *ms.GroupDef) binder.Direction {
		calls[g.Name()]++
		return binder.Inbound
	})
	if _, err := binder.New(src).Bind(dest, policy); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("policy saw %v", calls)
	}
	for g, n := range calls {
		if n != 1 {
			t.Fatalf("policy called %d times for %s", n, g)
		}
	}
}

func TestBind_PolicyMapPerGroup(t *testing.T) {
	src := mustRuntime(t, mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Quote", ms.NewField("size", ms.UInt64)),
		ms.NewGroup("Fill", ms.NewField("size", ms.UInt16)),
	}))
	dest := mustSchema(t, []*ms.GroupDef{
		ms.NewGroup("Quote", ms.NewField("size", ms.UInt32)),
		ms.NewGroup("Fill", ms.NewField("size", ms.UInt32)),
	})
	policy := binder.PolicyMap{Default: binder.Outbound, Groups: map[string]binder.Direction{"Quote": binder.Inbound}}
	if _, err := binder.New(src).Bind(dest, policy); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	policy.Default = binder.Inbound
	_, err := binder.New(src).Bind(dest, policy)
	expectIncompatible(t, err, binder.CodeTypeMismatch, "Fill", "size")
}

func TestBind_MetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	src, dest := quoteSchemas(t, ms.UInt64, ms.UInt32)
	b := binder.New(src, binder.WithMetrics(c), binder.WithLogger(logger))
	if _, err := b.Bind(dest, binder.Fixed(binder.Inbound)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := b.Bind(dest, binder.Fixed(binder.Both)); err == nil {
		t.Fatalf("expected mismatch")
	}
	if got := testutil.ToFloat64(c.BindsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok binds = %v", got)
	}
	if got := testutil.ToFloat64(c.BindsTotal.WithLabelValues("incompatible")); got != 1 {
		t.Fatalf("failed binds = %v", got)
	}
	if got := testutil.ToFloat64(c.FieldBindings.WithLabelValues(binder.StrategyConvert)); got != 1 {
		t.Fatalf("convert strategy = %v", got)
	}
	if got := testutil.ToFloat64(c.Incompatibilities.WithLabelValues(binder.CodeTypeMismatch)); got != 1 {
		t.Fatalf("type mismatches = %v", got)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"strategy":"convert"`) || !strings.Contains(logs, "bind failed") {
		t.Fatalf("unexpected logs: %s", logs)
	}
}

func TestBind_UnboundSource(t *testing.T) {
	src, dest := requiredSchemas(t, false)
	out, err := binder.New(src.Unbind()).Bind(dest, binder.Fixed(binder.Inbound))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if out.IsBound() {
		t.Fatalf("binding an unbound source yields an unbound schema")
	}
	if field(t, out, "Order", "qty").Binding() != nil {
		t.Fatalf("unexpected field binding")
	}
}
