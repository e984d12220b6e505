// Package binder reconciles two versions of a schema. Given a source schema
// bound to the program's runtime types and a destination schema describing
// the wire protocol, Bind yields a schema shaped like the destination whose
// accessors reach into the source's runtime objects.
package binder

import (
	"github.com/rs/zerolog"

	"github.com/reoring/msgskema"
	"github.com/reoring/msgskema/metrics"
)

// Accessor strategies, as reported to metrics and logs.
const (
	StrategyReuse   = "reuse"
	StrategyConvert = "convert"
	StrategySymbols = "symbols"
	StrategyIgnore  = "ignore"
	StrategyCreate  = "create"
)

// Binder binds destination schemas against one source schema. It holds no
// mutable state and is safe for concurrent use.
type Binder struct {
	source  *msgskema.Schema
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger traces per-group and per-field decisions at debug level.
func WithLogger(l zerolog.Logger) Option { return func(b *Binder) { b.logger = l } }

// WithMetrics records bind outcomes on c.
func WithMetrics(c *metrics.Collector) Option { return func(b *Binder) { b.metrics = c } }

// New returns a Binder for source.
func New(source *msgskema.Schema, opts ...Option) *Binder {
	b := &Binder{source: source, logger: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Source returns the source schema.
func (b *Binder) Source() *msgskema.Schema { return b.source }

// unmaterialized is the group type key of destination-only groups that have
// neither a binding nor a super-group. No runtime instance maps to it.
type unmaterialized struct{ group string }

// Bind produces a schema with the groups, fields, ids, requiredness and types
// of dest, bound to the accessors of the source schema. policy is called once
// per destination group. Any incompatibility aborts the whole call.
func (b *Binder) Bind(dest *msgskema.Schema, policy DirectionPolicy) (*msgskema.Schema, error) {
	out, err := b.bind(dest, policy)
	b.metrics.Bind(err == nil)
	if err != nil {
		if ie, ok := AsIncompatible(err); ok {
			b.metrics.Incompatible(ie.Code)
		}
		b.logger.Debug().Err(err).Msg("bind failed")
		return nil, err
	}
	return out, nil
}

func (b *Binder) bind(dest *msgskema.Schema, policy DirectionPolicy) (*msgskema.Schema, error) {
	groups := dest.Groups()
	bound := make(map[string]*msgskema.GroupDef, len(groups))
	out := make([]*msgskema.GroupDef, 0, len(groups))
	for _, g := range groups {
		d := policy.Direction(g)
		var (
			ng  *msgskema.GroupDef
			err error
		)
		if sg, ok := b.source.Group(g.Name()); ok {
			ng, err = b.bindGroup(dest, g, sg, d)
		} else {
			ng = b.bindMissingGroup(g, bound)
		}
		if err != nil {
			return nil, err
		}
		bound[g.Name()] = ng
		out = append(out, ng)
	}
	return dest.Rebuild(out, dest.NamedTypes(), msgskema.WithGroupTypeAccessor(b.source.GroupTypeAccessor()))
}

// bindMissingGroup handles a destination group unknown to the source. Sub-groups
// take over the binding of their super-group; the group is present on the
// wire but never materialized at runtime.
func (b *Binder) bindMissingGroup(g *msgskema.GroupDef, bound map[string]*msgskema.GroupDef) *msgskema.GroupDef {
	gb := g.Binding()
	if g.Super() != "" {
		gb = bound[g.Super()].Binding()
	}
	if gb == nil && b.source.IsBound() {
		gb = &msgskema.GroupBinding{
			Factory:   msgskema.FactoryFunc(func() any { return nil }),
			GroupType: unmaterialized{group: g.Name()},
		}
	}
	fields := g.Fields()
	for i, f := range fields {
		fields[i] = f.WithBinding(&msgskema.FieldBinding{Accessor: msgskema.IgnoreAccessor{}})
		b.metrics.Field(StrategyIgnore)
	}
	b.logger.Debug().Str("group", g.Name()).Str("super", g.Super()).Msg("group missing in source, fields ignored")
	return g.WithFields(fields...).WithBinding(gb)
}

func (b *Binder) bindGroup(dest *msgskema.Schema, g, sg *msgskema.GroupDef, d Direction) (*msgskema.GroupDef, error) {
	if g.Super() != sg.Super() {
		return nil, &IncompatibleError{Code: CodeSuperMismatch, Group: g.Name(), Direction: d, Source: sg.Super(), Dest: g.Super()}
	}
	fields := g.Fields()
	for i, f := range fields {
		fb, strategy, err := b.bindField(dest, g, f, sg, d)
		if err != nil {
			return nil, err
		}
		b.metrics.Field(strategy)
		b.logger.Debug().Str("group", g.Name()).Str("field", f.Name()).Str("direction", d.String()).Str("strategy", strategy).Msg("bind field")
		fields[i] = f.WithBinding(fb)
	}
	return g.WithFields(fields...).WithBinding(sg.Binding()), nil
}

func (b *Binder) bindField(dest *msgskema.Schema, g *msgskema.GroupDef, f *msgskema.FieldDef, sg *msgskema.GroupDef, d Direction) (*msgskema.FieldBinding, string, error) {
	incompatible := func(code string, src *msgskema.FieldDef) error {
		e := &IncompatibleError{Code: code, Group: g.Name(), Field: f.Name(), Direction: d, Dest: f.String()}
		if src != nil {
			e.Source = src.String()
		}
		return e
	}
	sf, ok := sg.Field(f.Name())
	if !ok {
		if !f.Required() {
			return &msgskema.FieldBinding{Accessor: msgskema.IgnoreAccessor{}}, StrategyIgnore, nil
		}
		if d != Inbound {
			return nil, "", incompatible(CodeMissingRequired, nil)
		}
		return b.createBinding(dest, f), StrategyCreate, nil
	}
	switch {
	case !sf.Required() && f.Required() && d != Inbound:
		return nil, "", incompatible(CodeRequiredChange, sf)
	case sf.Required() && !f.Required() && d != Outbound:
		return nil, "", incompatible(CodeRequiredChange, sf)
	}
	st, err := b.source.ResolveToType(sf.Type(), true)
	if err != nil {
		return nil, "", err
	}
	dt, err := dest.ResolveToType(f.Type(), true)
	if err != nil {
		return nil, "", err
	}
	sb := sf.Binding()
	if msgskema.TypesEqual(st, dt) {
		return sb, StrategyReuse, nil
	}
	if d == Both {
		return nil, "", incompatible(CodeTypeMismatch, sf)
	}
	if de, ok := enumOf(dt); ok {
		if _, ok := enumOf(st); ok && st.Kind() == dt.Kind() {
			if sb == nil {
				return nil, StrategySymbols, nil
			}
			nb := *sb
			if sb.Symbols != nil {
				nb.Symbols = ConvertSymbols(de, sb.Symbols)
			}
			return &nb, StrategySymbols, nil
		}
	}
	conv, ok := NumericConverter(st.Kind(), dt.Kind(), d)
	if !ok {
		return nil, "", incompatible(CodeTypeMismatch, sf)
	}
	if sb == nil {
		return nil, StrategyConvert, nil
	}
	return &msgskema.FieldBinding{
		Accessor:  ConvertingAccessor(sb.Accessor, conv),
		ValueType: msgskema.ValueTypeOf(dt),
	}, StrategyConvert, nil
}

// createBinding binds a required destination field the source lacks. Static
// references to groups the source can instantiate yield fresh instances.
func (b *Binder) createBinding(dest *msgskema.Schema, f *msgskema.FieldDef) *msgskema.FieldBinding {
	if rg, err := dest.ResolveToGroup(f.Type()); err == nil && rg != nil && f.Type().Kind() == msgskema.KindReference {
		if sg, ok := b.source.Group(rg.Name()); ok && sg.Binding() != nil && sg.Binding().Factory != nil {
			return &msgskema.FieldBinding{Accessor: msgskema.CreateAccessor{New: sg.Binding().Factory.New}}
		}
	}
	t, err := dest.ResolveToType(f.Type(), true)
	if err != nil {
		t = f.Type()
	}
	return &msgskema.FieldBinding{Accessor: msgskema.NewCreateAccessor(t), ValueType: msgskema.ValueTypeOf(t)}
}

// enumOf returns the enum of an enum type or of a sequence of enums.
func enumOf(t msgskema.TypeDef) (msgskema.EnumType, bool) {
	switch x := t.(type) {
	case msgskema.EnumType:
		return x, true
	case msgskema.SequenceType:
		e, ok := x.Component.(msgskema.EnumType)
		return e, ok
	}
	return msgskema.EnumType{}, false
}
