// Package msgskema provides:
//
//   - An immutable, typed schema model for protocol messages (groups, fields,
//     scalar and composite types, named types)
//   - Construction-time validation of the reference graph (duplicates,
//     unresolved names, reference cycles, nested sequences)
//   - Runtime bindings through explicit Accessor, Factory and GroupTypeAccessor
//     capabilities, plus RuntimeGroup for groups without a generated Go type
//   - SymbolMapping between wire enum symbols and runtime values
//
// Design policy:
//   - Keep the schema model in the root package; cross-version binding lives in
//     binder/, document formats in document/, annotation overlays in overlay/.
//   - Schemas never change after construction. Rebinding and id assignment
//     always produce a new Schema.
//
// Typical usage:
//
//	person := msgskema.NewGroup("Person",
//		msgskema.NewField("name", msgskema.String()).WithRequired(true),
//		msgskema.NewField("mom", msgskema.DynamicReference("Person")),
//	)
//	s, err := msgskema.NewSchema([]*msgskema.GroupDef{person}, nil)
//	s, err = msgskema.BindRuntimeGroups(s)
//	p, err := msgskema.NewRuntimeGroup(s, "Person")
//	_ = p.Set("name", "Ada")
//
//	wire, err := binder.New(s).Bind(dest, binder.Fixed(binder.Inbound))
package msgskema
