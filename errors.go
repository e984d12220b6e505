package msgskema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/msgskema/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	// Invalid schema (construction time)
	CodeDuplicateName       = "duplicate_name"
	CodeDuplicateID         = "duplicate_id"
	CodeDuplicateGroupType  = "duplicate_group_type"
	CodeDuplicateField      = "duplicate_field"
	CodeUnresolvedSuper     = "unresolved_super"
	CodeInheritanceCycle    = "inheritance_cycle"
	CodeHierarchyMismatch   = "hierarchy_mismatch"
	CodeUnresolvedReference = "unresolved_reference"
	CodeReferenceCycle      = "reference_cycle"
	CodeIllegalDynamicRef   = "illegal_dynamic_reference"
	CodeNestedSequence      = "nested_sequence"
	CodeMissingBinding      = "missing_binding"
	CodeInvalidType         = "invalid_type"
	// Lookup time
	CodeUnknownGroup = "unknown_group"
	CodeUnknownField = "unknown_field"
	CodeNoSuchSymbol = "no_such_symbol"
)

// Sentinel error kinds. Every structured error in this package matches exactly
// one of them with errors.Is.
var (
	ErrInvalidSchema = errors.New("msgskema: invalid schema")
	ErrUnknownGroup  = errors.New("msgskema: unknown group")
	ErrUnknownField  = errors.New("msgskema: unknown field")
	ErrNoSuchSymbol  = errors.New("msgskema: no such symbol")
)

// SchemaError reports a construction-time validation failure.
type SchemaError struct {
	Code  string
	Group string // offending group, "" when not group specific
	Field string // offending field within Group, or ""
	Type  string // offending named type, or ""
	// Detail carries extra context such as the unresolved name.
	Detail string
	Cause  error
}

func (e *SchemaError) Error() string {
	b := &strings.Builder{}
	b.WriteString("msgskema: invalid schema: ")
	b.WriteString(i18n.T(e.Code, nil))
	if p := e.path(); p != "" {
		fmt.Fprintf(b, " at %s", p)
	}
	if e.Detail != "" {
		fmt.Fprintf(b, " (%s)", e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *SchemaError) path() string {
	switch {
	case e.Group != "" && e.Field != "":
		return e.Group + "." + e.Field
	case e.Group != "":
		return e.Group
	case e.Type != "":
		return e.Type
	}
	return ""
}

func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }
func (e *SchemaError) Unwrap() error        { return e.Cause }

func (e *SchemaError) at(group, field string) *SchemaError {
	if e.Group == "" {
		e.Group = group
		e.Field = field
	}
	return e
}

// LookupError reports an unknown group or field requested by name or id.
type LookupError struct {
	Code  string // CodeUnknownGroup or CodeUnknownField
	Group string
	Field string
}

func (e *LookupError) Error() string {
	if e.Code == CodeUnknownField {
		return fmt.Sprintf("msgskema: %s: %s.%s", i18n.T(e.Code, nil), e.Group, e.Field)
	}
	return fmt.Sprintf("msgskema: %s: %s", i18n.T(e.Code, nil), e.Group)
}

func (e *LookupError) Is(target error) bool {
	switch e.Code {
	case CodeUnknownField:
		return target == ErrUnknownField
	default:
		return target == ErrUnknownGroup
	}
}

func unknownGroup(name string) error {
	return &LookupError{Code: CodeUnknownGroup, Group: name}
}

func unknownField(group, field string) error {
	return &LookupError{Code: CodeUnknownField, Group: group, Field: field}
}

// SymbolError reports a failed symbol lookup by id, name or value.
type SymbolError struct {
	By string // "id", "name" or "value"
	// Key is the id, name or value that was looked up.
	Key any
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("msgskema: %s: %s %v", i18n.T(CodeNoSuchSymbol, nil), e.By, e.Key)
}

func (e *SymbolError) Is(target error) bool { return target == ErrNoSuchSymbol }

// NoSuchSymbol builds the error returned by SymbolMapping implementations.
func NoSuchSymbol(by string, key any) error { return &SymbolError{By: by, Key: key} }

// AsSchemaError extracts a *SchemaError from err using errors.As internally.
func AsSchemaError(err error) (*SchemaError, bool) {
	if err == nil {
		return nil, false
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
