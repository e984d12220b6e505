package binder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/msgskema/i18n"
)

// Incompatibility codes.
const (
	CodeSuperMismatch   = "super_mismatch"
	CodeMissingRequired = "missing_required"
	CodeRequiredChange  = "required_change"
	CodeTypeMismatch    = "type_mismatch"
)

// ErrIncompatibleSchema matches every *IncompatibleError.
var ErrIncompatibleSchema = errors.New("binder: incompatible schema")

// IncompatibleError aborts a Bind call. It names the offending group and
// field and the direction in effect.
type IncompatibleError struct {
	Code      string
	Group     string
	Field     string // "" for group level incompatibilities
	Direction Direction
	// Source and Dest describe the conflicting definitions.
	Source string
	Dest   string
}

func (e *IncompatibleError) Error() string {
	b := &strings.Builder{}
	b.WriteString("binder: incompatible schema: ")
	b.WriteString(i18n.T(e.Code, nil))
	b.WriteString(" at ")
	b.WriteString(e.Group)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	fmt.Fprintf(b, " (%s", e.Direction)
	if e.Source != "" || e.Dest != "" {
		fmt.Fprintf(b, ", source %s, destination %s", e.Source, e.Dest)
	}
	b.WriteString(")")
	return b.String()
}

func (e *IncompatibleError) Is(target error) bool { return target == ErrIncompatibleSchema }

// AsIncompatible extracts an *IncompatibleError from err.
func AsIncompatible(err error) (*IncompatibleError, bool) {
	var ie *IncompatibleError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
