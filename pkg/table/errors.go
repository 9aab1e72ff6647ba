package table

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when a fitted stage is used before Fit.
var ErrNotFitted = errors.New("stage not fitted")

// SchemaError reports a column a stage expected but could not find.
type SchemaError struct {
	Stage  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: required column %q not present", e.Stage, e.Column)
}

// CoercionError reports a value that could not be converted to its column kind.
type CoercionError struct {
	Column string
	Row    int
	Value  any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("row %d: cannot coerce %v (%T) for column %q", e.Row, e.Value, e.Value, e.Column)
}
