package pyro

import (
	"errors"
	"fmt"
)

// ErrReadOnly is returned when assigning to a computed, reaction or effect
// slot. Derived slots can only be written through their own evaluation.
var ErrReadOnly = errors.New("pyro: slot is read-only")

// CycleError reports a dependency cycle discovered during computed or
// effect evaluation. It is raised (as a panic value) the moment a slot's
// evaluation is entered while that slot is already on the evaluation
// stack, before the stack can overflow.
type CycleError struct {
	// Model is the schema name of the model the cycle was found on.
	Model string

	// Slot is the computed or effect whose evaluation closed the cycle.
	Slot string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("pyro: dependency cycle through %q on model %q", e.Slot, e.Model)
}

// UnknownFieldError reports an operation addressed to a name the schema
// does not declare.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("pyro: model %q has no field %q", e.Model, e.Field)
}

// KindError reports an operation applied to a field of the wrong kind,
// such as Toggle on a non-boolean atom.
type KindError struct {
	Model string
	Field string
	Want  string
	Got   string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("pyro: field %q on model %q: want %s, got %s", e.Field, e.Model, e.Want, e.Got)
}

// SchemaError reports an invalid schema declaration. It is returned from
// SchemaBuilder.Build with every problem found, joined.
type SchemaError struct {
	Schema string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("pyro: schema %q: %s", e.Schema, e.Detail)
}
