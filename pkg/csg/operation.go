// Package csg evaluates boolean operations between two triangle meshes.
package csg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// Evaluation errors.
var (
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Operation is a binary boolean operation.
type Operation int

// Supported operations. Subtract computes a minus b.
const (
	Union Operation = iota
	Subtract
	Intersect
)

// Operations lists every supported operation.
var Operations = []Operation{Union, Subtract, Intersect}

// String returns the wire tag of the operation.
func (o Operation) String() string {
	switch o {
	case Union:
		return "union"
	case Subtract:
		return "subtract"
	case Intersect:
		return "intersect"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// Valid reports whether o is a supported operation.
func (o Operation) Valid() bool {
	return o >= Union && o <= Intersect
}

// ParseOperation parses a wire tag, case-insensitively.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "union":
		return Union, nil
	case "subtract", "difference":
		return Subtract, nil
	case "intersect", "intersection":
		return Intersect, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Operation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Evaluator computes a boolean operation between two brushes. The result
// holds fresh geometry and never aliases either operand.
type Evaluator interface {
	Evaluate(a, b *mesh.Brush, op Operation) (*mesh.Brush, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(a, b *mesh.Brush, op Operation) (*mesh.Brush, error)

// Evaluate calls f(a, b, op).
func (f EvaluatorFunc) Evaluate(a, b *mesh.Brush, op Operation) (*mesh.Brush, error) {
	return f(a, b, op)
}
