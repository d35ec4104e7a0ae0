package sieve

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Validator is the predicate a decorating codec enforces.
type Validator interface {
	// Kind returns the constraint kind, used in violations and descriptions.
	Kind() Kind

	// Check reports whether v satisfies the constraint.
	Check(v any) bool

	// Describe returns the constraint in words (e.g., "must not be blank").
	Describe() string
}

// finder is implemented by validators that report more than the value itself
// when a check fails.
type finder interface {
	Found(v any) string
}

// decoratingCodec validates values crossing inner in both directions.
type decoratingCodec struct {
	inner     FieldCodec
	validator Validator
}

// Decorate wraps inner so that v passes validator before it is returned from
// Decode and before it is handed to inner.Encode.
func Decorate(inner FieldCodec, validator Validator) FieldCodec {
	return &decoratingCodec{inner: inner, validator: validator}
}

func (c *decoratingCodec) Decode(in any, path Path) (any, error) {
	v, err := c.inner.Decode(in, path)
	if err != nil {
		return nil, err
	}
	if !c.validator.Check(v) {
		return nil, c.violation(v, path)
	}
	return v, nil
}

func (c *decoratingCodec) Encode(v any, path Path) (any, error) {
	if !c.validator.Check(v) {
		return nil, c.violation(v, path)
	}
	return c.inner.Encode(v, path)
}

func (c *decoratingCodec) String() string {
	return fmt.Sprintf("%s.%s()", c.inner, c.validator.Kind())
}

func (c *decoratingCodec) violation(v any, path Path) error {
	found := formatValue(v)
	if f, ok := c.validator.(finder); ok {
		found = f.Found(v)
	}
	return newViolation(path, c.validator.Kind(), c.validator.Describe(), found)
}

// formatValue renders a Go value for error messages.
func formatValue(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "null"
	}
	switch rv.Kind() {
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	default:
		return fmt.Sprint(rv.Interface())
	}
}

// formatFloat renders f with the same digits the digits constraint counts.
func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return decimalOf(f, bits).String()
}
