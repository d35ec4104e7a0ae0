package sieve

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// indirect dereferences pointers, reporting false for a nil pointer or nil interface.
func indirect(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// nonEmptyValidator requires len != 0.
type nonEmptyValidator struct{}

func (nonEmptyValidator) Kind() Kind       { return KindNonEmpty }
func (nonEmptyValidator) Describe() string { return "must not be empty" }

func (nonEmptyValidator) Check(v any) bool {
	rv, ok := indirect(v)
	if !ok {
		return false
	}
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() != 0
	default:
		return false
	}
}

// notBlankValidator requires a non-whitespace rune.
type notBlankValidator struct{}

func (notBlankValidator) Kind() Kind       { return KindNotBlank }
func (notBlankValidator) Describe() string { return "must not be blank" }

func (notBlankValidator) Check(v any) bool {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.String {
		return false
	}
	return strings.IndexFunc(rv.String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
}

// assertValidator requires a bool literal.
type assertValidator struct {
	want bool
}

func (a assertValidator) Kind() Kind {
	if a.want {
		return KindAssertTrue
	}
	return KindAssertFalse
}

func (a assertValidator) Describe() string {
	return fmt.Sprintf("must be %t", a.want)
}

func (a assertValidator) Check(v any) bool {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.Bool {
		return false
	}
	return rv.Bool() == a.want
}

// intWidth is the closed set of integer widths a bound may be compared at.
type intWidth int

const (
	width8  intWidth = 8
	width16 intWidth = 16
	width32 intWidth = 32
	width64 intWidth = 64
)

// widthOf resolves the width of a signed integer kind.
func widthOf(k reflect.Kind) (intWidth, bool) {
	switch k {
	case reflect.Int8:
		return width8, true
	case reflect.Int16:
		return width16, true
	case reflect.Int32:
		return width32, true
	case reflect.Int64:
		return width64, true
	case reflect.Int:
		return intWidth(strconv.IntSize), true
	default:
		return 0, false
	}
}

// parseBound parses literal at width w. Decimal literals with a zero fraction
// ("100.0") and exponents ("1e2") are accepted when they denote an integer.
func parseBound(kind Kind, literal string, w intWidth, typ reflect.Type) (int64, error) {
	literal = strings.TrimSpace(literal)
	n, err := strconv.ParseInt(literal, 10, int(w))
	if err == nil {
		return n, nil
	}
	if f, ferr := strconv.ParseFloat(literal, 64); ferr == nil && f == math.Trunc(f) {
		lo, hi := -math.Ldexp(1, int(w)-1), math.Ldexp(1, int(w)-1)
		if f >= lo && f < hi {
			return int64(f), nil
		}
	}
	return 0, newConfigError(ErrInvalidBound, kind, typ.String(),
		fmt.Sprintf("expected an integer within %d bits, found %q", w, literal))
}

// boundValidator compares against a bound parsed once at build time.
type boundValidator struct {
	kind      Kind
	literal   string
	bound     int64
	inclusive bool
	upper     bool
}

func (b boundValidator) Kind() Kind { return b.kind }

func (b boundValidator) Describe() string {
	op := "greater than"
	if b.upper {
		op = "less than"
	}
	if b.inclusive {
		op += " or equal to"
	}
	return fmt.Sprintf("must be %s %s", op, b.literal)
}

func (b boundValidator) Check(v any) bool {
	rv, ok := indirect(v)
	if !ok || !rv.CanInt() {
		return false
	}
	n := rv.Int()
	switch {
	case b.upper && b.inclusive:
		return n <= b.bound
	case b.upper:
		return n < b.bound
	case b.inclusive:
		return n >= b.bound
	default:
		return n > b.bound
	}
}

// newBoundValidator resolves the field width and parses the bound literal.
func newBoundValidator(kind Kind, literal string, inclusive, upper bool, typ reflect.Type) (Validator, error) {
	w, ok := widthOf(elemType(typ).Kind())
	if !ok {
		return nil, newConfigError(ErrUnsupportedType, kind, typ.String(), "supported types are int, int8, int16, int32 and int64")
	}
	bound, err := parseBound(kind, literal, w, typ)
	if err != nil {
		return nil, err
	}
	return boundValidator{
		kind:      kind,
		literal:   strings.TrimSpace(literal),
		bound:     bound,
		inclusive: inclusive,
		upper:     upper,
	}, nil
}

// digitsValidator requires exact digit counts.
type digitsValidator struct {
	integer  int
	fraction int
	bits     int
}

func (d digitsValidator) Kind() Kind { return KindDigits }

func (d digitsValidator) Describe() string {
	return fmt.Sprintf("must have %d integer digits and %d fraction digits", d.integer, d.fraction)
}

func (d digitsValidator) count(v any) (decimal, bool) {
	rv, ok := indirect(v)
	if !ok || !rv.CanFloat() {
		return decimal{}, false
	}
	f := rv.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal{}, false
	}
	return decimalOf(f, d.bits), true
}

func (d digitsValidator) Check(v any) bool {
	dec, ok := d.count(v)
	if !ok {
		return false
	}
	return dec.IntegerDigits() == d.integer && dec.FractionDigits() == d.fraction
}

// Found reports the counted digits alongside the value.
func (d digitsValidator) Found(v any) string {
	dec, ok := d.count(v)
	if !ok {
		return formatValue(v)
	}
	return fmt.Sprintf("%s (%d integer digits, %d fraction digits)",
		dec, dec.IntegerDigits(), dec.FractionDigits())
}

// newDigitsValidator checks the declared counts and resolves the float width.
func newDigitsValidator(q Digits, typ reflect.Type) (Validator, error) {
	if q.Integer < 0 {
		return nil, newConfigError(ErrInvalidParameter, KindDigits, typ.String(),
			fmt.Sprintf("integer digits must be 0 or greater, found %d", q.Integer))
	}
	if q.Fraction <= 0 {
		return nil, newConfigError(ErrInvalidParameter, KindDigits, typ.String(),
			fmt.Sprintf("fraction digits must be positive, found %d", q.Fraction))
	}
	bits := 64
	if elemType(typ).Kind() == reflect.Float32 {
		bits = 32
	}
	return digitsValidator{integer: q.Integer, fraction: q.Fraction, bits: bits}, nil
}

// elemType strips pointer indirections from typ.
func elemType(typ reflect.Type) reflect.Type {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
