package sieve

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Factory builds the codec for one qualifier kind.
//
// Create declines by returning a nil codec and nil error when quals does not
// contain the factory's kind. Otherwise it removes its kind from quals,
// resolves the delegate through res and returns the delegate wrapped.
type Factory interface {
	// Kind returns the qualifier kind this factory claims.
	Kind() Kind

	// Parse turns the argument of a struct tag entry (the text after "=",
	// empty when absent) into a qualifier.
	Parse(arg string) (Qualifier, error)

	// Create builds a codec for typ, or declines.
	Create(typ reflect.Type, quals QualifierSet, res Resolver) (FieldCodec, error)
}

// ConstraintFactory is a Factory for a validating qualifier.
type ConstraintFactory struct {
	// For is the kind claimed.
	For Kind

	// Supports reports whether the kind can validate values of typ.
	// Pointer types are checked on their element type.
	Supports func(typ reflect.Type) bool

	// Supported names the supported types in configuration errors.
	Supported string

	// ParseArg parses a struct tag argument. Nil means the kind cannot be
	// declared in a tag.
	ParseArg func(arg string) (Qualifier, error)

	// Build extracts the parameters of q and returns its validator.
	Build func(q Qualifier, typ reflect.Type) (Validator, error)
}

// Kind implements Factory.
func (f *ConstraintFactory) Kind() Kind {
	return f.For
}

// Parse implements Factory.
func (f *ConstraintFactory) Parse(arg string) (Qualifier, error) {
	if f.ParseArg != nil {
		return f.ParseArg(arg)
	}
	return nil, &ConfigError{
		Err:    ErrInvalidTag,
		Kind:   f.For,
		Detail: fmt.Sprintf("%s cannot be declared in a tag", f.For),
	}
}

// Create implements Factory.
func (f *ConstraintFactory) Create(typ reflect.Type, quals QualifierSet, res Resolver) (FieldCodec, error) {
	q, ok := quals.Get(f.For)
	if !ok {
		return nil, nil
	}
	next := quals.Without(f.For)

	if !f.Supports(elemType(typ)) {
		return nil, newConfigError(ErrUnsupportedType, f.For, typ.String(),
			"supported types are "+f.Supported)
	}

	validator, err := f.Build(q, typ)
	if err != nil {
		return nil, err
	}

	delegate, err := res.Resolve(typ, next)
	if err != nil {
		return nil, err
	}
	return Decorate(delegate, validator), nil
}

// Builtin returns the built-in factories in their default consultation order.
func Builtin() []Factory {
	return []Factory{
		NonEmptyFactory(),
		NotBlankFactory(),
		AssertTrueFactory(),
		AssertFalseFactory(),
		DecimalMaxFactory(),
		DecimalMinFactory(),
		DigitsFactory(),
	}
}

// NonEmptyFactory returns the factory for NonEmpty.
// Supported types: string, slice, array and map.
func NonEmptyFactory() Factory {
	return &ConstraintFactory{
		For:       KindNonEmpty,
		Supports:  kinds(reflect.String, reflect.Slice, reflect.Array, reflect.Map),
		Supported: "string, slice, array and map",
		ParseArg:  noArg(NonEmpty{}),
		Build: func(Qualifier, reflect.Type) (Validator, error) {
			return nonEmptyValidator{}, nil
		},
	}
}

// NotBlankFactory returns the factory for NotBlank.
// Supported type: string.
func NotBlankFactory() Factory {
	return &ConstraintFactory{
		For:       KindNotBlank,
		Supports:  kinds(reflect.String),
		Supported: "string",
		ParseArg:  noArg(NotBlank{}),
		Build: func(Qualifier, reflect.Type) (Validator, error) {
			return notBlankValidator{}, nil
		},
	}
}

// AssertTrueFactory returns the factory for AssertTrue.
// Supported type: bool.
func AssertTrueFactory() Factory {
	return &ConstraintFactory{
		For:       KindAssertTrue,
		Supports:  kinds(reflect.Bool),
		Supported: "bool",
		ParseArg:  noArg(AssertTrue{}),
		Build: func(Qualifier, reflect.Type) (Validator, error) {
			return assertValidator{want: true}, nil
		},
	}
}

// AssertFalseFactory returns the factory for AssertFalse.
// Supported type: bool.
func AssertFalseFactory() Factory {
	return &ConstraintFactory{
		For:       KindAssertFalse,
		Supports:  kinds(reflect.Bool),
		Supported: "bool",
		ParseArg:  noArg(AssertFalse{}),
		Build: func(Qualifier, reflect.Type) (Validator, error) {
			return assertValidator{want: false}, nil
		},
	}
}

// DecimalMaxFactory returns the factory for DecimalMax.
// Supported types: int, int8, int16, int32 and int64.
//
// Tag form: decimalmax=100 (inclusive) or decimalmax=100:exclusive.
func DecimalMaxFactory() Factory {
	return &ConstraintFactory{
		For:       KindDecimalMax,
		Supports:  kinds(reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64),
		Supported: "int, int8, int16, int32 and int64",
		ParseArg: func(arg string) (Qualifier, error) {
			value, inclusive, err := parseBoundArg(KindDecimalMax, arg)
			if err != nil {
				return nil, err
			}
			return DecimalMax{Value: value, Inclusive: inclusive}, nil
		},
		Build: func(q Qualifier, typ reflect.Type) (Validator, error) {
			m, ok := q.(DecimalMax)
			if !ok {
				return nil, unexpectedQualifier(q, typ)
			}
			return newBoundValidator(KindDecimalMax, m.Value, m.Inclusive, true, typ)
		},
	}
}

// DecimalMinFactory returns the factory for DecimalMin.
// Supported types: int, int8, int16, int32 and int64.
//
// Tag form: decimalmin=0 (inclusive) or decimalmin=0:exclusive.
func DecimalMinFactory() Factory {
	return &ConstraintFactory{
		For:       KindDecimalMin,
		Supports:  kinds(reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64),
		Supported: "int, int8, int16, int32 and int64",
		ParseArg: func(arg string) (Qualifier, error) {
			value, inclusive, err := parseBoundArg(KindDecimalMin, arg)
			if err != nil {
				return nil, err
			}
			return DecimalMin{Value: value, Inclusive: inclusive}, nil
		},
		Build: func(q Qualifier, typ reflect.Type) (Validator, error) {
			m, ok := q.(DecimalMin)
			if !ok {
				return nil, unexpectedQualifier(q, typ)
			}
			return newBoundValidator(KindDecimalMin, m.Value, m.Inclusive, false, typ)
		},
	}
}

// DigitsFactory returns the factory for Digits.
// Supported types: float32 and float64.
//
// Tag form: digits=1:2 (integer:fraction).
func DigitsFactory() Factory {
	return &ConstraintFactory{
		For:       KindDigits,
		Supports:  kinds(reflect.Float32, reflect.Float64),
		Supported: "float32 and float64",
		ParseArg: func(arg string) (Qualifier, error) {
			intPart, fracPart, ok := strings.Cut(arg, ":")
			integer, ierr := strconv.Atoi(strings.TrimSpace(intPart))
			fraction, ferr := strconv.Atoi(strings.TrimSpace(fracPart))
			if !ok || ierr != nil || ferr != nil {
				return nil, &ConfigError{
					Err:    ErrInvalidTag,
					Kind:   KindDigits,
					Detail: fmt.Sprintf("expected integer:fraction, found %q", arg),
				}
			}
			return Digits{Integer: integer, Fraction: fraction}, nil
		},
		Build: func(q Qualifier, typ reflect.Type) (Validator, error) {
			d, ok := q.(Digits)
			if !ok {
				return nil, unexpectedQualifier(q, typ)
			}
			return newDigitsValidator(d, typ)
		},
	}
}

// kinds returns a predicate matching any of ks.
func kinds(ks ...reflect.Kind) func(reflect.Type) bool {
	return func(typ reflect.Type) bool {
		for _, k := range ks {
			if typ.Kind() == k {
				return true
			}
		}
		return false
	}
}

// noArg returns a parser for qualifiers without parameters.
func noArg(q Qualifier) func(string) (Qualifier, error) {
	return func(arg string) (Qualifier, error) {
		if arg != "" {
			return nil, &ConfigError{
				Err:    ErrInvalidTag,
				Kind:   q.Kind(),
				Detail: fmt.Sprintf("%s takes no argument, found %q", q.Kind(), arg),
			}
		}
		return q, nil
	}
}

// parseBoundArg splits "literal[:inclusive|:exclusive]".
func parseBoundArg(kind Kind, arg string) (string, bool, error) {
	value, mode, hasMode := strings.Cut(arg, ":")
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false, &ConfigError{
			Err:    ErrInvalidTag,
			Kind:   kind,
			Detail: "missing bound value",
		}
	}
	if !hasMode {
		return value, true, nil
	}
	switch strings.TrimSpace(mode) {
	case "inclusive":
		return value, true, nil
	case "exclusive":
		return value, false, nil
	default:
		return "", false, &ConfigError{
			Err:    ErrInvalidTag,
			Kind:   kind,
			Detail: fmt.Sprintf("expected inclusive or exclusive, found %q", mode),
		}
	}
}

// unexpectedQualifier reports a qualifier whose Go type does not match its kind.
func unexpectedQualifier(q Qualifier, typ reflect.Type) error {
	return newConfigError(ErrInvalidParameter, q.Kind(), typ.String(),
		fmt.Sprintf("unexpected qualifier value %T", q))
}
