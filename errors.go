package sieve

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedType indicates a qualifier is attached to a type its kind cannot validate.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidParameter indicates a qualifier carries inconsistent parameters.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidBound indicates a bound literal cannot be parsed into the field's width.
	ErrInvalidBound = errors.New("invalid bound")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrDuplicateQualifier indicates the same kind was declared twice for one field,
	// or registered twice in one registry.
	ErrDuplicateQualifier = errors.New("duplicate qualifier")

	// ErrUnclaimedQualifier indicates no registered factory handles a declared kind.
	ErrUnclaimedQualifier = errors.New("unclaimed qualifier")

	// ErrConstraintViolation indicates a value failed its constraint on decode or encode.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTypeMismatch indicates a wire value does not have the shape the field requires.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// ConfigError represents a codec construction error.
// It is raised once, while a processor is built, never per value.
type ConfigError struct {
	Err    error  // Underlying sentinel error (ErrUnsupportedType, etc.)
	Field  string // Field name that triggered the error
	Type   string // Go type the qualifier was attached to
	Kind   Kind   // Constraint kind that rejected the configuration
	Detail string // Expected-vs-found explanation
}

func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Kind != "" {
		msg = fmt.Sprintf("%s for %s", msg, e.Kind)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s on type %s", msg, e.Type)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConstraintViolation represents a value that failed its constraint.
// The same violation is reported whether the value was being decoded or encoded.
type ConstraintViolation struct {
	Path       Path   // Location of the value at the point of failure
	Kind       Kind   // Constraint kind that rejected the value
	Constraint string // Human description of the constraint
	Value      string // Textual form of the offending value
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("invalid value at %s: %s, found %s", e.Path, e.Constraint, e.Value)
}

func (e *ConstraintViolation) Unwrap() error {
	return ErrConstraintViolation
}

// TypeError represents a wire value that cannot be converted to the field type.
type TypeError struct {
	Path Path   // Location of the value
	Want string // Go type expected
	Got  string // Description of the wire value found
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type mismatch at %s: expected %s, found %s", e.Path, e.Want, e.Got)
}

func (e *TypeError) Unwrap() error {
	return ErrTypeMismatch
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// IsViolation reports whether err carries a ConstraintViolation and returns it.
func IsViolation(err error) (*ConstraintViolation, bool) {
	var v *ConstraintViolation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// newConfigError creates a ConfigError for a rejected qualifier.
func newConfigError(sentinel error, kind Kind, typ, detail string) error {
	return &ConfigError{
		Err:    sentinel,
		Kind:   kind,
		Type:   typ,
		Detail: detail,
	}
}

// newViolation creates a ConstraintViolation at path.
func newViolation(path Path, kind Kind, constraint, value string) error {
	return &ConstraintViolation{
		Path:       path,
		Kind:       kind,
		Constraint: constraint,
		Value:      value,
	}
}

// newTypeError creates a TypeError for a wire value of the wrong shape.
func newTypeError(path Path, want string, got any) error {
	return &TypeError{
		Path: path,
		Want: want,
		Got:  describeWire(got),
	}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}

// withField annotates a ConfigError with the field that declared the qualifier.
// Errors already carrying a field keep the innermost name.
func withField(err error, field string) error {
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "" {
		return err
	}
	annotated := *ce
	annotated.Field = field
	return &annotated
}
