// Package testing provides test utilities for sieve.
package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/sieve"
)

// Kinds of the transforming qualifiers below.
const (
	KindSuffix sieve.Kind = "suffix"
	KindDouble sieve.Kind = "double"
)

// Suffix appends a fixed string on decode and strips it on encode.
// It exists to observe that other qualifiers are carried down a chain.
type Suffix struct{}

// Kind implements sieve.Qualifier.
func (Suffix) Kind() sieve.Kind { return KindSuffix }

// Double doubles a float on decode and halves it on encode.
type Double struct{}

// Kind implements sieve.Qualifier.
func (Double) Kind() sieve.Kind { return KindDouble }

// transformFactory claims one kind and maps values across its delegate.
type transformFactory struct {
	kind     sieve.Kind
	qual     sieve.Qualifier
	accepts  reflect.Kind
	onDecode func(reflect.Value) reflect.Value
	onEncode func(reflect.Value) reflect.Value
}

func (f *transformFactory) Kind() sieve.Kind { return f.kind }

func (f *transformFactory) Parse(arg string) (sieve.Qualifier, error) {
	if arg != "" {
		return nil, &sieve.ConfigError{Err: sieve.ErrInvalidTag, Kind: f.kind, Detail: "takes no argument"}
	}
	return f.qual, nil
}

func (f *transformFactory) Create(typ reflect.Type, quals sieve.QualifierSet, res sieve.Resolver) (sieve.FieldCodec, error) {
	if !quals.Has(f.kind) {
		return nil, nil
	}
	if typ.Kind() != f.accepts {
		return nil, &sieve.ConfigError{Err: sieve.ErrUnsupportedType, Kind: f.kind, Type: typ.String()}
	}
	inner, err := res.Resolve(typ, quals.Without(f.kind))
	if err != nil {
		return nil, err
	}
	return &transformCodec{factory: f, inner: inner}, nil
}

type transformCodec struct {
	factory *transformFactory
	inner   sieve.FieldCodec
}

func (c *transformCodec) Decode(in any, path sieve.Path) (any, error) {
	v, err := c.inner.Decode(in, path)
	if err != nil {
		return nil, err
	}
	return c.factory.onDecode(reflect.ValueOf(v)).Interface(), nil
}

func (c *transformCodec) Encode(v any, path sieve.Path) (any, error) {
	return c.inner.Encode(c.factory.onEncode(reflect.ValueOf(v)).Interface(), path)
}

func (c *transformCodec) String() string {
	return fmt.Sprintf("%s.%s()", c.inner, c.factory.kind)
}

// SuffixFactory returns a factory for Suffix appending suffix to strings.
func SuffixFactory(suffix string) sieve.Factory {
	return &transformFactory{
		kind:    KindSuffix,
		qual:    Suffix{},
		accepts: reflect.String,
		onDecode: func(v reflect.Value) reflect.Value {
			out := reflect.New(v.Type()).Elem()
			out.SetString(v.String() + suffix)
			return out
		},
		onEncode: func(v reflect.Value) reflect.Value {
			out := reflect.New(v.Type()).Elem()
			out.SetString(strings.TrimSuffix(v.String(), suffix))
			return out
		},
	}
}

// DoubleFactory returns a factory for Double on float64 values.
func DoubleFactory() sieve.Factory {
	return &transformFactory{
		kind:    KindDouble,
		qual:    Double{},
		accepts: reflect.Float64,
		onDecode: func(v reflect.Value) reflect.Value {
			return reflect.ValueOf(v.Float() * 2).Convert(v.Type())
		},
		onEncode: func(v reflect.Value) reflect.Value {
			return reflect.ValueOf(v.Float() / 2).Convert(v.Type())
		},
	}
}

// Registry returns the built-in factories followed by Suffix("Plus") and Double.
func Registry() *sieve.Registry {
	r, err := sieve.NewRegistry(append(sieve.Builtin(), SuffixFactory("Plus"), DoubleFactory())...)
	if err != nil {
		panic(err)
	}
	return r
}

// Account is a test type carrying every built-in constraint.
type Account struct {
	ID      string            `json:"id" yaml:"id" msgpack:"id" bson:"_id" validate:"notblank"`
	Roles   []string          `json:"roles" yaml:"roles" msgpack:"roles" bson:"roles" validate:"nonempty"`
	Labels  map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" msgpack:"labels,omitempty" bson:"labels,omitempty"`
	Active  bool              `json:"active" yaml:"active" msgpack:"active" bson:"active" validate:"asserttrue"`
	Locked  bool              `json:"locked" yaml:"locked" msgpack:"locked" bson:"locked" validate:"assertfalse"`
	Quota   int64             `json:"quota" yaml:"quota" msgpack:"quota" bson:"quota" validate:"decimalmin=0:exclusive,decimalmax=100"`
	Ratio   float64           `json:"ratio" yaml:"ratio" msgpack:"ratio" bson:"ratio" validate:"digits=1:1"`
	Contact *Contact          `json:"contact" yaml:"contact" msgpack:"contact" bson:"contact"`
}

// Contact is nested inside Account.
type Contact struct {
	Email string `json:"email" yaml:"email" msgpack:"email" bson:"email" validate:"notblank"`
}

// ValidAccount returns an Account satisfying every constraint.
func ValidAccount() *Account {
	return &Account{
		ID:      "acct-1",
		Roles:   []string{"admin"},
		Active:  true,
		Locked:  false,
		Quota:   100,
		Ratio:   2.5,
		Contact: &Contact{Email: "alice@example.com"},
	}
}

// Tagged is a test type using the transforming qualifiers of Registry.
type Tagged struct {
	Name  string  `json:"name" validate:"notblank,suffix"`
	Scale float64 `json:"scale" validate:"double"`
}
