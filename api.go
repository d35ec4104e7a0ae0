// Package sieve provides constraint-validating serialization.
//
// A model declares constraints on its fields with a validate struct tag. A
// Processor builds, once per type and wire codec, a chain of field codecs in
// which every constrained field is wrapped by a decorating codec. The
// decorating codec checks the value after it has been decoded and before it
// is encoded, so invalid values can neither enter nor leave the program.
//
// # Tag Syntax
//
// Constraints are comma separated; parameters follow "=":
//
//	validate:"nonempty"              - string, slice, array or map with len != 0
//	validate:"notblank"              - string with a non-whitespace rune
//	validate:"asserttrue"            - bool that is true
//	validate:"assertfalse"           - bool that is false
//	validate:"decimalmax=100"        - integer <= 100 (":exclusive" for <)
//	validate:"decimalmin=0:exclusive" - integer > 0 (":inclusive" is the default)
//	validate:"digits=1:2"            - float with exactly 1 integer and 2 fraction digits
//
// # Basic Usage
//
//	type Reading struct {
//	    Sensor string  `json:"sensor" validate:"notblank"`
//	    Level  int     `json:"level" validate:"decimalmin=0,decimalmax=100"`
//	    Ratio  float64 `json:"ratio" validate:"digits=1:1"`
//	}
//
//	proc, err := sieve.NewProcessor[Reading](json.New())
//	if err != nil {
//	    // a constraint is attached to a type it cannot validate
//	}
//
//	r, err := proc.Decode(ctx, body)
//	if v, ok := sieve.IsViolation(err); ok {
//	    // v.Path is "$.level", v.Kind is "decimalmax"
//	}
//
// # Composition
//
// Several constraints on one field form a chain. Factories are consulted in
// registry order and each removes its own kind before resolving the codec it
// wraps, so the first registered kind is the outermost decorator. Custom
// factories are added by building a Registry:
//
//	reg, _ := sieve.NewRegistry(append(sieve.Builtin(), myFactory)...)
//	proc, _ := sieve.NewProcessor[Reading](json.New(), sieve.WithRegistry(reg))
//
// # Errors
//
// Misconfiguration is reported once, by NewProcessor, as *ConfigError.
// Values failing a constraint are reported per call as *ConstraintViolation,
// which names the path of the value.
//
// # Codec Providers
//
// The following codec implementations are available as subpackages:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
package sieve
