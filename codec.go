package sieve

import "reflect"

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Tagger is implemented by codecs whose wire names come from a struct tag
// other than "json".
type Tagger interface {
	// StructTag returns the struct tag key holding wire names (e.g., "yaml").
	StructTag() string
}

// FieldCodec converts one value between its Go form and its wire form.
//
// Wire values are generic trees as produced by Codec.Unmarshal into an any:
// maps, slices and scalars. Go values have exactly the declared field type.
// Implementations must be safe for concurrent use.
type FieldCodec interface {
	// Decode converts the wire value in to the Go value at path.
	Decode(in any, path Path) (any, error)

	// Encode converts the Go value v to its wire value at path.
	Encode(v any, path Path) (any, error)

	// String describes the codec chain for diagnostics.
	String() string
}

// Resolver produces the codec for typ carrying the qualifiers in quals.
// Factories call it with their own qualifier removed to obtain their delegate.
type Resolver interface {
	Resolve(typ reflect.Type, quals QualifierSet) (FieldCodec, error)
}
