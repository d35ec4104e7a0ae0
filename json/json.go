// Package json provides a JSON codec implementation.
package json

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/zoobzio/sieve"
)

// jsonCodec implements sieve.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
// Numbers decoded into an any keep their literal text so integers beyond
// 2^53 are not rounded.
func New() sieve.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// StructTag returns the struct tag holding JSON field names.
func (c *jsonCodec) StructTag() string {
	return "json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
