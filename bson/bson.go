// Package bson provides a BSON codec implementation.
//
// BSON requires a document at the root, so values are stored under a single
// "value" key. Decoding into an any yields plain maps and slices rather than
// bson.D and bson.A.
package bson

import (
	"errors"
	"reflect"

	"github.com/zoobzio/sieve"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// rootKey is the document key wrapping the encoded value.
const rootKey = "value"

// errMissingRoot indicates a document without the wrapping key.
var errMissingRoot = errors.New("bson: document has no " + rootKey + " key")

// bsonCodec implements sieve.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() sieve.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// StructTag returns the struct tag holding BSON field names.
func (c *bsonCodec) StructTag() string {
	return "bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(bson.D{{Key: rootKey, Value: v}})
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	doc := bson.Raw(data)
	if err := doc.Validate(); err != nil {
		return err
	}
	raw, err := doc.LookupErr(rootKey)
	if err != nil {
		if errors.Is(err, bsoncore.ErrElementNotFound) {
			return errMissingRoot
		}
		return err
	}

	if target, ok := v.(*any); ok {
		var tree any
		if err := raw.Unmarshal(&tree); err != nil {
			return err
		}
		*target = normalize(tree)
		return nil
	}
	return raw.Unmarshal(v)
}

// normalize converts driver document types into maps and slices.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalize(e)
		}
		return m
	case primitive.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalize(e)
		}
		return s
	case primitive.Binary:
		return t.Data
	default:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Interface {
			s := make([]any, rv.Len())
			for i := range s {
				s[i] = normalize(rv.Index(i).Interface())
			}
			return s
		}
		return v
	}
}
