package sieve

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// validateTag is the struct tag holding field qualifiers.
const validateTag = "validate"

func init() {
	// Register the qualifier tag with sentinel
	sentinel.Tag(validateTag)
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// engine assembles codec chains for one processor.
// It is the Resolver handed to factories; unqualified codecs are memoized by
// type so recursive types terminate. An engine is only used while its
// processor is being built, from a single goroutine.
type engine struct {
	registry *Registry
	wireTag  string
	memo     map[reflect.Type]FieldCodec
}

func newEngine(registry *Registry, codec Codec) *engine {
	wireTag := "json"
	if t, ok := codec.(Tagger); ok && t.StructTag() != "" {
		wireTag = t.StructTag()
	}
	return &engine{
		registry: registry,
		wireTag:  wireTag,
		memo:     make(map[reflect.Type]FieldCodec),
	}
}

// Resolve implements Resolver.
func (e *engine) Resolve(typ reflect.Type, quals QualifierSet) (FieldCodec, error) {
	c, err := e.registry.Create(typ, quals, e)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	if quals.Len() > 0 {
		names := make([]string, 0, quals.Len())
		for _, k := range quals.Kinds() {
			names = append(names, string(k))
		}
		return nil, &ConfigError{
			Err:    ErrUnclaimedQualifier,
			Type:   typ.String(),
			Detail: "no factory registered for " + strings.Join(names, ", "),
		}
	}
	return e.base(typ)
}

// base returns the memoized unqualified codec for typ.
func (e *engine) base(typ reflect.Type) (FieldCodec, error) {
	if c, ok := e.memo[typ]; ok {
		return c, nil
	}

	// Placeholder so a type reaching itself resolves to the codec being built.
	lazy := &lazyCodec{typ: typ}
	e.memo[typ] = lazy

	c, err := e.build(typ)
	if err != nil {
		delete(e.memo, typ)
		return nil, err
	}
	lazy.target = c
	e.memo[typ] = c
	return c, nil
}

// build constructs the base codec for typ.
func (e *engine) build(typ reflect.Type) (FieldCodec, error) {
	if typ.Kind() != reflect.Pointer && typ.Kind() != reflect.Interface &&
		typ.Implements(textMarshalerType) && reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		return &textCodec{typ: typ}, nil
	}

	switch typ.Kind() {
	case reflect.Bool:
		return &boolCodec{typ: typ}, nil
	case reflect.String:
		return &stringCodec{typ: typ}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &intCodec{typ: typ}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &uintCodec{typ: typ}, nil
	case reflect.Float32, reflect.Float64:
		return &floatCodec{typ: typ}, nil
	case reflect.Interface:
		return &anyCodec{typ: typ}, nil
	case reflect.Pointer:
		elem, err := e.Resolve(typ.Elem(), QualifierSet{})
		if err != nil {
			return nil, err
		}
		return &ptrCodec{typ: typ, elem: elem}, nil
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return &bytesCodec{typ: typ}, nil
		}
		elem, err := e.Resolve(typ.Elem(), QualifierSet{})
		if err != nil {
			return nil, err
		}
		return &sliceCodec{typ: typ, elem: elem}, nil
	case reflect.Array:
		elem, err := e.Resolve(typ.Elem(), QualifierSet{})
		if err != nil {
			return nil, err
		}
		return &arrayCodec{typ: typ, elem: elem}, nil
	case reflect.Map:
		if !mapKeySupported(typ.Key()) {
			return nil, newConfigError(ErrUnsupportedType, "", typ.String(), "map keys must be strings or integers")
		}
		elem, err := e.Resolve(typ.Elem(), QualifierSet{})
		if err != nil {
			return nil, err
		}
		return &mapCodec{typ: typ, elem: elem}, nil
	case reflect.Struct:
		return e.buildStruct(typ)
	default:
		return nil, newConfigError(ErrUnsupportedType, "", typ.String(), "no wire representation")
	}
}

// buildStruct creates field plans for typ by scanning struct tags.
func (e *engine) buildStruct(typ reflect.Type) (FieldCodec, error) {
	spec := scanType(typ)
	sc := &structCodec{typ: typ, fields: make([]structField, 0, len(spec.Fields))}

	for _, field := range spec.Fields {
		sf := typ.FieldByIndex(field.Index)
		if !sf.IsExported() {
			continue
		}

		wire, omitEmpty, skip := e.wireName(sf)
		if skip {
			continue
		}

		quals, err := e.registry.Parse(field.Tags[validateTag])
		if err != nil {
			return nil, withField(err, qualifiedName(typ, sf.Name))
		}

		c, err := e.Resolve(sf.Type, quals)
		if err != nil {
			return nil, withField(err, qualifiedName(typ, sf.Name))
		}

		sc.fields = append(sc.fields, structField{
			name:      sf.Name,
			wire:      wire,
			index:     sf.Index,
			omitEmpty: omitEmpty,
			codec:     c,
		})
	}

	return sc, nil
}

// wireName reads the wire name of sf from the codec's struct tag, falling
// back to the json tag and then the Go field name.
func (e *engine) wireName(sf reflect.StructField) (name string, omitEmpty, skip bool) {
	keys := []string{e.wireTag}
	if e.wireTag != "json" {
		keys = append(keys, "json")
	}
	for _, key := range keys {
		val, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		if val == "-" {
			return "", false, true
		}
		name, opts, _ := strings.Cut(val, ",")
		omitEmpty = strings.Contains(","+opts+",", ",omitempty,")
		if name != "" {
			return name, omitEmpty, false
		}
		return sf.Name, omitEmpty, false
	}
	return sf.Name, false, false
}

// scanType returns sentinel metadata for typ, scanning it directly when
// sentinel has not seen the type.
func scanType(typ reflect.Type) sentinel.Metadata {
	if typ.Name() != "" {
		if spec, ok := sentinel.Lookup(typ.Name()); ok && describes(spec, typ) {
			return spec
		}
	}

	spec := sentinel.Metadata{
		TypeName:    typ.Name(),
		PackageName: typ.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, typ.NumField()),
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if val, ok := sf.Tag.Lookup(validateTag); ok {
			fm.Tags[validateTag] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return spec
}

// describes reports whether cached metadata was taken from typ itself.
// Sentinel keys its cache by bare type name, so another type of the same
// name, in this package or another, may occupy the entry.
func describes(spec sentinel.Metadata, typ reflect.Type) bool {
	if spec.PackageName != typ.PkgPath() || len(spec.Fields) != countExported(typ) {
		return false
	}
	for _, fm := range spec.Fields {
		if len(fm.Index) != 1 || fm.Index[0] >= typ.NumField() {
			return false
		}
		sf := typ.Field(fm.Index[0])
		if sf.Name != fm.Name || sf.Type != fm.ReflectType || sf.Tag.Get(validateTag) != fm.Tags[validateTag] {
			return false
		}
	}
	return true
}

// countExported returns the number of exported fields of typ.
func countExported(typ reflect.Type) int {
	n := 0
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).IsExported() {
			n++
		}
	}
	return n
}

// qualifiedName names a field for configuration errors.
func qualifiedName(typ reflect.Type, field string) string {
	if typ.Name() == "" {
		return field
	}
	return typ.Name() + "." + field
}

// lazyCodec stands in for a codec still under construction.
type lazyCodec struct {
	typ    reflect.Type
	target FieldCodec
}

func (c *lazyCodec) Decode(in any, path Path) (any, error) {
	return c.target.Decode(in, path)
}

func (c *lazyCodec) Encode(v any, path Path) (any, error) {
	return c.target.Encode(v, path)
}

func (c *lazyCodec) String() string {
	return fmt.Sprintf("%s(...)", c.typ)
}
