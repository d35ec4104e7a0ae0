package sieve

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// numberLiteral is a wire number kept in its textual form, such as json.Number.
type numberLiteral interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// describeWire names the shape of a wire value for type errors.
func describeWire(in any) string {
	if in == nil {
		return "null"
	}
	if _, ok := in.(numberLiteral); ok {
		return "number"
	}
	switch reflect.ValueOf(in).Kind() {
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		if _, ok := in.([]byte); ok {
			return "binary"
		}
		return "array"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return fmt.Sprintf("%T", in)
	}
}

// assign stores v into dst, leaving the zero value for nil.
func assign(dst reflect.Value, v any, path Path) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(dst.Type()) && rv.Kind() == dst.Kind():
		dst.Set(rv.Convert(dst.Type()))
	default:
		return &TypeError{Path: path, Want: dst.Type().String(), Got: rv.Type().String()}
	}
	return nil
}

// zeroOf returns the zero value of typ as an any.
func zeroOf(typ reflect.Type) any {
	return reflect.Zero(typ).Interface()
}

// sameType reports whether v holds a value of exactly typ.
func sameType(v any, typ reflect.Type) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != typ {
		return reflect.Value{}, false
	}
	return rv, true
}

// mismatch reports a Go value of the wrong type handed to Encode.
func mismatch(path Path, typ reflect.Type, v any) error {
	return &TypeError{Path: path, Want: typ.String(), Got: fmt.Sprintf("%T", v)}
}

// boolCodec converts wire booleans.
type boolCodec struct {
	typ reflect.Type
}

func (c *boolCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.Bool {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out := reflect.New(c.typ).Elem()
	out.SetBool(rv.Bool())
	return out.Interface(), nil
}

func (c *boolCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	return rv.Bool(), nil
}

func (c *boolCodec) String() string { return c.typ.String() }

// stringCodec converts wire strings.
type stringCodec struct {
	typ reflect.Type
}

func (c *stringCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	if _, ok := in.(numberLiteral); ok {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.String {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out := reflect.New(c.typ).Elem()
	out.SetString(rv.String())
	return out.Interface(), nil
}

func (c *stringCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	return rv.String(), nil
}

func (c *stringCodec) String() string { return c.typ.String() }

// wireInt reads an integral wire number.
func wireInt(in any) (int64, bool) {
	if n, ok := in.(numberLiteral); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		in = f
	}
	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// wireUint reads a non-negative integral wire number.
func wireUint(in any) (uint64, bool) {
	if n, ok := in.(numberLiteral); ok {
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		in = f
	}
	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		return uint64(i), i >= 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	default:
		return 0, false
	}
}

// wireFloat reads any wire number.
func wireFloat(in any) (float64, bool) {
	if n, ok := in.(numberLiteral); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32:
		// Reparse the shortest form so 9.1f stays 9.1 rather than 9.100000381469727.
		f, err := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)
		return f, err == nil
	case reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// intCodec converts wire numbers to signed integers, rejecting overflow.
type intCodec struct {
	typ reflect.Type
}

func (c *intCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	n, ok := wireInt(in)
	out := reflect.New(c.typ).Elem()
	if !ok || out.OverflowInt(n) {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out.SetInt(n)
	return out.Interface(), nil
}

func (c *intCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	return rv.Int(), nil
}

func (c *intCodec) String() string { return c.typ.String() }

// uintCodec converts wire numbers to unsigned integers, rejecting overflow.
type uintCodec struct {
	typ reflect.Type
}

func (c *uintCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	n, ok := wireUint(in)
	out := reflect.New(c.typ).Elem()
	if !ok || out.OverflowUint(n) {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out.SetUint(n)
	return out.Interface(), nil
}

func (c *uintCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	return rv.Uint(), nil
}

func (c *uintCodec) String() string { return c.typ.String() }

// floatCodec converts wire numbers to floats.
type floatCodec struct {
	typ reflect.Type
}

func (c *floatCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	f, ok := wireFloat(in)
	out := reflect.New(c.typ).Elem()
	if !ok || out.OverflowFloat(f) {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out.SetFloat(f)
	return out.Interface(), nil
}

func (c *floatCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	if c.typ.Kind() == reflect.Float32 {
		return float32(rv.Float()), nil
	}
	return rv.Float(), nil
}

func (c *floatCodec) String() string { return c.typ.String() }

// textCodec converts types implementing encoding.TextMarshaler and
// encoding.TextUnmarshaler through their text form.
type textCodec struct {
	typ reflect.Type
}

func (c *textCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.String {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out := reflect.New(c.typ)
	if err := out.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(rv.String())); err != nil {
		return nil, &TypeError{Path: path, Want: c.typ.String(), Got: fmt.Sprintf("%q (%v)", rv.String(), err)}
	}
	return out.Elem().Interface(), nil
}

func (c *textCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return nil, &TypeError{Path: path, Want: c.typ.String(), Got: err.Error()}
	}
	return string(text), nil
}

func (c *textCodec) String() string { return c.typ.String() }

// anyCodec passes interface values through untouched.
type anyCodec struct {
	typ reflect.Type
}

func (c *anyCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return nil, nil
	}
	if !reflect.TypeOf(in).Implements(c.typ) {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	return in, nil
}

func (c *anyCodec) Encode(v any, _ Path) (any, error) {
	return v, nil
}

func (c *anyCodec) String() string { return c.typ.String() }

// ptrCodec maps null to a nil pointer and everything else through elem.
type ptrCodec struct {
	typ  reflect.Type
	elem FieldCodec
}

func (c *ptrCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	v, err := c.elem.Decode(in, path)
	if err != nil {
		return nil, err
	}
	out := reflect.New(c.typ.Elem())
	if err := assign(out.Elem(), v, path); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (c *ptrCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	if rv.IsNil() {
		return nil, nil
	}
	return c.elem.Encode(rv.Elem().Interface(), path)
}

func (c *ptrCodec) String() string { return "*" + c.elem.String() }

// bytesCodec converts binary wire values, or base64 text, to byte slices.
type bytesCodec struct {
	typ reflect.Type
}

func (c *bytesCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	var data []byte
	switch v := in.(type) {
	case []byte:
		data = append([]byte(nil), v...)
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, newTypeError(path, c.typ.String(), in)
		}
		data = decoded
	default:
		items, ok := asSlice(in)
		if !ok {
			return nil, newTypeError(path, c.typ.String(), in)
		}
		data = make([]byte, len(items))
		for i, item := range items {
			n, ok := wireUint(item)
			if !ok || n > math.MaxUint8 {
				return nil, newTypeError(path.Index(i), "byte", item)
			}
			data[i] = byte(n)
		}
	}
	return reflect.ValueOf(data).Convert(c.typ).Interface(), nil
}

func (c *bytesCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	if rv.IsNil() {
		return nil, nil
	}
	return rv.Bytes(), nil
}

func (c *bytesCodec) String() string { return c.typ.String() }

// asSlice reads a wire array.
func asSlice(in any) ([]any, bool) {
	if items, ok := in.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// asMap reads a wire object. Non-string keys are rendered with fmt.
func asMap(in any) (map[string]any, bool) {
	if m, ok := in.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Kind() == reflect.String {
			m[k.String()] = iter.Value().Interface()
		} else {
			m[fmt.Sprint(k.Interface())] = iter.Value().Interface()
		}
	}
	return m, true
}

// sliceCodec converts wire arrays element by element.
type sliceCodec struct {
	typ  reflect.Type
	elem FieldCodec
}

func (c *sliceCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	items, ok := asSlice(in)
	if !ok {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out := reflect.MakeSlice(c.typ, len(items), len(items))
	for i, item := range items {
		v, err := c.elem.Decode(item, path.Index(i))
		if err != nil {
			return nil, err
		}
		if err := assign(out.Index(i), v, path.Index(i)); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (c *sliceCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	if rv.IsNil() {
		return nil, nil
	}
	return encodeElems(rv, c.elem, path)
}

func (c *sliceCodec) String() string { return "[]" + c.elem.String() }

// arrayCodec converts wire arrays into fixed arrays; extra elements are ignored.
type arrayCodec struct {
	typ  reflect.Type
	elem FieldCodec
}

func (c *arrayCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	items, ok := asSlice(in)
	if !ok {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	out := reflect.New(c.typ).Elem()
	for i := 0; i < len(items) && i < c.typ.Len(); i++ {
		v, err := c.elem.Decode(items[i], path.Index(i))
		if err != nil {
			return nil, err
		}
		if err := assign(out.Index(i), v, path.Index(i)); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (c *arrayCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	return encodeElems(rv, c.elem, path)
}

func (c *arrayCodec) String() string {
	return fmt.Sprintf("[%d]%s", c.typ.Len(), c.elem)
}

func encodeElems(rv reflect.Value, elem FieldCodec, path Path) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		node, err := elem.Encode(rv.Index(i).Interface(), path.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

// mapKeySupported reports whether keys of typ have a text form.
func mapKeySupported(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// mapCodec converts wire objects; entries are visited in key order.
type mapCodec struct {
	typ  reflect.Type
	elem FieldCodec
}

func (c *mapCodec) parseKey(key string, path Path) (reflect.Value, error) {
	k := reflect.New(c.typ.Key()).Elem()
	switch k.Kind() {
	case reflect.String:
		k.SetString(key)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil || k.OverflowInt(n) {
			return k, newTypeError(path.Key(key), c.typ.Key().String(), key)
		}
		k.SetInt(n)
	default:
		n, err := strconv.ParseUint(key, 10, 64)
		if err != nil || k.OverflowUint(n) {
			return k, newTypeError(path.Key(key), c.typ.Key().String(), key)
		}
		k.SetUint(n)
	}
	return k, nil
}

func formatKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	default:
		return strconv.FormatUint(k.Uint(), 10)
	}
}

func (c *mapCodec) Decode(in any, path Path) (any, error) {
	if in == nil {
		return zeroOf(c.typ), nil
	}
	m, ok := asMap(in)
	if !ok {
		return nil, newTypeError(path, c.typ.String(), in)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := reflect.MakeMapWithSize(c.typ, len(m))
	for _, key := range keys {
		k, err := c.parseKey(key, path)
		if err != nil {
			return nil, err
		}
		v, err := c.elem.Decode(m[key], path.Key(key))
		if err != nil {
			return nil, err
		}
		elem := reflect.New(c.typ.Elem()).Elem()
		if err := assign(elem, v, path.Key(key)); err != nil {
			return nil, err
		}
		out.SetMapIndex(k, elem)
	}
	return out.Interface(), nil
}

func (c *mapCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}
	if rv.IsNil() {
		return nil, nil
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return formatKey(keys[i]) < formatKey(keys[j]) })

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		key := formatKey(k)
		node, err := c.elem.Encode(rv.MapIndex(k).Interface(), path.Key(key))
		if err != nil {
			return nil, err
		}
		out[key] = node
	}
	return out, nil
}

func (c *mapCodec) String() string {
	return fmt.Sprintf("map[%s]%s", c.typ.Key(), c.elem)
}

// structField is the plan for one struct field.
type structField struct {
	name      string // Go field name
	wire      string // wire key
	index     []int  // reflect.Value.FieldByIndex access path
	omitEmpty bool
	codec     FieldCodec
}

// structCodec converts wire objects field by field.
// Absent keys decode as null so that qualifiers still see the field.
type structCodec struct {
	typ    reflect.Type
	fields []structField
}

func (c *structCodec) Decode(in any, path Path) (any, error) {
	var m map[string]any
	if in != nil {
		var ok bool
		if m, ok = asMap(in); !ok {
			return nil, newTypeError(path, c.typ.String(), in)
		}
	}

	out := reflect.New(c.typ).Elem()
	for _, f := range c.fields {
		p := path.Field(f.wire)
		v, err := f.codec.Decode(m[f.wire], p)
		if err != nil {
			return nil, err
		}
		if err := assign(out.FieldByIndex(f.index), v, p); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (c *structCodec) Encode(v any, path Path) (any, error) {
	rv, ok := sameType(v, c.typ)
	if !ok {
		return nil, mismatch(path, c.typ, v)
	}

	out := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		fv := rv.FieldByIndex(f.index)
		node, err := f.codec.Encode(fv.Interface(), path.Field(f.wire))
		if err != nil {
			return nil, err
		}
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		out[f.wire] = node
	}
	return out, nil
}

func (c *structCodec) String() string {
	parts := make([]string, len(c.fields))
	for i, f := range c.fields {
		parts[i] = f.name + ":" + f.codec.String()
	}
	return fmt.Sprintf("%s{%s}", c.typ, strings.Join(parts, ", "))
}
