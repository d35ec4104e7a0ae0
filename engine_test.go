package sieve

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/sentinel"
)

func resolve(t *testing.T, typ reflect.Type) FieldCodec {
	t.Helper()
	c, err := newEngine(DefaultRegistry(), &testCodec{}).Resolve(typ, QualifierSet{})
	if err != nil {
		t.Fatalf("Resolve(%s) error: %v", typ, err)
	}
	return c
}

func TestBaseCodecs_Decode(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		in   any
		want any
	}{
		{"string", reflect.TypeFor[string](), "x", "x"},
		{"bool", reflect.TypeFor[bool](), true, true},
		{"int from number literal", reflect.TypeFor[int](), json.Number("42"), 42},
		{"int8 from float", reflect.TypeFor[int8](), 12.0, int8(12)},
		{"int64 from uint", reflect.TypeFor[int64](), uint8(7), int64(7)},
		{"uint16", reflect.TypeFor[uint16](), int64(65535), uint16(65535)},
		{"float64", reflect.TypeFor[float64](), json.Number("9.1"), 9.1},
		{"float64 from int", reflect.TypeFor[float64](), int32(3), 3.0},
		{"float32", reflect.TypeFor[float32](), 9.1, float32(9.1)},
		{"null int", reflect.TypeFor[int](), nil, 0},
		{"null string", reflect.TypeFor[string](), nil, ""},
		{"any", reflect.TypeFor[any](), "raw", "raw"},
		{"bytes", reflect.TypeFor[[]byte](), []byte{1, 2}, []byte{1, 2}},
		{"bytes from base64", reflect.TypeFor[[]byte](), "AQI=", []byte{1, 2}},
		{"bytes from array", reflect.TypeFor[[]byte](), []any{int64(1), int64(2)}, []byte{1, 2}},
		{"slice", reflect.TypeFor[[]string](), []any{"a", "b"}, []string{"a", "b"}},
		{"array", reflect.TypeFor[[2]int](), []any{1, 2, 3}, [2]int{1, 2}},
		{"map", reflect.TypeFor[map[string]int](), map[string]any{"a": 1}, map[string]int{"a": 1}},
		{"int keys", reflect.TypeFor[map[int]string](), map[string]any{"7": "x"}, map[int]string{7: "x"}},
		{"pointer", reflect.TypeFor[*int](), 5, ptr(5)},
		{"nil pointer", reflect.TypeFor[*int](), nil, (*int)(nil)},
		{"text", reflect.TypeFor[time.Time](), "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(t, tt.typ).Decode(tt.in, Root)
			if err != nil {
				t.Fatalf("Decode(%#v) error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBaseCodecs_DecodeMismatch(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		in   any
	}{
		{"string from number", reflect.TypeFor[string](), json.Number("1")},
		{"bool from string", reflect.TypeFor[bool](), "true"},
		{"int8 overflow", reflect.TypeFor[int8](), json.Number("300")},
		{"int from fraction", reflect.TypeFor[int](), 1.5},
		{"uint from negative", reflect.TypeFor[uint](), int64(-1)},
		{"float32 overflow", reflect.TypeFor[float32](), 1e300},
		{"slice from object", reflect.TypeFor[[]int](), map[string]any{}},
		{"map from array", reflect.TypeFor[map[string]int](), []any{}},
		{"bad int key", reflect.TypeFor[map[int]string](), map[string]any{"x": "y"}},
		{"struct from string", reflect.TypeFor[struct{ A int }](), "s"},
		{"bad text", reflect.TypeFor[time.Time](), "yesterday"},
		{"bad base64", reflect.TypeFor[[]byte](), "!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(t, tt.typ).Decode(tt.in, Root)
			if !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("Decode(%#v) error = %v, want %v", tt.in, err, ErrTypeMismatch)
			}
		})
	}
}

func TestBaseCodecs_ElementPath(t *testing.T) {
	_, err := resolve(t, reflect.TypeFor[[]int8]()).Decode([]any{1, 2, 999}, Root.Field("items"))
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("Decode() error = %v, want *TypeError", err)
	}
	if te.Path != "$.items[2]" {
		t.Errorf("Path = %q, want %q", te.Path, "$.items[2]")
	}
}

func TestBaseCodecs_Encode(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		v    any
		want any
	}{
		{"string", reflect.TypeFor[string](), "x", "x"},
		{"int8", reflect.TypeFor[int8](), int8(-3), int64(-3)},
		{"uint", reflect.TypeFor[uint](), uint(3), uint64(3)},
		{"float32 stays float32", reflect.TypeFor[float32](), float32(9.1), float32(9.1)},
		{"nil slice", reflect.TypeFor[[]string](), []string(nil), nil},
		{"slice", reflect.TypeFor[[]string](), []string{"a"}, []any{"a"}},
		{"map int keys", reflect.TypeFor[map[int]bool](), map[int]bool{2: true}, map[string]any{"2": true}},
		{"nil pointer", reflect.TypeFor[*string](), (*string)(nil), nil},
		{"pointer", reflect.TypeFor[*string](), ptr("p"), "p"},
		{"text", reflect.TypeFor[time.Time](), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(t, tt.typ).Encode(tt.v, Root)
			if err != nil {
				t.Fatalf("Encode(%#v) error: %v", tt.v, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%#v) = %#v, want %#v", tt.v, got, tt.want)
			}
		})
	}
}

func TestBaseCodecs_EncodeWrongType(t *testing.T) {
	_, err := resolve(t, reflect.TypeFor[string]()).Encode(5, Root)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Encode() error = %v, want %v", err, ErrTypeMismatch)
	}
}

type wireNames struct {
	Plain   string
	Renamed string `json:"renamed"`
	YAML    string `yaml:"yaml_name" json:"json_name"`
	Skipped string `json:"-"`
	Omitted string `json:"omitted,omitempty"`
	Dash    string `json:"-,"`
	hidden  string
}

func TestEngine_WireNames(t *testing.T) {
	c := resolve(t, reflect.TypeFor[wireNames]())

	got, err := c.Encode(wireNames{Plain: "p", Renamed: "r", YAML: "y", Skipped: "s", Dash: "d", hidden: "h"}, Root)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	want := map[string]any{"Plain": "p", "renamed": "r", "json_name": "y", "-": "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode() = %#v, want %#v", got, want)
	}
}

type yamlTagger struct{ testCodec }

func (yamlTagger) StructTag() string { return "yaml" }

func TestEngine_WireTagFromCodec(t *testing.T) {
	c, err := newEngine(DefaultRegistry(), yamlTagger{}).Resolve(reflect.TypeFor[wireNames](), QualifierSet{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	got, err := c.Encode(wireNames{YAML: "y", Renamed: "r"}, Root)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	m := got.(map[string]any)
	if m["yaml_name"] != "y" || m["renamed"] != "r" {
		t.Errorf("Encode() = %#v, want yaml_name and json fallback renamed", m)
	}
}

type node struct {
	Name string `json:"name" validate:"notblank"`
	Next *node  `json:"next"`
}

func TestEngine_RecursiveType(t *testing.T) {
	c := resolve(t, reflect.TypeFor[node]())

	in := map[string]any{"name": "a", "next": map[string]any{"name": "b"}}
	got, err := c.Decode(in, Root)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	n := got.(node)
	if n.Name != "a" || n.Next == nil || n.Next.Name != "b" || n.Next.Next != nil {
		t.Errorf("Decode() = %+v", n)
	}

	bad := map[string]any{"name": "a", "next": map[string]any{"name": " "}}
	_, err = c.Decode(bad, Root)
	v, ok := IsViolation(err)
	if !ok || v.Path != "$.next.name" {
		t.Errorf("Decode() error = %v, want violation at $.next.name", err)
	}
}

func TestEngine_ConfigErrors(t *testing.T) {
	type badKind struct {
		Count int `validate:"notblank"`
	}
	type unknown struct {
		Name string `validate:"email"`
	}
	type duplicate struct {
		Name string `validate:"notblank,notblank"`
	}
	type badMap struct {
		M map[float64]string
	}
	type badChan struct {
		C chan int
	}
	type nested struct {
		Inner badKind
	}

	tests := []struct {
		name  string
		typ   reflect.Type
		want  error
		field string
	}{
		{"unsupported kind", reflect.TypeFor[badKind](), ErrUnsupportedType, "badKind.Count"},
		{"unknown constraint", reflect.TypeFor[unknown](), ErrInvalidTag, "unknown.Name"},
		{"duplicate", reflect.TypeFor[duplicate](), ErrDuplicateQualifier, "duplicate.Name"},
		{"map key", reflect.TypeFor[badMap](), ErrUnsupportedType, "badMap.M"},
		{"chan", reflect.TypeFor[badChan](), ErrUnsupportedType, "badChan.C"},
		{"nested keeps innermost field", reflect.TypeFor[nested](), ErrUnsupportedType, "badKind.Count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEngine(DefaultRegistry(), &testCodec{}).Resolve(tt.typ, QualifierSet{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.want)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

// decliningFactory parses its kind but never claims it.
type decliningFactory struct {
	Factory
}

func (decliningFactory) Create(reflect.Type, QualifierSet, Resolver) (FieldCodec, error) {
	return nil, nil
}

func TestEngine_UnclaimedQualifier(t *testing.T) {
	reg, err := NewRegistry(decliningFactory{NotBlankFactory()})
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	type model struct {
		Name string `validate:"notblank"`
	}
	_, err = newEngine(reg, &testCodec{}).Resolve(reflect.TypeFor[model](), QualifierSet{})
	if !errors.Is(err, ErrUnclaimedQualifier) {
		t.Fatalf("Resolve() error = %v, want %v", err, ErrUnclaimedQualifier)
	}
	if !strings.Contains(err.Error(), "notblank") {
		t.Errorf("Error() = %q, want it to name notblank", err.Error())
	}
}

func TestEngine_OmitEmptyStillValidates(t *testing.T) {
	type model struct {
		Note string `json:"note,omitempty" validate:"nonempty"`
	}
	_, err := resolve(t, reflect.TypeFor[model]()).Encode(model{}, Root)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("Encode() error = %v, want violation", err)
	}
}

type scannedModel struct {
	Name  string `json:"name" validate:"notblank"`
	Count int    `json:"count"`
}

func TestScanType_SentinelCache(t *testing.T) {
	sentinel.Scan[scannedModel]()
	typ := reflect.TypeFor[scannedModel]()

	spec := scanType(typ)
	if len(spec.Fields) != 2 {
		t.Fatalf("Fields = %d, want 2", len(spec.Fields))
	}
	// Only sentinel records the json tag; the direct scan keeps validate alone.
	if spec.Fields[0].Tags["json"] != "name" {
		t.Errorf("Tags = %v, want metadata from sentinel", spec.Fields[0].Tags)
	}
	if spec.Fields[0].Tags[validateTag] != "notblank" {
		t.Errorf("validate tag = %q, want notblank", spec.Fields[0].Tags[validateTag])
	}

	_, err := resolve(t, typ).Encode(scannedModel{Name: " "}, Root)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("Encode() error = %v, want violation", err)
	}
}

func TestScanType_SameNameElsewhere(t *testing.T) {
	sentinel.Scan[scannedModel]()

	// Same name and package as the cached type, different constraints.
	type scannedModel struct {
		Name  string `json:"name" validate:"nonempty"`
		Count int    `json:"count"`
	}
	typ := reflect.TypeFor[scannedModel]()

	spec := scanType(typ)
	if _, ok := spec.Fields[0].Tags["json"]; ok {
		t.Errorf("Tags = %v, want direct scan", spec.Fields[0].Tags)
	}
	if spec.Fields[0].Tags[validateTag] != "nonempty" {
		t.Errorf("validate tag = %q, want nonempty", spec.Fields[0].Tags[validateTag])
	}

	_, err := resolve(t, typ).Encode(scannedModel{Name: " "}, Root)
	if err != nil {
		t.Errorf("Encode() error = %v, want blank but non-empty name accepted", err)
	}
}
