package json

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/sieve"
)

type reading struct {
	Sensor string  `json:"sensor" validate:"notblank"`
	Level  int64   `json:"level" validate:"decimalmax=100"`
	Ratio  float64 `json:"ratio" validate:"digits=1:1"`
}

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/json")
	}
}

func TestStructTag(t *testing.T) {
	c, ok := New().(sieve.Tagger)
	if !ok {
		t.Fatal("codec should implement sieve.Tagger")
	}
	if c.StructTag() != "json" {
		t.Errorf("StructTag() = %q, want %q", c.StructTag(), "json")
	}
}

func TestUnmarshal_KeepsNumberLiterals(t *testing.T) {
	c := New()

	var tree any
	if err := c.Unmarshal([]byte(`{"id": 9007199254740993}`), &tree); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	m, ok := tree.(map[string]any)
	if !ok {
		t.Fatalf("Unmarshal() = %T, want map[string]any", tree)
	}
	n, ok := m["id"].(interface{ String() string })
	if !ok {
		t.Fatalf("id = %T, want a number literal", m["id"])
	}
	if n.String() != "9007199254740993" {
		t.Errorf("id = %s, want 9007199254740993", n.String())
	}
}

func TestMarshalNil(t *testing.T) {
	c := New()

	data, err := c.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil) error: %v", err)
	}

	if string(data) != "null" {
		t.Errorf("Marshal(nil) = %q, want %q", data, "null")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v any
	err := c.Unmarshal([]byte("invalid json"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}

func TestProcessor_RoundTrip(t *testing.T) {
	proc, err := sieve.NewProcessor[reading](New())
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	in := reading{Sensor: "boiler", Level: 100, Ratio: 9.1}
	data, err := proc.Encode(context.Background(), &in)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	out, err := proc.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if *out != in {
		t.Errorf("round-trip = %+v, want %+v", *out, in)
	}
}

func TestProcessor_Violation(t *testing.T) {
	proc, err := sieve.NewProcessor[reading](New())
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	_, err = proc.Decode(context.Background(), []byte(`{"sensor":"boiler","level":101,"ratio":9.1}`))
	if !errors.Is(err, sieve.ErrConstraintViolation) {
		t.Fatalf("Decode() error = %v, want constraint violation", err)
	}
	want := "invalid value at $.level: must be less than or equal to 100, found 101"
	if err.Error() != want {
		t.Errorf("Decode() error = %q, want %q", err.Error(), want)
	}
}
