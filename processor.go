package sieve

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zoobzio/sentinel"
)

// Processor decodes and encodes values of type T through a validating codec chain.
//
// The chain is built once, when the processor is created, so every
// configuration error surfaces from NewProcessor. Processors are immutable
// and safe for concurrent use.
type Processor[T any] struct {
	codec    Codec
	model    FieldCodec
	registry *Registry
	typeName string
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

type processorConfig struct {
	registry *Registry
}

func newProcessorConfig(opts []ProcessorOption) processorConfig {
	cfg := processorConfig{registry: DefaultRegistry()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithRegistry builds the processor against r instead of DefaultRegistry.
func WithRegistry(r *Registry) ProcessorOption {
	return func(c *processorConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// NewProcessor creates a new Processor for type T.
func NewProcessor[T any](codec Codec, opts ...ProcessorOption) (*Processor[T], error) {
	cfg := newProcessorConfig(opts)

	typ := reflect.TypeFor[T]()
	typeName := typ.String()
	if typ.Kind() == reflect.Struct {
		// Prime sentinel so nested lookups hit its cache
		spec := sentinel.Scan[T]()
		if spec.TypeName != "" {
			typeName = spec.TypeName
		}
	}

	model, err := newEngine(cfg.registry, codec).Resolve(typ, QualifierSet{})
	if err != nil {
		return nil, err
	}

	p := &Processor[T]{
		codec:    codec,
		model:    model,
		registry: cfg.registry,
		typeName: typeName,
	}

	emitProcessorCreated(context.Background(), codec.ContentType(), typeName)
	return p, nil
}

// Decode unmarshals data and validates every qualified field.
// Constraint violations are returned as *ConstraintViolation.
func (p *Processor[T]) Decode(ctx context.Context, data []byte) (*T, error) {
	start := time.Now()
	emitDecodeStart(ctx, p.codec.ContentType(), p.typeName, len(data))

	var retErr error
	defer func() {
		emitDecodeComplete(ctx, p.codec.ContentType(), p.typeName, time.Since(start), retErr)
	}()

	var tree any
	if err := p.codec.Unmarshal(data, &tree); err != nil {
		retErr = newCodecError(ErrUnmarshal, err)
		return nil, retErr
	}

	v, err := p.model.Decode(tree, Root)
	if err != nil {
		p.reportViolation(ctx, err)
		retErr = err
		return nil, retErr
	}

	var obj T
	if err := assign(reflect.ValueOf(&obj).Elem(), v, Root); err != nil {
		retErr = err
		return nil, retErr
	}
	return &obj, nil
}

// Encode validates every qualified field of obj and marshals it.
// A nil obj encodes as the wire null.
func (p *Processor[T]) Encode(ctx context.Context, obj *T) ([]byte, error) {
	start := time.Now()
	emitEncodeStart(ctx, p.codec.ContentType(), p.typeName)

	var retErr error
	var retData []byte
	defer func() {
		emitEncodeComplete(ctx, p.codec.ContentType(), p.typeName,
			len(retData), time.Since(start), retErr)
	}()

	var tree any
	if obj != nil {
		var err error
		if tree, err = p.model.Encode(*obj, Root); err != nil {
			p.reportViolation(ctx, err)
			retErr = err
			return nil, retErr
		}
	}

	data, err := p.codec.Marshal(tree)
	if err != nil {
		retErr = newCodecError(ErrMarshal, err)
		return nil, retErr
	}
	retData = data
	return retData, nil
}

// Validate runs the encode-side checks on obj without marshaling it.
func (p *Processor[T]) Validate(obj *T) error {
	if obj == nil {
		return nil
	}
	_, err := p.model.Encode(*obj, Root)
	return err
}

// Describe returns the codec chain of each field, one per line, for diagnostics.
func (p *Processor[T]) Describe() string {
	sc, ok := p.model.(*structCodec)
	if !ok {
		return p.model.String()
	}
	var b strings.Builder
	b.WriteString(p.typeName)
	for _, f := range sc.fields {
		fmt.Fprintf(&b, "\n  %s (%s): %s", f.name, f.wire, f.codec)
	}
	return b.String()
}

// Registry returns the registry the processor was built against.
func (p *Processor[T]) Registry() *Registry {
	return p.registry
}

func (p *Processor[T]) reportViolation(ctx context.Context, err error) {
	if v, ok := IsViolation(err); ok {
		emitConstraintViolated(ctx, p.codec.ContentType(), p.typeName, v)
	}
}
