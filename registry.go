package sieve

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Registry is an ordered, immutable list of factories.
//
// Factories are consulted in registration order, so when a field carries
// several qualifiers the first registered kind wraps all others. The order is
// part of the registry's contract, not of the field declaration.
type Registry struct {
	factories []Factory
	byKind    map[Kind]Factory
}

// NewRegistry builds a registry consulting factories in the given order.
// Each kind may be registered once.
func NewRegistry(factories ...Factory) (*Registry, error) {
	r := &Registry{
		factories: make([]Factory, 0, len(factories)),
		byKind:    make(map[Kind]Factory, len(factories)),
	}
	for _, f := range factories {
		if _, dup := r.byKind[f.Kind()]; dup {
			return nil, &ConfigError{
				Err:    ErrDuplicateQualifier,
				Kind:   f.Kind(),
				Detail: fmt.Sprintf("factory for %s registered more than once", f.Kind()),
			}
		}
		r.factories = append(r.factories, f)
		r.byKind[f.Kind()] = f
	}
	return r, nil
}

var defaultRegistry = mustRegistry(Builtin()...)

func mustRegistry(factories ...Factory) *Registry {
	r, err := NewRegistry(factories...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the process-wide registry of built-in factories.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Kinds returns the registered kinds in consultation order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, len(r.factories))
	for i, f := range r.factories {
		kinds[i] = f.Kind()
	}
	return kinds
}

// Create asks each factory in order to build a codec for typ and quals.
// It returns a nil codec when no factory claims any qualifier in quals.
func (r *Registry) Create(typ reflect.Type, quals QualifierSet, res Resolver) (FieldCodec, error) {
	if quals.Len() == 0 {
		return nil, nil
	}
	for _, f := range r.factories {
		c, err := f.Create(typ, quals, res)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// Parse reads a validate tag such as "nonempty,decimalmax=100:exclusive".
// Entries are comma separated; arguments follow "=".
func (r *Registry) Parse(tag string) (QualifierSet, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return QualifierSet{}, nil
	}

	entries := strings.Split(tag, ",")
	qs := make([]Qualifier, 0, len(entries))
	for _, entry := range entries {
		name, arg, _ := strings.Cut(strings.TrimSpace(entry), "=")
		kind := Kind(strings.ToLower(strings.TrimSpace(name)))
		f, ok := r.byKind[kind]
		if !ok {
			return QualifierSet{}, &ConfigError{
				Err:    ErrInvalidTag,
				Detail: fmt.Sprintf("unknown constraint %q", name),
			}
		}
		q, err := f.Parse(strings.TrimSpace(arg))
		if err != nil {
			return QualifierSet{}, err
		}
		qs = append(qs, q)
	}
	return NewQualifierSet(qs...)
}

// registryKey combines type, codec and factory registry for cache lookup.
type registryKey struct {
	typ         reflect.Type
	contentType string
	factories   *Registry
}

var (
	registry   = make(map[registryKey]any)
	registryMu sync.RWMutex
)

// Use returns a cached processor or builds a new one.
// Processors are cached by type, codec content type and the registry they
// are built against.
func Use[T any](codec Codec, opts ...ProcessorOption) (*Processor[T], error) {
	cfg := newProcessorConfig(opts)
	typ := reflect.TypeFor[T]()
	key := registryKey{typ: typ, contentType: codec.ContentType(), factories: cfg.registry}

	// Fast path: read-lock cache check
	registryMu.RLock()
	if cached, ok := registry[key]; ok {
		registryMu.RUnlock()
		return cached.(*Processor[T]), nil
	}
	registryMu.RUnlock()

	// Slow path: build and cache with write-lock
	registryMu.Lock()
	defer registryMu.Unlock()

	// Double-check pattern
	if cached, ok := registry[key]; ok {
		return cached.(*Processor[T]), nil
	}

	processor, err := NewProcessor[T](codec, opts...)
	if err != nil {
		return nil, err
	}

	registry[key] = processor
	return processor, nil
}

// Reset clears the processor cache.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[registryKey]any)
}
