package sieve

import (
	"fmt"
	"sort"
)

// Qualifier declares one constraint on a field.
// Implementations are immutable values; two qualifiers are identical when
// their kind and parameters are equal.
type Qualifier interface {
	Kind() Kind
}

// NonEmpty requires at least one element.
type NonEmpty struct{}

// Kind implements Qualifier.
func (NonEmpty) Kind() Kind { return KindNonEmpty }

// NotBlank requires at least one non-whitespace rune.
type NotBlank struct{}

// Kind implements Qualifier.
func (NotBlank) Kind() Kind { return KindNotBlank }

// AssertTrue requires true.
type AssertTrue struct{}

// Kind implements Qualifier.
func (AssertTrue) Kind() Kind { return KindAssertTrue }

// AssertFalse requires false.
type AssertFalse struct{}

// Kind implements Qualifier.
func (AssertFalse) Kind() Kind { return KindAssertFalse }

// DecimalMax bounds a value from above.
// Value is the literal bound, parsed into the field's width when the codec is built.
type DecimalMax struct {
	Value     string
	Inclusive bool
}

// Kind implements Qualifier.
func (DecimalMax) Kind() Kind { return KindDecimalMax }

// DecimalMin bounds a value from below.
// Value is the literal bound, parsed into the field's width when the codec is built.
type DecimalMin struct {
	Value     string
	Inclusive bool
}

// Kind implements Qualifier.
func (DecimalMin) Kind() Kind { return KindDecimalMin }

// Digits requires exactly Integer digits before the decimal point and
// exactly Fraction digits after it.
type Digits struct {
	Integer  int
	Fraction int
}

// Kind implements Qualifier.
func (Digits) Kind() Kind { return KindDigits }

// QualifierSet holds the unresolved qualifiers of one field.
// A set never grows: factories only remove their own kind with Without.
// The zero value is an empty set.
type QualifierSet struct {
	items map[Kind]Qualifier
}

// NewQualifierSet builds a set from qs. Each kind may appear once.
func NewQualifierSet(qs ...Qualifier) (QualifierSet, error) {
	if len(qs) == 0 {
		return QualifierSet{}, nil
	}
	items := make(map[Kind]Qualifier, len(qs))
	for _, q := range qs {
		if _, dup := items[q.Kind()]; dup {
			return QualifierSet{}, &ConfigError{
				Err:    ErrDuplicateQualifier,
				Kind:   q.Kind(),
				Detail: fmt.Sprintf("%s declared more than once", q.Kind()),
			}
		}
		items[q.Kind()] = q
	}
	return QualifierSet{items: items}, nil
}

// MustQualifierSet is like NewQualifierSet but panics on error.
func MustQualifierSet(qs ...Qualifier) QualifierSet {
	s, err := NewQualifierSet(qs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of qualifiers in the set.
func (s QualifierSet) Len() int {
	return len(s.items)
}

// Has reports whether the set contains kind k.
func (s QualifierSet) Has(k Kind) bool {
	_, ok := s.items[k]
	return ok
}

// Get returns the qualifier of kind k.
func (s QualifierSet) Get(k Kind) (Qualifier, bool) {
	q, ok := s.items[k]
	return q, ok
}

// Without returns a new set lacking kind k. The receiver is unchanged.
func (s QualifierSet) Without(k Kind) QualifierSet {
	if !s.Has(k) {
		return s
	}
	if len(s.items) == 1 {
		return QualifierSet{}
	}
	items := make(map[Kind]Qualifier, len(s.items)-1)
	for kind, q := range s.items {
		if kind != k {
			items[kind] = q
		}
	}
	return QualifierSet{items: items}
}

// Kinds returns the kinds in the set in sorted order.
func (s QualifierSet) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s.items))
	for k := range s.items {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
