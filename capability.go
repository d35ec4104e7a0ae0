package sieve

// Kind identifies a constraint. Use these constants in struct tags:
// `validate:"nonempty,decimalmax=100"`
type Kind string

const (
	// KindNonEmpty requires a string, slice, array or map with at least one element.
	KindNonEmpty Kind = "nonempty"

	// KindNotBlank requires a string containing at least one non-whitespace rune.
	KindNotBlank Kind = "notblank"

	// KindAssertTrue requires a bool equal to true.
	KindAssertTrue Kind = "asserttrue"

	// KindAssertFalse requires a bool equal to false.
	KindAssertFalse Kind = "assertfalse"

	// KindDecimalMax bounds a signed integer from above.
	KindDecimalMax Kind = "decimalmax"

	// KindDecimalMin bounds a signed integer from below.
	KindDecimalMin Kind = "decimalmin"

	// KindDigits requires a float with an exact integer and fraction digit count.
	KindDigits Kind = "digits"
)

// validKinds contains the built-in constraint kinds.
var validKinds = map[Kind]bool{
	KindNonEmpty:    true,
	KindNotBlank:    true,
	KindAssertTrue:  true,
	KindAssertFalse: true,
	KindDecimalMax:  true,
	KindDecimalMin:  true,
	KindDigits:      true,
}

// IsValidKind returns true if k is a built-in constraint kind.
// Custom factories may register kinds outside this set.
func IsValidKind(k Kind) bool {
	return validKinds[k]
}
