package sieve

import (
	"math"
	"strconv"
	"strings"
)

// Thresholds between plain and scientific rendering of a float.
const (
	plainLow  = 1e-3
	plainHigh = 1e7
)

// decimal is the shortest decimal form of a float that round-trips at its width.
// The value is 0.d1d2...dn × 10^(exp+1), i.e. d1.d2...dn × 10^exp.
type decimal struct {
	neg    bool
	digits string
	exp    int
	plain  bool
}

// decimalOf decomposes a finite f, formatted at bits precision (32 or 64).
func decimalOf(f float64, bits int) decimal {
	d := decimal{neg: math.Signbit(f)}
	abs := math.Abs(f)
	if abs == 0 {
		d.digits = "0"
		d.plain = true
		return d
	}

	s := strconv.FormatFloat(abs, 'e', -1, bits)
	mantissa, exponent, _ := strings.Cut(s, "e")
	d.digits = strings.Replace(mantissa, ".", "", 1)
	d.exp, _ = strconv.Atoi(exponent)

	// Compare at the formatting width so float32 values near a threshold
	// are classified by the digits they print with.
	shortest, _ := strconv.ParseFloat(s, 64)
	d.plain = shortest >= plainLow && shortest < plainHigh
	return d
}

func (d decimal) isZero() bool {
	return d.digits == "0"
}

// mantissa returns the printed significand digits; scientific form always
// shows at least one digit after the point.
func (d decimal) mantissa() string {
	if !d.plain && len(d.digits) == 1 {
		return d.digits + "0"
	}
	return d.digits
}

// IntegerDigits counts digits before the decimal point, ignoring leading zeros.
// Values below one have zero integer digits however many zeros follow the
// point, so 0.05 counts as 0, never -1.
func (d decimal) IntegerDigits() int {
	if d.isZero() {
		return 0
	}
	return max(d.exp+1, 0)
}

// FractionDigits counts digits after the decimal point as printed.
// A negative scale, as in 1.0E10, counts as zero.
func (d decimal) FractionDigits() int {
	if d.isZero() {
		return 1
	}
	if d.plain {
		return max(len(d.digits)-1-d.exp, 1)
	}
	return max(len(d.mantissa())-1-d.exp, 0)
}

func (d decimal) String() string {
	var b strings.Builder
	if d.neg {
		b.WriteByte('-')
	}
	switch {
	case d.isZero():
		b.WriteString("0.0")
	case !d.plain:
		m := d.mantissa()
		b.WriteString(m[:1])
		b.WriteByte('.')
		b.WriteString(m[1:])
		b.WriteByte('E')
		b.WriteString(strconv.Itoa(d.exp))
	case d.exp < 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -d.exp-1))
		b.WriteString(d.digits)
	default:
		whole := d.exp + 1
		if len(d.digits) <= whole {
			b.WriteString(d.digits)
			b.WriteString(strings.Repeat("0", whole-len(d.digits)))
			b.WriteString(".0")
		} else {
			b.WriteString(d.digits[:whole])
			b.WriteByte('.')
			b.WriteString(d.digits[whole:])
		}
	}
	return b.String()
}
