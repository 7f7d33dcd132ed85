package chance

import (
	"fmt"
	"math"
)

// DefaultDecimalDigits is the precision used when rendering Odds as a fraction
const DefaultDecimalDigits = 8

// maxDecimalDigits keeps every multiplier within int64
const maxDecimalDigits = 17

// Rational is an integer fraction Num/Denom
type Rational struct {
	Num   int64
	Denom int64
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Denom)
}

// Float64 returns Num/Denom; a zero denominator yields ±Inf (or NaN for 0/0)
func (r Rational) Float64() float64 {
	return float64(r.Num) / float64(r.Denom)
}

// Reduce divides both terms by their greatest common divisor until it is 1.
// The sign stays on the numerator.
func (r Rational) Reduce() Rational {
	num, denom := r.Num, r.Denom
	negative := num < 0
	if negative {
		if num == math.MinInt64 {
			num = math.MaxInt64
		} else {
			num = -num
		}
	}
	if denom < 0 {
		negative = !negative
		denom = -denom
	}

	for {
		d := gcd(num, denom)
		if d <= 1 {
			break
		}
		num /= d
		denom /= d
	}

	if negative {
		num = -num
	}
	return Rational{Num: num, Denom: denom}
}

// Approximate finds a short fraction for x.
//
// It tries denominators of the form first-second, where first and second are
// powers of ten (second < first, second ≤ 10^(digits-1), first up to
// 10^(digits+1)), in increasing order, and stops at the first pair for
// which x*first - x*second lies within 10^-(digits+1) above an integer t,
// giving t/(first-second). Repeating decimals such as 0.363636… are found
// this way (360/990). Whole numbers below 2^63 come back as x/1. Without a
// hit it returns round(x*10^digits)/10^digits.
//
// The result is not reduced. digits must be in [1, 17].
func Approximate(x float64, digits int) Rational {
	if digits < 1 || digits > maxDecimalDigits {
		panic(fmt.Sprintf("chance: decimal digits out of range [1, %d]: %d", maxDecimalDigits, digits))
	}

	sign := int64(1)
	if x < 0 {
		x = -x
		sign = -1
	}

	secondMax := pow10(digits - 1)
	firstMax := secondMax * 10
	tolerance := math.Pow(10, float64(-digits-1))

	first, second := int64(1), int64(1)
	found := false
	truncated := truncate(x)
	residue := x - float64(truncated)
	if residue == 0 && x < math.MaxInt64 {
		return Rational{Num: sign * truncated, Denom: 1}
	}

	for residue >= tolerance && first <= firstMax {
		second = 1
		first *= 10
		for second <= secondMax && second < first {
			// explicit conversions keep each product rounded (no fused multiply-add)
			diff := float64(x*float64(first)) - float64(x*float64(second))
			truncated = truncate(diff)
			residue = diff - float64(truncated)
			if residue < tolerance {
				found = true
				break
			}
			second *= 10
		}
	}

	if found {
		return Rational{Num: sign * truncated, Denom: first - second}
	}
	return Rational{Num: sign * truncate(math.Round(x*float64(firstMax))), Denom: firstMax}
}

// gcd is Euclid's algorithm on non-negative integers.
// Negative input is a caller bug.
func gcd(a, b int64) int64 {
	if a < 0 || b < 0 {
		panic(fmt.Sprintf("chance: cannot compute greatest common divisor of negative numbers (input of %d and %d)", a, b))
	}
	if a < b {
		return gcd(b, a)
	}
	if b == 0 {
		return a
	}
	return gcd(b, a%b)
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// truncate converts toward zero, saturating at the int64 bounds; NaN is 0
func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
