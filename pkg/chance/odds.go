package chance

import (
	"math"
)

const impossibleOdds = 0.0

var certainOdds = math.Inf(1)

// Odds is the ratio of favorable to unfavorable outcomes, in [0, +∞]
// 1 → even (1/1), 4/11 → 4 in favor for 11 against
type Odds struct {
	value float64
}

// NewOdds validates v and wraps it
func NewOdds(v float64) (Odds, error) {
	if math.IsNaN(v) || v < impossibleOdds {
		return Odds{}, &DomainError{Kind: KindOdds, Value: v}
	}
	return Odds{value: v}, nil
}

// ImpossibleOdds returns the odds 0
func ImpossibleOdds() Odds {
	return Odds{value: impossibleOdds}
}

// CertainOdds returns the odds +∞
func CertainOdds() Odds {
	return Odds{value: certainOdds}
}

func (o Odds) sealed() {}

func (o Odds) Value() float64 { return o.value }

func (o Odds) Kind() Kind { return KindOdds }

// Complement returns the odds of the negated event: 1 / o
func (o Odds) Complement() Odds {
	if o.IsImpossible() {
		return CertainOdds()
	}
	return Odds{value: 1 / o.value}
}

func (o Odds) IsImpossible() bool { return o.value == impossibleOdds }

func (o Odds) IsCertain() bool { return o.value == certainOdds }

func (o Odds) Match() bool {
	return o.MatchWith(defaultSource)
}

// MatchWith compares u*(o+1) < o, which is u < o/(o+1) without the division
func (o Odds) MatchWith(src Source) bool {
	if o.IsCertain() {
		return true
	}
	return src.Float64()*(o.value+1) < o.value
}

// ToProbability converts o to o / (o + 1)
func (o Odds) ToProbability() Probability {
	if o.IsCertain() {
		return CertainProbability()
	}
	return Probability{value: o.value / (o.value + 1)}
}

func (o Odds) ToOdds() Odds { return o }

// ToLogOdds converts o to ln(o); 0 maps to -∞ and +∞ to +∞
func (o Odds) ToLogOdds() LogOdds {
	return LogOdds{value: math.Log(o.value)}
}

func (o Odds) CompareTo(other Chance) int {
	return compareValues(o.value, other.ToOdds().value)
}

func (o Odds) Equal(other Chance) bool {
	if other == nil {
		return false
	}
	return o.value == other.ToOdds().value
}

// Fraction returns the odds as a reduced integer fraction.
// 0 is 0/1 and +∞ is 1/0.
func (o Odds) Fraction() Rational {
	switch {
	case o.IsImpossible():
		return Rational{Num: 0, Denom: 1}
	case o.IsCertain():
		return Rational{Num: 1, Denom: 0}
	}
	return Approximate(o.value, DefaultDecimalDigits).Reduce()
}

// String renders o as "num/denom": 2.6 → "13/5"
func (o Odds) String() string {
	return o.Fraction().String()
}
