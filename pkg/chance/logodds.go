package chance

import (
	"math"
)

var (
	impossibleLogOdds = math.Inf(-1)
	certainLogOdds    = math.Inf(1)
)

// LogOdds is the natural logarithm of Odds, in [-∞, +∞]
// 0 → even chance
type LogOdds struct {
	value float64
}

// NewLogOdds rejects NaN only; every other float64 is in range
func NewLogOdds(v float64) (LogOdds, error) {
	if math.IsNaN(v) {
		return LogOdds{}, &DomainError{Kind: KindLogOdds, Value: v}
	}
	return LogOdds{value: v}, nil
}

// ImpossibleLogOdds returns the log-odds -∞
func ImpossibleLogOdds() LogOdds {
	return LogOdds{value: impossibleLogOdds}
}

// CertainLogOdds returns the log-odds +∞
func CertainLogOdds() LogOdds {
	return LogOdds{value: certainLogOdds}
}

func (l LogOdds) sealed() {}

func (l LogOdds) Value() float64 { return l.value }

func (l LogOdds) Kind() Kind { return KindLogOdds }

// Complement returns the log-odds of the negated event: -l.
// The complement of 0 is -0, which compares and renders as 0.
func (l LogOdds) Complement() LogOdds {
	return LogOdds{value: -l.value}
}

func (l LogOdds) IsImpossible() bool { return l.value == impossibleLogOdds }

func (l LogOdds) IsCertain() bool { return l.value == certainLogOdds }

func (l LogOdds) Match() bool {
	return l.MatchWith(defaultSource)
}

// MatchWith compares u*(e^l+1) < e^l.
// Above l ≈ 36.7 e^l+1 rounds to e^l and every u < 1 matches; above
// l ≈ 709.78 e^l overflows, where the implied probability is 1.0 in
// float64, so it matches as well.
func (l LogOdds) MatchWith(src Source) bool {
	if l.IsCertain() {
		return true
	}
	odds := math.Exp(l.value)
	if math.IsInf(odds, 1) {
		return true
	}
	return src.Float64()*(odds+1) < odds
}

func (l LogOdds) ToProbability() Probability {
	return l.ToOdds().ToProbability()
}

// ToOdds converts l to e^l
func (l LogOdds) ToOdds() Odds {
	return Odds{value: math.Exp(l.value)}
}

func (l LogOdds) ToLogOdds() LogOdds { return l }

func (l LogOdds) CompareTo(other Chance) int {
	return compareValues(l.value, other.ToLogOdds().value)
}

func (l LogOdds) Equal(other Chance) bool {
	if other == nil {
		return false
	}
	return l.value == other.ToLogOdds().value
}

// String renders "-∞", "+∞", "0.0" for either zero, "+v" when positive
// and the plain decimal otherwise.
func (l LogOdds) String() string {
	switch {
	case l.IsCertain():
		return "+∞"
	case l.IsImpossible():
		return "-∞"
	case l.value == 0:
		return "0.0"
	case l.value > 0:
		return "+" + formatDouble(l.value)
	default:
		return formatDouble(l.value)
	}
}
