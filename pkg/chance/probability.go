package chance

import (
	"math"
)

const (
	impossibleProbability = 0.0
	certainProbability    = 1.0
)

// Probability is a likelihood in [0, 1]
// 0.25 → 25% chance, 1 → certain
type Probability struct {
	value float64
}

// NewProbability validates v and wraps it
func NewProbability(v float64) (Probability, error) {
	if math.IsNaN(v) || v < impossibleProbability || v > certainProbability {
		return Probability{}, &DomainError{Kind: KindProbability, Value: v}
	}
	return Probability{value: v}, nil
}

// ProbabilityFromOdds validates raw odds and converts them
func ProbabilityFromOdds(odds float64) (Probability, error) {
	o, err := NewOdds(odds)
	if err != nil {
		return Probability{}, err
	}
	return o.ToProbability(), nil
}

// ProbabilityFromLogOdds validates raw log-odds and converts them
func ProbabilityFromLogOdds(logOdds float64) (Probability, error) {
	lo, err := NewLogOdds(logOdds)
	if err != nil {
		return Probability{}, err
	}
	return lo.ToProbability(), nil
}

// ImpossibleProbability returns the probability 0
func ImpossibleProbability() Probability {
	return Probability{value: impossibleProbability}
}

// CertainProbability returns the probability 1
func CertainProbability() Probability {
	return Probability{value: certainProbability}
}

func (p Probability) sealed() {}

func (p Probability) Value() float64 { return p.value }

func (p Probability) Kind() Kind { return KindProbability }

// Complement returns the probability of the negated event: 1 - p
func (p Probability) Complement() Probability {
	return Probability{value: 1 - p.value}
}

func (p Probability) IsImpossible() bool { return p.value == impossibleProbability }

func (p Probability) IsCertain() bool { return p.value == certainProbability }

func (p Probability) Match() bool {
	return p.MatchWith(defaultSource)
}

// MatchWith draws u in [0, 1) and reports u < p.
// A source that can return 1.0 would break the certain case.
func (p Probability) MatchWith(src Source) bool {
	return src.Float64() < p.value
}

func (p Probability) ToProbability() Probability { return p }

// ToOdds converts p to p / (1 - p)
func (p Probability) ToOdds() Odds {
	if p.IsCertain() {
		return CertainOdds()
	}
	return Odds{value: p.value / (1 - p.value)}
}

// ToLogOdds converts p to ln(p / (1 - p))
func (p Probability) ToLogOdds() LogOdds {
	return p.ToOdds().ToLogOdds()
}

func (p Probability) CompareTo(other Chance) int {
	return compareValues(p.value, other.ToProbability().value)
}

func (p Probability) Equal(other Chance) bool {
	if other == nil {
		return false
	}
	return p.value == other.ToProbability().value
}

// String renders p as a percentage: 0.5 → "50.0%"
func (p Probability) String() string {
	if p.value == 0 {
		return "0.0%"
	}
	return formatDouble(p.value*100) + "%"
}
