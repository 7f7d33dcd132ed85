// Package chance models the likelihood of a single event in three
// interconvertible representations: Probability in [0, 1], Odds in [0, +∞]
// and LogOdds in [-∞, +∞].
//
// Values are immutable and validated at construction. Conversions,
// comparisons and rendering are total over each variant's domain.
package chance

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Kind identifies one of the three representations
type Kind int

const (
	KindProbability Kind = iota + 1
	KindOdds
	KindLogOdds
)

// String returns the wire name of the kind
func (k Kind) String() string {
	switch k {
	case KindProbability:
		return "probability"
	case KindOdds:
		return "odds"
	case KindLogOdds:
		return "log_odds"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind resolves a wire name into a Kind.
// Accepts "probability", "odds", "log_odds", "logodds" or "log-odds", case-insensitive.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "probability":
		return KindProbability, nil
	case "odds":
		return KindOdds, nil
	case "log_odds", "logodds", "log-odds":
		return KindLogOdds, nil
	default:
		return 0, fmt.Errorf("unknown chance kind: %q", name)
	}
}

// Chance is implemented by Probability, Odds and LogOdds only.
type Chance interface {
	// Value returns the raw stored number
	Value() float64
	Kind() Kind

	// IsImpossible reports whether the value is the lowest of its domain
	IsImpossible() bool
	// IsCertain reports whether the value is the highest of its domain
	IsCertain() bool

	// Match returns true at random, as often as the held chance.
	// Not cryptographically secure.
	Match() bool
	// MatchWith is Match drawing from src instead of the shared generator
	MatchWith(src Source) bool

	ToProbability() Probability
	ToOdds() Odds
	ToLogOdds() LogOdds

	// CompareTo orders chances from least to most probable, after
	// converting other into the receiver's representation.
	CompareTo(other Chance) int
	// Equal compares after converting other into the receiver's representation
	Equal(other Chance) bool

	String() string

	sealed()
}

// Source yields uniform samples in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// sharedSource draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use and never returns 1.0.
type sharedSource struct{}

func (sharedSource) Float64() float64 { return rand.Float64() }

var defaultSource Source = sharedSource{}

// New builds the representation named by kind from a raw value
func New(kind Kind, value float64) (Chance, error) {
	switch kind {
	case KindProbability:
		return NewProbability(value)
	case KindOdds:
		return NewOdds(value)
	case KindLogOdds:
		return NewLogOdds(value)
	default:
		return nil, fmt.Errorf("unknown chance kind: %v", kind)
	}
}

// Complement returns the chance of the negated event, in the same
// representation as c.
func Complement(c Chance) Chance {
	switch v := c.(type) {
	case Probability:
		return v.Complement()
	case Odds:
		return v.Complement()
	case LogOdds:
		return v.Complement()
	default:
		panic(fmt.Sprintf("chance: unexpected implementation %T", c))
	}
}

// Convert returns c in the representation named by kind
func Convert(c Chance, kind Kind) Chance {
	switch kind {
	case KindProbability:
		return c.ToProbability()
	case KindOdds:
		return c.ToOdds()
	case KindLogOdds:
		return c.ToLogOdds()
	default:
		panic(fmt.Sprintf("chance: unexpected kind %v", kind))
	}
}

// Predicate adapts c into a filter function that ignores its argument
func Predicate[T any](c Chance) func(T) bool {
	return func(T) bool {
		return c.Match()
	}
}

// Filter keeps each item independently with the chance held by c
func Filter[T any](c Chance, items []T) []T {
	keep := Predicate[T](c)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func compareValues(a, b float64) int {
	return cmp.Compare(a, b)
}
