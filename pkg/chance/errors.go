package chance

import (
	"errors"
	"fmt"
)

// ErrOutOfDomain matches every DomainError through errors.Is
var ErrOutOfDomain = errors.New("chance: value out of domain")

// DomainError is returned by constructors given NaN or a value outside the
// variant's closed range.
type DomainError struct {
	Kind  Kind
	Value float64
}

func (e *DomainError) Error() string {
	low, high := e.Kind.bounds()
	return fmt.Sprintf("%s must be valid numbers between %s and %s included (input was %s)",
		e.Kind.noun(), low, high, formatDouble(e.Value))
}

// Is reports ErrOutOfDomain as a match
func (e *DomainError) Is(target error) bool {
	return target == ErrOutOfDomain
}

func (k Kind) noun() string {
	switch k {
	case KindProbability:
		return "Probabilities"
	case KindOdds:
		return "Odds"
	case KindLogOdds:
		return "Logarithmic odds"
	default:
		return k.String()
	}
}

func (k Kind) bounds() (low, high string) {
	switch k {
	case KindProbability:
		return "0", "1"
	case KindOdds:
		return "0", "+∞"
	default:
		return "-∞", "+∞"
	}
}
