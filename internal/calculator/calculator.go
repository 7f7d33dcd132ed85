package calculator

import (
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// ErrInvalidInput marks requests that are malformed rather than out of domain
var ErrInvalidInput = errors.New("invalid input")

// Parse validates a wire input into a chance
func Parse(in models.ChanceInput) (chance.Chance, error) {
	kind, err := chance.ParseKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c, err := chance.New(kind, float64(in.Value))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// View renders a chance for clients
func View(c chance.Chance) models.ChanceView {
	return models.ChanceView{
		Kind:       c.Kind().String(),
		Value:      models.Float(c.Value()),
		Text:       c.String(),
		Impossible: c.IsImpossible(),
		Certain:    c.IsCertain(),
	}
}

// Convert returns the input in every representation plus its complement
func Convert(in models.ChanceInput) (*models.ConversionResponse, error) {
	c, err := Parse(in)
	if err != nil {
		return nil, err
	}

	return &models.ConversionResponse{
		Input:       View(c),
		Probability: View(c.ToProbability()),
		Odds:        View(c.ToOdds()),
		LogOdds:     View(c.ToLogOdds()),
		Complement:  View(chance.Complement(c)),
	}, nil
}

// Complement returns the chance of the negated event in the input's representation
func Complement(in models.ChanceInput) (*models.ChanceView, error) {
	c, err := Parse(in)
	if err != nil {
		return nil, err
	}

	view := View(chance.Complement(c))
	return &view, nil
}

// Compare orders left against right, from least to most probable
func Compare(req models.CompareRequest) (*models.CompareResponse, error) {
	left, err := Parse(req.Left)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	right, err := Parse(req.Right)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}

	result := left.CompareTo(right)
	return &models.CompareResponse{
		Left:     View(left),
		Right:    View(right),
		Result:   result,
		Relation: relation(result),
		Equal:    left.Equal(right),
	}, nil
}

func relation(result int) string {
	switch {
	case result < 0:
		return "less"
	case result > 0:
		return "greater"
	default:
		return "equal"
	}
}
