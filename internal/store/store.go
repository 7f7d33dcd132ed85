package store

import (
	"context"
	"errors"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// ErrNotFound is returned by Get for unknown IDs
var ErrNotFound = errors.New("simulation not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// SimulationStore defines the interface for simulation history
type SimulationStore interface {
	Ping(ctx context.Context) error
	Save(ctx context.Context, result *models.SimulationResult) error
	Get(ctx context.Context, id string) (*models.SimulationResult, error)
	// List returns the most recent results first
	List(ctx context.Context, limit int) ([]*models.SimulationResult, error)
}

// NormalizeLimit clamps a requested page size into [1, MaxListLimit]
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
