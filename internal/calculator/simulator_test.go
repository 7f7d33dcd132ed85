package calculator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

func newTestSimulator() *Simulator {
	return NewSimulator(4, 100_000, 1_000_000, 0.01)
}

func TestSimulator_RatioNearExpected(t *testing.T) {
	res, err := newTestSimulator().Run(context.Background(), models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "probability", Value: 0.25},
	})
	require.NoError(t, err)

	assert.Equal(t, 100_000, res.Trials)
	assert.Equal(t, 0.25, res.Expected)
	assert.InDelta(t, 0.25, res.Ratio, 0.01)
	assert.True(t, res.WithinTolerance)
	assert.InDelta(t, res.Ratio, res.BatchMean, 1e-9)
	assert.Greater(t, res.BatchStdDev, 0.0)
	assert.Equal(t, "probability", res.Kind)
	assert.Equal(t, "25.0%", res.Text)

	_, err = uuid.Parse(res.ID)
	assert.NoError(t, err)
}

func TestSimulator_OddsAndLogOdds(t *testing.T) {
	sim := newTestSimulator()

	for _, in := range []models.ChanceInput{
		{Kind: "odds", Value: 3},
		{Kind: "log_odds", Value: -1.5},
	} {
		t.Run(in.Kind, func(t *testing.T) {
			res, err := sim.Run(context.Background(), models.SimulationRequest{Chance: in})
			require.NoError(t, err)
			assert.InDelta(t, res.Expected, res.Ratio, 0.01)
		})
	}
}

func TestSimulator_Sentinels(t *testing.T) {
	sim := newTestSimulator()

	res, err := sim.Run(context.Background(), models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "odds", Value: 0},
		Trials: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matches)
	assert.Equal(t, 0.0, res.BatchStdDev)

	res, err = sim.Run(context.Background(), models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "probability", Value: 1},
		Trials: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 5000, res.Matches)
	assert.Equal(t, 1.0, res.Ratio)
}

func TestSimulator_SeedReplays(t *testing.T) {
	sim := newTestSimulator()
	seed := uint64(42)
	req := models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "probability", Value: 0.5},
		Trials: 20_001,
		Seed:   &seed,
	}

	first, err := sim.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := sim.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.BatchStdDev, second.BatchStdDev)
	assert.NotEqual(t, first.ID, second.ID)
	require.NotNil(t, first.Seed)
	assert.Equal(t, seed, *first.Seed)
}

func TestSimulator_FewerTrialsThanWorkers(t *testing.T) {
	res, err := NewSimulator(8, 10, 100, 0.5).Run(context.Background(), models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "probability", Value: 1},
		Trials: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Matches)
}

func TestSimulator_Validation(t *testing.T) {
	sim := newTestSimulator()

	tests := []struct {
		name   string
		req    models.SimulationRequest
		target error
	}{
		{"negative trials", models.SimulationRequest{Chance: models.ChanceInput{Kind: "odds", Value: 1}, Trials: -1}, ErrInvalidInput},
		{"too many trials", models.SimulationRequest{Chance: models.ChanceInput{Kind: "odds", Value: 1}, Trials: 1_000_001}, ErrInvalidInput},
		{"unknown kind", models.SimulationRequest{Chance: models.ChanceInput{Kind: "coin", Value: 1}}, ErrInvalidInput},
		{"out of domain", models.SimulationRequest{Chance: models.ChanceInput{Kind: "probability", Value: 2}}, chance.ErrOutOfDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSimulator().Run(ctx, models.SimulationRequest{
		Chance: models.ChanceInput{Kind: "probability", Value: 0.5},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
