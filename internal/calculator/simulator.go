package calculator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// batchSize is the number of trials between cancellation checks.
// Each batch contributes one ratio to the dispersion summary.
const batchSize = 1000

// Simulator runs repeated Bernoulli trials of a chance
type Simulator struct {
	workers       int
	defaultTrials int
	maxTrials     int
	tolerance     float64
}

// NewSimulator creates a new simulator
func NewSimulator(workers, defaultTrials, maxTrials int, tolerance float64) *Simulator {
	return &Simulator{
		workers:       workers,
		defaultTrials: defaultTrials,
		maxTrials:     maxTrials,
		tolerance:     tolerance,
	}
}

type workerResult struct {
	matches int
	ratios  []float64
}

// Run draws req.Trials outcomes split across workers. With a seed, the same
// request on a simulator with the same worker count yields the same counts.
func (s *Simulator) Run(ctx context.Context, req models.SimulationRequest) (*models.SimulationResult, error) {
	c, err := Parse(req.Chance)
	if err != nil {
		return nil, err
	}

	trials := req.Trials
	if trials == 0 {
		trials = s.defaultTrials
	}
	if trials < 0 || trials > s.maxTrials {
		return nil, fmt.Errorf("%w: trials must be between 1 and %d, got %d", ErrInvalidInput, s.maxTrials, trials)
	}

	workers := max(1, min(s.workers, trials))
	results := make([]workerResult, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := trials / workers
		if w < trials%workers {
			share++
		}
		src := newSource(req.Seed, w)

		g.Go(func() error {
			res, err := runTrials(ctx, c, src, share)
			if err != nil {
				return err
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation cancelled: %w", err)
	}

	matches := 0
	ratios := make([]float64, 0, trials/batchSize+workers)
	for _, res := range results {
		matches += res.matches
		ratios = append(ratios, res.ratios...)
	}

	mean, err := stats.Mean(ratios)
	if err != nil {
		return nil, fmt.Errorf("error summarising batches: %w", err)
	}
	stdDev, err := stats.StandardDeviation(ratios)
	if err != nil {
		return nil, fmt.Errorf("error summarising batches: %w", err)
	}

	ratio := float64(matches) / float64(trials)
	expected := c.ToProbability().Value()
	deviation := math.Abs(ratio - expected)

	return &models.SimulationResult{
		ID:              uuid.NewString(),
		Kind:            c.Kind().String(),
		Value:           models.Float(c.Value()),
		Text:            c.String(),
		Trials:          trials,
		Matches:         matches,
		Ratio:           ratio,
		Expected:        expected,
		Deviation:       deviation,
		BatchMean:       mean,
		BatchStdDev:     stdDev,
		Tolerance:       s.tolerance,
		WithinTolerance: deviation <= s.tolerance,
		Seed:            req.Seed,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func runTrials(ctx context.Context, c chance.Chance, src chance.Source, n int) (workerResult, error) {
	res := workerResult{ratios: make([]float64, 0, n/batchSize+1)}

	for done := 0; done < n; {
		if err := ctx.Err(); err != nil {
			return workerResult{}, err
		}

		size := min(batchSize, n-done)
		hits := 0
		for i := 0; i < size; i++ {
			if c.MatchWith(src) {
				hits++
			}
		}

		res.matches += hits
		res.ratios = append(res.ratios, float64(hits)/float64(size))
		done += size
	}
	return res, nil
}

// newSource gives each worker its own PCG stream
func newSource(seed *uint64, worker int) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, uint64(worker)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
