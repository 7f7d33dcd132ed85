package chance_test

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  chance.Kind
	}{
		{"probability", chance.KindProbability},
		{"Probability", chance.KindProbability},
		{"odds", chance.KindOdds},
		{"log_odds", chance.KindLogOdds},
		{"logodds", chance.KindLogOdds},
		{" log-odds ", chance.KindLogOdds},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := chance.ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := chance.ParseKind("percent")
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "probability", chance.KindProbability.String())
	assert.Equal(t, "odds", chance.KindOdds.String())
	assert.Equal(t, "log_odds", chance.KindLogOdds.String())
	assert.Equal(t, "Kind(9)", chance.Kind(9).String())
}

func TestNew(t *testing.T) {
	c, err := chance.New(chance.KindOdds, 1)
	require.NoError(t, err)
	assert.IsType(t, chance.Odds{}, c)

	_, err = chance.New(chance.KindProbability, 2)
	assert.ErrorIs(t, err, chance.ErrOutOfDomain)

	_, err = chance.New(chance.Kind(0), 0.5)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, chance.ErrOutOfDomain)
}

func TestComplement_Involution(t *testing.T) {
	values := []chance.Chance{
		chance.ImpossibleProbability(),
		mustProbability(t, 0.5),
		chance.CertainProbability(),
		chance.ImpossibleOdds(),
		mustOdds(t, 1),
		chance.CertainOdds(),
		chance.ImpossibleLogOdds(),
		mustLogOdds(t, 0),
		chance.CertainLogOdds(),
	}

	for _, c := range values {
		t.Run(c.Kind().String()+" "+c.String(), func(t *testing.T) {
			twice := chance.Complement(chance.Complement(c))
			assert.Equal(t, c.Kind(), twice.Kind())
			assert.True(t, c.Value() == twice.Value(), "%v != %v", c.Value(), twice.Value())
		})
	}
}

func TestComplement_AgreesAcrossRepresentations(t *testing.T) {
	p := mustProbability(t, 0.2)

	assert.InDelta(t, 0.8, p.ToOdds().Complement().ToProbability().Value(), 1e-12)
	assert.InDelta(t, 0.8, p.ToLogOdds().Complement().ToProbability().Value(), 1e-12)
}

func TestConvert(t *testing.T) {
	even := mustOdds(t, 1)

	assert.Equal(t, 0.5, chance.Convert(even, chance.KindProbability).Value())
	assert.Equal(t, 1.0, chance.Convert(even, chance.KindOdds).Value())
	assert.Equal(t, 0.0, chance.Convert(even, chance.KindLogOdds).Value())
}

func TestSentinelsRoundTripExactly(t *testing.T) {
	for _, c := range []chance.Chance{
		chance.ImpossibleProbability(), chance.CertainProbability(),
		chance.ImpossibleOdds(), chance.CertainOdds(),
		chance.ImpossibleLogOdds(), chance.CertainLogOdds(),
	} {
		back := chance.Convert(c.ToProbability().ToOdds().ToLogOdds(), c.Kind())
		assert.Equal(t, c.Value(), back.Value(), "%s %s", c.Kind(), c)
		assert.Equal(t, c.IsImpossible(), back.IsImpossible())
		assert.Equal(t, c.IsCertain(), back.IsCertain())
	}
}

func TestEqual_AcrossRepresentations(t *testing.T) {
	half := mustProbability(t, 0.5)

	assert.True(t, half.Equal(mustOdds(t, 1)))
	assert.False(t, half.Equal(mustOdds(t, 1+epsilon)))
	assert.True(t, half.Equal(mustLogOdds(t, 0)))
	assert.True(t, mustOdds(t, 1).Equal(half))
	assert.True(t, mustLogOdds(t, 0).Equal(half))
	assert.True(t, chance.CertainOdds().Equal(chance.CertainProbability()))
	assert.True(t, chance.ImpossibleLogOdds().Equal(chance.ImpossibleOdds()))
}

func TestCompareTo_OrdersLeastToMostProbable(t *testing.T) {
	ordered := []chance.Chance{
		chance.ImpossibleLogOdds(),
		mustProbability(t, 0.1),
		mustOdds(t, 1),
		mustLogOdds(t, 2),
		mustProbability(t, 0.99),
		chance.CertainOdds(),
	}

	for i := 1; i < len(ordered); i++ {
		assert.Negative(t, ordered[i-1].CompareTo(ordered[i]), "%s < %s", ordered[i-1], ordered[i])
		assert.Positive(t, ordered[i].CompareTo(ordered[i-1]), "%s > %s", ordered[i], ordered[i-1])
	}
}

// The Odds and LogOdds shortcuts must draw the same outcomes as converting
// to Probability first and sampling from an identical stream.
func TestMatchShortcut_EquivalentToProbability(t *testing.T) {
	values := []float64{0.001, 0.1, 0.25, 0.5, 0.75, 0.9, 0.999}

	for _, v := range values {
		p := mustProbability(t, v)
		odds := p.ToOdds()
		logOdds := p.ToLogOdds()

		viaProbability := rand.New(rand.NewPCG(42, uint64(v*1000)))
		viaOdds := rand.New(rand.NewPCG(42, uint64(v*1000)))
		viaLogOdds := rand.New(rand.NewPCG(42, uint64(v*1000)))

		for i := 0; i < 10_000; i++ {
			want := odds.ToProbability().MatchWith(viaProbability)
			require.Equal(t, want, odds.MatchWith(viaOdds), "odds %v draw %d", odds.Value(), i)
			require.Equal(t, want, logOdds.MatchWith(viaLogOdds), "log-odds %v draw %d", logOdds.Value(), i)
		}
	}
}

func TestMatch_ConcurrentCallers(t *testing.T) {
	c := mustOdds(t, 1)

	const workers = 8
	const perWorker = 25_000

	var wg sync.WaitGroup
	counts := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if c.Match() {
					counts[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.InDelta(t, 0.5, float64(total)/(workers*perWorker), ratioTolerance)
}

func TestFilter(t *testing.T) {
	items := make([]int, 10_000)
	for i := range items {
		items[i] = i
	}

	assert.Empty(t, chance.Filter(chance.ImpossibleProbability(), items))
	assert.Len(t, chance.Filter(chance.CertainLogOdds(), items), len(items))

	kept := chance.Filter[int](mustProbability(t, 0.5), items)
	assert.InDelta(t, 0.5, float64(len(kept))/float64(len(items)), 0.03)

	keep := chance.Predicate[string](chance.CertainOdds())
	assert.True(t, keep("anything"))
}

func TestChance_LargeOddsStayWithinDomain(t *testing.T) {
	huge := mustOdds(t, math.MaxFloat64)

	assert.False(t, math.IsNaN(huge.ToProbability().Value()))
	assert.LessOrEqual(t, huge.ToProbability().Value(), 1.0)
	assert.False(t, math.IsNaN(huge.ToLogOdds().Value()))
	assert.Equal(t, "9223372036854775807/100000000", huge.String())
}
