package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":            Neutral,
		"neutral":     Neutral,
		"whatever":    Neutral,
		"POSITIVE":    Positive,
		"bull":        Positive,
		"pos":         Positive,
		" negative ":  Negative,
		"bear":        Negative,
		"niedzwiedzi": Negative,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), in)
	}
}

func TestSimulateNextDeterministic(t *testing.T) {
	m, err := Estimate(ramp(30, 100))
	require.NoError(t, err)

	a := SimulateNext(m, 130, Neutral, NewScripted(0.42, 0.84))
	b := SimulateNext(m, 130, Neutral, NewScripted(0.42, 0.84))
	assert.Equal(t, a, b)
	assert.Greater(t, a.NextPrice, 0.0)
	assert.False(t, math.IsInf(a.NextPrice, 0))
}

func TestSimulateNextDriftOrdering(t *testing.T) {
	m, err := Estimate(ramp(30, 100))
	require.NoError(t, err)

	pos := SimulateNext(m, 130, Positive, NewScripted(0.42, 0.84))
	neu := SimulateNext(m, 130, Neutral, NewScripted(0.42, 0.84))
	neg := SimulateNext(m, 130, Negative, NewScripted(0.42, 0.84))

	assert.Greater(t, pos.Diagnostics.DriftBias, 0.0)
	assert.Equal(t, 0.0, neu.Diagnostics.DriftBias)
	assert.Less(t, neg.Diagnostics.DriftBias, 0.0)
	assert.InDelta(t, pos.Diagnostics.DriftBias, -neg.Diagnostics.DriftBias, 1e-15)

	assert.Greater(t, pos.NextPrice, neu.NextPrice)
	assert.Greater(t, neu.NextPrice, neg.NextPrice)

	assert.Equal(t, Positive, pos.Diagnostics.Mode)
	assert.InDelta(t, 0.3*math.Sqrt(pos.Diagnostics.NextVariance), pos.Diagnostics.DriftBias, 1e-15)
}

func TestSimulateNextHoldsPriceOnOverflow(t *testing.T) {
	m := Model{MeanLogReturn: 1000, Alpha: 0.05, Beta: 0.9, Gamma: 0.05, Omega: 1e-6, CurrentVariance: 1e-8}

	res := SimulateNext(m, 55, Neutral, NewScripted(0.5, 0.5))
	assert.Equal(t, 55.0, res.NextPrice)
	assert.True(t, res.Diagnostics.HeldPrice)
}

func TestSimulateNextHoldsPriceOnCollapse(t *testing.T) {
	m := Model{MeanLogReturn: -1000, Alpha: 0.05, Beta: 0.9, Gamma: 0.05, Omega: 1e-6, CurrentVariance: 1e-8}

	res := SimulateNext(m, 55, Negative, NewScripted(0.5, 0.5))
	assert.Equal(t, 55.0, res.NextPrice)
	assert.True(t, res.Diagnostics.HeldPrice)
}

func TestGaussianRerollsZero(t *testing.T) {
	src := NewScripted(0, 0.5, 0.25)
	z := Gaussian(src)
	assert.Equal(t, 3, src.Draws())
	assert.InDelta(t, 0, z, 1e-9)
}

func TestNextFromCloses(t *testing.T) {
	_, err := NextFromCloses(ramp(30, 100), 0, Neutral, NewScripted())
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NextFromCloses(ramp(30, 100), math.NaN(), Neutral, NewScripted())
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NextFromCloses([]float64{1, 2, 3}, 100, Neutral, NewScripted())
	assert.ErrorIs(t, err, ErrInsufficientData)

	res, err := NextFromCloses(ramp(30, 100), 105, Positive, NewScripted(0.33, 0.77))
	require.NoError(t, err)
	assert.Greater(t, res.NextPrice, 0.0)
	assert.Equal(t, 30, res.Diagnostics.Observations)
}

func TestRandomWalk(t *testing.T) {
	assert.InDelta(t, 101, RandomWalk(100, NewScripted(1)), 1e-9)
	assert.InDelta(t, 99, RandomWalk(100, NewScripted(0)), 1e-9)
	assert.InDelta(t, 100, RandomWalk(100, NewScripted(0.5)), 1e-9)
}

func TestSeededSourceReproducible(t *testing.T) {
	a, b := NewSource(7), NewSource(7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	v := NewEntropySource().Float64()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
}
