package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/sim"
)

func TestAdvanceDayAppliesEvent(t *testing.T) {
	ctx := context.Background()
	// day roll, subset size, main roll, tier, magnitude, pricing seed
	src := sim.NewScripted(0.9, 0.0, 0.97, 0.5, 0.5, 0.3)
	s, _ := newTestSession(t, Options{
		Source: src,
		Pricer: fixedPricer(100),
		Mode:   ModePositiveEvents,
	}, map[string][]float64{"aaa": {100}})
	require.NoError(t, s.Start())
	_, err := s.Buy(ctx, "aaa", 10)
	require.NoError(t, err)

	rep, err := s.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, src.Draws())

	assert.True(t, rep.EventDay)
	assert.Equal(t, 0.9, rep.DayRoll)
	require.Len(t, rep.Events, 1)
	ev := rep.Events[0]
	assert.Equal(t, sim.BigEvent, ev.Type)
	assert.Equal(t, sim.SentimentExtremePositive, ev.Sentiment)
	assert.InDelta(t, 9.5, ev.ImpactPct, 1e-9)
	assert.Equal(t, 100.0, ev.PriceBefore)
	assert.InDelta(t, 109.5, ev.PriceAfter, 1e-9)
	assert.InDelta(t, 109.5, rep.Prices["aaa"], 1e-9)

	require.NotNil(t, rep.Highlight)
	assert.Equal(t, "aaa", rep.Highlight.Symbol)

	st := s.Snapshot()
	require.NotNil(t, st.LastEvent)
	assert.Len(t, st.Events, 1)
	assert.True(t, st.DayLog[0].EventDay)
	assert.Contains(t, st.DayLog[0].Text, "AAA")
}

func TestAdvanceDayDegradesFailedSymbol(t *testing.T) {
	ctx := context.Background()
	pricer := PricerFunc(func(q Quote, _ sim.Mode, _ sim.Source) (float64, error) {
		switch q.Symbol {
		case "bbb":
			return 0, errors.New("boom")
		case "ccc":
			return -3, nil
		}
		return q.Current * 2, nil
	})
	s, _ := newTestSession(t, Options{Pricer: pricer}, map[string][]float64{
		"aaa": {10},
		"bbb": {20},
		"ccc": {30},
	})
	require.NoError(t, s.Start())

	rep, err := s.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb", "ccc"}, rep.Degraded)
	assert.Equal(t, map[string]float64{"aaa": 20, "bbb": 20, "ccc": 30}, rep.Prices)

	st := s.Snapshot()
	assert.Equal(t, 2, st.Day)
	assert.Len(t, st.PriceHistory["bbb"], 2)
	assert.Contains(t, st.DayLog[0].Text, "Prices held for bbb, ccc")
}

func TestAdvanceDayRequiresPlaying(t *testing.T) {
	s, _ := newTestSession(t, Options{}, map[string][]float64{"aaa": {10}})
	_, err := s.AdvanceDay(context.Background())
	assert.ErrorIs(t, err, ErrNotPlaying)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.AdvanceDay(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdvanceDayWithSeedIsReproducible(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7) - float64(i%3)
	}
	run := func() []float64 {
		s, _ := newTestSession(t, Options{Source: sim.NewSource(42)}, map[string][]float64{
			"aaa": closes,
			"bbb": closes[:5],
		})
		require.NoError(t, s.Start())
		var out []float64
		for range 5 {
			rep, err := s.AdvanceDay(context.Background())
			require.NoError(t, err)
			out = append(out, rep.Prices["aaa"], rep.Prices["bbb"])
		}
		return out
	}
	assert.Equal(t, run(), run())
}

type mapSource map[string][]float64

func (m mapSource) Closes(_ context.Context, symbol string) ([]float64, error) {
	c, ok := m[symbol]
	if !ok {
		return nil, fmt.Errorf("no data for %s", symbol)
	}
	return c, nil
}

func TestLoaderKeepsPartialResults(t *testing.T) {
	l := &Loader{
		Source:  mapSource{"aaa": {1, 2}, "bbb": {0, -1}},
		Workers: 2,
		Logger:  zerolog.Nop(),
	}
	rep := l.Load(context.Background(), []string{"AAA", "bbb", "ccc"})

	assert.Equal(t, map[string][]float64{"aaa": {1, 2}}, rep.Histories)
	assert.ErrorIs(t, rep.Failed["bbb"], ErrNoPrices)
	assert.Error(t, rep.Failed["ccc"])
}
