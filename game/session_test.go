package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

type captureRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (c *captureRecorder) RecordResult(_ context.Context, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	return nil
}

func (c *captureRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func fixedPricer(p float64) Pricer {
	return PricerFunc(func(Quote, sim.Mode, sim.Source) (float64, error) { return p, nil })
}

func newTestSession(t *testing.T, opts Options, histories map[string][]float64) (*Session, *captureRecorder) {
	t.Helper()

	rec := &captureRecorder{}
	if opts.Recorder == nil {
		opts.Recorder = rec
	}
	if opts.Source == nil {
		opts.Source = sim.NewScripted(0.1)
	}
	s, err := NewSession(opts)
	require.NoError(t, err)
	if histories != nil {
		require.NoError(t, s.LoadHistories(histories))
	}
	return s, rec
}

func TestBuyAdvanceSellAll(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, Options{Pricer: fixedPricer(150)}, map[string][]float64{"aaa": {100}})

	st := s.Snapshot()
	assert.Equal(t, 50000.0, st.Cash)
	assert.Equal(t, 60000.0, st.Target)
	assert.Equal(t, StatusIdle, st.Status)

	require.NoError(t, s.Start())

	tr, err := s.Buy(ctx, "AAA", 100)
	require.NoError(t, err)
	assert.Equal(t, portfolio.Buy, tr.Side)
	assert.Equal(t, 40000.0, tr.CashAfter)
	assert.Equal(t, 100, tr.PositionsAfter["aaa"])
	assert.Equal(t, 1, s.Snapshot().HoldingCount)

	rep, err := s.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Day)
	assert.False(t, rep.EventDay)
	assert.Equal(t, 150.0, rep.Prices["aaa"])
	assert.InDelta(t, 55000, rep.TotalValue, 1e-9)
	assert.Equal(t, StatusPlaying, rep.Status)

	_, err = s.SellAll(ctx, "aaa")
	require.NoError(t, err)

	st = s.Snapshot()
	assert.InDelta(t, 55000, st.Cash, 1e-9)
	assert.Empty(t, st.Positions)
	assert.Zero(t, st.HoldingCount)
	assert.Len(t, st.Trades, 2)
	assert.Equal(t, []int{1, 2}, []int{st.Trades[0].ID, st.Trades[1].ID})
	assert.Len(t, st.DayLog, 1)
	assert.Equal(t, []int{1, 2}, []int{st.PriceHistory["aaa"][0].Day, st.PriceHistory["aaa"][1].Day})
	assert.Equal(t, 0, rec.count())
}

func TestOrderRejectionsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, Options{Difficulty: "hard"}, map[string][]float64{"aaa": {100}})

	_, err := s.Buy(ctx, "aaa", 1)
	assert.ErrorIs(t, err, ErrNotPlaying)

	require.NoError(t, s.Start())
	before := s.Snapshot()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero qty", func() error { _, err := s.Buy(ctx, "aaa", 0); return err }, ErrInvalidQuantity},
		{"negative qty", func() error { _, err := s.Sell(ctx, "aaa", -1); return err }, ErrInvalidQuantity},
		{"unknown symbol", func() error { _, err := s.Buy(ctx, "zzz", 1); return err }, ErrNoPrice},
		{"too expensive", func() error { _, err := s.Buy(ctx, "aaa", 101); return err }, ErrInsufficientCash},
		{"oversell", func() error { _, err := s.Sell(ctx, "aaa", 1); return err }, ErrInsufficientShares},
		{"sell all empty", func() error { _, err := s.SellAll(ctx, "aaa"); return err }, ErrNothingToSell},
		{"panic empty", func() error { _, err := s.PanicSell(ctx); return err }, ErrNothingToSell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.want)
			var re *RejectError
			assert.True(t, errors.As(err, &re))
			assert.NotEmpty(t, re.Reason)
		})
	}

	after := s.Snapshot()
	assert.Equal(t, before.Cash, after.Cash)
	assert.Equal(t, before.Positions, after.Positions)
	assert.Equal(t, before.Trades, after.Trades)

	// exactly affordable
	_, err = s.Buy(ctx, "aaa", 100)
	assert.NoError(t, err)
}

func TestWinOnTarget(t *testing.T) {
	s, rec := newTestSession(t, Options{}, map[string][]float64{"aaa": {100}})
	require.NoError(t, s.Start())

	s.mu.Lock()
	s.cash = 0
	s.positions = portfolio.Positions{"aaa": 100}
	s.prices["aaa"] = 600
	s.mu.Unlock()

	assert.Equal(t, StatusWon, s.CheckWinLose(context.Background()))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, StatusWon, rec.results[0].Summary.Status)
	assert.InDelta(t, 20.0, rec.results[0].Summary.PnLPct, 1e-9)

	assert.Equal(t, StatusWon, s.CheckWinLose(context.Background()))
	assert.Equal(t, 1, rec.count())

	_, err := s.Buy(context.Background(), "aaa", 1)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestJustBelowTargetKeepsPlaying(t *testing.T) {
	s, rec := newTestSession(t, Options{}, map[string][]float64{"aaa": {100}})
	require.NoError(t, s.Start())

	s.mu.Lock()
	s.cash = 59999.99
	s.mu.Unlock()

	assert.Equal(t, StatusPlaying, s.CheckWinLose(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestLoseRule(t *testing.T) {
	tests := []struct {
		name      string
		cash      float64
		positions portfolio.Positions
		price     float64
		want      Status
	}{
		{"broke and flat", 0.5, portfolio.Positions{}, 100, StatusLost},
		{"broke but holding unpriced", 0.5, portfolio.Positions{"bbb": 3}, 100, StatusPlaying},
		{"broke but holding cheap shares", 0.5, portfolio.Positions{"aaa": 1}, 0.2, StatusPlaying},
		{"one unit left", 1, portfolio.Positions{}, 100, StatusPlaying},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestSession(t, Options{}, map[string][]float64{"aaa": {tt.price}})
			require.NoError(t, s.Start())

			s.mu.Lock()
			s.cash = tt.cash
			s.positions = tt.positions
			s.mu.Unlock()

			assert.Equal(t, tt.want, s.CheckWinLose(context.Background()))
			if tt.want == StatusLost {
				assert.Equal(t, 1, rec.count())
			} else {
				assert.Equal(t, 0, rec.count())
			}
		})
	}
}

func TestAbandonRecordsOnce(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSession(t, Options{Pricer: fixedPricer(100)}, map[string][]float64{"aaa": {100}})

	_, err := s.Abandon(ctx)
	assert.ErrorIs(t, err, ErrNoProgress)

	require.NoError(t, s.Start())
	_, err = s.Buy(ctx, "aaa", 10)
	require.NoError(t, err)

	first, err := s.Abandon(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusAbandoned, first.Status)
	assert.Equal(t, 1, first.TradeCount)

	second, err := s.Abandon(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, rec.count())

	res := rec.results[0]
	assert.Equal(t, s.ID(), res.SessionID)
	assert.Len(t, res.Trades, 1)
	assert.Contains(t, res.PriceHistory, "aaa")

	_, err = s.AdvanceDay(ctx)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestPanicSellSkipsUnpriced(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, Options{}, map[string][]float64{"aaa": {100}})
	require.NoError(t, s.Start())

	_, err := s.Buy(ctx, "aaa", 10)
	require.NoError(t, err)

	s.mu.Lock()
	s.positions["bbb"] = 5
	s.mu.Unlock()

	trades, err := s.PanicSell(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].PanicSell)
	assert.Equal(t, "aaa", trades[0].Symbol)

	st := s.Snapshot()
	assert.Equal(t, 1, st.PanicSellCount)
	assert.Equal(t, portfolio.Positions{"bbb": 5}, st.Positions)
	assert.InDelta(t, 50000, st.Cash, 1e-9)

	_, err = s.PanicSell(ctx)
	assert.ErrorIs(t, err, ErrNothingToSell)
	assert.Equal(t, 1, s.Snapshot().PanicSellCount)
}

func TestApplyCustom(t *testing.T) {
	s, _ := newTestSession(t, Options{}, nil)

	assert.ErrorIs(t, s.ApplyCustom(1000, 1000), ErrInvalidConfig)
	assert.ErrorIs(t, s.ApplyCustom(0, 1000), ErrInvalidConfig)

	require.NoError(t, s.ApplyCustom(1000, 2500))
	st := s.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, CustomDifficulty, st.Difficulty.ID)
	assert.Equal(t, 1000.0, st.Cash)
	assert.Equal(t, 2500.0, st.Target)

	require.NoError(t, s.LoadHistories(map[string][]float64{"aaa": {10}}))
	require.NoError(t, s.ApplyCustom(2000, 3000))
	assert.Equal(t, StatusPlaying, s.Snapshot().Status)
}

func TestResetAndStartGuards(t *testing.T) {
	s, _ := newTestSession(t, Options{}, nil)
	assert.ErrorIs(t, s.Start(), ErrNoPrices)

	assert.ErrorIs(t, s.Reset("impossible"), ErrUnknownDifficulty)
	require.NoError(t, s.Reset("easy"))
	st := s.Snapshot()
	assert.Equal(t, 100000.0, st.Cash)
	assert.InDelta(t, 105000, st.Target, 1e-9)

	flat, err := NewSession(Options{
		Difficulty:   "flat",
		Difficulties: []Difficulty{{ID: "flat", StartCapital: 1000, TargetMultiplier: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, flat.LoadHistories(map[string][]float64{"aaa": {10}}))
	assert.ErrorIs(t, flat.Start(), ErrInvalidConfig)

	_, err = NewSession(Options{Difficulty: "nope"})
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	bad := sim.DefaultTuning()
	bad.QuietBelow = 2
	_, err = NewSession(Options{Tuning: &bad})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadHistoriesDropsInvalid(t *testing.T) {
	s, _ := newTestSession(t, Options{}, nil)

	assert.ErrorIs(t, s.LoadHistories(map[string][]float64{"aaa": {0, -1}}), ErrNoPrices)

	require.NoError(t, s.LoadHistories(map[string][]float64{"AAA": {100, 0, 101}, "bbb": {}}))
	st := s.Snapshot()
	assert.Equal(t, map[string]float64{"aaa": 101}, st.Prices)
}

func TestLoadHistoriesOnlyWhileIdle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, Options{}, map[string][]float64{"aaa": {100}})
	require.NoError(t, s.Start())

	err := s.LoadHistories(map[string][]float64{"bbb": {5}})
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	var rej *RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, map[string]float64{"aaa": 100}, s.Snapshot().Prices)

	_, err = s.Buy(ctx, "aaa", 1)
	require.NoError(t, err)
	_, err = s.Abandon(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.LoadHistories(map[string][]float64{"bbb": {5}}), ErrFinished)
}

func TestParseSimMode(t *testing.T) {
	m, err := ParseSimMode("Positive_Events")
	require.NoError(t, err)
	assert.Equal(t, ModePositiveEvents, m)
	assert.Equal(t, sim.Positive, m.Market())
	assert.Equal(t, sim.BiasUp, m.EventBias())

	assert.Equal(t, sim.Negative, ModeNegative.Market())
	assert.Equal(t, sim.BiasNeutral, ModeNegative.EventBias())

	m, err = ParseSimMode(" BULL ")
	require.NoError(t, err)
	assert.Equal(t, ModePositive, m)

	_, err = ParseSimMode("sideways")
	assert.Error(t, err)
}
