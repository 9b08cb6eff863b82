package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func testRecord(id, player string, at time.Time) GameRecord {
	return GameRecord{
		ID:             id,
		Player:         player,
		Status:         "won",
		Difficulty:     "normal",
		SimMode:        "neutral",
		InitialCapital: 50000,
		Target:         60000,
		FinalValue:     61000,
		PnL:            11000,
		PnLPct:         22,
		DaysPlayed:     12,
		TradeCount:     3,
		PanicSellCount: 1,
		CreatedAt:      at,
		Payload: &Payload{
			Target:         60000,
			InitialCapital: 50000,
			Difficulty:     "normal",
			SimMode:        "neutral",
			Trades:         []portfolio.Trade{{ID: 1, Symbol: "pko", Side: portfolio.Buy, Quantity: 10, Price: 50, Value: 500}},
			EventHistory:   []game.EventRecord{},
			DayLog:         []game.DayLogEntry{{Day: 2, Text: "Day 2: quiet session.", TotalValue: 50000}},
			PriceHistory:   map[string][]market.PricePoint{"pko": {{Day: 1, Price: 50}, {Day: 2, Price: 51}}},
		},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='game_history'`).Scan(&name)
	assert.NoError(t, err)
	assert.Equal(t, "game_history", name)
}

func TestSQLiteRecordGame(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()
	rec := testRecord("G1", "ala", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))

	require.NoError(t, j.RecordGame(ctx, rec))
	assert.Error(t, j.RecordGame(ctx, rec), "same id twice")
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		status     string
		finalValue float64
		panics     int
		payload    string
	)
	err = db.QueryRow(`SELECT status, final_value, panic_sell_count, payload FROM game_history LIMIT 1`).
		Scan(&status, &finalValue, &panics, &payload)
	require.NoError(t, err)

	assert.Equal(t, "won", status)
	assert.InDelta(t, 61000, finalValue, 1e-6)
	assert.Equal(t, 1, panics)
	assert.Contains(t, payload, `"priceHistory"`)
	assert.Contains(t, payload, `"qty":10`)
}

func TestRecorderWritesSessionResult(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	s, err := game.NewSession(game.Options{ID: "R1", Player: "ola", Recorder: NewRecorder(j)})
	require.NoError(t, err)
	require.NoError(t, s.LoadHistories(map[string][]float64{"pko": {40}}))
	require.NoError(t, s.Start())
	_, err = s.Buy(ctx, "pko", 5)
	require.NoError(t, err)
	_, err = s.Abandon(ctx)
	require.NoError(t, err)

	got, err := j.GetGame(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", got.Status)
	assert.Equal(t, "ola", got.Player)
	assert.Equal(t, 1, got.TradeCount)
	require.NotNil(t, got.Payload)
	assert.Len(t, got.Payload.Trades, 1)
	assert.Equal(t, 40.0, got.Payload.PriceHistory["pko"][0].Price)
}

func TestRecorderOutlivesCancelledRequest(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	s, err := game.NewSession(game.Options{ID: "R2", Recorder: NewRecorder(j)})
	require.NoError(t, err)
	require.NoError(t, s.LoadHistories(map[string][]float64{"pko": {40}}))
	require.NoError(t, s.Start())
	_, err = s.Buy(context.Background(), "pko", 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := s.Abandon(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.StatusAbandoned, sum.Status)

	got, err := j.GetGame(context.Background(), "R2")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", got.Status)
	assert.Equal(t, 1, got.TradeCount)
}
