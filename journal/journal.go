package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
)

// ErrNotFound is returned when a game id is not in the journal.
var ErrNotFound = errors.New("journal: game not found")

const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// Payload is the full replay of a finished game, stored as JSON.
type Payload struct {
	Target         float64                         `json:"target"`
	InitialCapital float64                         `json:"initialCapital"`
	Difficulty     string                          `json:"difficulty"`
	SimMode        string                          `json:"simMode"`
	Trades         []portfolio.Trade               `json:"trades"`
	EventHistory   []game.EventRecord              `json:"eventHistory"`
	DayLog         []game.DayLogEntry              `json:"dayLog"`
	PriceHistory   map[string][]market.PricePoint `json:"priceHistory"`
}

// GameRecord is one row of the game history.
type GameRecord struct {
	ID             string    `json:"id"`
	Player         string    `json:"player"`
	Status         string    `json:"status"`
	Difficulty     string    `json:"difficulty"`
	SimMode        string    `json:"simMode"`
	InitialCapital float64   `json:"initialCapital"`
	Target         float64   `json:"target"`
	FinalValue     float64   `json:"finalValue"`
	PnL            float64   `json:"pnl"`
	PnLPct         float64   `json:"pnlPct"`
	DaysPlayed     int       `json:"daysPlayed"`
	TradeCount     int       `json:"tradeCount"`
	PanicSellCount int       `json:"panicSellCount"`
	CreatedAt      time.Time `json:"createdAt"`
	Payload        *Payload  `json:"payload,omitempty"`
}

// FromResult flattens a session result into a record.
func FromResult(r game.Result) GameRecord {
	s := r.Summary
	return GameRecord{
		ID:             r.SessionID,
		Player:         r.Player,
		Status:         string(s.Status),
		Difficulty:     r.Difficulty,
		SimMode:        string(r.SimMode),
		InitialCapital: s.InitialCapital,
		Target:         s.Target,
		FinalValue:     s.FinalValue,
		PnL:            s.PnL,
		PnLPct:         s.PnLPct,
		DaysPlayed:     s.DaysPlayed,
		TradeCount:     s.TradeCount,
		PanicSellCount: s.PanicSellCount,
		CreatedAt:      r.FinishedAt,
		Payload: &Payload{
			Target:         s.Target,
			InitialCapital: s.InitialCapital,
			Difficulty:     r.Difficulty,
			SimMode:        string(r.SimMode),
			Trades:         r.Trades,
			EventHistory:   r.EventHistory,
			DayLog:         r.DayLog,
			PriceHistory:   r.PriceHistory,
		},
	}
}

// Journal is a sink for finished games.
type Journal interface {
	RecordGame(ctx context.Context, g GameRecord) error
	Close() error
}

// Store is a Journal that can be queried.
type Store interface {
	Journal
	GetGame(ctx context.Context, id string) (GameRecord, error)
	ListGames(ctx context.Context, player string, limit int) ([]GameRecord, error)
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
