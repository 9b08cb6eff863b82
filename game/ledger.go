package game

import (
	"context"
	"time"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

// EventRecord is an event that actually moved a price.
type EventRecord struct {
	Day         int           `json:"day"`
	Symbol      string        `json:"symbol"`
	Type        sim.EventType `json:"type"`
	Sentiment   sim.Sentiment `json:"sentiment"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	ImpactPct   float64       `json:"impactPct"`
	PriceBefore float64       `json:"priceBefore"`
	PriceAfter  float64       `json:"priceAfter"`
}

// DayLogEntry is the narrative line written for each advanced day.
type DayLogEntry struct {
	Day        int      `json:"day"`
	Text       string   `json:"text"`
	TotalValue float64  `json:"totalValue"`
	EventDay   bool     `json:"eventDay"`
	Degraded   []string `json:"degraded,omitempty"`
}

// Summary is the end-of-game outcome.
type Summary struct {
	Status         Status  `json:"status"`
	DaysPlayed     int     `json:"daysPlayed"`
	InitialCapital float64 `json:"initialCapital"`
	Target         float64 `json:"target"`
	FinalValue     float64 `json:"finalValue"`
	PnL            float64 `json:"pnl"`
	PnLPct         float64 `json:"pnlPct"`
	TradeCount     int     `json:"tradeCount"`
	PanicSellCount int     `json:"panicSellCount"`
}

// Result is everything persisted about a finished session.
type Result struct {
	SessionID    string                          `json:"sessionId"`
	Player       string                          `json:"player"`
	Difficulty   string                          `json:"difficulty"`
	SimMode      SimMode                         `json:"simMode"`
	FinishedAt   time.Time                       `json:"finishedAt"`
	Summary      Summary                         `json:"summary"`
	Trades       []portfolio.Trade               `json:"trades"`
	EventHistory []EventRecord                   `json:"eventHistory"`
	DayLog       []DayLogEntry                   `json:"dayLog"`
	PriceHistory map[string][]market.PricePoint `json:"priceHistory"`
}

// Recorder receives the result of every session exactly once, when it
// reaches a terminal status. Errors are logged and otherwise ignored.
type Recorder interface {
	RecordResult(ctx context.Context, r Result) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Result) error

func (f RecorderFunc) RecordResult(ctx context.Context, r Result) error { return f(ctx, r) }

// Observer is notified of session activity, typically to export metrics.
type Observer interface {
	GameStarted(difficulty string)
	GameEnded(status Status, pnlPct float64)
	DayAdvanced(events, degraded int)
	TradeExecuted(side portfolio.Side, panic bool)
	OrderRejected(op string)
}

type nopObserver struct{}

func (nopObserver) GameStarted(string)                 {}
func (nopObserver) GameEnded(Status, float64)          {}
func (nopObserver) DayAdvanced(int, int)               {}
func (nopObserver) TradeExecuted(portfolio.Side, bool) {}
func (nopObserver) OrderRejected(string)               {}
