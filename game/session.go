package game

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/pkg/id"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

// DefaultDifficulty is used when Options.Difficulty is empty.
const DefaultDifficulty = "normal"

// Options configures a new Session. Zero values select the defaults.
type Options struct {
	ID           string
	Player       string
	Difficulty   string
	Difficulties []Difficulty
	Mode         SimMode
	Tuning       *sim.Tuning
	Source       sim.Source
	Pricer       Pricer
	Recorder     Recorder
	Observer     Observer
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Session is one play-through. All methods are safe for concurrent use;
// operations on a session are serialized.
type Session struct {
	mu sync.Mutex

	id           string
	player       string
	difficulties []Difficulty
	difficulty   Difficulty
	mode         SimMode
	tuning       sim.Tuning
	src          sim.Source
	pricer       Pricer
	recorder     Recorder
	observer     Observer
	log          zerolog.Logger
	now          func() time.Time

	status         Status
	initialCapital float64
	target         float64
	cash           float64
	positions      portfolio.Positions
	day            int

	histories    map[string][]float64 // as loaded
	paths        map[string][]float64 // histories plus simulated closes
	prices       map[string]float64
	priceHistory map[string][]market.PricePoint

	trades     []portfolio.Trade
	events     []EventRecord
	dayLog     []DayLogEntry
	panicSells int
	lastEvent  *EventRecord
	message    string
	recorded   bool
}

// NewSession builds an idle session at the chosen difficulty.
func NewSession(opts Options) (*Session, error) {
	s := &Session{
		id:           opts.ID,
		player:       opts.Player,
		difficulties: opts.Difficulties,
		mode:         opts.Mode,
		tuning:       sim.DefaultTuning(),
		src:          opts.Source,
		pricer:       opts.Pricer,
		recorder:     opts.Recorder,
		observer:     opts.Observer,
		now:          opts.Now,
		histories:    map[string][]float64{},
	}
	if s.id == "" {
		s.id = id.New()
	}
	if len(s.difficulties) == 0 {
		s.difficulties = DefaultDifficulties()
	}
	if s.mode == "" {
		s.mode = ModeNeutral
	}
	if opts.Tuning != nil {
		if err := opts.Tuning.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.tuning = *opts.Tuning
	}
	if s.src == nil {
		s.src = sim.NewEntropySource()
	}
	if s.pricer == nil {
		s.pricer = GJRPricer{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.log = opts.Logger.With().Str("session", s.id).Logger()

	diff := opts.Difficulty
	if diff == "" {
		diff = DefaultDifficulty
	}
	d, ok := FindDifficulty(s.difficulties, diff)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, diff)
	}
	s.resetLocked(d)
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Player() string { return s.player }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// resetLocked returns the session to idle at d, keeping loaded histories.
func (s *Session) resetLocked(d Difficulty) {
	s.difficulty = d
	s.status = StatusIdle
	s.initialCapital = d.StartCapital
	s.target = d.Target()
	s.cash = d.StartCapital
	s.positions = portfolio.Positions{}
	s.day = 1
	s.trades = nil
	s.events = nil
	s.dayLog = nil
	s.panicSells = 0
	s.lastEvent = nil
	s.message = ""
	s.recorded = false

	s.paths = make(map[string][]float64, len(s.histories))
	s.prices = make(map[string]float64, len(s.histories))
	s.priceHistory = make(map[string][]market.PricePoint, len(s.histories))
	for sym, closes := range s.histories {
		last, ok := market.Last(closes)
		if !ok {
			continue
		}
		s.paths[sym] = append([]float64(nil), closes...)
		s.prices[sym] = last
		s.priceHistory[sym] = []market.PricePoint{{Day: s.day, Price: last}}
	}
}

// LoadHistories installs the historical closes. The last valid close of
// each symbol becomes its current price. Only allowed while idle.
func (s *Session) LoadHistories(histories map[string][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.status == StatusPlaying:
		return reject("load", ErrAlreadyStarted, "prices can only be loaded before the game starts")
	case s.status.Terminal():
		return reject("load", ErrFinished, "the game is over, reset to load new prices")
	}
	clean := make(map[string][]float64, len(histories))
	for sym, closes := range histories {
		c := market.SanitizeFloats(closes)
		if len(c) == 0 {
			continue
		}
		clean[market.NormalizeSymbol(sym)] = c
	}
	if len(clean) == 0 {
		return ErrNoPrices
	}
	s.histories = clean
	s.resetLocked(s.difficulty)
	s.log.Debug().Int("symbols", len(clean)).Msg("histories loaded")
	return nil
}

// Start moves an idle session to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.status == StatusPlaying:
		return nil
	case s.status.Terminal():
		return reject("start", ErrFinished, "the game is over, reset to play again")
	case !(s.initialCapital > 0) || !(s.target > s.initialCapital):
		return reject("start", ErrInvalidConfig, "the target must be above the start capital")
	case len(s.prices) == 0:
		return reject("start", ErrNoPrices, "prices are not loaded yet")
	}
	s.startLocked()
	return nil
}

func (s *Session) startLocked() {
	s.status = StatusPlaying
	s.message = fmt.Sprintf("Game started with %.2f, target %.2f.", s.initialCapital, s.target)
	s.observer.GameStarted(s.difficulty.ID)
	s.log.Info().
		Str("difficulty", s.difficulty.ID).
		Float64("capital", s.initialCapital).
		Float64("target", s.target).
		Msg("game started")
}

// Reset discards all progress and returns to idle. An empty difficultyID
// keeps the current tier.
func (s *Session) Reset(difficultyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.difficulty
	if difficultyID != "" && difficultyID != d.ID {
		var ok bool
		if d, ok = FindDifficulty(s.difficulties, difficultyID); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficultyID)
		}
	}
	s.resetLocked(d)
	return nil
}

// ApplyCustom switches to the custom tier with an explicit start and
// target. With prices already loaded play begins immediately.
func (s *Session) ApplyCustom(start, target float64) error {
	if err := ValidateCustom(start, target); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := FindDifficulty(s.difficulties, CustomDifficulty)
	if !ok {
		d = Difficulty{ID: CustomDifficulty, Label: "Custom"}
	}
	d.StartCapital = start
	d.TargetMultiplier = target / start
	s.resetLocked(d)
	s.target = target
	if len(s.prices) > 0 {
		s.startLocked()
	}
	return nil
}

// SetMode changes the market setting used from the next day on.
func (s *Session) SetMode(m SimMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// CheckWinLose evaluates the end conditions and returns the status.
func (s *Session) CheckWinLose(ctx context.Context) Status {
	s.mu.Lock()
	res := s.checkLocked()
	st := s.status
	s.mu.Unlock()

	s.emit(ctx, res)
	return st
}

// Abandon ends a session in progress. Calling it again returns the same
// summary without recording twice.
func (s *Session) Abandon(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	switch {
	case s.status == StatusAbandoned:
		sum := s.summaryLocked()
		s.mu.Unlock()
		return sum, nil
	case s.status.Terminal():
		s.mu.Unlock()
		return Summary{}, reject("abandon", ErrFinished, "the game is already over")
	case s.status != StatusPlaying && !s.hasProgressLocked():
		s.mu.Unlock()
		return Summary{}, reject("abandon", ErrNoProgress, "there is no game in progress")
	}
	res := s.finishLocked(StatusAbandoned)
	s.message = "Game abandoned."
	sum := s.summaryLocked()
	s.mu.Unlock()

	s.emit(ctx, res)
	return sum, nil
}

func (s *Session) hasProgressLocked() bool {
	return len(s.trades) > 0 || s.day > 1
}

// checkLocked applies the win and lose rules to a playing session.
func (s *Session) checkLocked() *Result {
	if s.status != StatusPlaying {
		return nil
	}
	total := portfolio.TotalValue(s.cash, s.positions, s.prices)
	switch {
	case s.target > 0 && total >= s.target:
		s.message = fmt.Sprintf("Target reached: %.2f.", total)
		return s.finishLocked(StatusWon)
	case total < 1 && portfolio.TotalShares(s.positions) == 0:
		s.message = "Capital exhausted."
		return s.finishLocked(StatusLost)
	}
	return nil
}

// finishLocked enters a terminal status. It returns the result to record,
// or nil when this session was already recorded.
func (s *Session) finishLocked(st Status) *Result {
	s.status = st
	if s.recorded {
		return nil
	}
	s.recorded = true

	sum := s.summaryLocked()
	s.observer.GameEnded(st, sum.PnLPct)
	s.log.Info().
		Str("status", string(st)).
		Int("days", sum.DaysPlayed).
		Float64("final_value", sum.FinalValue).
		Float64("pnl_pct", sum.PnLPct).
		Msg("game finished")

	return &Result{
		SessionID:    s.id,
		Player:       s.player,
		Difficulty:   s.difficulty.ID,
		SimMode:      s.mode,
		FinishedAt:   s.now().UTC(),
		Summary:      sum,
		Trades:       append(make([]portfolio.Trade, 0, len(s.trades)), s.trades...),
		EventHistory: append(make([]EventRecord, 0, len(s.events)), s.events...),
		DayLog:       append(make([]DayLogEntry, 0, len(s.dayLog)), s.dayLog...),
		PriceHistory: clonePriceHistory(s.priceHistory),
	}
}

// RecordTimeout bounds how long a finished game may take to be recorded.
const RecordTimeout = 10 * time.Second

// emit hands a result to the recorder. Must be called without the lock.
// The write outlives a cancelled caller; the result is only produced once.
func (s *Session) emit(ctx context.Context, res *Result) {
	if res == nil || s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()
	if err := s.recorder.RecordResult(ctx, *res); err != nil {
		s.log.Warn().Err(err).Msg("record result failed")
	}
}

// Summary returns the outcome so far.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	total := portfolio.TotalValue(s.cash, s.positions, s.prices)
	sum := Summary{
		Status:         s.status,
		DaysPlayed:     s.day,
		InitialCapital: s.initialCapital,
		Target:         s.target,
		FinalValue:     total,
		TradeCount:     len(s.trades),
		PanicSellCount: s.panicSells,
	}
	if s.initialCapital > 0 {
		sum.PnL = total - s.initialCapital
		sum.PnLPct = sum.PnL / s.initialCapital * 100
	}
	return sum
}

// Holding is a row of the portfolio view.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Position     int     `json:"position"`
	Price        float64 `json:"price"`
	MarketValue  float64 `json:"marketValue"`
	AvgCost      float64 `json:"avgCost,omitempty"`
	UnrealizedPL float64 `json:"unrealizedPL"`
	RealizedPL   float64 `json:"realizedPL"`
}

// State is a point-in-time copy of a session.
type State struct {
	ID             string                          `json:"id"`
	Player         string                          `json:"player,omitempty"`
	Status         Status                          `json:"status"`
	Difficulty     Difficulty                      `json:"difficulty"`
	Mode           SimMode                         `json:"simMode"`
	Day            int                             `json:"day"`
	Cash           float64                         `json:"cash"`
	InitialCapital float64                         `json:"initialCapital"`
	Target         float64                         `json:"target"`
	TotalValue     float64                         `json:"totalValue"`
	ProgressPct    float64                         `json:"progressPct"`
	Positions      portfolio.Positions             `json:"positions"`
	Prices         map[string]float64              `json:"prices"`
	Holdings       []Holding                       `json:"holdings"`
	HoldingCount   int                             `json:"holdingCount"`
	Trades         []portfolio.Trade               `json:"trades"`
	Events         []EventRecord                   `json:"eventHistory"`
	DayLog         []DayLogEntry                   `json:"dayLog"`
	PriceHistory   map[string][]market.PricePoint `json:"priceHistory"`
	PanicSellCount int                             `json:"panicSellCount"`
	LastEvent      *EventRecord                    `json:"lastEvent,omitempty"`
	Message        string                          `json:"message,omitempty"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := portfolio.TotalValue(s.cash, s.positions, s.prices)
	st := State{
		ID:             s.id,
		Player:         s.player,
		Status:         s.status,
		Difficulty:     s.difficulty,
		Mode:           s.mode,
		Day:            s.day,
		Cash:           s.cash,
		InitialCapital: s.initialCapital,
		Target:         s.target,
		TotalValue:     total,
		Positions:      s.positions.Clone(),
		HoldingCount:   portfolio.DistinctHoldings(s.positions),
		Prices:         make(map[string]float64, len(s.prices)),
		Trades:         append(make([]portfolio.Trade, 0, len(s.trades)), s.trades...),
		Events:         append(make([]EventRecord, 0, len(s.events)), s.events...),
		DayLog:         append(make([]DayLogEntry, 0, len(s.dayLog)), s.dayLog...),
		PriceHistory:   clonePriceHistory(s.priceHistory),
		PanicSellCount: s.panicSells,
		Message:        s.message,
	}
	for k, v := range s.prices {
		st.Prices[k] = v
	}
	if s.lastEvent != nil {
		ev := *s.lastEvent
		st.LastEvent = &ev
	}
	if span := s.target - s.initialCapital; span > 0 {
		st.ProgressPct = math.Max(0, math.Min(100, (total-s.initialCapital)/span*100))
	}

	stats := portfolio.BuildSymbolStats(s.trades)
	for _, sym := range market.SortedKeys(s.positions) {
		pos := s.positions[sym]
		if pos <= 0 {
			continue
		}
		h := Holding{Symbol: sym, Position: pos, Price: s.prices[sym]}
		if meta, ok := market.Lookup(sym); ok {
			h.Name = meta.Name
		}
		h.MarketValue = h.Price * float64(pos)
		if ss, ok := stats[sym]; ok {
			if ss.HasAvg {
				h.AvgCost = ss.AvgCost
			}
			h.UnrealizedPL = ss.UnrealizedPL(h.Price)
			h.RealizedPL = ss.RealizedPL
		}
		st.Holdings = append(st.Holdings, h)
	}
	return st
}

// Stats rebuilds per-symbol statistics from the trade ledger.
func (s *Session) Stats() map[string]portfolio.SymbolStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.BuildSymbolStats(s.trades)
}

func clonePriceHistory(in map[string][]market.PricePoint) map[string][]market.PricePoint {
	out := make(map[string][]market.PricePoint, len(in))
	for k, v := range in {
		out[k] = append([]market.PricePoint(nil), v...)
	}
	return out
}
