package game

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

// DayReport describes one advanced day.
type DayReport struct {
	Day        int                `json:"day"`
	DayRoll    float64            `json:"dayRoll"`
	EventDay   bool               `json:"eventDay"`
	Prices     map[string]float64 `json:"prices"`
	Events     []EventRecord      `json:"events"`
	Degraded   []string           `json:"degraded,omitempty"`
	Highlight  *EventRecord       `json:"highlight,omitempty"`
	TotalValue float64            `json:"totalValue"`
	Status     Status             `json:"status"`
}

type priced struct {
	price float64
	err   error
}

// AdvanceDay simulates the next session for every priced symbol and
// applies the results as one batch. A symbol whose simulation fails keeps
// its price and is reported as degraded.
func (s *Session) AdvanceDay(ctx context.Context) (DayReport, error) {
	if err := ctx.Err(); err != nil {
		return DayReport{}, err
	}

	s.mu.Lock()
	if err := s.ensurePlayingLocked("next_day"); err != nil {
		s.mu.Unlock()
		return DayReport{}, s.rejected(err)
	}
	symbols := market.SortedKeys(s.prices)
	if len(symbols) == 0 {
		s.mu.Unlock()
		return DayReport{}, reject("next_day", ErrNoPrices, "prices are not loaded yet")
	}

	mode := s.mode.Market()
	bias := s.mode.EventBias()

	dayRoll, picked := sim.PickEventSymbols(symbols, s.tuning, s.src)
	selected := make(map[string]bool, len(picked))
	for _, sym := range picked {
		selected[sym] = true
	}

	// Event draws come first and in symbol order so a seeded source
	// replays the same day regardless of pricing concurrency.
	factors := make([]float64, len(symbols))
	rolled := make([]sim.Event, len(symbols))
	for i, sym := range symbols {
		factors[i], rolled[i] = sim.RollEvent(1, selected[sym], bias, s.tuning, s.src)
	}

	results := s.priceAll(symbols, mode)

	rep := DayReport{
		Day:      s.day + 1,
		DayRoll:  dayRoll,
		EventDay: len(picked) > 0,
		Prices:   make(map[string]float64, len(symbols)),
		Events:   []EventRecord{},
	}
	next := make(map[string]float64, len(symbols))
	for i, sym := range symbols {
		before := s.prices[sym]
		r := results[i]
		if r.err != nil || !validPrice(r.price) {
			s.log.Warn().Err(r.err).Str("symbol", sym).Float64("price", r.price).Msg("simulation failed, holding price")
			rep.Degraded = append(rep.Degraded, sym)
			next[sym] = before
			continue
		}

		after := r.price
		ev := rolled[i]
		if ev.Type != sim.EventNone {
			if moved := after * factors[i]; validPrice(moved) {
				rep.Events = append(rep.Events, EventRecord{
					Day:         rep.Day,
					Symbol:      sym,
					Type:        ev.Type,
					Sentiment:   ev.Sentiment,
					Label:       ev.Label,
					Description: ev.Description,
					ImpactPct:   ev.ImpactPct,
					PriceBefore: after,
					PriceAfter:  moved,
				})
				after = moved
			}
		}
		next[sym] = after
	}

	// Apply.
	s.day = rep.Day
	for sym, p := range next {
		s.prices[sym] = p
		rep.Prices[sym] = p
		s.paths[sym] = append(s.paths[sym], p)
		s.priceHistory[sym] = append(s.priceHistory[sym], market.PricePoint{Day: s.day, Price: p})
	}
	s.events = append(s.events, rep.Events...)

	for i := range rep.Events {
		if s.positions[rep.Events[i].Symbol] > 0 {
			ev := rep.Events[i]
			rep.Highlight = &ev
			s.lastEvent = &ev
			break
		}
	}

	rep.TotalValue = portfolio.TotalValue(s.cash, s.positions, s.prices)
	s.dayLog = append(s.dayLog, DayLogEntry{
		Day:        s.day,
		Text:       dayText(rep),
		TotalValue: rep.TotalValue,
		EventDay:   rep.EventDay,
		Degraded:   rep.Degraded,
	})
	s.message = s.dayLog[len(s.dayLog)-1].Text
	s.observer.DayAdvanced(len(rep.Events), len(rep.Degraded))
	s.log.Info().
		Int("day", s.day).
		Bool("event_day", rep.EventDay).
		Int("events", len(rep.Events)).
		Int("degraded", len(rep.Degraded)).
		Float64("total_value", rep.TotalValue).
		Msg("day advanced")

	res := s.checkLocked()
	rep.Status = s.status
	s.mu.Unlock()

	s.emit(ctx, res)
	return rep, nil
}

// priceAll runs the pricer for every symbol concurrently. Each symbol gets
// its own Source seeded from the session source in symbol order.
func (s *Session) priceAll(symbols []string, mode sim.Mode) []priced {
	srcs := make([]sim.Source, len(symbols))
	for i := range symbols {
		srcs[i] = sim.NewSource(int64(s.src.Float64() * (1 << 53)))
	}

	out := make([]priced, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := Quote{Symbol: sym, Closes: s.paths[sym], Current: s.prices[sym]}
			p, err := s.pricer.Next(q, mode, srcs[i])
			out[i] = priced{price: p, err: err}
		}()
	}
	wg.Wait()
	return out
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func dayText(rep DayReport) string {
	var b strings.Builder
	switch {
	case rep.Highlight != nil:
		fmt.Fprintf(&b, "Day %d: %s on %s (%+.2f%%).", rep.Day, rep.Highlight.Label, strings.ToUpper(rep.Highlight.Symbol), rep.Highlight.ImpactPct)
	case len(rep.Events) > 0:
		syms := make([]string, 0, len(rep.Events))
		for _, ev := range rep.Events {
			syms = append(syms, strings.ToUpper(ev.Symbol))
		}
		fmt.Fprintf(&b, "Day %d: market events on %s, none in your portfolio.", rep.Day, strings.Join(syms, ", "))
	default:
		fmt.Fprintf(&b, "Day %d: quiet session.", rep.Day)
	}
	fmt.Fprintf(&b, " Portfolio value %.2f.", rep.TotalValue)
	if len(rep.Degraded) > 0 {
		fmt.Fprintf(&b, " Prices held for %s.", strings.Join(rep.Degraded, ", "))
	}
	return b.String()
}
