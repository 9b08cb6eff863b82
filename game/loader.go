package game

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocksim/market"
)

// HistorySource returns the daily closes of one symbol, oldest first.
type HistorySource interface {
	Closes(ctx context.Context, symbol string) ([]float64, error)
}

// DefaultLoadWorkers bounds concurrent history fetches.
const DefaultLoadWorkers = 6

// Loader fetches the price history of many symbols concurrently. A symbol
// that fails to load is left out; the rest of the universe still loads.
type Loader struct {
	Source  HistorySource
	Workers int
	Logger  zerolog.Logger
}

// LoadReport is the outcome of one Load call.
type LoadReport struct {
	Histories map[string][]float64
	Failed    map[string]error
}

// Load fetches every symbol. It returns early with what it has when ctx is
// cancelled.
func (l *Loader) Load(ctx context.Context, symbols []string) LoadReport {
	workers := l.Workers
	if workers <= 0 {
		workers = DefaultLoadWorkers
	}

	rep := LoadReport{
		Histories: make(map[string][]float64, len(symbols)),
		Failed:    map[string]error{},
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	jobs := make(chan string)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				closes, err := l.Source.Closes(ctx, sym)
				if err == nil {
					closes = market.SanitizeFloats(closes)
					if len(closes) == 0 {
						err = ErrNoPrices
					}
				}

				mu.Lock()
				if err != nil {
					rep.Failed[sym] = err
				} else {
					rep.Histories[sym] = closes
				}
				mu.Unlock()

				if err != nil {
					l.Logger.Warn().Err(err).Str("symbol", sym).Msg("history unavailable")
				}
			}
		}()
	}

feed:
	for _, sym := range symbols {
		select {
		case jobs <- market.NormalizeSymbol(sym):
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	l.Logger.Info().
		Int("loaded", len(rep.Histories)).
		Int("failed", len(rep.Failed)).
		Msg("histories fetched")
	return rep
}
