package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocksim/market"
)

// HistoryFetcher is the upstream source of daily rows.
type HistoryFetcher interface {
	History(ctx context.Context, symbol string) ([]Row, error)
}

// CachedProvider serves history from a day-keyed cache, fetching upstream
// at most once per symbol per day.
type CachedProvider struct {
	Fetcher HistoryFetcher
	Cache   Cache
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Rows returns the history of symbol and whether it came from the cache.
func (p *CachedProvider) Rows(ctx context.Context, symbol string) ([]Row, bool, error) {
	sym := market.NormalizeSymbol(symbol)
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	day := DayKey(now())

	rows, err := p.Cache.Get(ctx, sym, day)
	if err == nil {
		p.Logger.Debug().Str("symbol", sym).Msg("history cache hit")
		return rows, true, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		p.Logger.Warn().Err(err).Str("symbol", sym).Msg("history cache read failed")
	}

	p.Logger.Debug().Str("symbol", sym).Msg("history cache miss")
	rows, err = p.Fetcher.History(ctx, sym)
	if err != nil {
		return nil, false, err
	}
	if err := p.Cache.Set(ctx, sym, day, rows); err != nil {
		p.Logger.Warn().Err(err).Str("symbol", sym).Msg("history cache write failed")
	}
	return rows, false, nil
}

// Closes returns the sanitized closing prices of symbol.
func (p *CachedProvider) Closes(ctx context.Context, symbol string) ([]float64, error) {
	rows, _, err := p.Rows(ctx, symbol)
	if err != nil {
		return nil, err
	}
	closes := Closes(rows)
	if len(closes) == 0 {
		return nil, ErrEmptyHistory
	}
	return closes, nil
}
