package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{
	"id", "player", "status", "difficulty", "sim_mode", "initial_capital", "target",
	"final_value", "pnl", "pnl_pct", "days_played", "trade_count", "panic_sell_count", "created_at",
}

// CSV appends one summary row per game. Payloads are not written.
type CSV struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

// NewCSV opens path for appending and writes the header to a new file.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordGame(_ context.Context, g GameRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		g.ID,
		g.Player,
		g.Status,
		g.Difficulty,
		g.SimMode,
		f(g.InitialCapital),
		f(g.Target),
		f(g.FinalValue),
		f(g.PnL),
		f(g.PnLPct),
		strconv.Itoa(g.DaysPlayed),
		strconv.Itoa(g.TradeCount),
		strconv.Itoa(g.PanicSellCount),
		g.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
