package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordGame inserts a finished game. Recording the same id twice fails.
func (j *SQLite) RecordGame(ctx context.Context, g GameRecord) error {
	payload, err := json.Marshal(g.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO game_history
		(id, player, status, difficulty, sim_mode, initial_capital, target, final_value,
		 pnl, pnl_pct, days_played, trade_count, panic_sell_count, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Player, g.Status, g.Difficulty, g.SimMode, g.InitialCapital, g.Target, g.FinalValue,
		g.PnL, g.PnLPct, g.DaysPlayed, g.TradeCount, g.PanicSellCount, g.CreatedAt.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("record game %q: %w", g.ID, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
