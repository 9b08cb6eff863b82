package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const gameColumns = `id, player, status, difficulty, sim_mode, initial_capital, target, final_value,
	pnl, pnl_pct, days_played, trade_count, panic_sell_count, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner, extra ...any) (GameRecord, error) {
	var rec GameRecord
	dest := []any{
		&rec.ID,
		&rec.Player,
		&rec.Status,
		&rec.Difficulty,
		&rec.SimMode,
		&rec.InitialCapital,
		&rec.Target,
		&rec.FinalValue,
		&rec.PnL,
		&rec.PnLPct,
		&rec.DaysPlayed,
		&rec.TradeCount,
		&rec.PanicSellCount,
		&rec.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return rec, err
}

// GetGame returns a single game with its payload.
func (j *SQLite) GetGame(ctx context.Context, id string) (GameRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+gameColumns+`, payload
		FROM game_history
		WHERE id = ?`, id)

	var payload string
	rec, err := scanGame(row, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GameRecord{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return GameRecord{}, err
	}

	var p Payload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return GameRecord{}, fmt.Errorf("decode payload of %q: %w", id, err)
	}
	rec.Payload = &p
	return rec, nil
}

// ListGames returns the most recent games, newest first, without payloads.
// An empty player lists every player.
func (j *SQLite) ListGames(ctx context.Context, player string, limit int) ([]GameRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM game_history
		WHERE ? = '' OR player = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, player, player, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRecord{}
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
