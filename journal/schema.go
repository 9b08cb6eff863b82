package journal

const Schema = `
CREATE TABLE IF NOT EXISTS game_history (
	id TEXT PRIMARY KEY,
	player TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	sim_mode TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	target REAL NOT NULL,
	final_value REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	days_played INTEGER NOT NULL,
	trade_count INTEGER NOT NULL,
	panic_sell_count INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_history_player_created ON game_history(player, created_at);
`
