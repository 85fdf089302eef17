package storage

// sqlite.go — cycle persistence without noise.
//
// Strategy:
//   - `trading_cycles`: one light summary row per cycle, always written.
//   - `trades` / `virtual_trades`: one row per submitted (or simulated)
//     order. Skipped decisions are not persisted — "hold" is not signal.
//   - `market_quotes`: per-cycle quote snapshot, pruned aggressively since
//     it dominates disk usage.
//   - `entry_meta`: entry time/confidence/strategy per symbol — the broker
//     cannot store these for us and the exit evaluator needs them.
//   - `breaker_state`: single-row daily-loss breaker state so a restart
//     cannot silently re-arm trading on a tripped day.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"papertrader/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trading_cycles (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    at         DATETIME NOT NULL,
    regime     TEXT     NOT NULL,
    strategy   TEXT     NOT NULL,
    confidence REAL     NOT NULL DEFAULT 0,
    market_open INTEGER NOT NULL DEFAULT 0,
    positions  INTEGER  NOT NULL DEFAULT 0,
    equity     REAL     NOT NULL DEFAULT 0,
    daily_pnl  REAL     NOT NULL DEFAULT 0,
    trades     INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    cycle_id     INTEGER,
    order_id     TEXT,
    symbol       TEXT NOT NULL,
    side         TEXT NOT NULL,
    qty          REAL NOT NULL,
    fill_price   REAL NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    reason       TEXT,
    submitted_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS virtual_trades (
    id           TEXT PRIMARY KEY,
    cycle_id     INTEGER,
    order_id     TEXT,
    symbol       TEXT NOT NULL,
    side         TEXT NOT NULL,
    qty          REAL NOT NULL,
    fill_price   REAL NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    reason       TEXT,
    submitted_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS market_quotes (
    cycle_id INTEGER,
    symbol   TEXT NOT NULL,
    bid      REAL NOT NULL DEFAULT 0,
    ask      REAL NOT NULL DEFAULT 0,
    volume   REAL NOT NULL DEFAULT 0,
    at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS entry_meta (
    symbol     TEXT PRIMARY KEY,
    entered_at DATETIME NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    strategy   TEXT NOT NULL DEFAULT 'balanced'
);

CREATE TABLE IF NOT EXISTS breaker_state (
    id        INTEGER PRIMARY KEY CHECK (id = 1),
    day       DATETIME NOT NULL,
    tripped   INTEGER  NOT NULL DEFAULT 0,
    tripped_at DATETIME,
    reason    TEXT,
    limit_pct REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_at      ON trading_cycles(at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_symbol  ON trades(symbol, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_vtrades_symbol ON virtual_trades(symbol, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_quotes_cycle   ON market_quotes(cycle_id);
`

const (
	retentionCycles = 30 * 24 * time.Hour
	retentionQuotes = 7 * 24 * time.Hour // quote rows dominate disk usage
)

// SQLiteStorage implements ports.CycleStorage using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path,
// applies the schema and prunes old rows.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle appends the cycle summary plus its quotes and trades in one
// transaction and returns the new cycle id.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, rec domain.CycleRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	marketOpen := 0
	if rec.MarketOpen {
		marketOpen = 1
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO trading_cycles (at, regime, strategy, confidence, market_open, positions, equity, daily_pnl, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.At.UTC(), string(rec.Regime), string(rec.Strategy), rec.Confidence,
		marketOpen, rec.Positions, rec.Equity, rec.DailyPnL, len(rec.Trades),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}
	cycleID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.SaveCycle: cycle id: %w", err)
	}

	for _, q := range rec.Quotes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO market_quotes (cycle_id, symbol, bid, ask, volume, at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cycleID, q.Symbol, q.BidPrice, q.AskPrice, q.Volume, q.Timestamp.UTC(),
		); err != nil {
			return 0, fmt.Errorf("storage.SaveCycle: insert quote %s: %w", q.Symbol, err)
		}
	}

	for _, tr := range rec.Trades {
		if err := insertTrade(ctx, tx, cycleID, tr); err != nil {
			return 0, fmt.Errorf("storage.SaveCycle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return cycleID, nil
}

// SaveTrade appends a single trade row outside a cycle batch.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, tr domain.TradeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := insertTrade(ctx, tx, tr.CycleID, tr); err != nil {
		return fmt.Errorf("storage.SaveTrade: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveTrade: commit: %w", err)
	}
	return nil
}

func insertTrade(ctx context.Context, tx *sql.Tx, cycleID int64, tr domain.TradeRecord) error {
	table := "trades"
	if tr.Virtual {
		table = "virtual_trades"
	}
	var cid any
	if cycleID > 0 {
		cid = cycleID
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO `+table+` (id, cycle_id, order_id, symbol, side, qty, fill_price, status, reason, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, cid, tr.OrderID, tr.Symbol, string(tr.Side), tr.Qty,
		tr.FillPrice, string(tr.Status), tr.Reason, tr.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", table, tr.Symbol, err)
	}
	return nil
}

// GetCycles returns cycle summaries in [from, to], newest first. Quotes and
// trades are not joined in — callers wanting them query per table.
func (s *SQLiteStorage) GetCycles(ctx context.Context, from, to time.Time) ([]domain.CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, regime, strategy, confidence, market_open, positions, equity, daily_pnl
		FROM trading_cycles
		WHERE at BETWEEN ? AND ?
		ORDER BY at DESC`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetCycles: query: %w", err)
	}
	defer rows.Close()

	var cycles []domain.CycleRecord
	for rows.Next() {
		var rec domain.CycleRecord
		var regime, strategy string
		var marketOpen int
		if err := rows.Scan(&rec.ID, &rec.At, &regime, &strategy,
			&rec.Confidence, &marketOpen, &rec.Positions, &rec.Equity, &rec.DailyPnL,
		); err != nil {
			return nil, fmt.Errorf("storage.GetCycles: scan row: %w", err)
		}
		rec.Regime = domain.Regime(regime)
		rec.Strategy = domain.Strategy(strategy)
		rec.MarketOpen = marketOpen == 1
		cycles = append(cycles, rec)
	}
	return cycles, rows.Err()
}

// GetTrades returns real trades for a symbol, newest first ("" = all).
func (s *SQLiteStorage) GetTrades(ctx context.Context, symbol string, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, COALESCE(cycle_id, 0), COALESCE(order_id, ''), symbol, side, qty, fill_price, status, COALESCE(reason, ''), submitted_at
		FROM trades`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY submitted_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var tr domain.TradeRecord
		var side, status string
		if err := rows.Scan(&tr.ID, &tr.CycleID, &tr.OrderID, &tr.Symbol, &side,
			&tr.Qty, &tr.FillPrice, &status, &tr.Reason, &tr.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan row: %w", err)
		}
		tr.Side = domain.Action(side)
		tr.Status = domain.OrderStatus(status)
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// SaveEntryMeta upserts the locally-tracked entry metadata for a symbol.
func (s *SQLiteStorage) SaveEntryMeta(ctx context.Context, symbol string, at time.Time, confidence float64, strategy domain.Strategy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entry_meta (symbol, entered_at, confidence, strategy)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			entered_at = excluded.entered_at,
			confidence = excluded.confidence,
			strategy   = excluded.strategy`,
		symbol, at.UTC(), confidence, string(strategy))
	if err != nil {
		return fmt.Errorf("storage.SaveEntryMeta: %s: %w", symbol, err)
	}
	return nil
}

// GetEntryMeta returns the entry metadata for a symbol, ok=false when absent.
func (s *SQLiteStorage) GetEntryMeta(ctx context.Context, symbol string) (time.Time, float64, domain.Strategy, bool, error) {
	var at time.Time
	var confidence float64
	var strategy string
	err := s.db.QueryRowContext(ctx,
		`SELECT entered_at, confidence, strategy FROM entry_meta WHERE symbol = ?`,
		symbol).Scan(&at, &confidence, &strategy)
	if err == sql.ErrNoRows {
		return time.Time{}, 0, "", false, nil
	}
	if err != nil {
		return time.Time{}, 0, "", false, fmt.Errorf("storage.GetEntryMeta: %s: %w", symbol, err)
	}
	return at, confidence, domain.Strategy(strategy), true, nil
}

// DeleteEntryMeta removes entry metadata once a position is fully closed.
func (s *SQLiteStorage) DeleteEntryMeta(ctx context.Context, symbol string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entry_meta WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("storage.DeleteEntryMeta: %s: %w", symbol, err)
	}
	return nil
}

// SaveBreaker persists the daily-loss breaker state (single row).
func (s *SQLiteStorage) SaveBreaker(ctx context.Context, b domain.DailyLossBreaker) error {
	tripped := 0
	if b.Tripped {
		tripped = 1
	}
	var trippedAt any
	if !b.TrippedAt.IsZero() {
		trippedAt = b.TrippedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO breaker_state (id, day, tripped, tripped_at, reason, limit_pct)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day        = excluded.day,
			tripped    = excluded.tripped,
			tripped_at = excluded.tripped_at,
			reason     = excluded.reason,
			limit_pct  = excluded.limit_pct`,
		b.Day.UTC(), tripped, trippedAt, b.TrippedReason, b.MaxDailyLossPct)
	if err != nil {
		return fmt.Errorf("storage.SaveBreaker: %w", err)
	}
	return nil
}

// LoadBreaker returns the persisted breaker state, ok=false on first run.
func (s *SQLiteStorage) LoadBreaker(ctx context.Context) (domain.DailyLossBreaker, bool, error) {
	var b domain.DailyLossBreaker
	var tripped int
	var trippedAt sql.NullTime
	var reason sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT day, tripped, tripped_at, reason, limit_pct FROM breaker_state WHERE id = 1`,
	).Scan(&b.Day, &tripped, &trippedAt, &reason, &b.MaxDailyLossPct)
	if err == sql.ErrNoRows {
		return domain.DailyLossBreaker{}, false, nil
	}
	if err != nil {
		return domain.DailyLossBreaker{}, false, fmt.Errorf("storage.LoadBreaker: %w", err)
	}
	b.Tripped = tripped == 1
	if trippedAt.Valid {
		b.TrippedAt = trippedAt.Time
	}
	b.TrippedReason = reason.String
	return b, true, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld deletes old rows to keep the DB light.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffCycles := time.Now().UTC().Add(-retentionCycles)
	cutoffQuotes := time.Now().UTC().Add(-retentionQuotes)
	s.db.ExecContext(ctx, `DELETE FROM trading_cycles WHERE at < ?`, cutoffCycles)
	s.db.ExecContext(ctx, `DELETE FROM market_quotes WHERE at < ?`, cutoffQuotes)
}
