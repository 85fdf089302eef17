package ports

import (
	"context"
	"time"

	"papertrader/internal/domain"
)

// CycleStorage persists trading cycles and their trades.
type CycleStorage interface {
	// SaveCycle appends a cycle row plus its quotes and trades, returning the
	// cycle id. Last write wins; there are no cross-table transactions beyond
	// the single insert batch.
	SaveCycle(ctx context.Context, rec domain.CycleRecord) (int64, error)

	// SaveTrade appends a trade outside a cycle batch (retries, manual ops).
	SaveTrade(ctx context.Context, tr domain.TradeRecord) error

	// GetCycles returns cycles recorded in [from, to], newest first.
	GetCycles(ctx context.Context, from, to time.Time) ([]domain.CycleRecord, error)

	// GetTrades returns trades for a symbol, newest first ("" = all).
	GetTrades(ctx context.Context, symbol string, limit int) ([]domain.TradeRecord, error)

	// Entry metadata mirrors what the broker cannot store for us.
	SaveEntryMeta(ctx context.Context, symbol string, at time.Time, confidence float64, strategy domain.Strategy) error
	GetEntryMeta(ctx context.Context, symbol string) (at time.Time, confidence float64, strategy domain.Strategy, ok bool, err error)
	DeleteEntryMeta(ctx context.Context, symbol string) error

	// Breaker state survives restarts.
	SaveBreaker(ctx context.Context, b domain.DailyLossBreaker) error
	LoadBreaker(ctx context.Context) (domain.DailyLossBreaker, bool, error)

	// Close closes the database cleanly.
	Close() error
}

// SnapshotWriter exports the latest cycle for external readers.
type SnapshotWriter interface {
	WriteSnapshot(snap domain.CycleSnapshot) error
}
