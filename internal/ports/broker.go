package ports

import (
	"context"

	"papertrader/internal/domain"
)

// AccountProvider exposes brokerage account state.
type AccountProvider interface {
	// GetAccount returns the live account snapshot. Called every cycle —
	// the broker, not a local cache, is the source of truth.
	GetAccount(ctx context.Context) (domain.Account, error)
}

// QuoteProvider fetches market data for the watchlist.
type QuoteProvider interface {
	// GetLatestQuote returns the latest bid/ask for one symbol.
	GetLatestQuote(ctx context.Context, symbol string) (domain.Quote, error)

	// GetRecentBars returns up to limit recent bars for a symbol, oldest
	// first. Used to seed indicator close and volume history at startup.
	GetRecentBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error)
}

// PositionProvider lists the open positions held at the broker.
type PositionProvider interface {
	ListPositions(ctx context.Context) ([]domain.Position, error)
}

// OrderExecutor submits and cancels orders at the broker.
type OrderExecutor interface {
	// SubmitMarketOrder places a market order and returns the broker order id
	// with a fill-price estimate (the quote at submission).
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.Action, qty float64) (orderID string, estPrice float64, err error)

	// CancelOrder cancels a pending order by broker id.
	CancelOrder(ctx context.Context, orderID string) error

	// HasOpenOrder reports whether a pending order already exists for the
	// symbol. Best-effort duplicate-submission guard.
	HasOpenOrder(ctx context.Context, symbol string) (bool, error)
}

// ClockProvider exposes the venue's market clock.
type ClockProvider interface {
	GetClock(ctx context.Context) (domain.Clock, error)
}

// Broker is the full brokerage surface the trading loop consumes.
type Broker interface {
	AccountProvider
	QuoteProvider
	PositionProvider
	OrderExecutor
	ClockProvider
}
