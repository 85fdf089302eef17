package ports

import (
	"context"

	"papertrader/internal/domain"
)

// Notifier presents the result of a cycle to the user.
type Notifier interface {
	// NotifyCycle renders the cycle summary. The console implementation
	// prints a compact line or full tables depending on configuration.
	NotifyCycle(ctx context.Context, rec domain.CycleRecord, positions []domain.Position, decisions []domain.TradeDecision) error
}
