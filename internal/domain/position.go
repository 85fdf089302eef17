package domain

import "time"

// Position is an open position as reported by the broker, enriched with the
// entry metadata we track locally (the broker does not keep entry confidence).
type Position struct {
	Symbol          string
	Qty             float64 // signed: negative = short
	AvgEntryPrice   float64
	CurrentPrice    float64
	MarketValue     float64
	UnrealizedPnL   float64
	EntryTime       time.Time
	EntryConfidence float64 // 0–1 at entry, heuristic
	EntryStrategy   Strategy
}

// PnLPct returns the unrealized P&L as a fraction of entry price.
// Positive = gain. Returns 0 when the entry price is unusable.
func (p Position) PnLPct() float64 {
	if p.AvgEntryPrice <= 0 || p.CurrentPrice <= 0 {
		return 0
	}
	pct := (p.CurrentPrice - p.AvgEntryPrice) / p.AvgEntryPrice
	if p.Qty < 0 {
		return -pct
	}
	return pct
}

// HoldDuration returns how long the position has been open.
func (p Position) HoldDuration() time.Duration {
	if p.EntryTime.IsZero() {
		return 0
	}
	return time.Since(p.EntryTime)
}

// HoldHours is HoldDuration in fractional hours.
func (p Position) HoldHours() float64 {
	return p.HoldDuration().Hours()
}

// Value returns the absolute market value of the position.
func (p Position) Value() float64 {
	if p.MarketValue != 0 {
		if p.MarketValue < 0 {
			return -p.MarketValue
		}
		return p.MarketValue
	}
	v := p.Qty * p.CurrentPrice
	if v < 0 {
		return -v
	}
	return v
}
