package domain

import "time"

// CycleRecord is the append-only summary of one trading cycle.
type CycleRecord struct {
	ID         int64
	At         time.Time
	Regime     Regime
	Strategy   Strategy
	Confidence float64
	MarketOpen bool
	Quotes     []Quote
	Trades     []TradeRecord
	Positions  int
	Equity     float64
	DailyPnL   float64
}

// CycleSnapshot is the immutable per-cycle view exported as JSON for any
// external reader. The loop is the single writer; readers get a file, not a
// shared dict.
type CycleSnapshot struct {
	At         time.Time          `json:"at"`
	Regime     Regime             `json:"regime"`
	Strategy   Strategy           `json:"strategy"`
	Confidence float64            `json:"confidence"`
	MarketOpen bool               `json:"market_open"`
	Equity     float64            `json:"equity"`
	DailyPnL   float64            `json:"daily_pnl_pct"`
	Breaker    bool               `json:"breaker_tripped"`
	Quotes     map[string]float64 `json:"quotes"` // symbol → mid
	Trades     []SnapshotTrade    `json:"trades"`
	Positions  []SnapshotPosition `json:"positions"`
}

// SnapshotTrade is the JSON shape of one trade in the snapshot.
type SnapshotTrade struct {
	Symbol  string  `json:"symbol"`
	Side    Action  `json:"side"`
	Qty     float64 `json:"qty"`
	Price   float64 `json:"price"`
	Status  string  `json:"status"`
	Reason  string  `json:"reason"`
	Virtual bool    `json:"virtual"`
}

// SnapshotPosition is the JSON shape of one open position in the snapshot.
type SnapshotPosition struct {
	Symbol     string  `json:"symbol"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entry_price"`
	Price      float64 `json:"price"`
	PnLPct     float64 `json:"pnl_pct"`
	HoldHours  float64 `json:"hold_hours"`
}
