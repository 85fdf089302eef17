package domain

import "time"

// Action is what the pipeline decided to do with a symbol this cycle.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal is one analyzer's contribution to a decision.
type Signal struct {
	Source         string  // "regime", "technical", "heuristic", "pattern", "time"
	Recommendation Action  // sell or hold
	Confidence     float64 // 0–1
	Notes          []string
}

// TradeDecision is the outcome of the sizing/risk/exit pipeline for one
// symbol. Ephemeral: recomputed each cycle, persisted only as a trade row.
type TradeDecision struct {
	Symbol      string
	Action      Action
	Shares      int     // buy: target share count
	ExitPortion float64 // sell: fraction of the position to close (0–1]
	Confidence  float64
	Reason      string
	Signals     []Signal
	DecidedAt   time.Time
}

// SellVotes counts analyzers that recommended selling.
func (d TradeDecision) SellVotes() int {
	n := 0
	for _, s := range d.Signals {
		if s.Recommendation == ActionSell {
			n++
		}
	}
	return n
}

// OrderStatus is the lifecycle of a submitted (or simulated) order.
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusSkipped   OrderStatus = "SKIPPED"
	OrderStatusVirtual   OrderStatus = "VIRTUAL"
)

// TradeRecord is what persistence keeps about one executed (or simulated,
// or rejected) trade.
type TradeRecord struct {
	ID          string // local UUID
	CycleID     int64  // nullable link to trading_cycles
	OrderID     string // broker order id, empty for virtual/rejected
	Symbol      string
	Side        Action
	Qty         float64
	FillPrice   float64 // estimate at submission time
	Status      OrderStatus
	Reason      string
	Virtual     bool
	SubmittedAt time.Time
}
