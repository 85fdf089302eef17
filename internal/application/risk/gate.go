// Package risk gates proposed entries against hard position, exposure,
// drawdown and buying-power limits. Rejections are outcomes, not errors:
// the gate returns a verdict with a reason and the cycle moves on.
package risk

import (
	"fmt"
	"log/slog"
	"time"

	"papertrader/internal/domain"
)

// Proposal is one candidate entry presented to the gate.
type Proposal struct {
	Symbol        string
	Shares        int
	Price         float64
	ExistingValue float64 // current exposure to the symbol
	OpenPositions int
	Account       domain.Account
}

// Value returns the proposed notional.
func (p Proposal) Value() float64 {
	return float64(p.Shares) * p.Price
}

// Gate evaluates proposals. Single-threaded cooperative use, like the rest
// of the loop.
type Gate struct {
	params   domain.RiskParameters
	breaker  *domain.DailyLossBreaker
	override bool
}

// NewGate creates a Gate around the shared daily-loss breaker.
// The override flag never disables the breaker; it only exists so an operator
// who set it learns, loudly and repeatedly, that it does nothing.
func NewGate(params domain.RiskParameters, breaker *domain.DailyLossBreaker, override bool) *Gate {
	return &Gate{params: params, breaker: breaker, override: override}
}

// SetParams replaces the risk parameters. Must be called from the engine
// goroutine between cycles (the reload queue does this).
func (g *Gate) SetParams(params domain.RiskParameters) {
	g.params = params
	g.breaker.MaxDailyLossPct = params.MaxDailyLossPct
}

// Breaker exposes the breaker for persistence.
func (g *Gate) Breaker() *domain.DailyLossBreaker {
	return g.breaker
}

// Evaluate runs every check in order and short-circuits on the first failure.
// There is no partial approval.
func (g *Gate) Evaluate(p Proposal) (bool, string) {
	if p.Shares <= 0 || p.Price <= 0 {
		return false, "invalid proposal: non-positive shares or price"
	}

	value := p.Value()
	if g.params.MaxPositionValue > 0 && value > g.params.MaxPositionValue {
		return false, fmt.Sprintf("position value $%.2f exceeds hard limit $%.2f",
			value, g.params.MaxPositionValue)
	}

	portfolio := p.Account.PortfolioValue
	if portfolio <= 0 {
		portfolio = p.Account.Equity
	}
	if g.params.MaxPositionPct > 0 && portfolio > 0 {
		maxExposure := portfolio * g.params.MaxPositionPct
		if p.ExistingValue+value > maxExposure {
			return false, fmt.Sprintf("combined exposure $%.2f exceeds %.0f%% portfolio cap ($%.2f)",
				p.ExistingValue+value, g.params.MaxPositionPct*100, maxExposure)
		}
	}

	if g.params.MaxOpenPositions > 0 && p.OpenPositions >= g.params.MaxOpenPositions {
		return false, fmt.Sprintf("open position count %d at configured maximum %d",
			p.OpenPositions, g.params.MaxOpenPositions)
	}

	if !g.breaker.Check(p.Account.DailyPnLPct(), time.Now()) {
		if g.override {
			// the flag exists only for backwards compatibility — it is not a bypass
			slog.Error("breaker override flag is set but has no effect; trading remains halted",
				"daily_pnl_pct", fmt.Sprintf("%.2f%%", p.Account.DailyPnLPct()*100),
				"limit_pct", fmt.Sprintf("%.2f%%", g.breaker.MaxDailyLossPct*100),
			)
		}
		return false, fmt.Sprintf("circuit breaker: %s (daily P&L %.2f%%)",
			g.breaker.TrippedReason, p.Account.DailyPnLPct()*100)
	}

	bp, source := buyingPower(p.Account)
	if source == "portfolio_value" {
		// last-resort fallback can overstate capacity
		slog.Warn("no buying power fields reported; falling back to portfolio value",
			"symbol", p.Symbol, "portfolio_value", bp)
	}
	if value > bp {
		return false, fmt.Sprintf("notional $%.2f exceeds available buying power $%.2f (%s)",
			value, bp, source)
	}

	return true, "approved"
}

// buyingPower walks the preference ladder: day-trading buying power, RegT,
// cash, then portfolio value as a last resort.
func buyingPower(a domain.Account) (float64, string) {
	switch {
	case a.DaytradingBuyingPower > 0:
		return a.DaytradingBuyingPower, "daytrading_buying_power"
	case a.RegTBuyingPower > 0:
		return a.RegTBuyingPower, "regt_buying_power"
	case a.BuyingPower > 0:
		return a.BuyingPower, "buying_power"
	case a.Cash > 0:
		return a.Cash, "cash"
	default:
		return a.PortfolioValue, "portfolio_value"
	}
}
