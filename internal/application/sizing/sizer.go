// Package sizing converts an entry signal into a share count from the
// portfolio risk budget, the strategy posture and the signal confidence.
package sizing

import (
	"math"

	"papertrader/internal/domain"
)

// Sizer computes target share counts. Parameter swaps arrive through the
// engine's reload queue between cycles, always on the loop goroutine, so no
// locking is needed here.
type Sizer struct {
	params domain.RiskParameters
}

// New creates a Sizer with the given risk parameters.
func New(params domain.RiskParameters) *Sizer {
	return &Sizer{params: params}
}

// SetParams replaces the risk parameters. Must be called from the engine
// goroutine between cycles (the reload queue does this).
func (s *Sizer) SetParams(params domain.RiskParameters) {
	s.params = params
}

// Shares returns the target share count for an entry.
//
// The budget is portfolio × base risk %, scaled by the strategy multiplier
// and a confidence multiplier (0.7 + confidence×0.6, i.e. 0.7–1.3), then
// capped by the hard per-position ceiling and available buying power.
// A zero or negative entry price always yields 0 — never divide into it.
func (s *Sizer) Shares(entryPrice float64, strategy domain.Strategy, confidence, portfolioValue, buyingPower float64) int {
	if entryPrice <= 0 || portfolioValue <= 0 {
		return 0
	}
	confidence = clamp01(confidence)

	risk := portfolioValue * s.params.BaseRiskPct
	risk *= strategy.RiskMultiplier()
	risk *= 0.7 + confidence*0.6

	if s.params.MaxPositionValue > 0 && risk > s.params.MaxPositionValue {
		risk = s.params.MaxPositionValue
	}
	if buyingPower > 0 && risk > buyingPower {
		risk = buyingPower
	}

	shares := int(math.Floor(risk / entryPrice))
	if shares > 0 {
		return shares
	}

	// Budget rounds to zero shares: force one share if it is affordable
	// within both the buying power and the hard ceiling.
	if entryPrice <= buyingPower &&
		(s.params.MaxPositionValue <= 0 || entryPrice <= s.params.MaxPositionValue) {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
