package domain

// Regime is a coarse label for recent price-trend direction across the
// watchlist. It biases strategy selection and exit targets; it is not a
// forecast.
type Regime string

const (
	RegimeBullish Regime = "bullish"
	RegimeBearish Regime = "bearish"
	RegimeNeutral Regime = "neutral"
)

// TargetMultiplier adjusts effective take-profit targets: a bearish regime
// lowers the bar for taking profit, a bullish one raises it.
func (r Regime) TargetMultiplier() float64 {
	switch r {
	case RegimeBullish:
		return 1.3
	case RegimeBearish:
		return 0.7
	default:
		return 1.0
	}
}

// Strategy is the sizing posture selected for a cycle.
type Strategy string

const (
	StrategyAggressive   Strategy = "aggressive"
	StrategyBalanced     Strategy = "balanced"
	StrategyConservative Strategy = "conservative"
)

// RiskMultiplier scales the per-trade risk budget.
func (s Strategy) RiskMultiplier() float64 {
	switch s {
	case StrategyAggressive:
		return 1.5
	case StrategyConservative:
		return 0.3
	default:
		return 1.0
	}
}

// StrategyForRegime maps the detected regime to a sizing posture.
func StrategyForRegime(r Regime) Strategy {
	switch r {
	case RegimeBullish:
		return StrategyAggressive
	case RegimeBearish:
		return StrategyConservative
	default:
		return StrategyBalanced
	}
}
