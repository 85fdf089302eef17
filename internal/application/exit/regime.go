package exit

import (
	"fmt"

	"papertrader/internal/domain"
)

// RegimeAnalyzer adjusts the effective profit target by the market regime:
// bearish regimes take profit earlier, bullish ones let winners run.
type RegimeAnalyzer struct {
	TakeProfitPct float64
}

func (r *RegimeAnalyzer) Name() string { return "regime" }

func (r *RegimeAnalyzer) Analyze(pos domain.Position, snap Snapshot) domain.Signal {
	sig := domain.Signal{Source: r.Name(), Recommendation: domain.ActionHold, Confidence: 0.5}

	target := r.TakeProfitPct * snap.Regime.TargetMultiplier()
	plPct := pos.PnLPct()

	if target > 0 && plPct >= target {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 0.75
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("regime-adjusted target reached: %.2f%% >= %.2f%% (%s)",
				plPct*100, target*100, snap.Regime))
		return sig
	}

	// In a bearish regime, half the adjusted target is already worth taking.
	if snap.Regime == domain.RegimeBearish && plPct > 0 && plPct >= target/2 {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 0.6
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("bearish regime: protecting %.2f%% gain", plPct*100))
		return sig
	}

	sig.Notes = append(sig.Notes, fmt.Sprintf("regime %s, target %.2f%%", snap.Regime, target*100))
	return sig
}
