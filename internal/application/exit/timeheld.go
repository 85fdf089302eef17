package exit

import (
	"fmt"
	"math"

	"papertrader/internal/domain"
)

// TimeAnalyzer exits on holding-time rules: hard age ceiling, stagnation,
// and unusually fast early profits.
type TimeAnalyzer struct {
	Params        domain.ExitParameters
	TakeProfitPct float64
}

func (t *TimeAnalyzer) Name() string { return "time" }

func (t *TimeAnalyzer) Analyze(pos domain.Position, snap Snapshot) domain.Signal {
	sig := domain.Signal{Source: t.Name(), Recommendation: domain.ActionHold, Confidence: 0.5}

	holdDays := pos.HoldHours() / 24
	plPct := pos.PnLPct()

	if t.Params.MaxHoldDays > 0 && holdDays > t.Params.MaxHoldDays {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 0.8
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("max holding period: %.1fd > %.1fd", holdDays, t.Params.MaxHoldDays))
		return sig
	}

	if t.Params.StagnantDays > 0 && holdDays >= t.Params.StagnantDays && math.Abs(plPct) < 0.01 {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 0.6
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("stagnant: %.2f%% after %.1fd", plPct*100, holdDays))
		return sig
	}

	// Early spike: most of the target inside a day tends to mean-revert.
	if holdDays <= 1 && t.TakeProfitPct > 0 && plPct >= 0.8*t.TakeProfitPct {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 0.7
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("accelerated profit: %.2f%% in %.1fh", plPct*100, pos.HoldHours()))
		return sig
	}

	sig.Notes = append(sig.Notes, fmt.Sprintf("held %.1fd, P&L %.2f%%", holdDays, plPct*100))
	return sig
}
