// Package exit decides whether to close open positions. Hard overrides
// (minimum hold window, stop loss, major profit protection) are checked
// first; otherwise independent analyzers vote and the evaluator combines
// their recommendations. Stateless per call: everything is recomputed from
// the current snapshot and the stored entry metadata.
package exit

import (
	"fmt"
	"time"

	"papertrader/internal/domain"
)

// Snapshot is the market context for one evaluation.
type Snapshot struct {
	Price   float64
	Bid     float64
	Ask     float64
	Volume  float64
	History []float64 // recent closes, oldest first
	Volumes []float64 // recent volumes aligned with History, may be shorter
	Regime  domain.Regime
}

// Analyzer is one independent exit heuristic.
type Analyzer interface {
	Name() string
	Analyze(pos domain.Position, snap Snapshot) domain.Signal
}

// Evaluator combines hard overrides with analyzer voting.
type Evaluator struct {
	risk      domain.RiskParameters
	params    domain.ExitParameters
	analyzers []Analyzer
}

// New creates an Evaluator with the standard analyzer set.
func New(risk domain.RiskParameters, params domain.ExitParameters, scorer HeuristicScorer) *Evaluator {
	return &Evaluator{
		risk:   risk,
		params: params,
		analyzers: []Analyzer{
			&RegimeAnalyzer{TakeProfitPct: risk.TakeProfitPct},
			&TechnicalAnalyzer{},
			&HeuristicAnalyzer{Scorer: scorer},
			&PatternAnalyzer{},
			&TimeAnalyzer{Params: params, TakeProfitPct: risk.TakeProfitPct},
		},
	}
}

// NewWithAnalyzers creates an Evaluator with an explicit analyzer set (tests).
func NewWithAnalyzers(risk domain.RiskParameters, params domain.ExitParameters, analyzers ...Analyzer) *Evaluator {
	return &Evaluator{risk: risk, params: params, analyzers: analyzers}
}

// SetParams replaces thresholds. Must be called from the engine goroutine
// between cycles (the reload queue does this).
func (e *Evaluator) SetParams(risk domain.RiskParameters, params domain.ExitParameters) {
	e.risk = risk
	e.params = params
}

// Evaluate returns the sell/hold decision for one open position.
func (e *Evaluator) Evaluate(pos domain.Position, snap Snapshot) domain.TradeDecision {
	decision := domain.TradeDecision{
		Symbol:    pos.Symbol,
		Action:    domain.ActionHold,
		DecidedAt: time.Now(),
	}

	plPct := pos.PnLPct()
	holdHours := pos.HoldHours()

	// Premature-exit guard: inside the minimum hold window, only a breached
	// stop loss may force an exit.
	if holdHours < e.params.MinHoldHours && plPct > -e.risk.StopLossPct {
		decision.Reason = fmt.Sprintf("min_hold_period: %.1fh of %.1fh, P&L %.2f%%",
			holdHours, e.params.MinHoldHours, plPct*100)
		decision.Confidence = 1
		return decision
	}

	// Hard stop loss: boundary inclusive, full exit, overrides everything.
	if plPct <= -e.risk.StopLossPct {
		decision.Action = domain.ActionSell
		decision.ExitPortion = 1.0
		decision.Confidence = 1
		decision.Reason = fmt.Sprintf("stop_loss_triggered: %.2f%% <= -%.2f%%",
			plPct*100, e.risk.StopLossPct*100)
		return decision
	}

	// Major profit protection: lock in most of an outsized gain.
	if plPct >= 2*e.risk.TakeProfitPct {
		decision.Action = domain.ActionSell
		decision.ExitPortion = 0.70
		decision.Confidence = 1
		decision.Reason = fmt.Sprintf("major_profit_protection: %.2f%% >= 2x target %.2f%%",
			plPct*100, e.risk.TakeProfitPct*100)
		return decision
	}

	// Analyzer voting.
	sellVotes := 0
	sellConfidence := 0.0
	for _, a := range e.analyzers {
		sig := a.Analyze(pos, snap)
		decision.Signals = append(decision.Signals, sig)
		if sig.Recommendation == domain.ActionSell {
			sellVotes++
			sellConfidence += sig.Confidence
		}
	}

	total := len(e.analyzers)
	if total == 0 || sellVotes == 0 {
		decision.Reason = "hold: no sell signals"
		return decision
	}

	voteRatio := float64(sellVotes) / float64(total)
	blended := sellConfidence / float64(sellVotes)
	decision.Confidence = blended

	votedExit := voteRatio >= e.params.VoteThreshold &&
		blended >= e.params.MinExitConfidence &&
		plPct >= e.params.MinProfitFloor
	strongExit := sellVotes >= e.params.StrongVoteCount &&
		plPct > e.params.LargeLossGuard

	if !votedExit && !strongExit {
		decision.Reason = fmt.Sprintf("hold: %d/%d sell votes, conf %.2f, P&L %.2f%%",
			sellVotes, total, blended, plPct*100)
		return decision
	}

	decision.Action = domain.ActionSell
	decision.ExitPortion = exitPortion(plPct, e.params.DefaultExitPortion)
	decision.Reason = fmt.Sprintf("exit_vote: %d/%d analyzers, conf %.2f, P&L %.2f%%",
		sellVotes, total, blended, plPct*100)
	return decision
}

// exitPortion picks the fraction from the first satisfied profit tier.
func exitPortion(plPct, fallback float64) float64 {
	for _, tier := range domain.ExitTiers {
		if plPct >= tier.MinProfitPct {
			return tier.Portion
		}
	}
	return fallback
}
