package exit

import (
	"fmt"
	"math"

	"papertrader/internal/domain"
)

// HeuristicScorer produces conviction scores for an open position. This is
// explicitly NOT a learned model: implementations are closed-form formulas.
// Anything claiming to be a real model belongs behind a different interface
// with a train/inference contract.
type HeuristicScorer interface {
	// Score returns the current conviction in the position and the
	// estimated probability that the move reverses.
	Score(pos domain.Position, snap Snapshot) (conviction, reversalProb float64)
}

// DecayScorer decays entry confidence over holding time and raises reversal
// probability with gain size and age. Deterministic by construction.
type DecayScorer struct {
	DecayPerDay float64 // fraction of conviction lost per holding day
}

// NewDecayScorer returns the standard scorer.
func NewDecayScorer() *DecayScorer {
	return &DecayScorer{DecayPerDay: 0.05}
}

func (d *DecayScorer) Score(pos domain.Position, snap Snapshot) (float64, float64) {
	holdDays := pos.HoldHours() / 24
	plPct := pos.PnLPct()

	conviction := pos.EntryConfidence * math.Exp(-d.DecayPerDay*holdDays)
	// a working thesis deserves some credit, a failing one loses more
	conviction += plPct * 0.5
	conviction = clamp01(conviction)

	// reversal risk grows with unrealized gain and with age
	reversal := 0.25 + math.Max(plPct, 0)*1.5 + holdDays*0.03
	reversal = clamp01(reversal)

	return conviction, reversal
}

const (
	lowConvictionThreshold = 0.35
	reversalThreshold      = 0.65
)

// HeuristicAnalyzer turns scorer output into a sell/hold signal.
type HeuristicAnalyzer struct {
	Scorer HeuristicScorer
}

func (h *HeuristicAnalyzer) Name() string { return "heuristic" }

func (h *HeuristicAnalyzer) Analyze(pos domain.Position, snap Snapshot) domain.Signal {
	sig := domain.Signal{Source: h.Name(), Recommendation: domain.ActionHold, Confidence: 0.5}
	if h.Scorer == nil {
		sig.Notes = append(sig.Notes, "no scorer configured")
		return sig
	}

	conviction, reversal := h.Scorer.Score(pos, snap)

	if conviction < lowConvictionThreshold {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = 1 - conviction
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("conviction decayed to %.2f (entry %.2f)", conviction, pos.EntryConfidence))
		return sig
	}
	if reversal > reversalThreshold {
		sig.Recommendation = domain.ActionSell
		sig.Confidence = reversal
		sig.Notes = append(sig.Notes, fmt.Sprintf("reversal probability %.2f", reversal))
		return sig
	}

	sig.Confidence = conviction
	sig.Notes = append(sig.Notes,
		fmt.Sprintf("conviction %.2f, reversal %.2f", conviction, reversal))
	return sig
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
