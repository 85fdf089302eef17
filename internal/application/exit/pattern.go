package exit

import (
	"fmt"

	"papertrader/internal/domain"
	"papertrader/internal/indicators"
)

const (
	scoreNearResistance  = 1.5
	scoreLowerHighs      = 1.5
	scoreFailedBreakout  = 2.0
	patternSellThreshold = 2.5
	maxPatternScore      = 5.0

	resistanceLookback = 20
	minPatternHistory  = 20
)

// PatternAnalyzer scores proximity to resistance, lower-high sequences and
// failed breakouts. Thresholds, not chart reading.
type PatternAnalyzer struct{}

func (p *PatternAnalyzer) Name() string { return "pattern" }

func (p *PatternAnalyzer) Analyze(pos domain.Position, snap Snapshot) domain.Signal {
	sig := domain.Signal{Source: p.Name(), Recommendation: domain.ActionHold}

	if len(snap.History) < minPatternHistory {
		sig.Confidence = 0.3
		sig.Notes = append(sig.Notes, "insufficient history for patterns")
		return sig
	}

	score := 0.0

	resistance, _ := indicators.HighestClose(snap.History, resistanceLookback)
	if resistance > 0 && snap.Price >= resistance*0.99 && snap.Price <= resistance {
		score += scoreNearResistance
		sig.Notes = append(sig.Notes,
			fmt.Sprintf("near resistance: %.2f vs %.2f", snap.Price, resistance))
	}

	if lowerHighs(snap.History) {
		score += scoreLowerHighs
		sig.Notes = append(sig.Notes, "lower highs forming")
	}

	// Failed breakout: a recent close above resistance that did not hold.
	if resistance > 0 && snap.Price < resistance*0.99 {
		recentHigh, ok := indicators.HighestClose(snap.History, 5)
		if ok && recentHigh >= resistance {
			score += scoreFailedBreakout
			sig.Notes = append(sig.Notes,
				fmt.Sprintf("failed breakout: high %.2f fell back to %.2f", recentHigh, snap.Price))
		}
	}

	sig.Confidence = score / maxPatternScore
	if score >= patternSellThreshold {
		sig.Recommendation = domain.ActionSell
		sig.Notes = append(sig.Notes, fmt.Sprintf("pattern score %.1f >= %.1f", score, patternSellThreshold))
	}
	return sig
}

// lowerHighs reports whether the maxima of the last three 5-bar windows are
// strictly decreasing.
func lowerHighs(history []float64) bool {
	if len(history) < 15 {
		return false
	}
	tail := history[len(history)-15:]
	h1, _ := indicators.HighestClose(tail[:5], 5)
	h2, _ := indicators.HighestClose(tail[5:10], 5)
	h3, _ := indicators.HighestClose(tail[10:], 5)
	return h1 > h2 && h2 > h3
}
