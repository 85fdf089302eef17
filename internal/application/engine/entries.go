package engine

import (
	"papertrader/internal/indicators"
)

const (
	minEntryHistory  = 30
	entrySlopePeriod = 20
	entryRSIMax      = 70.0
)

// entryScore rates a symbol as an entry candidate from its close history.
// Momentum must be positive and the symbol not already overbought; the
// returned confidence is a heuristic blend in [0,1], not a probability.
func entryScore(closes []float64) (float64, bool) {
	if len(closes) < minEntryHistory {
		return 0, false
	}

	slope, ok := indicators.TrendSlope(closes, entrySlopePeriod)
	if !ok || slope <= 0 {
		return 0, false
	}

	if rsi, ok := indicators.RSI(closes, 14); ok && rsi >= entryRSIMax {
		return 0, false
	}

	confidence := 0.5

	// up to +0.25 for momentum, saturating at +5% over the period
	boost := slope * 5
	if boost > 0.25 {
		boost = 0.25
	}
	confidence += boost

	price := closes[len(closes)-1]
	if sma, ok := indicators.SMA(closes, 20); ok && price > sma {
		confidence += 0.10
	}
	if _, _, hist, ok := indicators.MACD(closes, 12, 26, 9); ok && hist > 0 {
		confidence += 0.05
	}

	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence, true
}
