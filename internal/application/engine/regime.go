package engine

import (
	"math"
	"sort"

	"papertrader/internal/domain"
	"papertrader/internal/indicators"
)

const (
	regimeSlopePeriod = 20
	bullishSlope      = 0.01 // +1% across the period
	bearishSlope      = -0.01
	strongSlope       = 0.05 // magnitude at which confidence saturates
)

// DetectRegime labels the market from the average trend slope across the
// watchlist histories. It is a coarse bias for strategy selection, not a
// forecast; with no usable history it reports neutral at low confidence.
func DetectRegime(histories map[string][]float64) (domain.Regime, float64) {
	symbols := make([]string, 0, len(histories))
	for sym := range histories {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var sum float64
	var rising, falling, used int
	for _, sym := range symbols {
		slope, ok := indicators.TrendSlope(histories[sym], regimeSlopePeriod)
		if !ok {
			continue
		}
		sum += slope
		used++
		switch {
		case slope > 0:
			rising++
		case slope < 0:
			falling++
		}
	}
	if used == 0 {
		return domain.RegimeNeutral, 0.5
	}

	avg := sum / float64(used)

	regime := domain.RegimeNeutral
	agreeing := used
	switch {
	case avg >= bullishSlope:
		regime = domain.RegimeBullish
		agreeing = rising
	case avg <= bearishSlope:
		regime = domain.RegimeBearish
		agreeing = falling
	}

	// Confidence blends slope magnitude with breadth: how many symbols
	// actually point the same way.
	magnitude := math.Min(math.Abs(avg)/strongSlope, 1)
	breadth := float64(agreeing) / float64(used)
	confidence := 0.5 + 0.4*magnitude*breadth

	return regime, confidence
}
