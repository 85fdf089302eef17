package exit

import (
	"fmt"

	"papertrader/internal/domain"
	"papertrader/internal/indicators"
)

// Technical score weights. Total >= sellScoreThreshold recommends selling.
const (
	scoreRSIOverbought   = 2.0
	scoreRSIExtreme      = 0.5 // on top of overbought
	scoreMACDBearish     = 2.0
	scoreBollingerUpper  = 1.5
	scoreDeathCross      = 1.5
	scoreVolumeDecline   = 1.0
	sellScoreThreshold   = 3.5
	maxTechnicalScore    = 8.5

	rsiOverbought = 70.0
	rsiExtreme    = 80.0

	minTechnicalHistory = 30
)

// TechnicalAnalyzer scores indicator-based sell pressure.
type TechnicalAnalyzer struct{}

func (t *TechnicalAnalyzer) Name() string { return "technical" }

func (t *TechnicalAnalyzer) Analyze(pos domain.Position, snap Snapshot) domain.Signal {
	sig := domain.Signal{Source: t.Name(), Recommendation: domain.ActionHold}

	if len(snap.History) < minTechnicalHistory {
		sig.Confidence = 0.3
		sig.Notes = append(sig.Notes, "insufficient history for indicators")
		return sig
	}

	score := 0.0

	if rsi, ok := indicators.RSI(snap.History, 14); ok && rsi >= rsiOverbought {
		score += scoreRSIOverbought
		if rsi >= rsiExtreme {
			score += scoreRSIExtreme
		}
		sig.Notes = append(sig.Notes, fmt.Sprintf("RSI overbought: %.1f", rsi))
	}

	if _, _, hist, ok := indicators.MACD(snap.History, 12, 26, 9); ok && hist < 0 {
		score += scoreMACDBearish
		sig.Notes = append(sig.Notes, fmt.Sprintf("MACD bearish: histogram %.3f", hist))
	}

	if upper, _, _, ok := indicators.Bollinger(snap.History, 20, 2); ok &&
		upper > 0 && snap.Price >= upper*0.98 {
		score += scoreBollingerUpper
		sig.Notes = append(sig.Notes, fmt.Sprintf("near upper Bollinger band: %.2f vs %.2f", snap.Price, upper))
	}

	fast, okFast := indicators.SMA(snap.History, 10)
	slow, okSlow := indicators.SMA(snap.History, 20)
	if okFast && okSlow && fast < slow {
		score += scoreDeathCross
		sig.Notes = append(sig.Notes, fmt.Sprintf("SMA10 %.2f below SMA20 %.2f", fast, slow))
	}

	if indicators.DecliningTrend(snap.Volumes, 3) {
		score += scoreVolumeDecline
		sig.Notes = append(sig.Notes, "volume declining")
	}

	sig.Confidence = score / maxTechnicalScore
	if sig.Confidence > 1 {
		sig.Confidence = 1
	}
	if score >= sellScoreThreshold {
		sig.Recommendation = domain.ActionSell
		sig.Notes = append(sig.Notes, fmt.Sprintf("technical score %.1f >= %.1f", score, sellScoreThreshold))
	}
	return sig
}
