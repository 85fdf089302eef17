package exit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/application/exit"
	"papertrader/internal/domain"
)

func TestRegimeAnalyzer_BearishLowersTarget(t *testing.T) {
	a := &exit.RegimeAnalyzer{TakeProfitPct: 0.15}

	// +12% is under the neutral 15% target but over the bearish 10.5% one
	pos := position(100, 112, 24)

	sig := a.Analyze(pos, exit.Snapshot{Price: 112, Regime: domain.RegimeNeutral})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)

	sig = a.Analyze(pos, exit.Snapshot{Price: 112, Regime: domain.RegimeBearish})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
}

func TestRegimeAnalyzer_BullishRaisesTarget(t *testing.T) {
	a := &exit.RegimeAnalyzer{TakeProfitPct: 0.15}

	// +16% clears the neutral target but not the bullish 19.5% one
	pos := position(100, 116, 24)

	sig := a.Analyze(pos, exit.Snapshot{Price: 116, Regime: domain.RegimeNeutral})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)

	sig = a.Analyze(pos, exit.Snapshot{Price: 116, Regime: domain.RegimeBullish})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)
}

func TestTechnicalAnalyzer_InsufficientHistoryHolds(t *testing.T) {
	a := &exit.TechnicalAnalyzer{}
	sig := a.Analyze(position(100, 105, 24), exit.Snapshot{Price: 105, History: ramp(10, 100, 1)})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)
	assert.Less(t, sig.Confidence, 0.5)
}

func TestTechnicalAnalyzer_OverboughtSells(t *testing.T) {
	a := &exit.TechnicalAnalyzer{}

	// a relentless ramp pegs RSI at 100, pushes price against the upper
	// Bollinger band and, with volume drying up, clears the sell threshold
	history := ramp(50, 100, 1.0)
	snap := exit.Snapshot{
		Price:   history[len(history)-1],
		History: history,
		Volumes: []float64{900, 800, 700, 600},
	}
	sig := a.Analyze(position(100, snap.Price, 48), snap)
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
	assert.NotEmpty(t, sig.Notes)
}

func TestHeuristicAnalyzer_FreshConfidentPositionHolds(t *testing.T) {
	a := &exit.HeuristicAnalyzer{Scorer: exit.NewDecayScorer()}
	sig := a.Analyze(position(100, 102, 3), exit.Snapshot{Price: 102})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)
}

func TestHeuristicAnalyzer_DecayedConfidenceSells(t *testing.T) {
	a := &exit.HeuristicAnalyzer{Scorer: exit.NewDecayScorer()}

	pos := position(100, 100, 24*40) // 40 days, flat
	pos.EntryConfidence = 0.5
	sig := a.Analyze(pos, exit.Snapshot{Price: 100})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
}

func TestHeuristicAnalyzer_BigAgedGainFlagsReversal(t *testing.T) {
	a := &exit.HeuristicAnalyzer{Scorer: exit.NewDecayScorer()}

	pos := position(100, 125, 24*5) // +25% over 5 days
	sig := a.Analyze(pos, exit.Snapshot{Price: 125})
	require.Equal(t, domain.ActionSell, sig.Recommendation)
	assert.Contains(t, sig.Notes[0], "reversal")
}

func TestTimeAnalyzer_MaxHoldingPeriod(t *testing.T) {
	a := &exit.TimeAnalyzer{Params: domain.DefaultExitParameters(), TakeProfitPct: 0.15}

	sig := a.Analyze(position(100, 102, 24*11), exit.Snapshot{Price: 102})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
	assert.Contains(t, sig.Notes[0], "max holding")
}

func TestTimeAnalyzer_StagnantPosition(t *testing.T) {
	a := &exit.TimeAnalyzer{Params: domain.DefaultExitParameters(), TakeProfitPct: 0.15}

	sig := a.Analyze(position(100, 100.3, 24*5), exit.Snapshot{Price: 100.3})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
	assert.Contains(t, sig.Notes[0], "stagnant")
}

func TestTimeAnalyzer_AcceleratedEarlyProfit(t *testing.T) {
	a := &exit.TimeAnalyzer{Params: domain.DefaultExitParameters(), TakeProfitPct: 0.15}

	sig := a.Analyze(position(100, 113, 6), exit.Snapshot{Price: 113})
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
	assert.Contains(t, sig.Notes[0], "accelerated")
}

func TestTimeAnalyzer_YoungHealthyPositionHolds(t *testing.T) {
	a := &exit.TimeAnalyzer{Params: domain.DefaultExitParameters(), TakeProfitPct: 0.15}

	sig := a.Analyze(position(100, 103, 30), exit.Snapshot{Price: 103})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)
}

func TestPatternAnalyzer_LowerHighsIntoResistanceSells(t *testing.T) {
	a := &exit.PatternAnalyzer{}

	// descending local highs (120, 119.5, 119) with price pinned just under
	// the 20-bar high: lower highs plus near-resistance crosses the threshold
	history := append(ramp(20, 100, 1.0),
		120, 119, 118, 117, 116,
		119.5, 118, 117, 116, 115,
		119, 118, 118.5, 118.9, 119)
	snap := exit.Snapshot{Price: 119, History: history}

	sig := a.Analyze(position(100, 119, 48), snap)
	assert.Equal(t, domain.ActionSell, sig.Recommendation)
}

func TestPatternAnalyzer_QuietTapeHolds(t *testing.T) {
	a := &exit.PatternAnalyzer{}

	sig := a.Analyze(position(100, 101, 48), exit.Snapshot{Price: 101, History: ramp(30, 95, 0.2)})
	assert.Equal(t, domain.ActionHold, sig.Recommendation)
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
