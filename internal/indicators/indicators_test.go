package indicators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/indicators"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	sma, ok := indicators.SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.True(t, ok)
	assert.InDelta(t, 3.0, sma, 1e-9)

	// window takes only the tail
	sma, ok = indicators.SMA([]float64{100, 1, 2, 3}, 3)
	require.True(t, ok)
	assert.InDelta(t, 2.0, sma, 1e-9)

	_, ok = indicators.SMA([]float64{1, 2}, 5)
	assert.False(t, ok)
}

func TestEMA_ConstantSeries(t *testing.T) {
	ema := indicators.EMA([]float64{5, 5, 5, 5, 5, 5}, 3)
	require.NotEmpty(t, ema)
	for _, v := range ema {
		assert.InDelta(t, 5.0, v, 1e-9)
	}
}

func TestRSI_AllGainsIsOverbought(t *testing.T) {
	rsi, ok := indicators.RSI(ramp(30, 100, 1), 14)
	require.True(t, ok)
	assert.InDelta(t, 100.0, rsi, 1e-6)
}

func TestRSI_AllLossesIsOversold(t *testing.T) {
	rsi, ok := indicators.RSI(ramp(30, 100, -1), 14)
	require.True(t, ok)
	assert.Less(t, rsi, 1.0)
}

func TestRSI_TooShort(t *testing.T) {
	_, ok := indicators.RSI(ramp(10, 100, 1), 14)
	assert.False(t, ok)
}

func TestMACD_UptrendIsPositive(t *testing.T) {
	macd, _, _, ok := indicators.MACD(ramp(60, 100, 0.5), 12, 26, 9)
	require.True(t, ok)
	assert.Greater(t, macd, 0.0)
}

func TestMACD_DowntrendHistogramNegative(t *testing.T) {
	// flat then falling: fast EMA drops under slow, histogram turns negative
	closes := append(ramp(40, 100, 0), ramp(25, 100, -1)...)
	_, _, hist, ok := indicators.MACD(closes, 12, 26, 9)
	require.True(t, ok)
	assert.Less(t, hist, 0.0)
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	upper, middle, lower, ok := indicators.Bollinger(ramp(25, 50, 0), 20, 2)
	require.True(t, ok)
	assert.InDelta(t, 50.0, middle, 1e-9)
	assert.InDelta(t, upper, lower, 1e-9)
}

func TestBollinger_BandsBracketMean(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 9, 14, 10, 12, 11, 13, 9, 14, 10, 12, 11, 13, 9, 14, 10, 12}
	upper, middle, lower, ok := indicators.Bollinger(closes, 20, 2)
	require.True(t, ok)
	assert.Greater(t, upper, middle)
	assert.Less(t, lower, middle)
}

func TestTrendSlope(t *testing.T) {
	slope, ok := indicators.TrendSlope([]float64{100, 105, 110}, 3)
	require.True(t, ok)
	assert.InDelta(t, 0.10, slope, 1e-9)

	slope, ok = indicators.TrendSlope([]float64{100, 95, 90}, 3)
	require.True(t, ok)
	assert.InDelta(t, -0.10, slope, 1e-9)
}

func TestHighestClose(t *testing.T) {
	high, ok := indicators.HighestClose([]float64{1, 9, 3, 7}, 3)
	require.True(t, ok)
	assert.InDelta(t, 9.0, high, 1e-9)
}

func TestDecliningTrend(t *testing.T) {
	assert.True(t, indicators.DecliningTrend([]float64{5, 4, 3, 2}, 3))
	assert.False(t, indicators.DecliningTrend([]float64{5, 4, 4, 2}, 3))
	assert.False(t, indicators.DecliningTrend([]float64{5, 4}, 3))
}
