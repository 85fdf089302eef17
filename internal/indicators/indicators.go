// Package indicators computes the technical indicators the exit evaluator and
// regime detector consume. All functions operate on close-price series ordered
// oldest → newest and return ok=false when the series is too short, so callers
// can degrade to a hold instead of trading on garbage.
package indicators

import "math"

// SMA returns the simple moving average of the last period values.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average series for the given period.
// The first value is seeded with the SMA of the first period elements.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out = append(out, ema)

	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// RSI returns the relative strength index for the last point, smoothing the
// average gain and loss with the standard EMA factor 2/(n+1) rather than
// Wilder's 1/n, so it reacts a bit faster than the classic variant.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := EMA(gains, period)
	avgLoss := EMA(losses, period)
	if len(avgGain) == 0 || len(avgLoss) == 0 {
		return 0, false
	}

	g := avgGain[len(avgGain)-1]
	l := avgLoss[len(avgLoss)-1]
	if l == 0 {
		return 100, true
	}
	rs := g / l
	return 100 - 100/(1+rs), true
}

// MACD returns the last MACD line, signal line and histogram values for the
// standard (fast, slow, signal) configuration.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist float64, ok bool) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return 0, 0, 0, false
	}
	if len(closes) < slow+signal {
		return 0, 0, 0, false
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	if len(fastEMA) == 0 || len(slowEMA) == 0 {
		return 0, 0, 0, false
	}

	// Align: slowEMA starts (slow-fast) points later than fastEMA.
	offset := slow - fast
	n := len(slowEMA)
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	sigLine := EMA(macdLine, signal)
	if len(sigLine) == 0 {
		return 0, 0, 0, false
	}

	macd = macdLine[len(macdLine)-1]
	sig = sigLine[len(sigLine)-1]
	return macd, sig, macd - sig, true
}

// Bollinger returns the upper/middle/lower bands for the last point using
// stdDevs standard deviations around the period SMA.
func Bollinger(closes []float64, period int, stdDevs float64) (upper, middle, lower float64, ok bool) {
	mid, ok := SMA(closes, period)
	if !ok {
		return 0, 0, 0, false
	}
	variance := 0.0
	for _, c := range closes[len(closes)-period:] {
		d := c - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return mid + stdDevs*sd, mid, mid - stdDevs*sd, true
}

// TrendSlope returns the normalized change over the last period points:
// (last - first) / first. Cheap proxy for trend direction.
func TrendSlope(closes []float64, period int) (float64, bool) {
	if period < 2 || len(closes) < period {
		return 0, false
	}
	window := closes[len(closes)-period:]
	first := window[0]
	if first <= 0 {
		return 0, false
	}
	return (window[len(window)-1] - first) / first, true
}

// HighestClose returns the maximum close in the last period points.
func HighestClose(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	high := closes[len(closes)-period]
	for _, c := range closes[len(closes)-period:] {
		if c > high {
			high = c
		}
	}
	return high, true
}

// DecliningTrend reports whether the series has been making lower values for
// at least minSteps consecutive points.
func DecliningTrend(values []float64, minSteps int) bool {
	if minSteps <= 0 || len(values) < minSteps+1 {
		return false
	}
	for i := len(values) - minSteps; i < len(values); i++ {
		if values[i] >= values[i-1] {
			return false
		}
	}
	return true
}
