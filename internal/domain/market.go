package domain

import (
	"strings"
	"time"
)

// Quote is the latest bid/ask snapshot for a symbol.
type Quote struct {
	Symbol    string
	BidPrice  float64
	AskPrice  float64
	BidSize   float64
	AskSize   float64
	Volume    float64 // session volume if the feed provides it
	Timestamp time.Time
}

// Mid returns the bid/ask midpoint, falling back to whichever side exists.
func (q Quote) Mid() float64 {
	switch {
	case q.BidPrice > 0 && q.AskPrice > 0:
		return (q.BidPrice + q.AskPrice) / 2
	case q.AskPrice > 0:
		return q.AskPrice
	default:
		return q.BidPrice
	}
}

// Spread returns the absolute bid/ask spread.
func (q Quote) Spread() float64 {
	if q.BidPrice <= 0 || q.AskPrice <= 0 {
		return 0
	}
	return q.AskPrice - q.BidPrice
}

// Bar is one aggregated trade bar from the data feed.
type Bar struct {
	Close  float64
	Volume float64
}

// Clock is the trading venue's market clock.
type Clock struct {
	IsOpen    bool
	Timestamp time.Time
	NextOpen  time.Time
	NextClose time.Time
}

// Account mirrors the brokerage account state relevant to sizing and risk.
// The broker is the source of truth; this is re-fetched every cycle.
type Account struct {
	Equity                float64
	LastEquity            float64 // equity at previous trading day close
	Cash                  float64
	BuyingPower           float64
	RegTBuyingPower       float64
	DaytradingBuyingPower float64
	PortfolioValue        float64
	TradingBlocked        bool
	PatternDayTrader      bool
}

// DailyPnLPct returns today's equity change relative to the last close.
func (a Account) DailyPnLPct() float64 {
	if a.LastEquity <= 0 {
		return 0
	}
	return (a.Equity - a.LastEquity) / a.LastEquity
}

// IsAlwaysTradeable reports whether a symbol trades around the clock
// (crypto pairs), so orders may be submitted while the equity venue is closed.
func IsAlwaysTradeable(symbol string) bool {
	return strings.Contains(symbol, "/")
}
