package broker

import (
	"strconv"
	"time"
)

// Trading API returns decimal fields as JSON strings; the data API uses
// numbers. DTOs here mirror the wire; each endpoint file converts its own
// responses to domain types.

type accountDTO struct {
	Equity                string `json:"equity"`
	LastEquity            string `json:"last_equity"`
	Cash                  string `json:"cash"`
	BuyingPower           string `json:"buying_power"`
	RegTBuyingPower       string `json:"regt_buying_power"`
	DaytradingBuyingPower string `json:"daytrading_buying_power"`
	PortfolioValue        string `json:"portfolio_value"`
	TradingBlocked        bool   `json:"trading_blocked"`
	PatternDayTrader      bool   `json:"pattern_day_trader"`
}

type positionDTO struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPnL string `json:"unrealized_pl"`
}

type orderDTO struct {
	ID             string `json:"id"`
	ClientOrderID  string `json:"client_order_id"`
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	Side           string `json:"side"`
	Status         string `json:"status"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

type orderRequestDTO struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type clockDTO struct {
	IsOpen    bool      `json:"is_open"`
	Timestamp time.Time `json:"timestamp"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

type quoteDTO struct {
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
	BidSize   float64   `json:"bs"`
	AskSize   float64   `json:"as"`
	Timestamp time.Time `json:"t"`
}

// snapshotDTO bundles the latest quote with the current minute bar, which is
// the only place the data API reports live volume.
type snapshotDTO struct {
	LatestQuote quoteDTO `json:"latestQuote"`
	MinuteBar   barDTO   `json:"minuteBar"`
}

// crypto snapshot endpoint returns a symbol-keyed map instead
type cryptoSnapshotsResponse struct {
	Snapshots map[string]snapshotDTO `json:"snapshots"`
}

type barDTO struct {
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type barsResponse struct {
	Bars []barDTO `json:"bars"`
}

type cryptoBarsResponse struct {
	Bars map[string][]barDTO `json:"bars"`
}

// parseFloat converts the trading API's string decimals, treating empty and
// malformed values as 0 — absent fields must not kill a cycle.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
