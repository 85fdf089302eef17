package broker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/adapters/broker"
	"papertrader/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*broker.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := broker.NewClient(srv.URL, srv.URL, "test-key", "test-secret")
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := broker.NewClient("", "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestGetAccount_ParsesStringDecimals(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("APCA-API-KEY-ID"))
		json.NewEncoder(w).Encode(map[string]any{
			"equity":                  "100000.50",
			"last_equity":             "99000",
			"cash":                    "25000",
			"buying_power":            "200000",
			"regt_buying_power":       "150000",
			"daytrading_buying_power": "400000",
			"portfolio_value":         "100000.50",
		})
	}))

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100000.50, acct.Equity, 1e-9)
	assert.InDelta(t, 400000, acct.DaytradingBuyingPower, 1e-9)
	assert.InDelta(t, (100000.50-99000)/99000, acct.DailyPnLPct(), 1e-9)
}

func TestListPositions_ShortQtyIsNegative(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"symbol": "AAPL", "qty": "10", "side": "long", "avg_entry_price": "180", "current_price": "185", "market_value": "1850"},
			{"symbol": "TSLA", "qty": "5", "side": "short", "avg_entry_price": "250", "current_price": "240", "market_value": "-1200"},
		})
	}))

	positions, err := c.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.InDelta(t, 10, positions[0].Qty, 1e-9)
	assert.InDelta(t, -5, positions[1].Qty, 1e-9)
	assert.InDelta(t, 1200, positions[1].Value(), 1e-9)
}

func TestGetLatestQuote_Stock(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/SPY/snapshot", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":      "SPY",
			"latestQuote": map[string]any{"bp": 450.10, "ap": 450.20, "bs": 5, "as": 3},
			"minuteBar":   map[string]any{"c": 450.15, "v": 12500},
		})
	}))

	q, err := c.GetLatestQuote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, 450.15, q.Mid(), 1e-9)
	assert.InDelta(t, 12500, q.Volume, 1e-9, "minute bar volume rides along with the quote")
}

func TestGetLatestQuote_CryptoUsesCryptoEndpoint(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta3/crypto/us/snapshots", r.URL.Path)
		assert.Equal(t, "BTC/USD", r.URL.Query().Get("symbols"))
		json.NewEncoder(w).Encode(map[string]any{
			"snapshots": map[string]any{
				"BTC/USD": map[string]any{
					"latestQuote": map[string]any{"bp": 64000.0, "ap": 64010.0},
					"minuteBar":   map[string]any{"c": 64005.0, "v": 8.4},
				},
			},
		})
	}))

	q, err := c.GetLatestQuote(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.InDelta(t, 64005, q.Mid(), 1e-9)
	assert.InDelta(t, 8.4, q.Volume, 1e-9)
}

func TestGetRecentBars_KeepsVolumes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/AAPL/bars", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"bars": []map[string]any{
				{"c": 184.0, "v": 900},
				{"c": 185.0, "v": 800},
				{"c": 0.0, "v": 50}, // zero close is dropped with its volume
				{"c": 186.0, "v": 700},
			},
		})
	}))

	bars, err := c.GetRecentBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.InDelta(t, 184.0, bars[0].Close, 1e-9)
	assert.InDelta(t, 900, bars[0].Volume, 1e-9)
	assert.InDelta(t, 700, bars[2].Volume, 1e-9)
}

func TestSubmitMarketOrder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req["symbol"])
		assert.Equal(t, "buy", req["side"])
		assert.Equal(t, "market", req["type"])
		assert.Equal(t, "day", req["time_in_force"])
		assert.NotEmpty(t, req["client_order_id"])
		json.NewEncoder(w).Encode(map[string]any{
			"id": "ord-123", "status": "filled", "filled_avg_price": "185.20",
		})
	}))

	id, price, err := c.SubmitMarketOrder(context.Background(), "AAPL", domain.ActionBuy, 10)
	require.NoError(t, err)
	assert.Equal(t, "ord-123", id)
	assert.InDelta(t, 185.20, price, 1e-9)
}

func TestSubmitMarketOrder_BrokerRejectionSurfaces(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"insufficient buying power"}`))
	}))

	_, _, err := c.SubmitMarketOrder(context.Background(), "AAPL", domain.ActionBuy, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient buying power")
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"is_open": true})
	}))

	clock, err := c.GetClock(context.Background())
	require.NoError(t, err)
	assert.True(t, clock.IsOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHasOpenOrder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		if r.URL.Query().Get("symbols") == "AAPL" {
			json.NewEncoder(w).Encode([]map[string]any{{"id": "ord-1", "symbol": "AAPL"}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))

	has, err := c.HasOpenOrder(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = c.HasOpenOrder(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.False(t, has)
}
