package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/adapters/storage"
	"papertrader/internal/domain"
)

func makeCycle(regime domain.Regime, trades []domain.TradeRecord) domain.CycleRecord {
	return domain.CycleRecord{
		At:         time.Now().UTC().Truncate(time.Second),
		Regime:     regime,
		Strategy:   domain.StrategyForRegime(regime),
		Confidence: 0.7,
		MarketOpen: true,
		Quotes: []domain.Quote{
			{Symbol: "SPY", BidPrice: 450.1, AskPrice: 450.2, Timestamp: time.Now().UTC()},
		},
		Trades:    trades,
		Positions: 3,
		Equity:    100000,
		DailyPnL:  -0.005,
	}
}

func makeTrade(id, symbol string, virtual bool) domain.TradeRecord {
	return domain.TradeRecord{
		ID:          id,
		Symbol:      symbol,
		Side:        domain.ActionBuy,
		Qty:         10,
		FillPrice:   185.2,
		Status:      domain.OrderStatusSubmitted,
		Reason:      "entry approved",
		Virtual:     virtual,
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStorage_SaveAndGetCycles(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id, err := db.SaveCycle(ctx, makeCycle(domain.RegimeBullish, []domain.TradeRecord{
		makeTrade("t1", "AAPL", false),
	}))
	require.NoError(t, err)
	assert.Positive(t, id)

	cycles, err := db.GetCycles(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, domain.RegimeBullish, cycles[0].Regime)
	assert.Equal(t, domain.StrategyAggressive, cycles[0].Strategy)
	assert.True(t, cycles[0].MarketOpen)
	assert.InDelta(t, -0.005, cycles[0].DailyPnL, 1e-9)
}

func TestSQLiteStorage_VirtualTradesSeparateTable(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.SaveCycle(ctx, makeCycle(domain.RegimeNeutral, []domain.TradeRecord{
		makeTrade("real-1", "AAPL", false),
		makeTrade("virt-1", "AAPL", true),
	}))
	require.NoError(t, err)

	// GetTrades reads the real table only
	trades, err := db.GetTrades(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "real-1", trades[0].ID)
}

func TestSQLiteStorage_GetTradesFiltersBySymbol(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveTrade(ctx, makeTrade("t1", "AAPL", false)))
	require.NoError(t, db.SaveTrade(ctx, makeTrade("t2", "MSFT", false)))

	trades, err := db.GetTrades(ctx, "MSFT", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "MSFT", trades[0].Symbol)

	all, err := db.GetTrades(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStorage_EntryMetaRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	entered := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveEntryMeta(ctx, "NVDA", entered, 0.85, domain.StrategyAggressive))

	at, conf, strat, ok, err := db.GetEntryMeta(ctx, "NVDA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entered.Equal(at))
	assert.InDelta(t, 0.85, conf, 1e-9)
	assert.Equal(t, domain.StrategyAggressive, strat)

	require.NoError(t, db.DeleteEntryMeta(ctx, "NVDA"))
	_, _, _, ok, err = db.GetEntryMeta(ctx, "NVDA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorage_BreakerSurvivesReload(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	_, ok, err := db.LoadBreaker(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "first run has no breaker state")

	b := domain.DailyLossBreaker{
		MaxDailyLossPct: 0.03,
		Tripped:         true,
		TrippedAt:       time.Now().UTC().Truncate(time.Second),
		TrippedReason:   "daily loss limit reached",
		Day:             time.Now().UTC().Truncate(24 * time.Hour),
	}
	require.NoError(t, db.SaveBreaker(ctx, b))

	got, ok, err := db.LoadBreaker(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Tripped)
	assert.Equal(t, "daily loss limit reached", got.TrippedReason)
	assert.InDelta(t, 0.03, got.MaxDailyLossPct, 1e-9)
	assert.True(t, b.Day.Equal(got.Day))
}

func TestJSONSnapshot_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	w := storage.NewJSONSnapshot(path)

	snap := domain.CycleSnapshot{
		At:       time.Now().UTC(),
		Regime:   domain.RegimeBearish,
		Strategy: domain.StrategyConservative,
		Equity:   98000,
		Quotes:   map[string]float64{"SPY": 450.15},
	}
	require.NoError(t, w.WriteSnapshot(snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got domain.CycleSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, domain.RegimeBearish, got.Regime)
	assert.InDelta(t, 450.15, got.Quotes["SPY"], 1e-9)

	// overwrite works and leaves no temp files behind
	require.NoError(t, w.WriteSnapshot(snap))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
