package domain

// Watchlist tiers. The old code kept several diverging copies of these lists;
// this is the only one.
var (
	tier1 = []string{"SPY", "QQQ", "AAPL", "MSFT", "NVDA"}

	tier2 = append(tier1,
		"AMZN", "GOOGL", "META", "TSLA", "AMD",
		"IWM", "DIA",
	)

	tier3 = append(tier2,
		"NFLX", "AVGO", "CRM", "COST", "JPM",
		"BTC/USD", "ETH/USD",
	)
)

// UniverseForTier returns the watchlist for a market tier (1–3).
// Unknown tiers fall back to tier 1.
func UniverseForTier(tier int) []string {
	var src []string
	switch tier {
	case 2:
		src = tier2
	case 3:
		src = tier3
	default:
		src = tier1
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
