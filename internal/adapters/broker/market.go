package broker

import (
	"context"
	"fmt"
	"net/url"

	"papertrader/internal/domain"
)

// GetLatestQuote returns the latest bid/ask for a symbol via the snapshot
// endpoint, which bundles the current minute bar so session volume rides
// along. Crypto pairs (SYM/USD) go through the crypto data endpoint,
// everything else through the stock one.
func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	if domain.IsAlwaysTradeable(symbol) {
		return c.latestCryptoQuote(ctx, symbol)
	}

	u := fmt.Sprintf("%s/v2/stocks/%s/snapshot", c.dataBase, url.PathEscape(symbol))
	var resp snapshotDTO
	if err := c.get(ctx, c.dataLimiter, u, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("broker.GetLatestQuote: %s: %w", symbol, err)
	}
	return quoteFromSnapshot(symbol, resp), nil
}

func (c *Client) latestCryptoQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	u := fmt.Sprintf("%s/v1beta3/crypto/us/snapshots?symbols=%s",
		c.dataBase, url.QueryEscape(symbol))
	var resp cryptoSnapshotsResponse
	if err := c.get(ctx, c.dataLimiter, u, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("broker.GetLatestQuote: %s: %w", symbol, err)
	}
	dto, ok := resp.Snapshots[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("broker.GetLatestQuote: %s: no snapshot in response", symbol)
	}
	return quoteFromSnapshot(symbol, dto), nil
}

func quoteFromSnapshot(symbol string, dto snapshotDTO) domain.Quote {
	return domain.Quote{
		Symbol:    symbol,
		BidPrice:  dto.LatestQuote.BidPrice,
		AskPrice:  dto.LatestQuote.AskPrice,
		BidSize:   dto.LatestQuote.BidSize,
		AskSize:   dto.LatestQuote.AskSize,
		Volume:    dto.MinuteBar.Volume,
		Timestamp: dto.LatestQuote.Timestamp,
	}
}

// GetRecentBars returns up to limit recent hourly bars, oldest first.
// Used once at startup to seed indicator close and volume history.
func (c *Client) GetRecentBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error) {
	if limit <= 0 {
		limit = 100
	}

	if domain.IsAlwaysTradeable(symbol) {
		u := fmt.Sprintf("%s/v1beta3/crypto/us/bars?symbols=%s&timeframe=1Hour&limit=%d",
			c.dataBase, url.QueryEscape(symbol), limit)
		var resp cryptoBarsResponse
		if err := c.get(ctx, c.dataLimiter, u, &resp); err != nil {
			return nil, fmt.Errorf("broker.GetRecentBars: %s: %w", symbol, err)
		}
		return barsFromDTO(resp.Bars[symbol]), nil
	}

	u := fmt.Sprintf("%s/v2/stocks/%s/bars?timeframe=1Hour&limit=%d",
		c.dataBase, url.PathEscape(symbol), limit)
	var resp barsResponse
	if err := c.get(ctx, c.dataLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("broker.GetRecentBars: %s: %w", symbol, err)
	}
	return barsFromDTO(resp.Bars), nil
}

func barsFromDTO(bars []barDTO) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			out = append(out, domain.Bar{Close: b.Close, Volume: b.Volume})
		}
	}
	return out
}
