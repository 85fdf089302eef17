package broker

import (
	"context"
	"fmt"

	"papertrader/internal/domain"
)

// GetAccount fetches the live account snapshot.
func (c *Client) GetAccount(ctx context.Context) (domain.Account, error) {
	var dto accountDTO
	if err := c.get(ctx, c.tradeLimiter, c.tradeBase+"/v2/account", &dto); err != nil {
		return domain.Account{}, fmt.Errorf("broker.GetAccount: %w", err)
	}
	return domain.Account{
		Equity:                parseFloat(dto.Equity),
		LastEquity:            parseFloat(dto.LastEquity),
		Cash:                  parseFloat(dto.Cash),
		BuyingPower:           parseFloat(dto.BuyingPower),
		RegTBuyingPower:       parseFloat(dto.RegTBuyingPower),
		DaytradingBuyingPower: parseFloat(dto.DaytradingBuyingPower),
		PortfolioValue:        parseFloat(dto.PortfolioValue),
		TradingBlocked:        dto.TradingBlocked,
		PatternDayTrader:      dto.PatternDayTrader,
	}, nil
}
