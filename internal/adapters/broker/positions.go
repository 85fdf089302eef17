package broker

import (
	"context"
	"fmt"

	"papertrader/internal/domain"
)

// ListPositions returns all open positions. Entry time/confidence are not
// known to the broker; the engine overlays them from storage.
func (c *Client) ListPositions(ctx context.Context) ([]domain.Position, error) {
	var dtos []positionDTO
	if err := c.get(ctx, c.tradeLimiter, c.tradeBase+"/v2/positions", &dtos); err != nil {
		return nil, fmt.Errorf("broker.ListPositions: %w", err)
	}

	positions := make([]domain.Position, 0, len(dtos))
	for _, dto := range dtos {
		qty := parseFloat(dto.Qty)
		if dto.Side == "short" && qty > 0 {
			qty = -qty
		}
		positions = append(positions, domain.Position{
			Symbol:        dto.Symbol,
			Qty:           qty,
			AvgEntryPrice: parseFloat(dto.AvgEntryPrice),
			CurrentPrice:  parseFloat(dto.CurrentPrice),
			MarketValue:   parseFloat(dto.MarketValue),
			UnrealizedPnL: parseFloat(dto.UnrealizedPnL),
		})
	}
	return positions, nil
}
