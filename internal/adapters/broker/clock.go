package broker

import (
	"context"
	"fmt"

	"papertrader/internal/domain"
)

// GetClock returns the venue's market clock.
func (c *Client) GetClock(ctx context.Context) (domain.Clock, error) {
	var dto clockDTO
	if err := c.get(ctx, c.tradeLimiter, c.tradeBase+"/v2/clock", &dto); err != nil {
		return domain.Clock{}, fmt.Errorf("broker.GetClock: %w", err)
	}
	return domain.Clock{
		IsOpen:    dto.IsOpen,
		Timestamp: dto.Timestamp,
		NextOpen:  dto.NextOpen,
		NextClose: dto.NextClose,
	}, nil
}
