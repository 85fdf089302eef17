package broker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"papertrader/internal/domain"
)

// SubmitMarketOrder places a day market order and returns the broker order id
// plus a fill-price estimate (the broker's filled_avg_price when immediate,
// otherwise 0 and the engine falls back to the quote).
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Action, qty float64) (string, float64, error) {
	if qty <= 0 {
		return "", 0, fmt.Errorf("broker.SubmitMarketOrder: %s: non-positive qty %f", symbol, qty)
	}

	tif := "day"
	if domain.IsAlwaysTradeable(symbol) {
		tif = "gtc" // crypto venue has no session close
	}

	req := orderRequestDTO{
		Symbol:        symbol,
		Qty:           strconv.FormatFloat(qty, 'f', -1, 64),
		Side:          string(side),
		Type:          "market",
		TimeInForce:   tif,
		ClientOrderID: uuid.NewString(),
	}

	var dto orderDTO
	if err := c.post(ctx, c.tradeLimiter, c.tradeBase+"/v2/orders", req, &dto); err != nil {
		return "", 0, fmt.Errorf("broker.SubmitMarketOrder: %s %s: %w", side, symbol, err)
	}
	return dto.ID, parseFloat(dto.FilledAvgPrice), nil
}

// CancelOrder cancels a pending order by broker id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	u := c.tradeBase + "/v2/orders/" + url.PathEscape(orderID)
	if err := c.del(ctx, c.tradeLimiter, u); err != nil {
		return fmt.Errorf("broker.CancelOrder: %s: %w", orderID, err)
	}
	return nil
}

// HasOpenOrder reports whether a pending order exists for the symbol.
// Best effort: two processes racing past this check will double-submit, a
// deployment the design does not anticipate.
func (c *Client) HasOpenOrder(ctx context.Context, symbol string) (bool, error) {
	u := fmt.Sprintf("%s/v2/orders?status=open&symbols=%s", c.tradeBase, url.QueryEscape(symbol))
	var dtos []orderDTO
	if err := c.get(ctx, c.tradeLimiter, u, &dtos); err != nil {
		return false, fmt.Errorf("broker.HasOpenOrder: %s: %w", symbol, err)
	}
	return len(dtos) > 0, nil
}
