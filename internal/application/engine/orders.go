package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"papertrader/internal/domain"
	"papertrader/internal/metrics"
)

// orderRequest is one buy/sell the cycle wants executed.
type orderRequest struct {
	Symbol string
	Side   domain.Action
	Qty    float64
	Price  float64 // quote at decision time, used as the fill estimate
	Reason string
}

// submitOrder places (or simulates) one market order and returns the record
// to persist. Failures are outcomes, not cycle errors: a rejected order is
// recorded with the broker's reason and the cycle moves on.
func (e *Engine) submitOrder(ctx context.Context, req orderRequest, marketOpen bool) domain.TradeRecord {
	rec := domain.TradeRecord{
		ID:          uuid.NewString(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         req.Qty,
		FillPrice:   req.Price,
		Reason:      req.Reason,
		SubmittedAt: time.Now().UTC(),
	}

	// Orders placed while the venue is closed queue unpredictably; only
	// round-the-clock symbols go through.
	if !marketOpen && !domain.IsAlwaysTradeable(req.Symbol) {
		rec.Status = domain.OrderStatusSkipped
		rec.Reason = "market closed: " + req.Reason
		metrics.RecordOrder(string(req.Side), string(rec.Status))
		return rec
	}

	pending, err := e.broker.HasOpenOrder(ctx, req.Symbol)
	if err != nil {
		slog.Warn("open-order check failed; submitting anyway",
			"symbol", req.Symbol, "err", err)
	} else if pending {
		rec.Status = domain.OrderStatusSkipped
		rec.Reason = "pending order exists: " + req.Reason
		metrics.RecordOrder(string(req.Side), string(rec.Status))
		return rec
	}

	if !e.cfg.ExecutionEnabled {
		rec.Status = domain.OrderStatusVirtual
		rec.Virtual = true
		slog.Info("virtual order",
			"symbol", req.Symbol, "side", req.Side, "qty", req.Qty,
			"price", req.Price, "reason", req.Reason)
		metrics.RecordOrder(string(req.Side), string(rec.Status))
		return rec
	}

	orderID, estPrice, err := e.broker.SubmitMarketOrder(ctx, req.Symbol, req.Side, req.Qty)
	if err != nil {
		rec.Status = domain.OrderStatusRejected
		rec.Reason = err.Error()
		slog.Warn("order rejected",
			"symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "err", err)
		metrics.RecordOrder(string(req.Side), string(rec.Status))
		return rec
	}

	rec.OrderID = orderID
	rec.Status = domain.OrderStatusSubmitted
	if estPrice > 0 {
		rec.FillPrice = estPrice
	}
	slog.Info("order submitted",
		"symbol", req.Symbol, "side", req.Side, "qty", req.Qty,
		"order_id", orderID, "est_price", rec.FillPrice, "reason", req.Reason)
	metrics.RecordOrder(string(req.Side), string(rec.Status))
	return rec
}

// accepted reports whether the order went to the broker or the virtual book.
func accepted(rec domain.TradeRecord) bool {
	return rec.Status == domain.OrderStatusSubmitted || rec.Status == domain.OrderStatusVirtual
}
