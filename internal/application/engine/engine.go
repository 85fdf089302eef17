// Package engine runs the trading loop: poll the broker, detect the regime,
// evaluate exits for open positions, gate and size new entries, submit
// orders and persist the cycle. Single-threaded and synchronous; each cycle
// publishes an immutable snapshot instead of sharing state with readers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"papertrader/internal/application/exit"
	"papertrader/internal/application/risk"
	"papertrader/internal/application/sizing"
	"papertrader/internal/domain"
	"papertrader/internal/metrics"
	"papertrader/internal/ports"
)

const (
	defaultOpenInterval   = 2 * time.Minute
	defaultClosedInterval = 15 * time.Minute
	defaultHistoryBars    = 100
	maxHistoryBars        = 250
	maxEntriesPerCycle    = 3
	defaultEntryConf      = 0.6 // assumed when entry metadata is missing
)

// Config holds the trading-loop settings.
type Config struct {
	Universe         []string
	OpenInterval     time.Duration // cycle cadence while the market is open
	ClosedInterval   time.Duration // cycle cadence while it is closed
	HistoryBars      int           // bars fetched per symbol at startup
	MinConfidence    float64       // entry signals below this are ignored
	ExecutionEnabled bool          // false = virtual orders only
}

// Engine owns one trading loop over injected collaborator ports.
type Engine struct {
	broker   ports.Broker
	store    ports.CycleStorage
	snapshot ports.SnapshotWriter
	notifier ports.Notifier
	sizer    *sizing.Sizer
	gate     *risk.Gate
	exits    *exit.Evaluator
	cfg      Config

	history map[string][]float64
	volumes map[string][]float64
	seeded  bool

	reload chan reloadParams
}

// reloadParams is one queued parameter swap from the config watcher.
type reloadParams struct {
	risk domain.RiskParameters
	exit domain.ExitParameters
}

// New creates an Engine. Zero durations and counts get defaults.
func New(
	broker ports.Broker,
	store ports.CycleStorage,
	snapshot ports.SnapshotWriter,
	notifier ports.Notifier,
	sizer *sizing.Sizer,
	gate *risk.Gate,
	exits *exit.Evaluator,
	cfg Config,
) *Engine {
	if cfg.OpenInterval <= 0 {
		cfg.OpenInterval = defaultOpenInterval
	}
	if cfg.ClosedInterval <= 0 {
		cfg.ClosedInterval = defaultClosedInterval
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = defaultHistoryBars
	}
	return &Engine{
		broker:   broker,
		store:    store,
		snapshot: snapshot,
		notifier: notifier,
		sizer:    sizer,
		gate:     gate,
		exits:    exits,
		cfg:      cfg,
		history:  make(map[string][]float64, len(cfg.Universe)),
		volumes:  make(map[string][]float64, len(cfg.Universe)),
		reload:   make(chan reloadParams, 1),
	}
}

// QueueReload hands freshly loaded risk and exit parameters to the loop.
// They are applied between cycles on the engine goroutine, so the sizer,
// gate and exit evaluator never see a parameter change mid-cycle. The
// config watcher is the single producer; a newer reload replaces an
// unconsumed one.
func (e *Engine) QueueReload(riskParams domain.RiskParameters, exitParams domain.ExitParameters) {
	select {
	case <-e.reload:
	default:
	}
	e.reload <- reloadParams{risk: riskParams, exit: exitParams}
}

// applyReload drains the reload queue before a cycle starts reading the
// parameter structs.
func (e *Engine) applyReload() {
	select {
	case p := <-e.reload:
		e.sizer.SetParams(p.risk)
		e.gate.SetParams(p.risk)
		e.exits.SetParams(p.risk, p.exit)
		e.cfg.MinConfidence = p.risk.MinConfidence
		slog.Info("risk and exit parameters reloaded",
			"max_daily_loss_pct", p.risk.MaxDailyLossPct,
			"min_confidence", p.risk.MinConfidence,
		)
	default:
	}
}

// Run executes cycles until the context is cancelled. A failed cycle is
// logged and retried after the closed-market interval; it never crashes the
// loop.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("trading loop starting",
		"universe", len(e.cfg.Universe),
		"open_interval", e.cfg.OpenInterval,
		"closed_interval", e.cfg.ClosedInterval,
		"execution", e.cfg.ExecutionEnabled,
	)

	e.restoreBreaker(ctx)

	for {
		interval := e.runCycle(ctx)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("trading loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce executes exactly one cycle.
func (e *Engine) RunOnce(ctx context.Context) error {
	e.restoreBreaker(ctx)
	_, err := e.cycle(ctx)
	return err
}

// runCycle wraps one cycle with timing, error containment and metrics, and
// returns how long to sleep before the next one.
func (e *Engine) runCycle(ctx context.Context) time.Duration {
	start := time.Now()
	marketOpen, err := e.cycle(ctx)
	metrics.RecordCycle(err, time.Since(start))
	if err != nil {
		slog.Error("cycle failed", "err", err, "elapsed", time.Since(start))
		return e.cfg.ClosedInterval
	}

	slog.Debug("cycle complete", "elapsed", time.Since(start), "market_open", marketOpen)
	if marketOpen {
		return e.cfg.OpenInterval
	}
	return e.cfg.ClosedInterval
}

// cycle runs the poll → decide → submit → persist pipeline once.
func (e *Engine) cycle(ctx context.Context) (bool, error) {
	e.applyReload()

	clock, err := e.broker.GetClock(ctx)
	if err != nil {
		return false, fmt.Errorf("engine.cycle: clock: %w", err)
	}

	account, err := e.broker.GetAccount(ctx)
	if err != nil {
		return clock.IsOpen, fmt.Errorf("engine.cycle: account: %w", err)
	}
	if account.TradingBlocked {
		slog.Warn("account reports trading blocked; running observation-only cycle")
	}

	positions, err := e.broker.ListPositions(ctx)
	if err != nil {
		return clock.IsOpen, fmt.Errorf("engine.cycle: positions: %w", err)
	}
	e.enrichPositions(ctx, positions)

	if !e.seeded {
		e.seedHistory(ctx)
	}
	quotes := e.fetchQuotes(ctx)

	breaker := e.gate.Breaker()
	breaker.Check(account.DailyPnLPct(), time.Now().UTC())
	if err := e.store.SaveBreaker(ctx, *breaker); err != nil {
		slog.Warn("failed to persist breaker state", "err", err)
	}
	metrics.SetBreaker(breaker.Tripped)
	metrics.SetAccount(account.Equity, account.DailyPnLPct(), len(positions))

	regime, regimeConf := DetectRegime(e.history)
	strategy := domain.StrategyForRegime(regime)

	var decisions []domain.TradeDecision
	var trades []domain.TradeRecord

	exitTrades, exitDecisions := e.evaluateExits(ctx, positions, quotes, regime, clock.IsOpen)
	trades = append(trades, exitTrades...)
	decisions = append(decisions, exitDecisions...)

	entryTrades, entryDecisions := e.evaluateEntries(ctx, account, positions, quotes, strategy, clock.IsOpen)
	trades = append(trades, entryTrades...)
	decisions = append(decisions, entryDecisions...)

	rec := domain.CycleRecord{
		At:         time.Now().UTC(),
		Regime:     regime,
		Strategy:   strategy,
		Confidence: regimeConf,
		MarketOpen: clock.IsOpen,
		Quotes:     quoteList(quotes),
		Trades:     trades,
		Positions:  len(positions),
		Equity:     account.Equity,
		DailyPnL:   account.DailyPnLPct(),
	}

	id, err := e.store.SaveCycle(ctx, rec)
	if err != nil {
		slog.Warn("failed to persist cycle", "err", err)
	} else {
		rec.ID = id
	}

	if e.snapshot != nil {
		if err := e.snapshot.WriteSnapshot(buildSnapshot(rec, positions, breaker.Tripped)); err != nil {
			slog.Warn("failed to write snapshot", "err", err)
		}
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyCycle(ctx, rec, positions, decisions); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	return clock.IsOpen, nil
}

// evaluateExits runs the exit evaluator over every open position and submits
// the resulting sells.
func (e *Engine) evaluateExits(ctx context.Context, positions []domain.Position, quotes map[string]domain.Quote, regime domain.Regime, marketOpen bool) ([]domain.TradeRecord, []domain.TradeDecision) {
	var trades []domain.TradeRecord
	var decisions []domain.TradeDecision

	for i := range positions {
		pos := positions[i]
		snap := exit.Snapshot{
			Price:   pos.CurrentPrice,
			History: e.history[pos.Symbol],
			Volumes: e.volumes[pos.Symbol],
			Regime:  regime,
		}
		if q, ok := quotes[pos.Symbol]; ok {
			snap.Bid = q.BidPrice
			snap.Ask = q.AskPrice
			snap.Volume = q.Volume
			if mid := q.Mid(); mid > 0 {
				snap.Price = mid
				pos.CurrentPrice = mid
			}
		}

		decision := e.exits.Evaluate(pos, snap)
		decisions = append(decisions, decision)
		if decision.Action != domain.ActionSell {
			continue
		}

		qty := exitQty(pos, decision.ExitPortion)
		if qty <= 0 {
			continue
		}

		rec := e.submitOrder(ctx, orderRequest{
			Symbol: pos.Symbol,
			Side:   domain.ActionSell,
			Qty:    qty,
			Price:  snap.Price,
			Reason: decision.Reason,
		}, marketOpen)
		trades = append(trades, rec)

		if accepted(rec) && decision.ExitPortion >= 1 {
			if err := e.store.DeleteEntryMeta(ctx, pos.Symbol); err != nil {
				slog.Warn("failed to delete entry metadata", "symbol", pos.Symbol, "err", err)
			}
		}
	}
	return trades, decisions
}

// evaluateEntries scores unheld watchlist symbols, sizes the survivors and
// pushes them through the risk gate.
func (e *Engine) evaluateEntries(ctx context.Context, account domain.Account, positions []domain.Position, quotes map[string]domain.Quote, strategy domain.Strategy, marketOpen bool) ([]domain.TradeRecord, []domain.TradeDecision) {
	held := make(map[string]float64, len(positions))
	for _, p := range positions {
		held[p.Symbol] = p.Value()
	}

	portfolio := account.PortfolioValue
	if portfolio <= 0 {
		portfolio = account.Equity
	}

	var trades []domain.TradeRecord
	var decisions []domain.TradeDecision
	entered := 0

	for _, symbol := range e.cfg.Universe {
		if entered >= maxEntriesPerCycle {
			break
		}
		if _, ok := held[symbol]; ok {
			continue
		}
		if !marketOpen && !domain.IsAlwaysTradeable(symbol) {
			continue
		}

		confidence, ok := entryScore(e.history[symbol])
		if !ok || confidence < e.cfg.MinConfidence {
			continue
		}

		quote, ok := quotes[symbol]
		price := quote.Mid()
		if !ok || price <= 0 {
			continue
		}

		shares := e.sizer.Shares(price, strategy, confidence, portfolio, account.BuyingPower)
		if shares <= 0 {
			continue
		}

		approved, reason := e.gate.Evaluate(risk.Proposal{
			Symbol:        symbol,
			Shares:        shares,
			Price:         price,
			ExistingValue: held[symbol],
			OpenPositions: len(positions),
			Account:       account,
		})
		if !approved {
			slog.Debug("entry rejected by risk gate", "symbol", symbol, "reason", reason)
			metrics.RecordRiskRejection(reasonTag(reason))
			continue
		}

		decision := domain.TradeDecision{
			Symbol:     symbol,
			Action:     domain.ActionBuy,
			Shares:     shares,
			Confidence: confidence,
			Reason:     fmt.Sprintf("entry signal: confidence %.2f (%s)", confidence, strategy),
			DecidedAt:  time.Now(),
		}
		decisions = append(decisions, decision)

		rec := e.submitOrder(ctx, orderRequest{
			Symbol: symbol,
			Side:   domain.ActionBuy,
			Qty:    float64(shares),
			Price:  price,
			Reason: decision.Reason,
		}, marketOpen)
		trades = append(trades, rec)

		if accepted(rec) {
			entered++
			if err := e.store.SaveEntryMeta(ctx, symbol, rec.SubmittedAt, confidence, strategy); err != nil {
				slog.Warn("failed to save entry metadata", "symbol", symbol, "err", err)
			}
		}
	}
	return trades, decisions
}

// fetchQuotes pulls the latest quote for every watchlist symbol and extends
// the in-memory close and volume history. Quote failures degrade to partial
// data.
func (e *Engine) fetchQuotes(ctx context.Context) map[string]domain.Quote {
	quotes := make(map[string]domain.Quote, len(e.cfg.Universe))
	for _, symbol := range e.cfg.Universe {
		quote, err := e.broker.GetLatestQuote(ctx, symbol)
		if err != nil {
			slog.Warn("quote fetch failed", "symbol", symbol, "err", err)
			metrics.RecordQuoteError(symbol)
			continue
		}
		quotes[symbol] = quote

		if mid := quote.Mid(); mid > 0 {
			e.history[symbol] = capSeries(append(e.history[symbol], mid))
			// volumes stay index-aligned with history; a feed without
			// volume appends zeros, which never trip the decline check
			e.volumes[symbol] = capSeries(append(e.volumes[symbol], quote.Volume))
		}
	}
	return quotes
}

func capSeries(series []float64) []float64 {
	if len(series) > maxHistoryBars {
		return series[len(series)-maxHistoryBars:]
	}
	return series
}

// seedHistory fetches recent bars so the indicator-driven analyzers have
// close and volume context on the very first cycle.
func (e *Engine) seedHistory(ctx context.Context) {
	for _, symbol := range e.cfg.Universe {
		bars, err := e.broker.GetRecentBars(ctx, symbol, e.cfg.HistoryBars)
		if err != nil {
			slog.Warn("history seed failed", "symbol", symbol, "err", err)
			continue
		}
		closes := make([]float64, len(bars))
		vols := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
			vols[i] = b.Volume
		}
		e.history[symbol] = closes
		e.volumes[symbol] = vols
	}
	e.seeded = true
	slog.Info("indicator history seeded", "symbols", len(e.history), "bars", e.cfg.HistoryBars)
}

// enrichPositions merges locally stored entry metadata into broker positions.
func (e *Engine) enrichPositions(ctx context.Context, positions []domain.Position) {
	for i := range positions {
		at, confidence, strategy, ok, err := e.store.GetEntryMeta(ctx, positions[i].Symbol)
		if err != nil {
			slog.Warn("entry metadata lookup failed", "symbol", positions[i].Symbol, "err", err)
			continue
		}
		if !ok {
			// position predates local tracking; assume a mid confidence
			positions[i].EntryConfidence = defaultEntryConf
			continue
		}
		positions[i].EntryTime = at
		positions[i].EntryConfidence = confidence
		positions[i].EntryStrategy = strategy
	}
}

// restoreBreaker reloads persisted circuit-breaker state on startup so a
// restart cannot reset a tripped breaker mid-day.
func (e *Engine) restoreBreaker(ctx context.Context) {
	saved, ok, err := e.store.LoadBreaker(ctx)
	if err != nil {
		slog.Warn("failed to load breaker state", "err", err)
		return
	}
	if !ok {
		return
	}
	breaker := e.gate.Breaker()
	limit := breaker.MaxDailyLossPct
	*breaker = saved
	breaker.MaxDailyLossPct = limit
	if breaker.Tripped {
		slog.Warn("restored tripped circuit breaker",
			"reason", breaker.TrippedReason, "since", breaker.TrippedAt)
	}
}

// exitQty converts an exit portion into an order quantity. Whole shares for
// equities, fractional for round-the-clock symbols.
func exitQty(pos domain.Position, portion float64) float64 {
	total := math.Abs(pos.Qty)
	if portion >= 1 {
		return total
	}
	qty := total * portion
	if domain.IsAlwaysTradeable(pos.Symbol) {
		return qty
	}
	qty = math.Floor(qty)
	if qty < 1 && total >= 1 {
		qty = 1
	}
	return qty
}

// reasonTag reduces a gate rejection to a short metric label.
func reasonTag(reason string) string {
	switch {
	case strings.Contains(reason, "hard limit"):
		return "hard_limit"
	case strings.Contains(reason, "portfolio cap"):
		return "portfolio_cap"
	case strings.Contains(reason, "position count"):
		return "position_count"
	case strings.Contains(reason, "circuit breaker"):
		return "circuit_breaker"
	case strings.Contains(reason, "buying power"):
		return "buying_power"
	default:
		return "other"
	}
}

func quoteList(quotes map[string]domain.Quote) []domain.Quote {
	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q)
	}
	return out
}

// buildSnapshot flattens a cycle into the immutable JSON view.
func buildSnapshot(rec domain.CycleRecord, positions []domain.Position, breakerTripped bool) domain.CycleSnapshot {
	snap := domain.CycleSnapshot{
		At:         rec.At,
		Regime:     rec.Regime,
		Strategy:   rec.Strategy,
		Confidence: rec.Confidence,
		MarketOpen: rec.MarketOpen,
		Equity:     rec.Equity,
		DailyPnL:   rec.DailyPnL,
		Breaker:    breakerTripped,
		Quotes:     make(map[string]float64, len(rec.Quotes)),
	}
	for _, q := range rec.Quotes {
		snap.Quotes[q.Symbol] = q.Mid()
	}
	for _, t := range rec.Trades {
		snap.Trades = append(snap.Trades, domain.SnapshotTrade{
			Symbol:  t.Symbol,
			Side:    t.Side,
			Qty:     t.Qty,
			Price:   t.FillPrice,
			Status:  string(t.Status),
			Reason:  t.Reason,
			Virtual: t.Virtual,
		})
	}
	for _, p := range positions {
		snap.Positions = append(snap.Positions, domain.SnapshotPosition{
			Symbol:     p.Symbol,
			Qty:        p.Qty,
			EntryPrice: p.AvgEntryPrice,
			Price:      p.CurrentPrice,
			PnLPct:     p.PnLPct(),
			HoldHours:  p.HoldHours(),
		})
	}
	return snap
}
