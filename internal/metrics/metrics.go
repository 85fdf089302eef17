// Package metrics exposes the Prometheus instrumentation for the trading
// loop. Collectors are package-level promauto registrations; the engine calls
// the record helpers and Serve publishes /metrics when a listen address is
// configured.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_cycles_total",
			Help: "Total number of trading cycles executed",
		},
		[]string{"status"}, // ok, error
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "papertrader_cycle_duration_seconds",
			Help:    "Trading cycle duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_orders_total",
			Help: "Total number of order submissions by outcome",
		},
		[]string{"side", "status"},
	)

	riskRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_risk_rejections_total",
			Help: "Total number of entries rejected by the risk gate",
		},
		[]string{"check"},
	)

	equity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papertrader_equity",
			Help: "Current account equity in dollars",
		},
	)

	dailyPnLPct = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papertrader_daily_pnl_pct",
			Help: "Daily P&L as a fraction of last close equity",
		},
	)

	openPositions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papertrader_open_positions",
			Help: "Number of open positions",
		},
	)

	breakerTripped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papertrader_breaker_tripped",
			Help: "Daily-loss circuit breaker state (0=armed, 1=tripped)",
		},
	)

	quoteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_quote_errors_total",
			Help: "Total number of failed quote fetches",
		},
		[]string{"symbol"},
	)
)

// RecordCycle records one completed cycle with its outcome and duration.
func RecordCycle(err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	cyclesTotal.WithLabelValues(status).Inc()
	cycleDuration.Observe(elapsed.Seconds())
}

// RecordOrder records one order submission outcome.
func RecordOrder(side, status string) {
	ordersTotal.WithLabelValues(side, status).Inc()
}

// RecordRiskRejection records an entry the gate turned away. The check label
// is the leading word of the rejection reason, not the full string.
func RecordRiskRejection(check string) {
	riskRejections.WithLabelValues(check).Inc()
}

// RecordQuoteError records a failed quote fetch for a symbol.
func RecordQuoteError(symbol string) {
	quoteErrors.WithLabelValues(symbol).Inc()
}

// SetAccount updates the account-level gauges.
func SetAccount(eq, dailyPct float64, positions int) {
	equity.Set(eq)
	dailyPnLPct.Set(dailyPct)
	openPositions.Set(float64(positions))
}

// SetBreaker updates the circuit-breaker gauge.
func SetBreaker(tripped bool) {
	v := 0.0
	if tripped {
		v = 1.0
	}
	breakerTripped.Set(v)
}

// Serve publishes /metrics on addr in a background goroutine. An empty addr
// disables the listener.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics listener failed", "addr", addr, "err", err)
		}
	}()
}
