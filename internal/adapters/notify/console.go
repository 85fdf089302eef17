package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"papertrader/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyCycle renders the cycle in the configured mode.
func (c *Console) NotifyCycle(_ context.Context, rec domain.CycleRecord, positions []domain.Position, decisions []domain.TradeDecision) error {
	if c.table {
		c.printFull(rec, positions, decisions)
	} else {
		c.printCompact(rec, positions, decisions)
	}
	return nil
}

// printCompact prints the essentials on a single line.
func (c *Console) printCompact(rec domain.CycleRecord, positions []domain.Position, decisions []domain.TradeDecision) {
	now := rec.At
	if now.IsZero() {
		now = time.Now()
	}
	buys, sells := countBySide(decisions)
	market := "closed"
	if rec.MarketOpen {
		market = "open"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s/%s mkt:%s | eq $%.0f day %+.2f%% | %d pos | buy:%d sell:%d",
		now.Format("15:04:05"), rec.Regime, rec.Strategy, market,
		rec.Equity, rec.DailyPnL*100, len(positions), buys, sells)

	shown := 0
	for _, d := range decisions {
		if shown >= 4 {
			break
		}
		if d.Action == domain.ActionHold {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s %d %s", d.Action, d.Symbol, d.Shares, shortReason(d.Reason))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull prints the cycle header plus position and decision tables.
func (c *Console) printFull(rec domain.CycleRecord, positions []domain.Position, decisions []domain.TradeDecision) {
	now := rec.At
	if now.IsZero() {
		now = time.Now()
	}
	market := "CLOSED"
	if rec.MarketOpen {
		market = "OPEN"
	}

	fmt.Fprintf(c.out, "\n[%s] cycle #%d — regime %s (%.0f%%), strategy %s, market %s\n",
		now.Format("15:04:05"), rec.ID, rec.Regime, rec.Confidence*100, rec.Strategy, market)
	fmt.Fprintf(c.out, "  equity $%.2f | daily P&L %+.2f%% | %d open positions\n",
		rec.Equity, rec.DailyPnL*100, len(positions))

	if len(positions) > 0 {
		c.printPositions(positions)
	}
	if len(decisions) > 0 {
		c.printDecisions(decisions)
	}
	if len(rec.Trades) > 0 {
		c.printTrades(rec.Trades)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printPositions(positions []domain.Position) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Qty", "Entry", "Now", "P&L", "P&L%", "Held", "Strategy")

	for _, p := range positions {
		table.Append(
			p.Symbol,
			fmt.Sprintf("%.2f", p.Qty),
			fmt.Sprintf("$%.2f", p.AvgEntryPrice),
			fmt.Sprintf("$%.2f", p.CurrentPrice),
			fmt.Sprintf("$%.2f", p.UnrealizedPnL),
			fmt.Sprintf("%+.2f%%", p.PnLPct()*100),
			holdLabel(p.HoldHours()),
			string(p.EntryStrategy),
		)
	}
	table.Render()
}

func (c *Console) printDecisions(decisions []domain.TradeDecision) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Action", "Shares", "Portion", "Conf", "Votes", "Reason")

	for _, d := range decisions {
		portion := "-"
		if d.Action == domain.ActionSell && d.ExitPortion > 0 {
			portion = fmt.Sprintf("%.0f%%", d.ExitPortion*100)
		}
		votes := "-"
		if n := len(d.Signals); n > 0 {
			votes = fmt.Sprintf("%d/%d", d.SellVotes(), n)
		}
		table.Append(
			d.Symbol,
			strings.ToUpper(string(d.Action)),
			fmt.Sprintf("%d", d.Shares),
			portion,
			fmt.Sprintf("%.2f", d.Confidence),
			votes,
			truncate(d.Reason, 48),
		)
	}
	table.Render()
}

func (c *Console) printTrades(trades []domain.TradeRecord) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Side", "Qty", "Fill", "Status", "Reason")

	for _, t := range trades {
		status := string(t.Status)
		if t.Virtual {
			status = status + " (virtual)"
		}
		table.Append(
			t.Symbol,
			strings.ToUpper(string(t.Side)),
			fmt.Sprintf("%.2f", t.Qty),
			fmt.Sprintf("$%.2f", t.FillPrice),
			status,
			truncate(t.Reason, 48),
		)
	}
	table.Render()
}

// --- helpers ---

func countBySide(decisions []domain.TradeDecision) (buys, sells int) {
	for _, d := range decisions {
		switch d.Action {
		case domain.ActionBuy:
			buys++
		case domain.ActionSell:
			sells++
		}
	}
	return
}

// shortReason keeps only the reason tag before the first colon.
func shortReason(reason string) string {
	if idx := strings.Index(reason, ":"); idx > 0 {
		return reason[:idx]
	}
	return truncate(reason, 24)
}

func holdLabel(hours float64) string {
	if hours >= 48 {
		return fmt.Sprintf("%.1fd", hours/24)
	}
	return fmt.Sprintf("%.1fh", hours)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
