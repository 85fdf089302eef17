package domain

import "time"

// RiskParameters are the hard limits the gate enforces. All *Pct fields are
// fractions (0.02 = 2%), never percentage points; the config layer must not
// coerce between the two.
type RiskParameters struct {
	BaseRiskPct      float64 `yaml:"base_risk_pct"`      // per-trade risk budget as fraction of portfolio
	MaxPositionValue float64 `yaml:"max_position_value"` // hard dollar ceiling per symbol
	MaxPositionPct   float64 `yaml:"max_position_pct"`   // combined per-symbol exposure cap
	MaxOpenPositions int     `yaml:"max_open_positions"` // 0 = unlimited
	MaxDailyLossPct  float64 `yaml:"max_daily_loss_pct"` // circuit breaker threshold
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	MinConfidence    float64 `yaml:"min_confidence"` // entries below this are not sized
}

// DefaultRiskParameters mirrors the limits the bot ran with in production.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		BaseRiskPct:      0.02,
		MaxPositionValue: 10000,
		MaxPositionPct:   0.15,
		MaxOpenPositions: 20,
		MaxDailyLossPct:  0.03,
		StopLossPct:      0.08,
		TakeProfitPct:    0.15,
		MinConfidence:    0.6,
	}
}

// ExitParameters tune the exit evaluator. One canonical table — the former
// per-phase copies drifted apart and nobody could say which was intended.
type ExitParameters struct {
	MinHoldHours       float64 `yaml:"min_hold_hours"`      // premature-exit guard window
	MaxHoldDays        float64 `yaml:"max_hold_days"`       // time analyzer hard ceiling
	StagnantDays       float64 `yaml:"stagnant_days"`       // flat for this long → time analyzer sells
	VoteThreshold      float64 `yaml:"vote_threshold"`      // sell votes / analyzers needed
	MinExitConfidence  float64 `yaml:"min_exit_confidence"` // blended confidence floor for voted exits
	MinProfitFloor     float64 `yaml:"min_profit_floor"`    // voted exits need at least this gain
	StrongVoteCount    int     `yaml:"strong_vote_count"`   // this many sells overrides the profit floor...
	LargeLossGuard     float64 `yaml:"large_loss_guard"`    // ...unless we are losing more than this
	DefaultExitPortion float64 `yaml:"default_exit_portion"`
}

// DefaultExitParameters is the single source for exit thresholds.
func DefaultExitParameters() ExitParameters {
	return ExitParameters{
		MinHoldHours:       2,
		MaxHoldDays:        10,
		StagnantDays:       4,
		VoteThreshold:      0.6,
		MinExitConfidence:  0.55,
		MinProfitFloor:     0.01,
		StrongVoteCount:    4,
		LargeLossGuard:     -0.02,
		DefaultExitPortion: 0.25,
	}
}

// ExitTier maps a reached profit level to the fraction of the position to
// close. Tiers are evaluated in order; the first satisfied row wins.
type ExitTier struct {
	MinProfitPct float64
	Portion      float64
}

// ExitTiers is ordered highest profit first.
var ExitTiers = []ExitTier{
	{MinProfitPct: 0.20, Portion: 0.75},
	{MinProfitPct: 0.10, Portion: 0.50},
	{MinProfitPct: 0.05, Portion: 0.33},
}

// DailyLossBreaker halts new entries once the day's drawdown crosses the
// limit. There is no way to disable the check: the override flag only changes
// how loudly we complain, never the verdict. State survives restarts via
// storage.
type DailyLossBreaker struct {
	MaxDailyLossPct float64
	Tripped         bool
	TrippedAt       time.Time
	TrippedReason   string
	Day             time.Time // UTC date the current state belongs to
}

// Check evaluates today's drawdown and trips the breaker when it crosses the
// limit. It returns true while trading is allowed.
func (b *DailyLossBreaker) Check(dailyPnLPct float64, now time.Time) bool {
	day := now.UTC().Truncate(24 * time.Hour)
	if !b.Day.Equal(day) {
		// new trading day resets the breaker
		b.Day = day
		b.Tripped = false
		b.TrippedReason = ""
	}
	if b.Tripped {
		return false
	}
	if dailyPnLPct <= -b.MaxDailyLossPct {
		b.Tripped = true
		b.TrippedAt = now
		b.TrippedReason = "daily loss limit reached"
		return false
	}
	return true
}
