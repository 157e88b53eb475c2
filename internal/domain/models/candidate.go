package models

// Mode is a trading mode evaluated by the gating pipeline.
type Mode string

const (
	ModeScalp Mode = "scalp"
	ModeSwing Mode = "swing"
	ModeBuild Mode = "build"
)

// ModePriority lists modes in winner-selection order.
var ModePriority = []Mode{ModeScalp, ModeSwing, ModeBuild}

// IsValidMode returns true for a recognized mode.
func IsValidMode(m Mode) bool {
	switch m {
	case ModeScalp, ModeSwing, ModeBuild:
		return true
	default:
		return false
	}
}

// DetectionTF returns the mode's detection timeframe.
func (m Mode) DetectionTF() Timeframe {
	if m == ModeScalp {
		return TF5m
	}
	return TF15m
}

// EntryReason identifies the trigger that validated an entry.
type EntryReason string

const (
	EntryLongBreakout     EntryReason = "long_breakout"
	EntryShortBreakdown   EntryReason = "short_breakdown"
	EntryLongSweepReclaim EntryReason = "long_sweep_reclaim"
	EntryShortSweepReject EntryReason = "short_sweep_reject"
	EntryLongReversal     EntryReason = "long_reversal"
	EntryShortReversal    EntryReason = "short_reversal"
)

// Grade is the mechanical confidence class of a candidate.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// LeverageBand is the advisory leverage range. Copy-only, never gates.
type LeverageBand struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// PriceZone is a rendered entry-zone / stop / target block. Copy-only.
type PriceZone struct {
	EntryLow  float64 `json:"entry_low"`
	EntryHigh float64 `json:"entry_high"`
	StopLoss  float64 `json:"stop_loss"`
	TakeP1    float64 `json:"tp1"`
	TakeP2    float64 `json:"tp2"`
}

// Candidate is a symbol that cleared every gate for one mode.
type Candidate struct {
	Symbol      string        `json:"symbol"`
	InstID      string        `json:"inst_id"`
	Mode        Mode          `json:"mode"`
	Bias        Lean          `json:"bias"`
	Price       float64       `json:"price"`
	Levels1h    *Levels       `json:"levels_1h"`
	Reason      EntryReason   `json:"reason"`
	ReasonLevel float64       `json:"reason_level"`
	B1Strong    bool          `json:"b1_strong"`
	Grade       Grade         `json:"grade,omitempty"`
	Leverage    *LeverageBand `json:"leverage,omitempty"`
	Zone        *PriceZone    `json:"zone,omitempty"`
	Derived     *Derived      `json:"-"`
}
