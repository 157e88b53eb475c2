package signal

import (
	"math"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// RiskProfile names an advisory risk budget.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservative"
	ProfileStandard     RiskProfile = "standard"
	ProfileAggressive   RiskProfile = "aggressive"
)

// riskBudgetPct is the per-trade budget in percent of account, by profile.
func riskBudgetPct(p RiskProfile) float64 {
	switch p {
	case ProfileConservative:
		return 2.0
	case ProfileAggressive:
		return 6.0
	default:
		return 4.0
	}
}

// NormalizeProfile returns a valid profile, falling back to the default.
func NormalizeProfile(s string, def string) RiskProfile {
	switch RiskProfile(s) {
	case ProfileConservative, ProfileStandard, ProfileAggressive:
		return RiskProfile(s)
	}
	switch RiskProfile(def) {
	case ProfileConservative, ProfileStandard, ProfileAggressive:
		return RiskProfile(def)
	}
	return ProfileStandard
}

// AdviseLeverage computes the advisory leverage band for a winner. Returns
// nil when the distance to invalidation degenerates. Copy-only: the result
// never feeds back into gating.
func AdviseLeverage(profile RiskProfile, bias models.Lean, d *models.Derived, lv *models.Levels, cfg config.AlertConfig) *models.LeverageBand {
	if !cfg.LeverageEnabled || lv == nil || d.Price <= 0 {
		return nil
	}

	invalidation := lv.Lo
	if bias == models.LeanShort {
		invalidation = lv.Hi
	}
	distPct := math.Abs(d.Price-invalidation) / d.Price * 100
	if distPct <= 0 {
		return nil
	}

	base := math.Floor(riskBudgetPct(profile) / distPct)
	if base < 1 {
		base = 1
	}

	adj := base * instabilityMult(d, cfg) * fundingMult(d, cfg)
	lev := int(math.Floor(adj))
	if lev > cfg.LeverageMaxCap {
		lev = cfg.LeverageMaxCap
	}
	if lev < 1 {
		lev = 1
	}

	low := lev / 2
	if low < 1 {
		low = 1
	}
	return &models.LeverageBand{Low: low, High: lev}
}

// instabilityMult scales down for fast OI churn on 5m/15m.
func instabilityMult(d *models.Derived, cfg config.AlertConfig) float64 {
	instab := 0.0
	if oi := d.Delta(models.TF5m).OIChangePct; oi != nil {
		instab = math.Abs(*oi)
	}
	if oi := d.Delta(models.TF15m).OIChangePct; oi != nil && math.Abs(*oi) > instab {
		instab = math.Abs(*oi)
	}
	switch {
	case instab >= cfg.LeverageInstabHard:
		return 0.6
	case instab >= cfg.LeverageInstabSoft:
		return 0.75
	default:
		return 1.0
	}
}

// fundingMult scales down for funding magnitude, read off the latest series
// point and expressed in percent.
func fundingMult(d *models.Derived, cfg config.AlertConfig) float64 {
	if len(d.Tail) == 0 || d.Tail[len(d.Tail)-1].FR == nil {
		return 1.0
	}
	fr := math.Abs(*d.Tail[len(d.Tail)-1].FR) * 100
	switch {
	case fr >= cfg.LeverageFundingHard:
		return 0.6
	case fr >= cfg.LeverageFundingSoft:
		return 0.75
	default:
		return 1.0
	}
}
