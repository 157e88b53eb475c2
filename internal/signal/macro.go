package signal

import (
	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// MacroAnalysis is the BTC 4h risk read shared by one evaluator invocation.
type MacroAnalysis struct {
	Enabled          bool        `json:"enabled"`
	BTCSymbol        string      `json:"btc_symbol"`
	Warmup           bool        `json:"warmup"`
	Lean4h           models.Lean `json:"lean_4h"`
	PriceChangePct4h *float64    `json:"price_change_pct_4h,omitempty"`
	OIChangePct4h    *float64    `json:"oi_change_pct_4h,omitempty"`
	BullExpansion    bool        `json:"bull_expansion"`
}

// AnalyzeMacro computes the bull-expansion flag from the BTC 4h delta.
// A nil derived (BTC snapshot missing) yields a warmup analysis that never
// blocks.
func AnalyzeMacro(btc *models.Derived, cfg config.AlertConfig) *MacroAnalysis {
	m := &MacroAnalysis{Enabled: cfg.MacroEnabled, BTCSymbol: cfg.MacroBTCSymbol}
	if btc == nil {
		m.Warmup = true
		return m
	}

	d4 := btc.Delta(models.TF4h)
	m.Warmup = d4.Warmup
	m.Lean4h = d4.Lean
	m.PriceChangePct4h = d4.PriceChangePct
	m.OIChangePct4h = d4.OIChangePct

	m.BullExpansion = d4.Lean == models.LeanLong &&
		d4.PriceChangePct != nil && *d4.PriceChangePct >= cfg.MacroBTC4hPriceMin &&
		d4.OIChangePct != nil && *d4.OIChangePct >= cfg.MacroBTC4hOIMin
	return m
}

// BlocksShort reports whether the macro gate denies a short candidate on
// the given symbol. Longs are never macro-blocked.
func (m *MacroAnalysis) BlocksShort(symbol string, bias models.Lean, cfg config.AlertConfig) bool {
	if m == nil || !m.Enabled || !cfg.MacroBlockShorts {
		return false
	}
	if bias != models.LeanShort {
		return false
	}
	if symbol == m.BTCSymbol {
		return false
	}
	return m.BullExpansion
}
