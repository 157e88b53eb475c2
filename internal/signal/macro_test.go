package signal

import (
	"testing"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

func TestMacroBullExpansion(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	btc := derived(65000, map[models.Timeframe]*models.Delta{
		models.TF4h: delta(models.TF4h, f(2.4), f(0.8)),
	}, nil)

	m := AnalyzeMacro(btc, cfg)
	if !m.BullExpansion {
		t.Fatalf("2.4%%/0.8%% long must read as bull expansion")
	}
	if !m.BlocksShort("ETHUSDT", models.LeanShort, cfg) {
		t.Fatalf("alt shorts must be blocked during bull expansion")
	}
	if m.BlocksShort(cfg.MacroBTCSymbol, models.LeanShort, cfg) {
		t.Fatalf("BTC itself is never macro-blocked")
	}
	if m.BlocksShort("ETHUSDT", models.LeanLong, cfg) {
		t.Fatalf("longs are never macro-blocked")
	}
}

func TestMacroBelowThresholds(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	btc := derived(65000, map[models.Timeframe]*models.Delta{
		models.TF4h: delta(models.TF4h, f(1.5), f(0.8)), // price below PMIN
	}, nil)

	m := AnalyzeMacro(btc, cfg)
	if m.BullExpansion {
		t.Fatalf("below-threshold move is not an expansion")
	}
	if m.BlocksShort("ETHUSDT", models.LeanShort, cfg) {
		t.Fatalf("no block without expansion")
	}
}

func TestMacroMissingBTC(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	m := AnalyzeMacro(nil, cfg)
	if !m.Warmup {
		t.Fatalf("missing BTC data should read as warmup")
	}
	if m.BlocksShort("ETHUSDT", models.LeanShort, cfg) {
		t.Fatalf("warmup macro must never block")
	}
}

func TestMacroDisabled(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	cfg.MacroEnabled = false
	btc := derived(65000, map[models.Timeframe]*models.Delta{
		models.TF4h: delta(models.TF4h, f(5.0), f(2.0)),
	}, nil)

	m := AnalyzeMacro(btc, cfg)
	if m.BlocksShort("ETHUSDT", models.LeanShort, cfg) {
		t.Fatalf("disabled macro gate must never block")
	}
}
