package signal

import (
	"testing"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

func TestComputeLevels(t *testing.T) {
	tail := []models.SeriesPoint{
		{P: 1950}, {P: 1940}, {P: 1987.56}, {P: 1960},
	}
	lv := ComputeLevels(tail, 4)
	if lv.Warmup {
		t.Fatalf("4 points over lookback 4 should not be warmup")
	}
	if lv.Hi != 1987.56 || lv.Lo != 1940 {
		t.Fatalf("unexpected levels %+v", lv)
	}
	if lv.Mid != (1987.56+1940)/2 {
		t.Fatalf("unexpected mid %v", lv.Mid)
	}

	short := ComputeLevels(tail[:2], 4)
	if !short.Warmup {
		t.Fatalf("2 points over lookback 4 must be warmup")
	}
}

func TestEdgeBandSymmetry(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	cfg.RegimeEnabled = false
	lv := &models.Levels{Hi: 2000, Lo: 1940, Mid: 1970}

	if got := EvaluateB1(models.LeanLong, lv.Lo, lv, nil, cfg); !got.InBand {
		t.Fatalf("long at lo must be in-band")
	}
	if got := EvaluateB1(models.LeanShort, lv.Hi, lv, nil, cfg); !got.InBand {
		t.Fatalf("short at hi must be in-band")
	}

	// edge == full range: every price is inside both bands
	cfg.EdgePct1h = 1.0
	mid := (lv.Hi + lv.Lo) / 2
	if !EvaluateB1(models.LeanLong, mid, lv, nil, cfg).InBand ||
		!EvaluateB1(models.LeanShort, mid, lv, nil, cfg).InBand {
		t.Fatalf("hi == lo+edge should put any price in both bands")
	}
}

func TestEdgeBandBoundaries(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	cfg.RegimeEnabled = false
	lv := &models.Levels{Hi: 2000, Lo: 1940, Mid: 1970}
	edge := cfg.EdgePct1h * (lv.Hi - lv.Lo) // 9.0

	if !EvaluateB1(models.LeanLong, lv.Lo+edge, lv, nil, cfg).InBand {
		t.Fatalf("long at exactly lo+edge is in-band")
	}
	if EvaluateB1(models.LeanLong, lv.Lo+edge+0.01, lv, nil, cfg).InBand {
		t.Fatalf("long just past lo+edge is out of band")
	}
	if got := EvaluateB1(models.LeanLong, lv.Lo+edge/2, lv, nil, cfg); !got.Strong {
		t.Fatalf("long within half the band should be strong")
	}
	if got := EvaluateB1(models.LeanLong, lv.Lo+edge, lv, nil, cfg); got.Strong {
		t.Fatalf("long at the band edge should be weak")
	}
}

func TestRegimeContractionWidensBand(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	lv := &models.Levels{Hi: 2000, Lo: 1940, Mid: 1970}
	d4 := delta(models.TF4h, f(0.2), f(-1.5)) // quiet price, strongly negative OI

	base := cfg.EdgePct1h * (lv.Hi - lv.Lo)
	price := lv.Lo + base + 2 // outside the base band, inside the widened one

	if EvaluateB1(models.LeanLong, price, lv, nil, cfg).InBand {
		t.Fatalf("price should be out of the base band")
	}
	if !EvaluateB1(models.LeanLong, price, lv, d4, cfg).InBand {
		t.Fatalf("contraction should widen the band to include the price")
	}
}

func TestDowngradeB1OnOpposingExpansion(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	res := B1Result{InBand: true, Strong: true}
	bull := delta(models.TF4h, f(2.5), f(0.8))

	out := DowngradeB1(res, models.LeanShort, bull, cfg)
	if out.Strong {
		t.Fatalf("bull expansion must demote a strong short read")
	}
	out = DowngradeB1(res, models.LeanLong, bull, cfg)
	if !out.Strong {
		t.Fatalf("aligned expansion must not demote")
	}
}
