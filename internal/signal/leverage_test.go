package signal

import (
	"testing"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

func TestAdviseLeverageBase(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	lv := &models.Levels{Hi: 1020, Lo: 990, Mid: 1005}
	d := derived(1000, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.1), f(0.2)),
		models.TF15m: delta(models.TF15m, f(0.1), f(0.3)),
	}, nil)

	// distance to invalidation = |1000-990|/1000*100 = 1%; standard budget 4 -> base 4
	band := AdviseLeverage(ProfileStandard, models.LeanLong, d, lv, cfg)
	if band == nil {
		t.Fatalf("expected a band")
	}
	if band.High != 4 || band.Low != 2 {
		t.Fatalf("expected x2-x4, got x%d-x%d", band.Low, band.High)
	}
}

func TestAdviseLeverageInstabilityTiers(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	lv := &models.Levels{Hi: 1020, Lo: 990, Mid: 1005}

	soft := derived(1000, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.1), f(1.2)), // soft tier
		models.TF15m: delta(models.TF15m, f(0.1), f(0.3)),
	}, nil)
	band := AdviseLeverage(ProfileStandard, models.LeanLong, soft, lv, cfg)
	if band.High != 3 { // floor(4*0.75)
		t.Fatalf("soft instability should scale 4 -> 3, got %d", band.High)
	}

	hard := derived(1000, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.1), f(0.2)),
		models.TF15m: delta(models.TF15m, f(0.1), f(-3.0)), // hard tier by magnitude
	}, nil)
	band = AdviseLeverage(ProfileStandard, models.LeanLong, hard, lv, cfg)
	if band.High != 2 { // floor(4*0.6)
		t.Fatalf("hard instability should scale 4 -> 2, got %d", band.High)
	}
}

func TestAdviseLeverageFundingTier(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	lv := &models.Levels{Hi: 1020, Lo: 990, Mid: 1005}
	fr := 0.0005 // 0.05% > soft tier
	d := derived(1000, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.1), f(0.2)),
		models.TF15m: delta(models.TF15m, f(0.1), f(0.3)),
	}, []models.SeriesPoint{{P: 1000, FR: &fr}})

	band := AdviseLeverage(ProfileStandard, models.LeanLong, d, lv, cfg)
	if band.High != 3 {
		t.Fatalf("funding soft tier should scale 4 -> 3, got %d", band.High)
	}
}

func TestAdviseLeverageCapAndProfiles(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	cfg.LeverageMaxCap = 5
	lv := &models.Levels{Hi: 1002, Lo: 999.5, Mid: 1000.75}
	d := derived(1000, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.1), f(0.2)),
		models.TF15m: delta(models.TF15m, f(0.1), f(0.3)),
	}, nil)

	// distance 0.05% -> base 80 (standard), capped to 5
	band := AdviseLeverage(ProfileStandard, models.LeanLong, d, lv, cfg)
	if band.High != 5 || band.Low != 2 {
		t.Fatalf("cap should clamp to x2-x5, got x%d-x%d", band.Low, band.High)
	}

	if NormalizeProfile("aggressive", "standard") != ProfileAggressive {
		t.Fatalf("explicit profile wins")
	}
	if NormalizeProfile("bogus", "conservative") != ProfileConservative {
		t.Fatalf("bogus profile falls back to default")
	}
}

func TestAdviseLeverageDisabled(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	cfg.LeverageEnabled = false
	lv := &models.Levels{Hi: 1020, Lo: 990, Mid: 1005}
	d := derived(1000, nil, nil)

	if AdviseLeverage(ProfileStandard, models.LeanLong, d, lv, cfg) != nil {
		t.Fatalf("disabled leverage must return nil")
	}
}
