package signal

import (
	"testing"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

func TestDetectSetupFlip(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(100, map[models.Timeframe]*models.Delta{
		models.TF15m: delta(models.TF15m, f(0.01), f(0.01)), // longs opening
		models.TF5m:  delta(models.TF5m, f(0.01), f(0.01)),
	}, nil)

	det := Detect(models.ModeSwing, d, models.StateShortsOpening, true, cfg)
	if !det.Fired || det.Kind != TriggerSetupFlip {
		t.Fatalf("state change must fire setup_flip, got %+v", det)
	}
	if det.State != models.StateLongsOpening {
		t.Fatalf("current state should be returned for seeding, got %s", det.State)
	}

	det = Detect(models.ModeSwing, d, models.StateLongsOpening, true, cfg)
	if det.Fired {
		t.Fatalf("unchanged state must not fire on quiet deltas")
	}
}

func TestDetectMomentumConfirm(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(100, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.12), f(0.01)),
		models.TF15m: delta(models.TF15m, f(0.01), f(0.01)),
	}, nil)

	det := Detect(models.ModeSwing, d, "", false, cfg)
	if !det.Fired || det.Kind != TriggerMomentumConfirm {
		t.Fatalf("|5m| >= MOMENTUM_MIN must fire momentum_confirm, got %+v", det)
	}

	// Lean alignment is not required: negative momentum also fires.
	d.Deltas[models.TF5m] = delta(models.TF5m, f(-0.12), f(0.01))
	det = Detect(models.ModeSwing, d, "", false, cfg)
	if !det.Fired || det.Kind != TriggerMomentumConfirm {
		t.Fatalf("negative momentum must fire too, got %+v", det)
	}
}

func TestDetectLoosenedShock(t *testing.T) {
	cfg := config.DefaultAlertConfig()

	// OI leg alone fires.
	d := derived(100, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.01), f(0.6)),
		models.TF15m: delta(models.TF15m, f(0.01), f(0.01)),
	}, nil)
	det := Detect(models.ModeSwing, d, "", false, cfg)
	if !det.Fired || det.Kind != TriggerPositioningShock {
		t.Fatalf("OI shock alone must fire, got %+v", det)
	}

	// Price leg alone fires on 15m.
	d = derived(100, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.01), f(0.01)),
		models.TF15m: delta(models.TF15m, f(-0.25), f(0.01)),
	}, nil)
	det = Detect(models.ModeSwing, d, "", false, cfg)
	if !det.Fired || det.Kind != TriggerPositioningShock {
		t.Fatalf("price shock alone must fire, got %+v", det)
	}
}

func TestDetectQuietReturnsState(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(100, map[models.Timeframe]*models.Delta{
		models.TF5m:  delta(models.TF5m, f(0.01), f(0.01)),
		models.TF15m: delta(models.TF15m, f(0.02), f(0.03)),
	}, nil)

	det := Detect(models.ModeBuild, d, "", false, cfg)
	if det.Fired {
		t.Fatalf("quiet regime must not fire")
	}
	if det.State != models.StateLongsOpening {
		t.Fatalf("state must still be surfaced for seeding, got %s", det.State)
	}
}

func TestDetectionTimeframePerMode(t *testing.T) {
	if models.ModeScalp.DetectionTF() != models.TF5m {
		t.Fatalf("scalp detects on 5m")
	}
	if models.ModeSwing.DetectionTF() != models.TF15m || models.ModeBuild.DetectionTF() != models.TF15m {
		t.Fatalf("swing and build detect on 15m")
	}
}
