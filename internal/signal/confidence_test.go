package signal

import (
	"testing"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

func TestGradeA(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(1944, map[models.Timeframe]*models.Delta{
		models.TF15m: delta(models.TF15m, f(0.2), f(0.6)), // longs opening -> aligned
		models.TF1h:  delta(models.TF1h, f(0.5), f(0.4)),  // aligned
	}, nil)
	entry := Entry{B1: B1Result{Strong: true}, ReversalConfirmed: true}

	if g := GradeCandidate(entry, models.LeanLong, d, cfg); g != models.GradeA {
		t.Fatalf("expected grade A, got %s", g)
	}
}

func TestGradeB(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(1944, map[models.Timeframe]*models.Delta{
		models.TF15m: delta(models.TF15m, f(0.2), f(0.3)), // |oi| below SHOCK_OI_MIN -> neutral
		models.TF1h:  delta(models.TF1h, f(-0.5), f(0.4)), // counter 1h lean
	}, nil)
	entry := Entry{B1: B1Result{Strong: true}, ReversalConfirmed: true}

	if g := GradeCandidate(entry, models.LeanLong, d, cfg); g != models.GradeB {
		t.Fatalf("expected grade B, got %s", g)
	}
}

func TestGradeCOnBreakoutOnly(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(1944, map[models.Timeframe]*models.Delta{
		models.TF15m: delta(models.TF15m, f(0.2), f(0.6)),
		models.TF1h:  delta(models.TF1h, f(0.5), f(0.4)),
	}, nil)
	entry := Entry{B1: B1Result{Strong: true}, BreakoutOnly: true}

	if g := GradeCandidate(entry, models.LeanLong, d, cfg); g != models.GradeC {
		t.Fatalf("breakout without reversal confirm is C, got %s", g)
	}
}

func TestGradeCOnWeakStructure(t *testing.T) {
	cfg := config.DefaultAlertConfig()
	d := derived(1944, map[models.Timeframe]*models.Delta{
		models.TF15m: delta(models.TF15m, f(0.2), f(0.6)),
		models.TF1h:  delta(models.TF1h, f(0.5), f(0.4)),
	}, nil)
	entry := Entry{B1: B1Result{Strong: false}, ReversalConfirmed: true}

	if g := GradeCandidate(entry, models.LeanLong, d, cfg); g != models.GradeC {
		t.Fatalf("weak structure is C, got %s", g)
	}
}
