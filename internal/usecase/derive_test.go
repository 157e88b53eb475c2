package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
)

func TestDeriveSnapshotMissing(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.derive.Derive(context.Background(), "ETHUSDT", testNow)
	if !errors.Is(err, drepo.ErrSnapshotMissing) {
		t.Fatalf("expected ErrSnapshotMissing, got %v", err)
	}
}

func TestDeriveAppendsOncePerBucket(t *testing.T) {
	h := newHarness(t, nil)
	h.seedSeries(t, "ETH-USDT-SWAP", []float64{1950, 1952}, oiFlat(2, 1000))
	oi := 1001.0
	h.seedSnapshot(t, "ETH-USDT-SWAP", 1954, &oi)

	ctx := context.Background()
	if _, err := h.derive.Derive(ctx, "ETHUSDT", testNow); err != nil {
		t.Fatalf("first derive: %v", err)
	}
	if _, err := h.derive.Derive(ctx, "ETHUSDT", testNow); err != nil {
		t.Fatalf("second derive: %v", err)
	}

	tail, err := h.series.Tail(ctx, "ETH-USDT-SWAP", 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 3 {
		t.Fatalf("rerun within a bucket must append once, got %d points", len(tail))
	}
	b, ok, _ := h.series.LastBucket(ctx, "ETH-USDT-SWAP")
	if !ok || b != testBucket() {
		t.Fatalf("lastBucket should be the current bucket, got (%d, %v)", b, ok)
	}
}

func TestDeriveDeltaValues(t *testing.T) {
	h := newHarness(t, nil)
	// 12 prior points + current: enough for 5m/15m/30m/1h, not 4h.
	prices := []float64{2000, 1990, 1980, 1975, 1970, 1968, 1966, 1964, 1962, 1958, 1955, 1950}
	h.seedSeries(t, "ETH-USDT-SWAP", prices, oiFlat(len(prices), 1000))
	oi := 1002.0
	h.seedSnapshot(t, "ETH-USDT-SWAP", 1940, &oi)

	d, err := h.derive.Derive(context.Background(), "ETHUSDT", testNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	d5 := d.Delta(models.TF5m)
	if d5.Warmup || d5.PriceChangePct == nil {
		t.Fatalf("5m should be warm: %+v", d5)
	}
	want := (1940.0 - 1950.0) / 1950.0 * 100
	if math.Abs(*d5.PriceChangePct-want) > 1e-9 {
		t.Fatalf("5m price delta = %v, want %v", *d5.PriceChangePct, want)
	}
	if d5.OIChangePct == nil || math.Abs(*d5.OIChangePct-0.2) > 1e-9 {
		t.Fatalf("5m oi delta = %v, want 0.2", d5.OIChangePct)
	}
	if d5.State != models.StateShortsOpening || d5.Lean != models.LeanShort {
		t.Fatalf("5m classification = (%s, %s)", d5.State, d5.Lean)
	}

	d1h := d.Delta(models.TF1h)
	if d1h.Warmup {
		t.Fatalf("1h should be warm with 13 points")
	}
	if math.Abs(*d1h.PriceChangePct-(-3.0)) > 1e-9 {
		t.Fatalf("1h price delta = %v, want -3", *d1h.PriceChangePct)
	}

	if d4 := d.Delta(models.TF4h); !d4.Warmup {
		t.Fatalf("4h must be warmup with 13 points")
	}

	lv := d.Levels[models.TF1h]
	if lv.Warmup || lv.Hi != 2000 || lv.Lo != 1950 {
		t.Fatalf("1h levels should span the prior window, got %+v", lv)
	}
	if d.Levels[models.TF4h] == nil || !d.Levels[models.TF4h].Warmup {
		t.Fatalf("4h levels must be warmup")
	}
}

func TestDeriveAbsentOIStaysAbsent(t *testing.T) {
	h := newHarness(t, nil)
	h.seedSeries(t, "ETH-USDT-SWAP", []float64{1950, 1952}, nil) // no OI data
	h.seedSnapshot(t, "ETH-USDT-SWAP", 1954, nil)

	d, err := h.derive.Derive(context.Background(), "ETHUSDT", testNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	d5 := d.Delta(models.TF5m)
	if d5.OIChangePct != nil {
		t.Fatalf("absent OI must stay nil, got %v", *d5.OIChangePct)
	}
	if d5.State != models.StateUnknown || d5.Lean != models.LeanNeutral {
		t.Fatalf("missing input must classify unknown, got (%s, %s)", d5.State, d5.Lean)
	}
}

func TestDeriveWarmupFlags(t *testing.T) {
	h := newHarness(t, nil)
	h.seedSeries(t, "ETH-USDT-SWAP", []float64{1950, 1952}, oiFlat(2, 1000))
	oi := 1001.0
	h.seedSnapshot(t, "ETH-USDT-SWAP", 1954, &oi)

	d, err := h.derive.Derive(context.Background(), "ETHUSDT", testNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	// 3 points: 5m (k=1) warm, 15m (k=3) not.
	if d.Delta(models.TF5m).Warmup {
		t.Fatalf("5m should be warm with 3 points")
	}
	if !d.Delta(models.TF15m).Warmup {
		t.Fatalf("15m must be warmup with 3 points")
	}
	if !d.Levels[models.TF1h].Warmup {
		t.Fatalf("1h levels must be warmup with 2 prior points")
	}
}
