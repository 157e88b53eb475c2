package usecase

import (
	"context"
	"fmt"
	"testing"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	internalrepo "PulseGate/internal/repository"
	"PulseGate/pkg/cache"
	xlogger "PulseGate/pkg/logger"
)

func newIngestHarness(t *testing.T, src *fakeSource) (*Ingestor, drepo.SnapshotStore) {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	snapshots := internalrepo.NewKVSnapshotStore(cache.NewMemoryCache())
	return NewIngestor(src, passResolver{}, snapshots, fakeMetrics{}, l, 4), snapshots
}

func TestIngestWritesSnapshot(t *testing.T) {
	fr := 0.0001
	oi := 12345.0
	src := &fakeSource{metrics: map[string]*drepo.PerpMetrics{
		"ETH-USDT-SWAP": {Price: 1988.0, FundingRate: &fr, OpenInterest: &oi},
	}}
	ing, snapshots := newIngestHarness(t, src)

	res := ing.Run(context.Background(), []string{"ETHUSDT"}, testNow)
	if len(res.Results) != 1 || !res.Results[0].OK || !res.Results[0].Written {
		t.Fatalf("unexpected result %+v", res.Results)
	}

	snap, err := snapshots.Read(context.Background(), "ETH-USDT-SWAP", testBucket())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if snap.Price != 1988.0 || snap.FundingRate == nil || *snap.OpenInterest != 12345.0 {
		t.Fatalf("snapshot fields wrong: %+v", snap)
	}
}

func TestIngestIdempotentWithinBucket(t *testing.T) {
	src := &fakeSource{metrics: map[string]*drepo.PerpMetrics{
		"ETH-USDT-SWAP": {Price: 1988.0},
	}}
	ing, snapshots := newIngestHarness(t, src)

	ctx := context.Background()
	first := ing.Run(ctx, []string{"ETHUSDT"}, testNow)
	if !first.Results[0].Written {
		t.Fatalf("first run should write")
	}

	src.metrics["ETH-USDT-SWAP"] = &drepo.PerpMetrics{Price: 2000.0}
	second := ing.Run(ctx, []string{"ETHUSDT"}, testNow+60_000) // same bucket
	if second.Results[0].Written {
		t.Fatalf("second run in the same bucket must not overwrite")
	}

	snap, err := snapshots.Read(ctx, "ETH-USDT-SWAP", testBucket())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if snap.Price != 1988.0 {
		t.Fatalf("bucket must keep the first observation, got %v", snap.Price)
	}
}

func TestIngestIsolatesSymbolFailures(t *testing.T) {
	src := &fakeSource{
		metrics: map[string]*drepo.PerpMetrics{"ETH-USDT-SWAP": {Price: 1988.0}},
		errs:    map[string]error{"SOL-USDT-SWAP": fmt.Errorf("upstream 500")},
	}
	ing, _ := newIngestHarness(t, src)

	res := ing.Run(context.Background(), []string{"SOLUSDT", "ETHUSDT"}, testNow)
	if res.Results[0].OK || res.Results[0].Error == "" {
		t.Fatalf("failed symbol should carry its error: %+v", res.Results[0])
	}
	if !res.Results[1].OK {
		t.Fatalf("healthy symbol must not be affected: %+v", res.Results[1])
	}
}

func TestIngestBadSymbol(t *testing.T) {
	src := &fakeSource{metrics: map[string]*drepo.PerpMetrics{}}
	ing, _ := newIngestHarness(t, src)

	res := ing.Run(context.Background(), []string{"ETHBTC"}, testNow)
	if res.Results[0].OK || res.Results[0].Error == "" {
		t.Fatalf("non-USDT symbol should fail cleanly: %+v", res.Results[0])
	}
	if src.calls != 0 {
		t.Fatalf("market source must not be called for unresolvable symbols")
	}
}

func TestIngestResultShape(t *testing.T) {
	src := &fakeSource{metrics: map[string]*drepo.PerpMetrics{"ETH-USDT-SWAP": {Price: 1988.0}}}
	ing, _ := newIngestHarness(t, src)

	res := ing.Run(context.Background(), []string{"ETHUSDT"}, testNow)
	if !res.OK || res.TS != testNow || len(res.Symbols) != 1 {
		t.Fatalf("batch envelope wrong: %+v", res)
	}
	if res.Results[0].Bucket != models.Bucket(testNow) {
		t.Fatalf("result bucket mismatch")
	}
}
