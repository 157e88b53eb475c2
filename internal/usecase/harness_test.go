package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	internalrepo "PulseGate/internal/repository"
	"PulseGate/pkg/cache"
	"PulseGate/pkg/config"
	xlogger "PulseGate/pkg/logger"
)

// testNow is an arbitrary fixed tick aligned inside one bucket.
const testNow int64 = 1_754_388_000_000

func testBucket() int64 { return models.Bucket(testNow) }

type fakeMetrics struct{}

func (fakeMetrics) RecordSnapshotWritten(string)              {}
func (fakeMetrics) RecordSnapshotError(string)                {}
func (fakeMetrics) RecordSourceProbe(string)                  {}
func (fakeMetrics) RecordSkip(models.SkipReason)              {}
func (fakeMetrics) RecordAlertSent(models.Mode, string)       {}
func (fakeMetrics) RecordNotifyError(string)                  {}
func (fakeMetrics) RecordLastPrice(string, float64)           {}
func (fakeMetrics) RecordLatency(string, float64)             {}

type passResolver struct{}

func (passResolver) Resolve(_ context.Context, symbol string) (string, error) {
	base := models.BaseOf(symbol)
	if base == "" {
		return "", fmt.Errorf("bad symbol %q", symbol)
	}
	return models.CanonicalInstID(base), nil
}

type fakeSource struct {
	mu      sync.Mutex
	metrics map[string]*drepo.PerpMetrics
	errs    map[string]error
	calls   int
}

func (s *fakeSource) FetchMetrics(_ context.Context, instID string) (*drepo.PerpMetrics, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err, ok := s.errs[instID]; ok {
		return nil, err
	}
	m, ok := s.metrics[instID]
	if !ok {
		return nil, fmt.Errorf("unknown instrument %s", instID)
	}
	return m, nil
}

func (s *fakeSource) Instruments(context.Context) ([]models.Instrument, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
	fail bool
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return fmt.Errorf("bot channel down")
	}
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

// harness wires the engines over the in-memory KV store.
type harness struct {
	kv         cache.Service
	snapshots  drepo.SnapshotStore
	series     drepo.SeriesStore
	alertState drepo.AlertStateStore
	derive     *DerivationEngine
	notifier   *fakeNotifier
	evaluator  *Evaluator
	cfg        config.AlertConfig
}

func newHarness(t *testing.T, mutate func(*config.AlertConfig)) *harness {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	cfg := config.DefaultAlertConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	kv := cache.NewMemoryCache()
	snapshots := internalrepo.NewKVSnapshotStore(kv)
	series := internalrepo.NewKVSeriesStore(kv)
	alertState := internalrepo.NewKVAlertStateStore(kv, cfg.HeartbeatKey, 0)

	derive := NewDerivationEngine(passResolver{}, snapshots, series, fakeMetrics{})
	notifier := &fakeNotifier{}
	eval := NewEvaluator(derive, alertState, notifier,
		internalrepo.NopSignalPublisher{}, internalrepo.NopSignalArchive{},
		fakeMetrics{}, l, cfg)
	eval.now = func() int64 { return testNow }

	return &harness{
		kv:         kv,
		snapshots:  snapshots,
		series:     series,
		alertState: alertState,
		derive:     derive,
		notifier:   notifier,
		evaluator:  eval,
		cfg:        cfg,
	}
}

// seedSeries writes n prior points ending one bucket before the current one.
// prices[i] pairs with ois[i]; ois may be nil for absent open interest.
func (h *harness) seedSeries(t *testing.T, instID string, prices []float64, ois []float64) {
	t.Helper()
	ctx := context.Background()
	start := testBucket() - int64(len(prices))
	for i, p := range prices {
		pt := models.SeriesPoint{
			B:  start + int64(i),
			TS: models.BucketStart(start + int64(i)),
			P:  p,
		}
		if ois != nil {
			oi := ois[i]
			pt.OI = &oi
		}
		if _, err := h.series.AppendOnce(ctx, instID, pt); err != nil {
			t.Fatalf("seed series: %v", err)
		}
	}
}

// seedSnapshot writes the current bucket's snapshot.
func (h *harness) seedSnapshot(t *testing.T, instID string, price float64, oi *float64) {
	t.Helper()
	snap := &models.Snapshot{TS: testNow, Price: price, OpenInterest: oi}
	if _, err := h.snapshots.WriteIfAbsent(context.Background(), instID, testBucket(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func oiFlat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ethShortBreakdown seeds a clean swing short-breakdown setup for ETH:
// falling structure, current price under the prior 1h low, mild OI build.
func (h *harness) ethShortBreakdown(t *testing.T) {
	prices := []float64{2000, 1990, 1980, 1975, 1970, 1968, 1966, 1964, 1962, 1958, 1955, 1950}
	h.seedSeries(t, "ETH-USDT-SWAP", prices, oiFlat(len(prices), 1000))
	oi := 1002.0
	h.seedSnapshot(t, "ETH-USDT-SWAP", 1940, &oi)
}

// btcBullExpansion seeds a BTC series whose 4h delta reads as a bull
// expansion (price +2.4%, OI +0.8%).
func (h *harness) btcBullExpansion(t *testing.T) {
	n := 48
	prices := make([]float64, n)
	ois := make([]float64, n)
	for i := 0; i < n; i++ {
		prices[i] = 60000 + float64(i)*20
		ois[i] = 10000 + float64(i)*1.2
	}
	h.seedSeries(t, "BTC-USDT-SWAP", prices, ois)
	oi := 10080.0
	h.seedSnapshot(t, "BTC-USDT-SWAP", 61440, &oi)
}
