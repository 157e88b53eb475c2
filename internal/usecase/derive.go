package usecase

import (
	"context"
	"fmt"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/internal/signal"
)

// tailWindow is the read size per derivation: the deepest lookback (4h, 48
// steps) needs 49 points.
const tailWindow = 49

// DerivationEngine turns the current snapshot plus the rolling series into
// per-timeframe deltas and structural levels. Snapshot-only: it never calls
// the market source, which the probe counters prove.
type DerivationEngine struct {
	resolver  drepo.InstrumentResolver
	snapshots drepo.SnapshotStore
	series    drepo.SeriesStore
	metrics   drepo.Metrics
}

// NewDerivationEngine creates the derivation use case.
func NewDerivationEngine(
	resolver drepo.InstrumentResolver,
	snapshots drepo.SnapshotStore,
	series drepo.SeriesStore,
	metrics drepo.Metrics,
) *DerivationEngine {
	return &DerivationEngine{
		resolver:  resolver,
		snapshots: snapshots,
		series:    series,
		metrics:   metrics,
	}
}

// Derive computes the evaluation input for one symbol at nowMillis.
// Returns ErrSnapshotMissing (wrapped) when the bucket has no snapshot yet.
func (e *DerivationEngine) Derive(ctx context.Context, symbol string, nowMillis int64) (*models.Derived, error) {
	instID, err := e.resolver.Resolve(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", symbol, err)
	}

	bucket := models.Bucket(nowMillis)
	snap, err := e.snapshots.Read(ctx, instID, bucket)
	if err != nil {
		e.metrics.RecordSourceProbe("snapshot_miss")
		return nil, fmt.Errorf("derive %s: %w", symbol, err)
	}
	e.metrics.RecordSourceProbe("snapshot_hit")

	pt := models.SeriesPoint{
		B:  bucket,
		TS: snap.TS,
		P:  snap.Price,
		FR: snap.FundingRate,
		OI: snap.OpenInterest,
	}
	if _, err := e.series.AppendOnce(ctx, instID, pt); err != nil {
		return nil, fmt.Errorf("series append %s: %w", symbol, err)
	}

	tail, err := e.series.Tail(ctx, instID, tailWindow)
	if err != nil {
		return nil, fmt.Errorf("series tail %s: %w", symbol, err)
	}
	if len(tail) == 0 {
		return nil, fmt.Errorf("derive %s: %w", symbol, drepo.ErrSnapshotMissing)
	}

	last := tail[len(tail)-1]
	d := &models.Derived{
		Symbol: symbol,
		InstID: instID,
		Bucket: last.B,
		TS:     last.TS,
		Price:  last.P,
		Deltas: make(map[models.Timeframe]*models.Delta, len(models.Timeframes)),
		Levels: make(map[models.Timeframe]*models.Levels, 2),
		Tail:   tail,
	}

	for _, tf := range models.Timeframes {
		d.Deltas[tf] = deltaFor(tf, tail)
	}

	// Structure excludes the current cell: a breakout is judged against the
	// range that existed before this bucket's print.
	prior := tail[:len(tail)-1]
	d.Levels[models.TF1h] = signal.ComputeLevels(prior, models.TF1h.Steps())
	d.Levels[models.TF4h] = signal.ComputeLevels(prior, models.TF4h.Steps())

	return d, nil
}

// deltaFor compares the last point against the point k steps earlier.
// Warmup is set when the window is shorter than k+1 points.
func deltaFor(tf models.Timeframe, tail []models.SeriesPoint) *models.Delta {
	k := tf.Steps()
	rec := &models.Delta{TF: tf, State: models.StateUnknown, Lean: models.LeanNeutral}
	if len(tail) < k+1 {
		rec.Warmup = true
		return rec
	}

	last := tail[len(tail)-1]
	prev := tail[len(tail)-1-k]

	if prev.P != 0 {
		pct := (last.P - prev.P) / prev.P * 100
		rec.PriceChangePct = &pct
	}
	if last.OI != nil && prev.OI != nil && *prev.OI != 0 {
		pct := (*last.OI - *prev.OI) / *prev.OI * 100
		rec.OIChangePct = &pct
	}
	if last.FR != nil && prev.FR != nil {
		diff := *last.FR - *prev.FR
		rec.FundingChange = &diff
	}

	rec.State, rec.Lean = models.Classify(rec.PriceChangePct, rec.OIChangePct)
	return rec
}
