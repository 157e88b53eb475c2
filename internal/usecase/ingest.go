package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	xlogger "PulseGate/pkg/logger"
)

// IngestResult is the batch outcome of one ingest invocation.
type IngestResult struct {
	OK      bool                    `json:"ok"`
	TS      int64                   `json:"ts"`
	Symbols []string                `json:"symbols"`
	Results []models.SnapshotResult `json:"results"`
}

// Ingestor is the sole caller of the market source. Per bucket and
// instrument it writes exactly one snapshot; reruns within a bucket leave
// the first observation in place. It never touches alert state.
type Ingestor struct {
	source         drepo.MarketSource
	resolver       drepo.InstrumentResolver
	snapshots      drepo.SnapshotStore
	metrics        drepo.Metrics
	logger         *xlogger.Logger
	maxConcurrency int
}

// NewIngestor creates the ingest use case.
func NewIngestor(
	source drepo.MarketSource,
	resolver drepo.InstrumentResolver,
	snapshots drepo.SnapshotStore,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
	maxConcurrency int,
) *Ingestor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Ingestor{
		source:         source,
		resolver:       resolver,
		snapshots:      snapshots,
		metrics:        metrics,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Run ingests the symbol set for the bucket containing nowMillis. Symbol
// failures are isolated: one bad symbol never blocks the rest.
func (i *Ingestor) Run(ctx context.Context, symbols []string, nowMillis int64) *IngestResult {
	start := time.Now()
	res := &IngestResult{OK: true, TS: nowMillis, Symbols: symbols, Results: make([]models.SnapshotResult, len(symbols))}

	sem := make(chan struct{}, i.maxConcurrency)
	var wg sync.WaitGroup
	for idx, sym := range symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			res.Results[idx] = i.ingestOne(ctx, sym, nowMillis)
		}(idx, sym)
	}
	wg.Wait()

	i.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	return res
}

func (i *Ingestor) ingestOne(ctx context.Context, symbol string, nowMillis int64) models.SnapshotResult {
	instID, err := i.resolver.Resolve(ctx, symbol)
	if err != nil {
		if errors.Is(err, drepo.ErrNoPerpMarket) {
			return models.SnapshotResult{Symbol: symbol, Error: "no perpetual market"}
		}
		i.metrics.RecordSnapshotError(symbol)
		return models.SnapshotResult{Symbol: symbol, Error: err.Error()}
	}

	m, err := i.source.FetchMetrics(ctx, instID)
	if err != nil {
		i.metrics.RecordSnapshotError(symbol)
		i.logger.Warn("metrics fetch failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return models.SnapshotResult{Symbol: symbol, InstID: instID, Error: err.Error()}
	}

	bucket := models.Bucket(nowMillis)
	snap := &models.Snapshot{
		TS:           nowMillis,
		Price:        m.Price,
		FundingRate:  m.FundingRate,
		OpenInterest: m.OpenInterest,
	}

	written, err := i.snapshots.WriteIfAbsent(ctx, instID, bucket, snap)
	if err != nil {
		i.metrics.RecordSnapshotError(symbol)
		return models.SnapshotResult{Symbol: symbol, InstID: instID, Error: err.Error()}
	}

	if written {
		i.metrics.RecordSnapshotWritten(symbol)
	}
	i.metrics.RecordLastPrice(symbol, m.Price)

	return models.SnapshotResult{
		OK:           true,
		Symbol:       symbol,
		InstID:       instID,
		Bucket:       bucket,
		Price:        m.Price,
		FundingRate:  m.FundingRate,
		OpenInterest: m.OpenInterest,
		Written:      written,
	}
}
