package repository

import (
	"context"
	"errors"

	"PulseGate/internal/domain/models"
)

// ErrNoPerpMarket is returned when a symbol has no perpetual instrument.
var ErrNoPerpMarket = errors.New("no perpetual market for symbol")

// ErrSnapshotMissing is returned when the current bucket has no snapshot.
var ErrSnapshotMissing = errors.New("snapshot missing for bucket")

// PerpMetrics is one instrument observation from the market source.
type PerpMetrics struct {
	Price        float64
	FundingRate  *float64
	OpenInterest *float64
}

// MarketSource fetches live perpetual market data for one instrument.
type MarketSource interface {
	FetchMetrics(ctx context.Context, instID string) (*PerpMetrics, error)
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

// InstrumentResolver maps external symbols to canonical instrument ids.
type InstrumentResolver interface {
	Resolve(ctx context.Context, symbol string) (string, error)
}

// SnapshotStore persists per-bucket snapshots.
type SnapshotStore interface {
	// WriteIfAbsent stores the snapshot only when the bucket cell is empty.
	// Returns true when this call created the cell.
	WriteIfAbsent(ctx context.Context, instID string, bucket int64, snap *models.Snapshot) (bool, error)
	Read(ctx context.Context, instID string, bucket int64) (*models.Snapshot, error)
}

// SeriesStore maintains the rolling per-instrument series.
type SeriesStore interface {
	// AppendOnce appends a point when lastBucket differs from the point's
	// bucket, trims to the retention cap, and extends TTLs. Returns true
	// when a point was appended.
	AppendOnce(ctx context.Context, instID string, pt models.SeriesPoint) (bool, error)
	Tail(ctx context.Context, instID string, n int) ([]models.SeriesPoint, error)
	LastBucket(ctx context.Context, instID string) (int64, bool, error)
}

// AlertStateStore holds the evaluator's persistent alert metadata.
// Writes go through a Writer handle so dry-run invocations can hold a
// handle whose writes are no-ops on every path.
type AlertStateStore interface {
	LastState(ctx context.Context, mode models.Mode, instID string) (models.State, bool, error)
	LastSentAt(ctx context.Context, instID string) (int64, bool, error)
	LastHeartbeat(ctx context.Context) (*models.Heartbeat, error)
	Writer(dry bool) AlertStateWriter
}

// AlertStateWriter applies alert-state mutations. A dry writer performs none.
type AlertStateWriter interface {
	SetLastState(ctx context.Context, mode models.Mode, instID string, st models.State) error
	MirrorLastState15m(ctx context.Context, instID string, st models.State) error
	SetLastSentAt(ctx context.Context, instID string, tsMillis int64) error
	WriteHeartbeat(ctx context.Context, hb *models.Heartbeat) error
}

// Notifier delivers a rendered notification to the bot channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// SignalPublisher emits triggered-candidate events for downstream consumers.
type SignalPublisher interface {
	PublishCandidate(ctx context.Context, c *models.Candidate) error
	Close() error
}

// SignalArchive records triggered candidates for the history endpoint.
type SignalArchive interface {
	Insert(ctx context.Context, c *models.Candidate, tsMillis int64) error
	History(ctx context.Context, symbol string, limit int) ([]ArchivedSignal, error)
}

// ArchivedSignal is one row of the signal history.
type ArchivedSignal struct {
	TS     int64        `json:"ts"`
	Symbol string       `json:"symbol"`
	Mode   models.Mode  `json:"mode"`
	Bias   models.Lean  `json:"bias"`
	Price  float64      `json:"price"`
	Reason string       `json:"reason"`
	Grade  models.Grade `json:"grade"`
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSnapshotWritten(symbol string)
	RecordSnapshotError(symbol string)
	RecordSourceProbe(kind string)
	RecordSkip(reason models.SkipReason)
	RecordAlertSent(mode models.Mode, symbol string)
	RecordNotifyError(provider string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
