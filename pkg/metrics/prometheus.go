package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"PulseGate/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshotsWritten *prometheus.CounterVec
	snapshotErrors   *prometheus.CounterVec
	sourceProbes     *prometheus.CounterVec
	skipsTotal       *prometheus.CounterVec
	alertsSent       *prometheus.CounterVec
	notifyErrors     *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshotsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_snapshots_written_total",
				Help: "Snapshot cells created per symbol",
			},
			[]string{"symbol"},
		),
		snapshotErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_snapshot_errors_total",
				Help: "Per-symbol ingest failures",
			},
			[]string{"symbol"},
		),
		sourceProbes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_source_probe_total",
				Help: "Derivation data source proof counters",
			},
			[]string{"kind"},
		),
		skipsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_eval_skips_total",
				Help: "Gate denials by classified reason",
			},
			[]string{"reason"},
		),
		alertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_alerts_sent_total",
				Help: "Notifications emitted per mode and symbol",
			},
			[]string{"mode", "symbol"},
		),
		notifyErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsegate_notify_errors_total",
				Help: "Notifier delivery failures",
			},
			[]string{"provider"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulsegate_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsegate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSnapshotWritten(symbol string) {
	r.snapshotsWritten.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordSnapshotError(symbol string) {
	r.snapshotErrors.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordSourceProbe(kind string) {
	r.sourceProbes.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSkip(reason models.SkipReason) {
	r.skipsTotal.WithLabelValues(string(reason)).Inc()
}

func (r *Recorder) RecordAlertSent(mode models.Mode, symbol string) {
	r.alertsSent.WithLabelValues(string(mode), symbol).Inc()
}

func (r *Recorder) RecordNotifyError(provider string) {
	r.notifyErrors.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
