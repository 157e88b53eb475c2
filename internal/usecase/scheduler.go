package usecase

import (
	"context"
	"time"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/cache"
	"PulseGate/pkg/config"
	xlogger "PulseGate/pkg/logger"
)

// Scheduler is the optional embedded tick driver for deployments without an
// external cron. It fires the ingestor shortly after each bucket boundary
// and the evaluator later in the same bucket, taking a KV lock so two
// replicas never run overlapping evaluator invocations.
type Scheduler struct {
	ingestor  *Ingestor
	evaluator *Evaluator
	kv        cache.Service
	logger    *xlogger.Logger
	cfg       *config.Config
}

// NewScheduler creates the embedded scheduler.
func NewScheduler(ingestor *Ingestor, evaluator *Evaluator, kv cache.Service, logger *xlogger.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{ingestor: ingestor, evaluator: evaluator, kv: kv, logger: logger, cfg: cfg}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		boundary := nextBucketStart(time.Now())

		if !sleepUntil(ctx, boundary.Add(s.cfg.Scheduler.IngestOffset)) {
			return
		}
		s.fireIngest(ctx)

		if !sleepUntil(ctx, boundary.Add(s.cfg.Scheduler.EvaluateOffset)) {
			return
		}
		s.fireEvaluate(ctx)
	}
}

func (s *Scheduler) fireIngest(ctx context.Context) {
	tctx, cancel := context.WithTimeout(ctx, time.Duration(models.BucketMillis)*time.Millisecond)
	defer cancel()

	res := s.ingestor.Run(tctx, s.cfg.Symbols, time.Now().UTC().UnixMilli())
	ok := 0
	for _, r := range res.Results {
		if r.OK {
			ok++
		}
	}
	s.logger.Info("scheduled ingest done", xlogger.Int("ok", ok), xlogger.Int("total", len(res.Results)))
}

func (s *Scheduler) fireEvaluate(ctx context.Context) {
	if s.cfg.Scheduler.InvocationLock {
		locked, err := s.kv.TryLock(ctx, "alert:invocation:lock", 4*time.Minute)
		if err != nil {
			s.logger.Warn("invocation lock error", xlogger.Error(err))
			return
		}
		if !locked {
			s.logger.Warn("previous evaluator invocation still holds the lock")
			return
		}
		defer func() {
			if err := s.kv.Unlock(ctx, "alert:invocation:lock"); err != nil {
				s.logger.Warn("invocation unlock error", xlogger.Error(err))
			}
		}()
	}

	tctx, cancel := context.WithTimeout(ctx, time.Duration(models.BucketMillis)*time.Millisecond)
	defer cancel()

	modes := make([]models.Mode, 0, len(s.cfg.Alert.DefaultModes))
	for _, m := range s.cfg.Alert.DefaultModes {
		modes = append(modes, models.Mode(m))
	}

	res := s.evaluator.Run(tctx, EvalRequest{
		Symbols:  s.cfg.Symbols,
		Modes:    modes,
		DriverTF: models.DefaultTimeframe(),
	})
	s.logger.Info("scheduled evaluation done",
		xlogger.Int("evaluated", len(s.cfg.Symbols)),
		xlogger.Int("triggered", res.TriggeredCount),
		xlogger.Bool("sent", res.Sent),
	)
}

// nextBucketStart returns the next 5-minute boundary after t.
func nextBucketStart(t time.Time) time.Time {
	bucketLen := time.Duration(models.BucketMillis) * time.Millisecond
	return t.Truncate(bucketLen).Add(bucketLen)
}

func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
