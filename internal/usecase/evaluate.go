package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/internal/signal"
	"PulseGate/pkg/config"
	xlogger "PulseGate/pkg/logger"
)

// EvalRequest describes one evaluator invocation.
type EvalRequest struct {
	Symbols     []string
	Modes       []models.Mode
	RiskProfile string
	DriverTF    models.Timeframe
	Force       bool
	Dry         bool
	Debug       bool
}

// EvalResult is the invocation outcome surfaced to the handler.
type EvalResult struct {
	OK             bool                    `json:"ok"`
	TS             int64                   `json:"ts"`
	Sent           bool                    `json:"sent"`
	TriggeredCount int                     `json:"triggered_count"`
	Dry            bool                    `json:"dry"`
	Force          bool                    `json:"force"`
	DriverTF       models.Timeframe        `json:"driver_tf"`
	Winners        []*models.Candidate     `json:"winners,omitempty"`
	TelegramFailed bool                    `json:"telegram_failed,omitempty"`
	Macro          *signal.MacroAnalysis   `json:"macro,omitempty"`
	Outcomes       []models.SymbolOutcome  `json:"outcomes,omitempty"`
	Heartbeat      *models.Heartbeat       `json:"heartbeat,omitempty"`
	Message        string                  `json:"message,omitempty"`
}

// Evaluator runs the gating pipeline and is the only component that emits
// notifications. Dry-run is threaded through a write handle so no state
// write or side effect can escape on any path.
type Evaluator struct {
	derive     *DerivationEngine
	alertState drepo.AlertStateStore
	notifier   drepo.Notifier
	publisher  drepo.SignalPublisher
	archive    drepo.SignalArchive
	metrics    drepo.Metrics
	logger     *xlogger.Logger
	cfg        config.AlertConfig
	now        func() int64
}

// NewEvaluator creates the evaluation use case.
func NewEvaluator(
	derive *DerivationEngine,
	alertState drepo.AlertStateStore,
	notifier drepo.Notifier,
	publisher drepo.SignalPublisher,
	archive drepo.SignalArchive,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
	cfg config.AlertConfig,
) *Evaluator {
	return &Evaluator{
		derive:     derive,
		alertState: alertState,
		notifier:   notifier,
		publisher:  publisher,
		archive:    archive,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        func() int64 { return time.Now().UTC().UnixMilli() },
	}
}

// Run evaluates all requested symbols for one tick.
func (e *Evaluator) Run(ctx context.Context, req EvalRequest) *EvalResult {
	start := time.Now()
	now := e.now()

	writer := e.alertState.Writer(req.Dry)
	modes := e.orderedModes(req.Modes)
	profile := signal.NormalizeProfile(req.RiskProfile, e.cfg.DefaultRiskProfile)

	res := &EvalResult{
		OK:       true,
		TS:       now,
		Dry:      req.Dry,
		Force:    req.Force,
		DriverTF: req.DriverTF,
	}

	// One macro read per invocation.
	macro := e.macroAnalysis(ctx, now)
	res.Macro = macro

	probe := &models.SourceProbe{}
	outcomes := make([]models.SymbolOutcome, len(req.Symbols))
	candidates := make([]*models.Candidate, len(req.Symbols))

	sem := make(chan struct{}, e.cfg.MaxConcurrency)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for idx, sym := range req.Symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[idx], candidates[idx] = e.evaluateSymbol(ctx, sym, modes, macro, writer, req, profile, now, probe, &mu)
		}(idx, sym)
	}
	wg.Wait()

	var winners []*models.Candidate
	for _, cand := range candidates {
		if cand != nil {
			winners = append(winners, cand)
		}
	}
	res.Winners = winners
	res.TriggeredCount = len(winners)

	hb := e.buildHeartbeat(now, modes, req, outcomes, winners, probe)
	res.Heartbeat = hb

	if len(winners) > 0 {
		msg := signal.Render(winners, signal.RenderOptions{
			DriverTF:     req.DriverTF,
			TS:           now,
			Force:        req.Force,
			Dry:          req.Dry,
			DrilldownURL: e.cfg.DrilldownURL,
			BTCSymbol:    e.cfg.MacroBTCSymbol,
		})
		if req.Debug || req.Dry {
			res.Message = msg
		}

		if !req.Dry {
			for _, w := range winners {
				if err := writer.SetLastSentAt(ctx, w.InstID, now); err != nil {
					e.logger.Error("lastSentAt write failed", xlogger.String("symbol", w.Symbol), xlogger.Error(err))
				}
				if err := e.publisher.PublishCandidate(ctx, w); err != nil {
					e.logger.Warn("signal publish failed", xlogger.String("symbol", w.Symbol), xlogger.Error(err))
				}
				if err := e.archive.Insert(ctx, w, now); err != nil {
					e.logger.Warn("signal archive failed", xlogger.String("symbol", w.Symbol), xlogger.Error(err))
				}
				e.metrics.RecordAlertSent(w.Mode, w.Symbol)
			}

			if err := e.notifier.Send(ctx, msg); err != nil {
				e.metrics.RecordNotifyError(e.notifier.Name())
				res.TelegramFailed = true
				hb.TelegramFailed = true
			} else {
				res.Sent = true
			}
		}
	}

	if err := writer.WriteHeartbeat(ctx, hb); err != nil {
		e.logger.Warn("heartbeat write failed", xlogger.Error(err))
	}

	if req.Debug {
		res.Outcomes = outcomes
	}

	e.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	return res
}

// evaluateSymbol runs the full gate sequence for one symbol. The first mode
// in priority order that clears every gate wins; state seeding happens for
// every evaluated mode regardless of later denials.
func (e *Evaluator) evaluateSymbol(
	ctx context.Context,
	symbol string,
	modes []models.Mode,
	macro *signal.MacroAnalysis,
	writer drepo.AlertStateWriter,
	req EvalRequest,
	profile signal.RiskProfile,
	now int64,
	probe *models.SourceProbe,
	mu *sync.Mutex,
) (models.SymbolOutcome, *models.Candidate) {
	outcome := models.SymbolOutcome{Symbol: symbol, Skips: make(map[models.Mode]models.SkipReason)}

	d, err := e.derive.Derive(ctx, symbol, now)
	if err != nil {
		if errors.Is(err, drepo.ErrSnapshotMissing) {
			mu.Lock()
			probe.SnapshotMisses++
			mu.Unlock()
			for _, m := range modes {
				outcome.Skips[m] = models.SkipSnapshotMissing
			}
			e.metrics.RecordSkip(models.SkipSnapshotMissing)
			return outcome, nil
		}
		outcome.Error = err.Error()
		for _, m := range modes {
			outcome.Skips[m] = models.SkipDeriveError
		}
		e.metrics.RecordSkip(models.SkipDeriveError)
		return outcome, nil
	}
	mu.Lock()
	probe.SnapshotHits++
	mu.Unlock()

	for _, mode := range modes {
		cand, skip := e.evaluateMode(ctx, mode, d, macro, writer, req, profile, now)
		if cand != nil {
			outcome.Triggered = true
			outcome.Mode = mode
			return outcome, cand
		}
		outcome.Skips[mode] = skip
		e.metrics.RecordSkip(skip)
	}
	return outcome, nil
}

// evaluateMode runs one mode's gates in order: detection (with seeding),
// cooldown, macro, warmup, bias, entry validity. force bypasses detection
// and cooldown; it bypasses the 1h warmup gate only when ForceBypassWarmup
// is set.
func (e *Evaluator) evaluateMode(
	ctx context.Context,
	mode models.Mode,
	d *models.Derived,
	macro *signal.MacroAnalysis,
	writer drepo.AlertStateWriter,
	req EvalRequest,
	profile signal.RiskProfile,
	now int64,
) (*models.Candidate, models.SkipReason) {
	prev, havePrev, err := e.alertState.LastState(ctx, mode, d.InstID)
	if err != nil {
		e.logger.Warn("lastState read failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
	}

	det := signal.Detect(mode, d, prev, havePrev, e.cfg)

	// Seed the detection state whenever the gate is evaluated, so a later
	// genuine flip is visible even through quiet regimes.
	if err := writer.SetLastState(ctx, mode, d.InstID, det.State); err != nil {
		e.logger.Warn("lastState seed failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
	}
	if mode != models.ModeScalp {
		if err := writer.MirrorLastState15m(ctx, d.InstID, det.State); err != nil {
			e.logger.Warn("lastState15m mirror failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
		}
	}

	if !det.Fired && !req.Force {
		return nil, models.SkipNoTrigger
	}

	if !req.Force {
		sentAt, ok, err := e.alertState.LastSentAt(ctx, d.InstID)
		if err != nil {
			e.logger.Warn("lastSentAt read failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
		}
		if ok && now-sentAt < e.cfg.Cooldown().Milliseconds() {
			return nil, models.SkipCooldown
		}
	}

	bias := signal.BiasFor(mode, d)

	if macro.BlocksShort(d.Symbol, bias, e.cfg) {
		return nil, models.SkipMacroBlock
	}

	lv1h := d.Levels[models.TF1h]
	if lv1h == nil || lv1h.Warmup {
		if !(req.Force && e.cfg.ForceBypassWarmup) {
			return nil, models.SkipWarmup1h
		}
	}

	if bias == models.LeanNeutral {
		return nil, models.SkipNeutralBias
	}

	entry := signal.CheckEntry(mode, bias, d, lv1h, e.cfg)
	if !entry.Valid {
		return nil, entry.Skip
	}

	cand := &models.Candidate{
		Symbol:      d.Symbol,
		InstID:      d.InstID,
		Mode:        mode,
		Bias:        bias,
		Price:       d.Price,
		Levels1h:    lv1h,
		Reason:      entry.Reason,
		ReasonLevel: entry.Level,
		B1Strong:    entry.B1.Strong,
		Derived:     d,
	}
	cand.Grade = signal.GradeCandidate(entry, bias, d, e.cfg)
	cand.Leverage = signal.AdviseLeverage(profile, bias, d, lv1h, e.cfg)
	cand.Zone = signal.BuildZone(cand)
	return cand, ""
}

// macroAnalysis derives the BTC 4h read. A missing BTC snapshot yields a
// warmup analysis that never blocks.
func (e *Evaluator) macroAnalysis(ctx context.Context, now int64) *signal.MacroAnalysis {
	if !e.cfg.MacroEnabled {
		return signal.AnalyzeMacro(nil, e.cfg)
	}
	btc, err := e.derive.Derive(ctx, e.cfg.MacroBTCSymbol, now)
	if err != nil {
		e.logger.Warn("macro BTC derive failed", xlogger.Error(err))
		return signal.AnalyzeMacro(nil, e.cfg)
	}
	return signal.AnalyzeMacro(btc, e.cfg)
}

// orderedModes filters and orders the requested modes by priority.
func (e *Evaluator) orderedModes(requested []models.Mode) []models.Mode {
	enabled := make(map[models.Mode]bool)
	if len(requested) > 0 {
		for _, m := range requested {
			if models.IsValidMode(m) {
				enabled[m] = true
			}
		}
	} else {
		for _, s := range e.cfg.DefaultModes {
			m := models.Mode(s)
			if models.IsValidMode(m) {
				enabled[m] = true
			}
		}
	}
	var out []models.Mode
	for _, m := range models.ModePriority {
		if enabled[m] {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		out = []models.Mode{models.ModeSwing}
	}
	return out
}

func (e *Evaluator) buildHeartbeat(
	now int64,
	modes []models.Mode,
	req EvalRequest,
	outcomes []models.SymbolOutcome,
	winners []*models.Candidate,
	probe *models.SourceProbe,
) *models.Heartbeat {
	hb := &models.Heartbeat{
		TS:          now,
		Modes:       modes,
		DriverTF:    req.DriverTF,
		Force:       req.Force,
		Evaluated:   len(outcomes),
		SourceProbe: *probe,
		Skips:       make(map[string]map[models.Mode]models.SkipReason),
	}
	for _, w := range winners {
		hb.Triggered = append(hb.Triggered, w.Symbol)
	}
	for i := range outcomes {
		if len(outcomes[i].Skips) > 0 {
			hb.Skips[outcomes[i].Symbol] = outcomes[i].Skips
		}
	}
	return hb
}
