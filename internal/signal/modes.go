package signal

import (
	"math"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// BiasFor aggregates the mode's directional bias. Swing and build cascade
// to faster timeframes while the slower ones are neutral.
func BiasFor(mode models.Mode, d *models.Derived) models.Lean {
	var order []models.Timeframe
	switch mode {
	case models.ModeScalp:
		order = []models.Timeframe{models.TF5m}
	case models.ModeSwing:
		order = []models.Timeframe{models.TF1h, models.TF15m, models.TF5m}
	case models.ModeBuild:
		order = []models.Timeframe{models.TF4h, models.TF1h, models.TF15m, models.TF5m}
	}
	for _, tf := range order {
		if lean := d.Delta(tf).Lean; lean != models.LeanNeutral {
			return lean
		}
	}
	return models.LeanNeutral
}

// Entry is the outcome of the per-mode entry-validity stage.
type Entry struct {
	Valid             bool
	Reason            models.EntryReason
	Level             float64
	B1                B1Result
	ReversalConfirmed bool
	BreakoutOnly      bool
	Skip              models.SkipReason
}

// CheckEntry validates the entry for one mode and bias against the 1h
// structure. The caller has already run detection, cooldown, macro and
// warmup gates.
func CheckEntry(mode models.Mode, bias models.Lean, d *models.Derived, lv *models.Levels, cfg config.AlertConfig) Entry {
	if lv == nil || lv.Range() <= 0 || d.Price <= 0 {
		return Entry{Skip: models.SkipMissingLevels}
	}

	d4 := d.Delta(models.TF4h)
	if mode == models.ModeScalp {
		return checkScalp(bias, d, lv, d4, cfg)
	}
	return checkSwingBuild(bias, d, lv, d4, cfg)
}

// checkScalp is the strict path: a structural price trigger plus a hard
// 15m OI confirmation.
func checkScalp(bias models.Lean, d *models.Derived, lv *models.Levels, d4 *models.Delta, cfg config.AlertConfig) Entry {
	oi15 := d.Delta(models.TF15m).OIChangePct
	if oi15 == nil || *oi15 < cfg.ShockOIMin {
		return Entry{Skip: models.SkipEntryInvalid}
	}

	price := d.Price
	// Sweep lookback runs over the points before the current cell.
	tail := d.Tail
	if len(tail) > 0 {
		tail = tail[:len(tail)-1]
	}
	lookback := cfg.ScalpSweepLookback

	switch bias {
	case models.LeanLong:
		if price > lv.Hi {
			b1 := B1Result{InBand: true, Strong: true, Edge: edgeWidth(lv, d4, cfg)}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryLongBreakout, Level: lv.Hi, B1: b1, BreakoutOnly: true}
		}
		if recentMin(tail, lookback) < lv.Lo && price > lv.Lo {
			b1 := EvaluateB1(bias, price, lv, d4, cfg)
			if !b1.InBand {
				return Entry{Skip: models.SkipEntryInvalid}
			}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryLongSweepReclaim, Level: lv.Lo, B1: b1, ReversalConfirmed: true}
		}
	case models.LeanShort:
		if price < lv.Lo {
			b1 := B1Result{InBand: true, Strong: true, Edge: edgeWidth(lv, d4, cfg)}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryShortBreakdown, Level: lv.Lo, B1: b1, BreakoutOnly: true}
		}
		if recentMax(tail, lookback) > lv.Hi && price < lv.Hi {
			b1 := EvaluateB1(bias, price, lv, d4, cfg)
			if !b1.InBand {
				return Entry{Skip: models.SkipEntryInvalid}
			}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryShortSweepReject, Level: lv.Hi, B1: b1, ReversalConfirmed: true}
		}
	}
	return Entry{Skip: models.SkipEntryInvalid}
}

// checkSwingBuild accepts either the break path or the in-band reversal
// path, both under the 15m OI context floor.
func checkSwingBuild(bias models.Lean, d *models.Derived, lv *models.Levels, d4 *models.Delta, cfg config.AlertConfig) Entry {
	// OI must not be sharply counter-trend.
	if oi15 := d.Delta(models.TF15m).OIChangePct; oi15 != nil && *oi15 < cfg.SwingMinOIPct {
		return Entry{Skip: models.SkipEntryInvalid}
	}

	price := d.Price
	p5 := d.Delta(models.TF5m).PriceChangePct

	switch bias {
	case models.LeanLong:
		if price > lv.Hi {
			b1 := B1Result{InBand: true, Strong: true, Edge: edgeWidth(lv, d4, cfg)}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryLongBreakout, Level: lv.Hi, B1: b1, BreakoutOnly: true}
		}
		b1 := EvaluateB1(bias, price, lv, d4, cfg)
		if b1.InBand && p5 != nil && *p5 >= cfg.SwingReversalMin5m {
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryLongReversal, Level: lv.Lo, B1: b1, ReversalConfirmed: true}
		}
	case models.LeanShort:
		if price < lv.Lo {
			b1 := B1Result{InBand: true, Strong: true, Edge: edgeWidth(lv, d4, cfg)}
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryShortBreakdown, Level: lv.Lo, B1: b1, BreakoutOnly: true}
		}
		b1 := EvaluateB1(bias, price, lv, d4, cfg)
		if b1.InBand && p5 != nil && *p5 <= -cfg.SwingReversalMin5m {
			b1 = DowngradeB1(b1, bias, d4, cfg)
			return Entry{Valid: true, Reason: models.EntryShortReversal, Level: lv.Hi, B1: b1, ReversalConfirmed: true}
		}
	}
	return Entry{Skip: models.SkipEntryInvalid}
}

// recentMin returns the lowest price of the last n points. An empty tail
// yields +Inf so the sweep condition can never fire on no data.
func recentMin(tail []models.SeriesPoint, n int) float64 {
	if len(tail) == 0 {
		return math.Inf(1)
	}
	window := tail
	if len(window) > n {
		window = window[len(window)-n:]
	}
	mn := window[0].P
	for _, pt := range window[1:] {
		if pt.P < mn {
			mn = pt.P
		}
	}
	return mn
}

func recentMax(tail []models.SeriesPoint, n int) float64 {
	if len(tail) == 0 {
		return math.Inf(-1)
	}
	window := tail
	if len(window) > n {
		window = window[len(window)-n:]
	}
	mx := window[0].P
	for _, pt := range window[1:] {
		if pt.P > mx {
			mx = pt.P
		}
	}
	return mx
}
