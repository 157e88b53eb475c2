package signal

import (
	"math"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// ComputeLevels derives structural hi/lo/mid from the trailing lookback
// points. Warmup is set when fewer points than the lookback exist.
func ComputeLevels(tail []models.SeriesPoint, lookback int) *models.Levels {
	lv := &models.Levels{}
	if len(tail) < lookback {
		lv.Warmup = true
	}
	n := len(tail)
	if n == 0 {
		return lv
	}
	window := tail
	if n > lookback {
		window = tail[n-lookback:]
	}
	lv.Hi = window[0].P
	lv.Lo = window[0].P
	for _, pt := range window[1:] {
		if pt.P > lv.Hi {
			lv.Hi = pt.P
		}
		if pt.P < lv.Lo {
			lv.Lo = pt.P
		}
	}
	lv.Mid = (lv.Hi + lv.Lo) / 2
	return lv
}

// B1Result is the structural-edge read for one candidate direction.
type B1Result struct {
	InBand bool
	Strong bool
	Edge   float64
}

// regimeContraction reports whether the 4h regime shows low absolute price
// movement with strongly negative OI change, which widens the edge band.
func regimeContraction(d4 *models.Delta, cfg config.AlertConfig) bool {
	if !cfg.RegimeEnabled || d4 == nil {
		return false
	}
	if d4.PriceChangePct == nil || d4.OIChangePct == nil {
		return false
	}
	return math.Abs(*d4.PriceChangePct) <= cfg.RegimeContractionPriceMax &&
		*d4.OIChangePct <= cfg.RegimeContractionOIMax
}

// edgeWidth returns the edge band width, widened under 4h contraction.
func edgeWidth(lv *models.Levels, d4 *models.Delta, cfg config.AlertConfig) float64 {
	edge := cfg.EdgePct1h * lv.Range()
	if regimeContraction(d4, cfg) {
		edge *= cfg.RegimeContractionWiden
	}
	return edge
}

// EvaluateB1 checks proximity to the structural extreme in the bias
// direction: long is in-band at or under lo+edge, short at or over hi-edge.
// Strong means within half the band of the level itself.
func EvaluateB1(bias models.Lean, price float64, lv *models.Levels, d4 *models.Delta, cfg config.AlertConfig) B1Result {
	edge := edgeWidth(lv, d4, cfg)
	res := B1Result{Edge: edge}
	switch bias {
	case models.LeanLong:
		res.InBand = price <= lv.Lo+edge
		res.Strong = res.InBand && price <= lv.Lo+edge/2
	case models.LeanShort:
		res.InBand = price >= lv.Hi-edge
		res.Strong = res.InBand && price >= lv.Hi-edge/2
	}
	return res
}

// regimeExpansion returns the direction of a strong 4h expansion, or
// neutral when there is none.
func regimeExpansion(d4 *models.Delta, cfg config.AlertConfig) models.Lean {
	if !cfg.RegimeEnabled || d4 == nil || d4.PriceChangePct == nil || d4.OIChangePct == nil {
		return models.LeanNeutral
	}
	if *d4.OIChangePct < cfg.RegimeExpansionOIMin {
		return models.LeanNeutral
	}
	if *d4.PriceChangePct >= cfg.RegimeExpansionPriceMin {
		return models.LeanLong
	}
	if *d4.PriceChangePct <= -cfg.RegimeExpansionPriceMin {
		return models.LeanShort
	}
	return models.LeanNeutral
}

// DowngradeB1 demotes a strong structural read when the 4h regime is a
// strong expansion against the candidate's bias.
func DowngradeB1(res B1Result, bias models.Lean, d4 *models.Delta, cfg config.AlertConfig) B1Result {
	if !res.Strong {
		return res
	}
	exp := regimeExpansion(d4, cfg)
	if exp == models.LeanNeutral || exp == bias {
		return res
	}
	res.Strong = false
	return res
}
