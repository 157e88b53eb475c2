package signal

import (
	"math"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// GradeCandidate assigns the mechanical A/B/C confidence class.
//
//	A: strong structure, confirmed reversal, OI and 1h lean both aligned.
//	B: strong structure, confirmed reversal, OI neutral.
//	C: everything else (including breakout-only entries).
func GradeCandidate(entry Entry, bias models.Lean, d *models.Derived, cfg config.AlertConfig) models.Grade {
	d15 := d.Delta(models.TF15m)
	d1h := d.Delta(models.TF1h)

	oiAligned := d15.Lean == bias
	oiNeutral := d15.Lean == models.LeanNeutral ||
		(d15.OIChangePct != nil && math.Abs(*d15.OIChangePct) < cfg.ShockOIMin)
	oneHourAligned := d1h.Lean == bias

	if entry.B1.Strong && entry.ReversalConfirmed && oiAligned && oneHourAligned {
		return models.GradeA
	}
	if entry.B1.Strong && entry.ReversalConfirmed && oiNeutral {
		return models.GradeB
	}
	return models.GradeC
}
