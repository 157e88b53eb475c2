package signal

import (
	"math"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/config"
)

// TriggerKind names the detection trigger that fired.
type TriggerKind string

const (
	TriggerSetupFlip        TriggerKind = "setup_flip"
	TriggerMomentumConfirm  TriggerKind = "momentum_confirm"
	TriggerPositioningShock TriggerKind = "positioning_shock"
)

// Detection is the outcome of the pre-filter gate for one mode.
type Detection struct {
	Fired bool        `json:"fired"`
	Kind  TriggerKind `json:"kind,omitempty"`
	State models.State `json:"state"`
}

// Detect runs the detection gate: setup flip against the stored state,
// momentum confirm on 5m, and the loosened positioning shock on 5m or 15m.
// The current detection-timeframe state is always returned so the caller
// can seed alert:lastState even when nothing fired.
func Detect(mode models.Mode, d *models.Derived, prev models.State, havePrev bool, cfg config.AlertConfig) Detection {
	cur := d.Delta(mode.DetectionTF()).State
	out := Detection{State: cur}

	if havePrev && prev != cur {
		out.Fired = true
		out.Kind = TriggerSetupFlip
		return out
	}

	d5 := d.Delta(models.TF5m)
	if d5.PriceChangePct != nil && math.Abs(*d5.PriceChangePct) >= cfg.MomentumMin {
		out.Fired = true
		out.Kind = TriggerMomentumConfirm
		return out
	}

	for _, tf := range []models.Timeframe{models.TF5m, models.TF15m} {
		rec := d.Delta(tf)
		if rec.OIChangePct != nil && *rec.OIChangePct >= cfg.ShockOIMin {
			out.Fired = true
			out.Kind = TriggerPositioningShock
			return out
		}
		if rec.PriceChangePct != nil && math.Abs(*rec.PriceChangePct) >= cfg.ShockPriceMin {
			out.Fired = true
			out.Kind = TriggerPositioningShock
			return out
		}
	}

	return out
}
