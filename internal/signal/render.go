package signal

import (
	"fmt"
	"strings"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/util"
)

// MaxMessageLen caps the rendered notification.
const MaxMessageLen = 3900

// RenderOptions carries the invocation context needed by the renderer.
type RenderOptions struct {
	DriverTF     models.Timeframe
	TS           int64
	Force        bool
	Dry          bool
	DrilldownURL string
	BTCSymbol    string
}

// Render builds the multi-line notification for the triggered candidates.
// Each block names the symbol, formatted price, bias and 1h structure, the
// entry reason with its explicit numeric level, and the copy-only extras.
func Render(winners []*models.Candidate, opts RenderOptions) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("PulseGate %s signals", opts.DriverTF))
	if opts.Force {
		b.WriteString(" [FORCE]")
	}
	if opts.Dry {
		b.WriteString(" [DRY]")
	}
	b.WriteByte('\n')
	b.WriteString(util.ISO8601(opts.TS))
	b.WriteByte('\n')

	for _, w := range winners {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf("%s %s | %s %s | 1h %s / %s\n",
			w.Symbol,
			models.FormatPrice(w.Price),
			w.Mode,
			w.Bias,
			models.FormatPrice(w.Levels1h.Hi),
			models.FormatPrice(w.Levels1h.Lo),
		))
		b.WriteString(entryLine(w))
		if w.Grade != "" {
			b.WriteString(fmt.Sprintf("Confidence: %s\n", w.Grade))
		}
		if w.Leverage != nil {
			b.WriteString(fmt.Sprintf("Leverage: x%d-x%d\n", w.Leverage.Low, w.Leverage.High))
		}
		if w.Zone != nil {
			b.WriteString(fmt.Sprintf("Zone %s-%s | SL %s | TP %s / %s\n",
				models.FormatPrice(w.Zone.EntryLow),
				models.FormatPrice(w.Zone.EntryHigh),
				models.FormatPrice(w.Zone.StopLoss),
				models.FormatPrice(w.Zone.TakeP1),
				models.FormatPrice(w.Zone.TakeP2),
			))
		}
	}

	if opts.DrilldownURL != "" {
		b.WriteByte('\n')
		b.WriteString(drilldownLine(winners, opts))
		b.WriteByte('\n')
	}

	msg := b.String()
	if len(msg) > MaxMessageLen {
		msg = msg[:MaxMessageLen]
	}
	return msg
}

// entryLine spells out the trigger with its numeric reference level.
func entryLine(w *models.Candidate) string {
	level := models.FormatPrice(w.ReasonLevel)
	switch w.Reason {
	case models.EntryLongBreakout:
		return fmt.Sprintf("Entry: %s above %s\n", w.Reason, level)
	case models.EntryShortBreakdown:
		return fmt.Sprintf("Entry: %s below %s\n", w.Reason, level)
	case models.EntryLongSweepReclaim:
		return fmt.Sprintf("Entry: %s reclaimed %s\n", w.Reason, level)
	case models.EntryShortSweepReject:
		return fmt.Sprintf("Entry: %s rejected %s\n", w.Reason, level)
	case models.EntryLongReversal, models.EntryShortReversal:
		return fmt.Sprintf("Entry: %s at %s\n", w.Reason, level)
	default:
		return fmt.Sprintf("Entry: %s at %s\n", w.Reason, level)
	}
}

// drilldownLine scopes the drilldown URL to the alerted symbols plus BTC.
func drilldownLine(winners []*models.Candidate, opts RenderOptions) string {
	symbols := make([]string, 0, len(winners)+1)
	seen := make(map[string]bool)
	for _, w := range winners {
		if !seen[w.Symbol] {
			symbols = append(symbols, w.Symbol)
			seen[w.Symbol] = true
		}
	}
	if opts.BTCSymbol != "" && !seen[opts.BTCSymbol] {
		symbols = append(symbols, opts.BTCSymbol)
	}

	sep := "?"
	if strings.Contains(opts.DrilldownURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssymbols=%s", opts.DrilldownURL, sep, strings.Join(symbols, ","))
}

// BuildZone derives the copy-only entry zone, stop and targets from the 1h
// structure. Stops sit just beyond the invalidation level.
func BuildZone(w *models.Candidate) *models.PriceZone {
	lv := w.Levels1h
	if lv == nil || lv.Range() <= 0 {
		return nil
	}
	rng := lv.Range()

	if w.Bias == models.LeanLong {
		zone := &models.PriceZone{StopLoss: lv.Lo * 0.998}
		switch w.Reason {
		case models.EntryLongBreakout:
			zone.EntryLow = lv.Hi
			zone.EntryHigh = w.Price
			zone.TakeP1 = lv.Hi + rng/2
			zone.TakeP2 = lv.Hi + rng
		default:
			zone.EntryLow = lv.Lo
			zone.EntryHigh = w.Price
			zone.TakeP1 = lv.Mid
			zone.TakeP2 = lv.Hi
		}
		return zone
	}

	zone := &models.PriceZone{StopLoss: lv.Hi * 1.002}
	switch w.Reason {
	case models.EntryShortBreakdown:
		zone.EntryLow = w.Price
		zone.EntryHigh = lv.Lo
		zone.TakeP1 = lv.Lo - rng/2
		zone.TakeP2 = lv.Lo - rng
	default:
		zone.EntryLow = w.Price
		zone.EntryHigh = lv.Hi
		zone.TakeP1 = lv.Mid
		zone.TakeP2 = lv.Lo
	}
	return zone
}
