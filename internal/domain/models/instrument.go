package models

import "strings"

// NoneInstrument is memoized for symbols with no perpetual market so a
// missing listing does not trigger a refetch storm.
const NoneInstrument = "__NONE__"

// Instrument is one entry of the exchange SWAP listing.
type Instrument struct {
	InstID    string `json:"instId"`
	InstType  string `json:"instType"`
	State     string `json:"state"`
	SettleCcy string `json:"settleCcy"`
}

// BaseOf extracts the base asset from a {BASE}USDT symbol. Returns "" when
// the symbol is not a USDT pair.
func BaseOf(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !strings.HasSuffix(s, "USDT") {
		return ""
	}
	base := strings.TrimSuffix(s, "USDT")
	if base == "" {
		return ""
	}
	return base
}

// CanonicalInstID returns the canonical perpetual instrument id for a base.
func CanonicalInstID(base string) string {
	return base + "-USDT-SWAP"
}
