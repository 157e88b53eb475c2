package models

// Snapshot is the per-bucket observation written by the ingestor.
// Funding and open interest are optional: upstream fields that are missing
// or fail to parse stay nil rather than collapsing to zero.
type Snapshot struct {
	TS           int64    `json:"ts"`
	Price        float64  `json:"price"`
	FundingRate  *float64 `json:"funding_rate,omitempty"`
	OpenInterest *float64 `json:"open_interest_contracts,omitempty"`
}

// SeriesPoint is one cell of the rolling 24h series.
type SeriesPoint struct {
	B  int64    `json:"b"`
	TS int64    `json:"ts"`
	P  float64  `json:"p"`
	FR *float64 `json:"fr,omitempty"`
	OI *float64 `json:"oi,omitempty"`
}

// SnapshotResult is one symbol's outcome of an ingest run.
type SnapshotResult struct {
	OK           bool     `json:"ok"`
	Symbol       string   `json:"symbol"`
	InstID       string   `json:"inst_id,omitempty"`
	Bucket       int64    `json:"bucket,omitempty"`
	Price        float64  `json:"price,omitempty"`
	FundingRate  *float64 `json:"funding_rate,omitempty"`
	OpenInterest *float64 `json:"open_interest_contracts,omitempty"`
	Written      bool     `json:"written"`
	Error        string   `json:"error,omitempty"`
}
