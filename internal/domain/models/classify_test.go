package models

import "testing"

func f(v float64) *float64 { return &v }

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		name  string
		price *float64
		oi    *float64
		state State
		lean  Lean
	}{
		{"longs opening", f(0.5), f(0.3), StateLongsOpening, LeanLong},
		{"shorts opening", f(-0.5), f(0.3), StateShortsOpening, LeanShort},
		{"shorts closing", f(0.5), f(-0.3), StateShortsClosing, LeanLong},
		{"longs closing", f(-0.5), f(-0.3), StateLongsClosing, LeanShort},
		{"shorts closing zero oi", f(0.5), f(0), StateShortsClosing, LeanLong},
		{"nil price", nil, f(0.3), StateUnknown, LeanNeutral},
		{"nil oi", f(0.5), nil, StateUnknown, LeanNeutral},
		{"both nil", nil, nil, StateUnknown, LeanNeutral},
	}
	for _, tc := range cases {
		st, lean := Classify(tc.price, tc.oi)
		if st != tc.state || lean != tc.lean {
			t.Fatalf("%s: got (%s, %s), want (%s, %s)", tc.name, st, lean, tc.state, tc.lean)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	for _, base := range []int64{0, 300_000, 1_700_000_100_000 - 1_700_000_100_000%300_000} {
		if Bucket(base) != Bucket(base+299_999) {
			t.Fatalf("bucket split within one cell at %d", base)
		}
		if Bucket(base) == Bucket(base+300_000) {
			t.Fatalf("adjacent buckets collide at %d", base)
		}
	}
	if Bucket(300_000) != 1 {
		t.Fatalf("expected bucket 1, got %d", Bucket(300_000))
	}
	if BucketStart(7) != 2_100_000 {
		t.Fatalf("unexpected bucket start %d", BucketStart(7))
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1987.561, "1987.56"},
		{1000, "1000.00"},
		{12.3456, "12.346"},
		{1, "1.000"},
		{0.12345, "0.1235"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.in); got != tc.want {
			t.Fatalf("FormatPrice(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestBaseOf(t *testing.T) {
	if got := BaseOf("ethusdt"); got != "ETH" {
		t.Fatalf("expected ETH, got %q", got)
	}
	if got := BaseOf("ETHUSD"); got != "" {
		t.Fatalf("expected empty for non-USDT pair, got %q", got)
	}
	if got := BaseOf("USDT"); got != "" {
		t.Fatalf("expected empty for bare quote, got %q", got)
	}
	if got := CanonicalInstID("SOL"); got != "SOL-USDT-SWAP" {
		t.Fatalf("unexpected inst id %q", got)
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	if NormalizeTimeframe("4h") != TF4h {
		t.Fatalf("4h should normalize to itself")
	}
	if NormalizeTimeframe("2h") != DefaultTimeframe() {
		t.Fatalf("unknown timeframe should fall back to default")
	}
	if TF4h.Steps() != 48 || TF5m.Steps() != 1 || TF1h.Steps() != 12 {
		t.Fatalf("unexpected step counts")
	}
}
