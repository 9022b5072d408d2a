package domain

import (
	"testing"
	"time"
)

func TestDateNum(t *testing.T) {
	ts := time.Date(2025, 11, 11, 23, 59, 0, 0, time.UTC)
	if got := DateNum(ts); got != 20251111 {
		t.Errorf("DateNum: got %d, want 20251111", got)
	}
}

func TestDateNumFromISO(t *testing.T) {
	tests := []struct {
		iso  string
		want int
	}{
		{"2025-11-11", 20251111},
		{"2024-02-29", 20240229},
		{"", DateUnknown},
		{"not-a-date", DateUnknown},
		{"2025-13-40", DateUnknown},
	}
	for _, tt := range tests {
		if got := DateNumFromISO(tt.iso); got != tt.want {
			t.Errorf("DateNumFromISO(%q): got %d, want %d", tt.iso, got, tt.want)
		}
	}
}

func TestCutoffNum(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if got := CutoffNum(now, 10); got != 20251226 {
		t.Errorf("CutoffNum: got %d, want 20251226", got)
	}
}

func TestHitRecencyKey(t *testing.T) {
	news := Hit{Numerics: map[string]float64{FieldPublishedNum: 20250102}}
	if got := news.RecencyKey(); got != 20250102 {
		t.Errorf("news recency key: got %d, want 20250102", got)
	}
	price := Hit{Numerics: map[string]float64{FieldDateNum: 20250103}}
	if got := price.RecencyKey(); got != 20250103 {
		t.Errorf("price recency key: got %d, want 20250103", got)
	}
	if got := (Hit{}).RecencyKey(); got != DateUnknown {
		t.Errorf("empty hit recency key: got %d, want 0", got)
	}
}
