package cache

import (
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("/fixtures", map[string]string{"date": "2026-09-01", "league": "39"})
	b := Key("/fixtures", map[string]string{"league": "39", "date": "2026-09-01"})

	if a != b {
		t.Errorf("Expected identical keys, got %q and %q", a, b)
	}
	if a != "/fixtures?date=2026-09-01&league=39" {
		t.Errorf("Unexpected key format: %q", a)
	}
}

func TestKey_NoParams(t *testing.T) {
	if got := Key("/fixtures/live", nil); got != "/fixtures/live" {
		t.Errorf("Expected bare endpoint, got %q", got)
	}
}

func TestKey_EscapesValues(t *testing.T) {
	got := Key("/teams", map[string]string{"search": "real madrid"})
	if got != "/teams?search=real+madrid" {
		t.Errorf("Expected escaped value, got %q", got)
	}
}

func TestPolicy_TTLFor(t *testing.T) {
	policy := NewPolicy(30*time.Second, time.Hour, 6*time.Hour, 24*time.Hour)

	tests := []struct {
		category Category
		want     time.Duration
	}{
		{CategoryLive, 30 * time.Second},
		{CategoryUpcoming, time.Hour},
		{CategoryFinished, TTLForever},
		{CategoryLeague, 6 * time.Hour},
		{CategoryTeam, 24 * time.Hour},
	}

	for _, tt := range tests {
		if got := policy.TTLFor(tt.category); got != tt.want {
			t.Errorf("TTLFor(%s) = %v, want %v", tt.category, got, tt.want)
		}
	}
}

func TestPolicy_UnknownCategoryUsesShortestTTL(t *testing.T) {
	policy := NewPolicy(30*time.Second, time.Hour, 6*time.Hour, 24*time.Hour)

	if got := policy.TTLFor(Category("bogus")); got != 30*time.Second {
		t.Errorf("Expected live TTL for unknown category, got %v", got)
	}
}
