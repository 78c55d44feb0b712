package heuristic

import (
	"context"
	"strings"
	"testing"
	"time"

	"keyword-volume/pkg/volume"
)

func fixedJitter(v float64) Option {
	return WithJitter(func() float64 { return v })
}

func TestScore_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		keyword  string
		country  volume.Country
		jitter   float64
		expected int
	}{
		{name: "three letters US", keyword: "cat", country: volume.CountryUS, jitter: 1.0, expected: 1000},
		{name: "three letters UK", keyword: "cat", country: volume.CountryUK, jitter: 1.0, expected: 400},
		{name: "question word", keyword: "how", country: volume.CountryUS, jitter: 1.0, expected: 1500},
		{name: "question word uppercase", keyword: "HOW", country: volume.CountryUS, jitter: 1.0, expected: 1500},
		{name: "unknown country uses 1.0", keyword: "cat", country: volume.Country("DE"), jitter: 1.0, expected: 1000},
		{name: "zero jitter clamps to minimum", keyword: "cat", country: volume.CountryUS, jitter: 0, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.keyword, tt.country, tt.jitter)
			if got != tt.expected {
				t.Errorf("Score(%q, %s, %v) = %d, expected %d", tt.keyword, tt.country, tt.jitter, got, tt.expected)
			}
		})
	}
}

func TestScore_BoostsStack(t *testing.T) {
	plain := Score("abcdefghijklmnopqrstu", volume.CountryUS, 1.0)
	boosted := Score("why best free gadgets", volume.CountryUS, 1.0)

	// Same length, so only the three stacked boosts differ: 1.5 * 1.3 * 1.2.
	ratio := float64(boosted) / float64(plain)
	if ratio < 2.33 || ratio > 2.35 {
		t.Errorf("Expected stacked boost ratio ~2.34, got %.3f (%d / %d)", ratio, boosted, plain)
	}
}

func TestLengthFactor_MonotoneAndFloored(t *testing.T) {
	prev := LengthFactor("")
	for n := 1; n <= 40; n++ {
		f := LengthFactor(strings.Repeat("x", n))
		if f > prev {
			t.Fatalf("LengthFactor increased at length %d: %v > %v", n, f, prev)
		}
		if f < 0.3 {
			t.Fatalf("LengthFactor below floor at length %d: %v", n, f)
		}
		prev = f
	}
	if got := LengthFactor(strings.Repeat("x", 40)); got != 0.3 {
		t.Errorf("Expected floor 0.3 for long keywords, got %v", got)
	}
}

func TestLengthFactor_CountsRunes(t *testing.T) {
	if LengthFactor("äöü") != LengthFactor("abc") {
		t.Error("Expected multi-byte characters to count once each")
	}
}

func TestEstimate_AlwaysAtLeastMinimum(t *testing.T) {
	e := New(WithDelay(0))
	keywords := []string{"a", "cheap flights", "how to review the best free discount guide for everything"}

	for _, country := range volume.SupportedCountries {
		for _, kw := range keywords {
			for i := 0; i < 50; i++ {
				if v := e.Estimate(context.Background(), kw, country); v < 10 {
					t.Fatalf("Estimate(%q, %s) = %d, expected >= 10", kw, country, v)
				}
			}
		}
	}
}

func TestEstimate_JitterWithinBounds(t *testing.T) {
	e := New(WithDelay(0))
	low := Score("cat", volume.CountryUS, 0.7)
	high := Score("cat", volume.CountryUS, 1.4)

	for i := 0; i < 200; i++ {
		v := e.Estimate(context.Background(), "cat", volume.CountryUS)
		if v < low || v > high {
			t.Fatalf("Estimate out of jitter bounds: %d not in [%d, %d]", v, low, high)
		}
	}
}

func TestEstimate_AppliesDelay(t *testing.T) {
	e := New(WithDelay(30*time.Millisecond), fixedJitter(1.0))

	start := time.Now()
	v := e.Estimate(context.Background(), "cat", volume.CountryUS)
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected at least 30ms delay, got %v", elapsed)
	}
	if v != 1000 {
		t.Errorf("Expected 1000, got %d", v)
	}
}

func TestEstimate_CancelledContextSkipsDelay(t *testing.T) {
	e := New(WithDelay(5*time.Second), fixedJitter(1.0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	v := e.Estimate(ctx, "cat", volume.CountryUS)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected cancelled context to cut the delay, took %v", elapsed)
	}
	if v != 1000 {
		t.Errorf("Expected value to be returned despite cancellation, got %d", v)
	}
}
