package license

import (
	"testing"
	"time"
)

func TestTotalMinutes(t *testing.T) {
	tests := []struct {
		days float64
		want int64
	}{
		{days: 0.021, want: 30},
		{days: 1, want: 1440},
		{days: 7, want: 10080},
		{days: 30, want: 43200},
	}

	for _, tt := range tests {
		if got := TotalMinutes(tt.days); got != tt.want {
			t.Fatalf("TotalMinutes(%v) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestComputeExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trial := ComputeExpiry(now, 0.021)
	if want := now.Add(30 * time.Minute); !trial.Equal(want) {
		t.Fatalf("trial expiry = %s, want %s", trial, want)
	}

	weekly := ComputeExpiry(now, 7)
	if want := now.AddDate(0, 0, 7); !weekly.Equal(want) {
		t.Fatalf("weekly expiry = %s, want %s", weekly, want)
	}

	monthly := ComputeExpiry(now, 30)
	if want := now.AddDate(0, 0, 30); !monthly.Equal(want) {
		t.Fatalf("monthly expiry = %s, want %s", monthly, want)
	}
}

func TestBreakdown(t *testing.T) {
	tests := []struct {
		total   int64
		days    int64
		hours   int64
		minutes int64
	}{
		{total: 0, days: 0, hours: 0, minutes: 0},
		{total: 30, days: 0, hours: 0, minutes: 30},
		{total: 61, days: 0, hours: 1, minutes: 1},
		{total: 1440, days: 1, hours: 0, minutes: 0},
		{total: 10080, days: 7, hours: 0, minutes: 0},
		{total: 10579, days: 7, hours: 8, minutes: 19},
	}

	for _, tt := range tests {
		got := Breakdown(tt.total)
		if got.Days != tt.days || got.Hours != tt.hours || got.Minutes != tt.minutes || got.TotalMinutes != tt.total {
			t.Fatalf("Breakdown(%d) = %+v, want {%d %d %d %d}", tt.total, got, tt.days, tt.hours, tt.minutes, tt.total)
		}
	}
}

func TestBreakdownClampsNegative(t *testing.T) {
	got := Breakdown(-5)
	if got.TotalMinutes != 0 || got.Days != 0 || got.Hours != 0 || got.Minutes != 0 {
		t.Fatalf("Breakdown(-5) = %+v, want all zero", got)
	}
}
