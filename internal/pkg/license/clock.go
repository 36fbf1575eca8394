package license

import (
	"math"
	"time"
)

const minutesPerDay = 1440

// TimeRemaining is the loader-facing breakdown of a remaining-minute counter.
type TimeRemaining struct {
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	TotalMinutes int64 `json:"total_minutes"`
}

// TotalMinutes converts a plan duration in days to a remaining-minute counter.
func TotalMinutes(durationDays float64) int64 {
	return int64(math.Round(durationDays * minutesPerDay))
}

// ComputeExpiry returns the wall-clock expiry for a plan starting at now.
// Sub-day durations are fractional-day trials and advance by whole minutes;
// everything else advances by whole days.
func ComputeExpiry(now time.Time, durationDays float64) time.Time {
	if durationDays < 1 {
		return now.Add(time.Duration(TotalMinutes(durationDays)) * time.Minute)
	}
	return now.AddDate(0, 0, int(durationDays))
}

// Breakdown splits a minute count into days, hours and minutes.
func Breakdown(totalMinutes int64) TimeRemaining {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	return TimeRemaining{
		Days:         totalMinutes / minutesPerDay,
		Hours:        (totalMinutes % minutesPerDay) / 60,
		Minutes:      totalMinutes % 60,
		TotalMinutes: totalMinutes,
	}
}
