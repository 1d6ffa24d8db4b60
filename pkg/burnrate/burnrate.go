// Package burnrate derives tokens-per-minute rates from usage events.
package burnrate

import (
	"sort"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

// Window is the trailing window used for the instantaneous rate.
const Window = time.Hour

// InstantaneousRate returns the tokens-per-minute rate over the
// trailing one-hour window ending at now: the sum of total tokens for
// events inside the window divided by a fixed 60-minute denominator.
// The denominator is deliberately the window size, not the span between
// the oldest and newest event; callers depend on this exact semantic.
// Returns 0 for an empty window.
func InstantaneousRate(events []models.UsageEvent, now time.Time) float64 {
	cutoff := now.Add(-Window)
	var total int64
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) || ev.Timestamp.After(now) {
			continue
		}
		total += int64(ev.TotalTokens)
	}
	return float64(total) / Window.Minutes()
}

// DailyAverageAndPeak computes the average and maximum of the
// adjacent-pair slopes for one day's events: for each consecutive pair
// (sorted by timestamp ascending) the difference in total tokens
// divided by the minutes between them, skipping pairs with a
// non-positive time delta. Returns (0, 0) with fewer than two events.
func DailyAverageAndPeak(events []models.UsageEvent) (avg, peak float64) {
	if len(events) < 2 {
		return 0, 0
	}

	sorted := make([]models.UsageEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var sum float64
	var n int
	for i := 1; i < len(sorted); i++ {
		minutes := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Minutes()
		if minutes <= 0 {
			continue
		}
		rate := float64(sorted[i].TotalTokens-sorted[i-1].TotalTokens) / minutes
		sum += rate
		if n == 0 || rate > peak {
			peak = rate
		}
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), peak
}
