// Package aggregate rolls raw usage events into daily summaries and
// historical views. Rollups are always full recomputes over the raw
// events, never incremental adds, so repeating one is harmless.
package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/burndown-ai/burndown/pkg/burnrate"
	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

// Aggregator produces rollups and analytics views from the ledger.
type Aggregator struct {
	store *store.Store
	now   func() time.Time
}

// New creates an Aggregator backed by the given ledger store.
func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// RollupDay recomputes the daily summary for (date, credential) from
// the raw events and upserts it. Totals equal the sum over events by
// construction; calling it again on unchanged events writes an
// identical row.
func (a *Aggregator) RollupDay(ctx context.Context, date time.Time, credentialID string) (*models.DailySummary, error) {
	events, err := a.store.EventsForDate(ctx, date, credentialID)
	if err != nil {
		return nil, err
	}

	sum := models.DailySummary{
		Date:         date.Format("2006-01-02"),
		CredentialID: credentialID,
	}

	seen := make(map[string]bool)
	for _, ev := range events {
		sum.TotalTokens += int64(ev.TotalTokens)
		sum.TotalCost += ev.Cost
		sum.CallCount++
		if ev.Model != "" && !seen[ev.Model] {
			seen[ev.Model] = true
			sum.ModelsUsed = append(sum.ModelsUsed, ev.Model)
		}
	}
	sort.Strings(sum.ModelsUsed)

	sum.AvgBurnRate, sum.PeakBurnRate = burnrate.DailyAverageAndPeak(events)

	if err := a.store.UpsertDailySummary(ctx, sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Analytics returns the historical views for the trailing number of
// days: daily summary rows, per-model totals ordered by token volume
// descending, and the hourly usage pattern.
func (a *Aggregator) Analytics(ctx context.Context, days int, credentialID string) (*models.Analytics, error) {
	now := a.now()
	since := now.AddDate(0, 0, -days)

	daily, err := a.store.DailySummaries(ctx, since.Format("2006-01-02"), credentialID)
	if err != nil {
		return nil, err
	}

	byModel, err := a.store.ModelBreakdown(ctx, since, credentialID)
	if err != nil {
		return nil, err
	}

	events, err := a.store.EventsSince(ctx, since, credentialID)
	if err != nil {
		return nil, err
	}

	return &models.Analytics{
		PeriodDays: days,
		Daily:      daily,
		ByModel:    byModel,
		ByHour:     hourlyPattern(events),
	}, nil
}

// hourlyPattern buckets events by the hour of day of their timestamp
// (in the timestamp's own location) and averages token volume per call.
func hourlyPattern(events []models.UsageEvent) []models.HourlyUsage {
	var tokens [24]int64
	var counts [24]int
	for _, ev := range events {
		h := ev.Timestamp.Hour()
		tokens[h] += int64(ev.TotalTokens)
		counts[h]++
	}

	var pattern []models.HourlyUsage
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		pattern = append(pattern, models.HourlyUsage{
			Hour:      h,
			AvgTokens: float64(tokens[h]) / float64(counts[h]),
			CallCount: counts[h],
		})
	}
	return pattern
}

// CompareCredentials returns one row per credential with activity in
// the trailing window, ordered by token volume descending, plus a grand
// total row.
func (a *Aggregator) CompareCredentials(ctx context.Context, days int) ([]models.CredentialUsage, models.CredentialUsage, error) {
	since := a.now().AddDate(0, 0, -days)
	rows, err := a.store.CompareCredentials(ctx, since)
	if err != nil {
		return nil, models.CredentialUsage{}, err
	}

	total := models.CredentialUsage{Name: "TOTAL"}
	for _, row := range rows {
		total.TotalTokens += row.TotalTokens
		total.TotalCost += row.TotalCost
		total.CallCount += row.CallCount
	}
	return rows, total, nil
}
