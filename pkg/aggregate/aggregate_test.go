package aggregate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func seedEvent(t *testing.T, s *store.Store, sessionID, credentialID, model string, ts time.Time, tokens int, cost float64) {
	t.Helper()
	err := s.RecordEvent(context.Background(), models.UsageEvent{
		SessionID:        sessionID,
		CredentialID:     credentialID,
		Timestamp:        ts,
		Model:            model,
		PromptTokens:     tokens / 2,
		CompletionTokens: tokens - tokens/2,
		TotalTokens:      tokens,
		Cost:             cost,
	})
	if err != nil {
		t.Fatalf("record event: %v", err)
	}
}

func TestRollupDayTotalsMatchEvents(t *testing.T) {
	agg, s := newTestAggregator(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := s.OpenSession(ctx, "sess-1", "", day.Add(9*time.Hour)); err != nil {
		t.Fatalf("open session: %v", err)
	}
	seedEvent(t, s, "sess-1", "", "gpt-4", day.Add(9*time.Hour), 1000, 0.03)
	seedEvent(t, s, "sess-1", "", "gpt-4", day.Add(10*time.Hour), 2000, 0.06)
	seedEvent(t, s, "sess-1", "", "gpt-3.5-turbo", day.Add(11*time.Hour), 500, 0.001)
	// Outside the day: must not be counted.
	seedEvent(t, s, "sess-1", "", "gpt-4", day.AddDate(0, 0, 1), 9999, 1.0)

	sum, err := agg.RollupDay(ctx, day, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}

	if sum.Date != "2024-03-15" {
		t.Errorf("expected date 2024-03-15, got %s", sum.Date)
	}
	if sum.TotalTokens != 3500 {
		t.Errorf("expected 3500 tokens, got %d", sum.TotalTokens)
	}
	if sum.CallCount != 3 {
		t.Errorf("expected 3 calls, got %d", sum.CallCount)
	}
	if len(sum.ModelsUsed) != 2 || sum.ModelsUsed[0] != "gpt-3.5-turbo" || sum.ModelsUsed[1] != "gpt-4" {
		t.Errorf("expected sorted distinct models, got %v", sum.ModelsUsed)
	}
}

func TestRollupDayIsIdempotent(t *testing.T) {
	agg, s := newTestAggregator(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := s.OpenSession(ctx, "sess-1", "", day); err != nil {
		t.Fatalf("open session: %v", err)
	}
	seedEvent(t, s, "sess-1", "", "gpt-4", day.Add(time.Hour), 1200, 0.04)

	first, err := agg.RollupDay(ctx, day, "")
	if err != nil {
		t.Fatalf("first rollup: %v", err)
	}
	second, err := agg.RollupDay(ctx, day, "")
	if err != nil {
		t.Fatalf("second rollup: %v", err)
	}
	if first.TotalTokens != second.TotalTokens || first.CallCount != second.CallCount {
		t.Errorf("rollup not idempotent: %+v vs %+v", first, second)
	}

	stored, err := s.DailySummary(ctx, "2024-03-15", "")
	if err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if stored.TotalTokens != 1200 || stored.CallCount != 1 {
		t.Errorf("unexpected stored summary %+v", stored)
	}
}

func TestRollupDayEmptyDate(t *testing.T) {
	agg, _ := newTestAggregator(t)

	sum, err := agg.RollupDay(context.Background(), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if sum.TotalTokens != 0 || sum.CallCount != 0 {
		t.Errorf("expected zero summary for empty day, got %+v", sum)
	}
}

func TestAnalyticsModelOrdering(t *testing.T) {
	agg, s := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	agg.now = func() time.Time { return now }

	if err := s.OpenSession(ctx, "sess-1", "", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("open session: %v", err)
	}
	seedEvent(t, s, "sess-1", "", "gpt-3.5-turbo", now.Add(-90*time.Minute), 500, 0.001)
	seedEvent(t, s, "sess-1", "", "gpt-4", now.Add(-60*time.Minute), 3000, 0.09)
	seedEvent(t, s, "sess-1", "", "gpt-4", now.Add(-30*time.Minute), 1000, 0.03)

	a, err := agg.Analytics(ctx, 7, "")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if a.PeriodDays != 7 {
		t.Errorf("expected period 7, got %d", a.PeriodDays)
	}
	if len(a.ByModel) != 2 {
		t.Fatalf("expected 2 models, got %d", len(a.ByModel))
	}
	if a.ByModel[0].Model != "gpt-4" || a.ByModel[0].TotalTokens != 4000 {
		t.Errorf("expected gpt-4 first with 4000 tokens, got %+v", a.ByModel[0])
	}
	if a.ByModel[1].Model != "gpt-3.5-turbo" || a.ByModel[1].CallCount != 1 {
		t.Errorf("unexpected second model row %+v", a.ByModel[1])
	}
}

func TestHourlyPatternSkipsEmptyHours(t *testing.T) {
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	events := []models.UsageEvent{
		{Timestamp: base.Add(9 * time.Hour), TotalTokens: 100},
		{Timestamp: base.Add(9*time.Hour + 30*time.Minute), TotalTokens: 300},
		{Timestamp: base.Add(14 * time.Hour), TotalTokens: 50},
	}

	pattern := hourlyPattern(events)
	if len(pattern) != 2 {
		t.Fatalf("expected 2 populated hours, got %d", len(pattern))
	}
	if pattern[0].Hour != 9 || pattern[0].AvgTokens != 200 || pattern[0].CallCount != 2 {
		t.Errorf("unexpected hour 9 bucket %+v", pattern[0])
	}
	if pattern[1].Hour != 14 || pattern[1].AvgTokens != 50 {
		t.Errorf("unexpected hour 14 bucket %+v", pattern[1])
	}
}

func TestCompareCredentialsGrandTotal(t *testing.T) {
	agg, s := newTestAggregator(t)
	ctx := context.Background()

	now := time.Now().UTC()
	agg.now = func() time.Time { return now }

	if err := s.OpenSession(ctx, "sess-a", "cred-a", now.Add(-time.Hour)); err != nil {
		t.Fatalf("open sess-a: %v", err)
	}
	if err := s.OpenSession(ctx, "sess-b", "cred-b", now.Add(-time.Hour)); err != nil {
		t.Fatalf("open sess-b: %v", err)
	}
	seedEvent(t, s, "sess-a", "cred-a", "gpt-4", now.Add(-30*time.Minute), 3000, 0.09)
	seedEvent(t, s, "sess-b", "cred-b", "gpt-4", now.Add(-20*time.Minute), 1000, 0.03)

	rows, total, err := agg.CompareCredentials(ctx, 7)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CredentialID != "cred-a" {
		t.Errorf("expected cred-a first by volume, got %s", rows[0].CredentialID)
	}
	if total.Name != "TOTAL" || total.TotalTokens != 4000 || total.CallCount != 2 {
		t.Errorf("unexpected grand total %+v", total)
	}
}
