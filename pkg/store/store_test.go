package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening an already-migrated database must be a no-op.
	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen after migration: %v", err)
	}
	defer s2.Close()

	var version int
	if err := s2.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Errorf("expected schema version %d, got %d", len(migrations), version)
	}
}

func TestOpenSessionClosesPrior(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := s.OpenSession(ctx, "sess-a", "", start); err != nil {
		t.Fatal(err)
	}
	if err := s.OpenSession(ctx, "sess-b", "", start.Add(5*time.Minute)); err != nil {
		t.Fatal(err)
	}

	a, err := s.SessionByID(ctx, "sess-a")
	if err != nil {
		t.Fatal(err)
	}
	if a.Active {
		t.Error("expected session A inactive after B opened")
	}
	if a.EndTime == nil {
		t.Fatal("expected session A end time set")
	}
	if !a.EndTime.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("expected end time 10:05, got %v", a.EndTime)
	}

	active, err := s.ActiveSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if active.ID != "sess-b" {
		t.Errorf("expected sess-b active, got %s", active.ID)
	}
}

func TestOpenSessionScopesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.OpenSession(ctx, "sess-default", "", now); err != nil {
		t.Fatal(err)
	}
	if err := s.OpenSession(ctx, "sess-cred", "cred-1", now); err != nil {
		t.Fatal(err)
	}

	def, err := s.ActiveSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != "sess-default" {
		t.Errorf("default scope session closed by other scope: %s", def.ID)
	}
}

func TestRecordEventUpdatesSessionTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.OpenSession(ctx, "sess-1", "", now); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		err := s.RecordEvent(ctx, models.UsageEvent{
			SessionID:        "sess-1",
			Timestamp:        now.Add(time.Duration(i) * time.Minute),
			Model:            "gpt-4",
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
			Cost:             0.01,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	sess, err := s.SessionByID(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.TotalTokens != 450 {
		t.Errorf("expected 450 total tokens, got %d", sess.TotalTokens)
	}
	if sess.PromptTokens != 300 || sess.CompletionTokens != 150 {
		t.Errorf("expected 300/150 prompt/completion, got %d/%d", sess.PromptTokens, sess.CompletionTokens)
	}
	if sess.Model != "gpt-4" {
		t.Errorf("expected last-seen model gpt-4, got %s", sess.Model)
	}
}

func TestRecordEventUnknownSession(t *testing.T) {
	s := newTestStore(t)
	err := s.RecordEvent(context.Background(), models.UsageEvent{
		SessionID: "missing", Timestamp: time.Now().UTC(), Model: "gpt-4",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertAlertDedupByDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	alert := models.Alert{
		Kind: models.AlertUsage75, Threshold: 0.75, Observed: 0.8,
		Message: "Token usage exceeded 75%", TriggeredAt: day,
	}

	inserted, err := s.InsertAlertIfNew(ctx, alert)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("expected first alert inserted")
	}

	// Same kind, same day, later time: suppressed.
	alert.TriggeredAt = day.Add(6 * time.Hour)
	inserted, err = s.InsertAlertIfNew(ctx, alert)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("expected same-day alert deduplicated")
	}

	// Next day: fires again.
	alert.TriggeredAt = day.AddDate(0, 0, 1)
	inserted, err = s.InsertAlertIfNew(ctx, alert)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Error("expected next-day alert inserted")
	}

	alerts, err := s.ActiveAlertsSince(ctx, day.Add(-time.Hour), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(alerts))
	}
}

func TestAlertDedupIsPerCredential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := models.Alert{Kind: models.AlertCost10, Threshold: 10, Observed: 12, Message: "m", TriggeredAt: now}
	if _, err := s.InsertAlertIfNew(ctx, a); err != nil {
		t.Fatal(err)
	}

	a.CredentialID = "cred-1"
	inserted, err := s.InsertAlertIfNew(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Error("expected alert for a different credential to insert")
	}
}

func TestUpsertDailySummaryOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sum := models.DailySummary{
		Date: "2024-03-15", TotalTokens: 1000, TotalCost: 0.5, CallCount: 4,
		ModelsUsed: []string{"gpt-4"}, AvgBurnRate: 10, PeakBurnRate: 20,
	}
	if err := s.UpsertDailySummary(ctx, sum); err != nil {
		t.Fatal(err)
	}

	sum.TotalTokens = 2000
	sum.ModelsUsed = []string{"gpt-3.5-turbo", "gpt-4"}
	if err := s.UpsertDailySummary(ctx, sum); err != nil {
		t.Fatal(err)
	}

	got, err := s.DailySummary(ctx, "2024-03-15", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalTokens != 2000 {
		t.Errorf("expected overwrite to 2000 tokens, got %d", got.TotalTokens)
	}
	if len(got.ModelsUsed) != 2 {
		t.Errorf("expected 2 models, got %v", got.ModelsUsed)
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := models.BudgetSetting{
		Month: "2024-03", BudgetLimit: 100, TokenLimit: 100000,
		AlertThresholds: []float64{0.5, 0.75, 0.9},
	}
	if err := s.UpsertBudget(ctx, b); err != nil {
		t.Fatal(err)
	}

	b.BudgetLimit = 200
	if err := s.UpsertBudget(ctx, b); err != nil {
		t.Fatal(err)
	}

	got, err := s.Budget(ctx, "2024-03", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.BudgetLimit != 200 {
		t.Errorf("expected upserted limit 200, got %f", got.BudgetLimit)
	}
	if len(got.AlertThresholds) != 3 || got.AlertThresholds[1] != 0.75 {
		t.Errorf("unexpected thresholds %v", got.AlertThresholds)
	}

	if _, err := s.Budget(ctx, "2024-04", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unset month, got %v", err)
	}
}

func TestDuplicateCredentialName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	cred := models.Credential{
		ID: "id-1", Name: "prod", SecretHash: "h", Mask: "****abcd", CreatedAt: now,
	}
	if err := s.InsertCredential(ctx, cred); err != nil {
		t.Fatal(err)
	}

	cred.ID = "id-2"
	err := s.InsertCredential(ctx, cred)
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	// The failed insert must not leave a row behind.
	creds, err := s.ListCredentials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(creds) != 1 {
		t.Errorf("expected 1 credential, got %d", len(creds))
	}
}

func TestEventsForDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := s.OpenSession(ctx, "sess-1", "", day); err != nil {
		t.Fatal(err)
	}

	times := []time.Time{
		day.Add(-time.Minute),      // previous day
		day.Add(2 * time.Hour),     // in range
		day.Add(23 * time.Hour),    // in range
		day.Add(24*time.Hour + 10), // next day
	}
	for _, ts := range times {
		err := s.RecordEvent(ctx, models.UsageEvent{
			SessionID: "sess-1", Timestamp: ts, Model: "gpt-4",
			PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := s.EventsForDate(ctx, day, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events on the date, got %d", len(events))
	}
	if !events[0].Timestamp.Before(events[1].Timestamp) {
		t.Error("expected ascending timestamp order")
	}
}
