package store

import (
	"context"
	"fmt"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

const eventColumns = `id, session_id, credential_id, timestamp, model,
	prompt_tokens, completion_tokens, total_tokens, cost`

// EventsSince returns events with timestamp >= since in ascending
// order. credentialID of "" matches the default scope's events as well
// as every other scope; pass a credential id to narrow.
func (s *Store) EventsSince(ctx context.Context, since time.Time, credentialID string) ([]models.UsageEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM usage_events WHERE timestamp >= ?`
	args := []any{since}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` ORDER BY timestamp ASC`
	return s.queryEvents(ctx, query, args...)
}

// EventsForDate returns the events for one calendar day in loc,
// ascending by timestamp.
func (s *Store) EventsForDate(ctx context.Context, date time.Time, credentialID string) ([]models.UsageEvent, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT ` + eventColumns + ` FROM usage_events WHERE timestamp >= ? AND timestamp < ?`
	args := []any{dayStart, dayEnd}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` ORDER BY timestamp ASC`
	return s.queryEvents(ctx, query, args...)
}

// SessionEvents returns the events belonging to one session, ascending.
func (s *Store) SessionEvents(ctx context.Context, sessionID string) ([]models.UsageEvent, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM usage_events WHERE session_id = ? ORDER BY timestamp ASC`,
		sessionID)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]models.UsageEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.UsageEvent
	for rows.Next() {
		var ev models.UsageEvent
		if err := rows.Scan(
			&ev.ID, &ev.SessionID, &ev.CredentialID, &ev.Timestamp, &ev.Model,
			&ev.PromptTokens, &ev.CompletionTokens, &ev.TotalTokens, &ev.Cost,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ModelBreakdown aggregates per-model totals for events since the given
// time, ordered by token volume descending.
func (s *Store) ModelBreakdown(ctx context.Context, since time.Time, credentialID string) ([]models.ModelUsage, error) {
	query := `SELECT model, SUM(total_tokens), SUM(cost), COUNT(*)
		FROM usage_events WHERE timestamp >= ?`
	args := []any{since}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` GROUP BY model ORDER BY SUM(total_tokens) DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("model breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []models.ModelUsage
	for rows.Next() {
		var m models.ModelUsage
		if err := rows.Scan(&m.Model, &m.TotalTokens, &m.TotalCost, &m.CallCount); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		breakdown = append(breakdown, m)
	}
	return breakdown, rows.Err()
}

// MonthTotals sums token volume and spend over [monthStart, monthEnd),
// optionally narrowed to one credential scope.
func (s *Store) MonthTotals(ctx context.Context, monthStart, monthEnd time.Time, credentialID string) (int64, float64, error) {
	query := `SELECT COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost), 0)
		FROM usage_events WHERE timestamp >= ? AND timestamp < ?`
	args := []any{monthStart, monthEnd}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}

	var tokens int64
	var cost float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&tokens, &cost); err != nil {
		return 0, 0, fmt.Errorf("month totals: %w", err)
	}
	return tokens, cost, nil
}

// CompareCredentials aggregates token volume per credential for events
// since the given time, ordered by token volume descending. Credentials
// with no activity in the window are omitted.
func (s *Store) CompareCredentials(ctx context.Context, since time.Time) ([]models.CredentialUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.credential_id, COALESCE(c.name, ''),
			SUM(e.total_tokens), SUM(e.cost), COUNT(*)
		 FROM usage_events e
		 LEFT JOIN credentials c ON c.id = e.credential_id
		 WHERE e.timestamp >= ?
		 GROUP BY e.credential_id
		 ORDER BY SUM(e.total_tokens) DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("compare credentials: %w", err)
	}
	defer rows.Close()

	var usages []models.CredentialUsage
	for rows.Next() {
		var u models.CredentialUsage
		if err := rows.Scan(&u.CredentialID, &u.Name, &u.TotalTokens, &u.TotalCost, &u.CallCount); err != nil {
			return nil, fmt.Errorf("scan credential usage: %w", err)
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}
