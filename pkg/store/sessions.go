package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

// OpenSession atomically closes any active session in the same
// credential scope (setting its end time) and inserts the new session
// as the sole active one.
func (s *Store) OpenSession(ctx context.Context, sessionID, credentialID string, start time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET active = 0, end_time = ? WHERE active = 1 AND credential_id = ?`,
			start, credentialID,
		); err != nil {
			return fmt.Errorf("close prior sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, credential_id, start_time, active) VALUES (?, ?, ?, 1)`,
			sessionID, credentialID, start,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// RecordEvent appends a usage event and folds its totals into the
// owning session in the same transaction. The transaction is what makes
// concurrent recorders safe: the increment happens in SQL, not as a
// read-modify-write from Go.
func (s *Store) RecordEvent(ctx context.Context, ev models.UsageEvent) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO usage_events
			 (session_id, credential_id, timestamp, model, prompt_tokens, completion_tokens, total_tokens, cost)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.SessionID, ev.CredentialID, ev.Timestamp, ev.Model,
			ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens, ev.Cost,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET
				prompt_tokens = prompt_tokens + ?,
				completion_tokens = completion_tokens + ?,
				total_tokens = total_tokens + ?,
				total_cost = total_cost + ?,
				model = ?
			 WHERE id = ?`,
			ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens, ev.Cost,
			ev.Model, ev.SessionID,
		)
		if err != nil {
			return fmt.Errorf("update session totals: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update session totals: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("session %s: %w", ev.SessionID, ErrNotFound)
		}
		return nil
	})
}

const sessionColumns = `id, credential_id, start_time, end_time,
	prompt_tokens, completion_tokens, total_tokens, total_cost, model, active`

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var sess models.Session
	var end sql.NullTime
	if err := row.Scan(
		&sess.ID, &sess.CredentialID, &sess.StartTime, &end,
		&sess.PromptTokens, &sess.CompletionTokens, &sess.TotalTokens,
		&sess.TotalCost, &sess.Model, &sess.Active,
	); err != nil {
		return nil, err
	}
	if end.Valid {
		sess.EndTime = &end.Time
	}
	return &sess, nil
}

// ActiveSession returns the active session for a credential scope, or
// ErrNotFound if none is open.
func (s *Store) ActiveSession(ctx context.Context, credentialID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE active = 1 AND credential_id = ?
		 ORDER BY start_time DESC LIMIT 1`,
		credentialID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return sess, nil
}

// SessionByID returns one session by id.
func (s *Store) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session by id: %w", err)
	}
	return sess, nil
}

// SessionsSince returns sessions started at or after since, newest
// first, optionally filtered by credential scope.
func (s *Store) SessionsSince(ctx context.Context, since time.Time, credentialID string) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE start_time >= ?`
	args := []any{since}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sessions since: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
