package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

// InsertAlertIfNew inserts an alert unless one of the same kind already
// exists for the same credential with a trigger date on the same
// calendar day (UTC). The existence check and the insert share a
// transaction so concurrent evaluators cannot both fire. Returns true
// when a row was inserted.
func (s *Store) InsertAlertIfNew(ctx context.Context, alert models.Alert) (bool, error) {
	dayStart := time.Date(alert.TriggeredAt.Year(), alert.TriggeredAt.Month(), alert.TriggeredAt.Day(),
		0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	inserted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM alerts
			 WHERE kind = ? AND credential_id = ? AND triggered_at >= ? AND triggered_at < ?
			 LIMIT 1`,
			alert.Kind, alert.CredentialID, dayStart, dayEnd,
		).Scan(&existing)
		if err == nil {
			return nil // already fired today
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check alert dedup: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (credential_id, kind, threshold, observed, message, active, triggered_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?)`,
			alert.CredentialID, alert.Kind, alert.Threshold, alert.Observed,
			alert.Message, alert.TriggeredAt,
		); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// ActiveAlertsSince returns active alerts triggered at or after since,
// newest first.
func (s *Store) ActiveAlertsSince(ctx context.Context, since time.Time, credentialID string) ([]models.Alert, error) {
	query := `SELECT id, credential_id, kind, threshold, observed, message, active, triggered_at
		FROM alerts WHERE active = 1 AND triggered_at >= ?`
	args := []any{since}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` ORDER BY triggered_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.CredentialID, &a.Kind, &a.Threshold,
			&a.Observed, &a.Message, &a.Active, &a.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// DeactivateAlert marks one alert inactive. Alerts are never
// deactivated automatically; this is the explicit path for an operator.
func (s *Store) DeactivateAlert(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate alert: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return nil
}
