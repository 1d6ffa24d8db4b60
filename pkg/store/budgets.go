package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/burndown-ai/burndown/pkg/models"
)

// UpsertBudget writes the budget row for a (month, credential) key,
// replacing any prior row.
func (s *Store) UpsertBudget(ctx context.Context, b models.BudgetSetting) error {
	thresholds, err := json.Marshal(b.AlertThresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budget_settings (month, credential_id, budget_limit, token_limit, alert_thresholds)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(month, credential_id) DO UPDATE SET
				budget_limit = excluded.budget_limit,
				token_limit = excluded.token_limit,
				alert_thresholds = excluded.alert_thresholds`,
			b.Month, b.CredentialID, b.BudgetLimit, b.TokenLimit, string(thresholds),
		); err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		return nil
	})
}

// Budget returns the budget row for a (month, credential) key, or
// ErrNotFound when none has been set.
func (s *Store) Budget(ctx context.Context, month, credentialID string) (*models.BudgetSetting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT month, credential_id, budget_limit, token_limit, alert_thresholds
		 FROM budget_settings WHERE month = ? AND credential_id = ?`,
		month, credentialID,
	)
	var b models.BudgetSetting
	var thresholds string
	err := row.Scan(&b.Month, &b.CredentialID, &b.BudgetLimit, &b.TokenLimit, &thresholds)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("budget lookup: %w", err)
	}
	if err := json.Unmarshal([]byte(thresholds), &b.AlertThresholds); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	return &b, nil
}
