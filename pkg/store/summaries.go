package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/burndown-ai/burndown/pkg/models"
)

// UpsertDailySummary writes one daily summary row, replacing any prior
// row for the same (date, credential). Callers always provide a full
// recompute, so the overwrite is idempotent.
func (s *Store) UpsertDailySummary(ctx context.Context, sum models.DailySummary) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_summaries
			 (date, credential_id, total_tokens, total_cost, call_count, models_used, avg_burn_rate, peak_burn_rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(date, credential_id) DO UPDATE SET
				total_tokens = excluded.total_tokens,
				total_cost = excluded.total_cost,
				call_count = excluded.call_count,
				models_used = excluded.models_used,
				avg_burn_rate = excluded.avg_burn_rate,
				peak_burn_rate = excluded.peak_burn_rate`,
			sum.Date, sum.CredentialID, sum.TotalTokens, sum.TotalCost, sum.CallCount,
			strings.Join(sum.ModelsUsed, ","), sum.AvgBurnRate, sum.PeakBurnRate,
		); err != nil {
			return fmt.Errorf("upsert daily summary: %w", err)
		}
		return nil
	})
}

// DailySummary returns the summary for one (date, credential) key.
func (s *Store) DailySummary(ctx context.Context, date, credentialID string) (*models.DailySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT date, credential_id, total_tokens, total_cost, call_count, models_used, avg_burn_rate, peak_burn_rate
		 FROM daily_summaries WHERE date = ? AND credential_id = ?`,
		date, credentialID,
	)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	return sum, nil
}

// DailySummaries returns summaries for dates >= since (YYYY-MM-DD),
// newest first, optionally filtered by credential.
func (s *Store) DailySummaries(ctx context.Context, since, credentialID string) ([]models.DailySummary, error) {
	query := `SELECT date, credential_id, total_tokens, total_cost, call_count, models_used, avg_burn_rate, peak_burn_rate
		FROM daily_summaries WHERE date >= ?`
	args := []any{since}
	if credentialID != "" {
		query += ` AND credential_id = ?`
		args = append(args, credentialID)
	}
	query += ` ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	defer rows.Close()

	var sums []models.DailySummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		sums = append(sums, *sum)
	}
	return sums, rows.Err()
}

func scanSummary(row interface{ Scan(...any) error }) (*models.DailySummary, error) {
	var sum models.DailySummary
	var modelsUsed string
	if err := row.Scan(&sum.Date, &sum.CredentialID, &sum.TotalTokens, &sum.TotalCost,
		&sum.CallCount, &modelsUsed, &sum.AvgBurnRate, &sum.PeakBurnRate); err != nil {
		return nil, err
	}
	if modelsUsed != "" {
		sum.ModelsUsed = strings.Split(modelsUsed, ",")
	}
	return &sum, nil
}
