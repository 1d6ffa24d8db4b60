package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/burndown-ai/burndown/pkg/models"
)

// InsertCredential stores a new credential. The display name is a
// uniqueness key; a clash returns ErrDuplicateName with no state change.
func (s *Store) InsertCredential(ctx context.Context, cred models.Credential) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM credentials WHERE name = ?`, cred.Name).Scan(&existing)
		if err == nil {
			return fmt.Errorf("credential %q: %w", cred.Name, ErrDuplicateName)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check credential name: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (id, name, description, secret_hash, mask, active, created_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?)`,
			cred.ID, cred.Name, cred.Description, cred.SecretHash, cred.Mask, cred.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		return nil
	})
}

// DeactivateCredential soft-deletes a credential by id or name.
func (s *Store) DeactivateCredential(ctx context.Context, idOrName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET active = 0 WHERE id = ? OR name = ?`,
		idOrName, idOrName,
	)
	if err != nil {
		return fmt.Errorf("deactivate credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate credential: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credential %q: %w", idOrName, ErrNotFound)
	}
	return nil
}

const credentialColumns = `id, name, description, secret_hash, mask, active, created_at`

// CredentialByIDOrName looks a credential up by id first, then by name.
func (s *Store) CredentialByIDOrName(ctx context.Context, idOrName string) (*models.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ? OR name = ? LIMIT 1`,
		idOrName, idOrName,
	)
	var cred models.Credential
	err := row.Scan(&cred.ID, &cred.Name, &cred.Description, &cred.SecretHash,
		&cred.Mask, &cred.Active, &cred.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("credential %q: %w", idOrName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	return &cred, nil
}

// ListCredentials returns every credential, active first, newest first.
func (s *Store) ListCredentials(ctx context.Context) ([]models.Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials ORDER BY active DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		var cred models.Credential
		if err := rows.Scan(&cred.ID, &cred.Name, &cred.Description, &cred.SecretHash,
			&cred.Mask, &cred.Active, &cred.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// CredentialUsage sums tokens, cost, and call count for one credential
// over the trailing windowDays.
func (s *Store) CredentialUsage(ctx context.Context, credentialID string, windowDays int) (*models.CredentialUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost), 0), COUNT(*)
		 FROM usage_events WHERE credential_id = ? AND timestamp >= ?`,
		credentialID, since,
	)
	usage := models.CredentialUsage{CredentialID: credentialID}
	if err := row.Scan(&usage.TotalTokens, &usage.TotalCost, &usage.CallCount); err != nil {
		return nil, fmt.Errorf("credential usage: %w", err)
	}
	return &usage, nil
}
