package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migrations is the ordered, forward-only schema history. Each entry is
// applied exactly once; applied versions are tracked in the
// schema_migrations table. Entries must never be edited or reordered
// once released, only appended.
var migrations = []string{
	// 1: core ledger — sessions and the append-only event log.
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS usage_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		cost REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_events_time ON usage_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_session ON usage_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions(active);`,

	// 2: derived state — daily rollups, alerts, budgets.
	`CREATE TABLE IF NOT EXISTS daily_summaries (
		date TEXT NOT NULL,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		call_count INTEGER NOT NULL DEFAULT 0,
		models_used TEXT NOT NULL DEFAULT '',
		avg_burn_rate REAL NOT NULL DEFAULT 0,
		peak_burn_rate REAL NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_date ON daily_summaries(date);
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		threshold REAL NOT NULL,
		observed REAL NOT NULL,
		message TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		triggered_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_kind_time ON alerts(kind, triggered_at);
	CREATE TABLE IF NOT EXISTS budget_settings (
		month TEXT NOT NULL,
		budget_limit REAL NOT NULL DEFAULT 0,
		token_limit INTEGER NOT NULL DEFAULT 0,
		alert_thresholds TEXT NOT NULL DEFAULT '[]'
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_budget_month ON budget_settings(month);`,

	// 3: tracked credentials. Only a one-way hash of the secret is
	// ever stored.
	`CREATE TABLE IF NOT EXISTS credentials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		secret_hash TEXT NOT NULL,
		mask TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);`,

	// 4: scope the ledger by credential. '' is the default unscoped
	// credential. The daily unique index widens to (date, credential).
	`ALTER TABLE sessions ADD COLUMN credential_id TEXT NOT NULL DEFAULT '';
	ALTER TABLE usage_events ADD COLUMN credential_id TEXT NOT NULL DEFAULT '';
	ALTER TABLE alerts ADD COLUMN credential_id TEXT NOT NULL DEFAULT '';
	ALTER TABLE daily_summaries ADD COLUMN credential_id TEXT NOT NULL DEFAULT '';
	ALTER TABLE budget_settings ADD COLUMN credential_id TEXT NOT NULL DEFAULT '';
	DROP INDEX IF EXISTS idx_daily_date;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_date_cred ON daily_summaries(date, credential_id);
	DROP INDEX IF EXISTS idx_budget_month;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_budget_month_cred ON budget_settings(month, credential_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_scope ON sessions(credential_id, active);
	CREATE INDEX IF NOT EXISTS idx_events_scope_time ON usage_events(credential_id, timestamp);`,
}

// migrate applies pending migrations in order, each in its own
// transaction together with its schema_migrations marker, so a failed
// migration leaves the database at the prior version.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, stmt := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}
	return nil
}
