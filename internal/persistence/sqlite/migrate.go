package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Versions must be contiguous and are
// recorded in schema_migrations so reruns are no-ops.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "core tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS contacts (
				id TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS conversations (
				id TEXT PRIMARY KEY,
				contact_id TEXT NOT NULL REFERENCES contacts(id),
				status TEXT NOT NULL CHECK (status IN ('PENDING','ACTIVE','PAUSED','CLOSED')),
				owner_id TEXT,
				group_id TEXT,
				bot_active INTEGER NOT NULL DEFAULT 0,
				last_activity_at TEXT NOT NULL,
				closed_at TEXT,
				closed_reason TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_conversations_status_activity
				ON conversations (status, last_activity_at)`,
			`CREATE TABLE IF NOT EXISTS reminders (
				id TEXT PRIMARY KEY,
				contact_id TEXT NOT NULL REFERENCES contacts(id),
				title TEXT NOT NULL,
				description TEXT,
				remind_at TEXT NOT NULL,
				repeat_interval_days INTEGER NOT NULL DEFAULT 0,
				repeat_until TEXT,
				last_triggered_at TEXT,
				completed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reminders_remind_at ON reminders (remind_at)`,
		},
	},
	{
		version: 2,
		name:    "messages and audit events",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				conversation_id TEXT NOT NULL REFERENCES conversations(id),
				body TEXT NOT NULL,
				outbound INTEGER NOT NULL DEFAULT 0,
				delivered INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS status_events (
				id TEXT PRIMARY KEY,
				conversation_id TEXT NOT NULL REFERENCES conversations(id),
				previous_status TEXT NOT NULL,
				new_status TEXT NOT NULL,
				reason TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 3,
		name:    "settings and sessions",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				sid TEXT PRIMARY KEY,
				payload BLOB NOT NULL,
				expires_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
		},
	},
}

// Migrate applies pending schema migrations in order. Each migration runs in
// its own transaction together with its version bookkeeping row.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	row := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("statement failed: %w", err)
				}
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
				return fmt.Errorf("failed to record version: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}
