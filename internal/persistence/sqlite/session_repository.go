package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository backed by
// SQLite. Records are independent rows keyed by sid; concurrent upserts for
// the same sid resolve as last-write-wins.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetSessionRecord retrieves a session record by sid.
func (r *SessionRepository) GetSessionRecord(ctx context.Context, sid string) (persistence.SessionRecord, error) {
	normalized := strings.TrimSpace(sid)
	if normalized == "" {
		return persistence.SessionRecord{}, persistence.ErrNotFound
	}

	query := `SELECT sid, payload, expires_at, updated_at FROM sessions WHERE sid = ?`

	var record persistence.SessionRecord
	var expiresStr, updatedStr string
	err := r.pool.db.QueryRowContext(ctx, query, normalized).Scan(
		&record.SID,
		&record.Payload,
		&expiresStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SessionRecord{}, persistence.ErrNotFound
		}
		return persistence.SessionRecord{}, mapError(err)
	}

	if record.ExpiresAt, err = parseTimeText("expires_at", expiresStr); err != nil {
		return persistence.SessionRecord{}, err
	}
	if record.UpdatedAt, err = parseTimeText("updated_at", updatedStr); err != nil {
		return persistence.SessionRecord{}, err
	}
	return record, nil
}

// UpsertSessionRecord inserts the record or replaces an existing row with
// the same sid.
func (r *SessionRepository) UpsertSessionRecord(ctx context.Context, record persistence.SessionRecord) error {
	if strings.TrimSpace(record.SID) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (sid, payload, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sid) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		record.SID,
		record.Payload,
		timeText(record.ExpiresAt),
		timeText(record.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateSessionExpiry rewrites only the expiry of an existing record.
func (r *SessionRepository) UpdateSessionExpiry(ctx context.Context, sid string, expiresAt, updatedAt time.Time) error {
	normalized := strings.TrimSpace(sid)
	if normalized == "" {
		return persistence.ErrNotFound
	}

	query := `UPDATE sessions SET expires_at = ?, updated_at = ? WHERE sid = ?`
	result, err := r.pool.db.ExecContext(ctx, query, timeText(expiresAt), timeText(updatedAt), normalized)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteSessionRecord removes a session record by sid. Deleting a missing
// sid is not an error.
func (r *SessionRepository) DeleteSessionRecord(ctx context.Context, sid string) error {
	normalized := strings.TrimSpace(sid)
	if normalized == "" {
		return nil
	}
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = ?`, normalized)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteAllSessionRecords removes every session record unconditionally.
func (r *SessionRepository) DeleteAllSessionRecords(ctx context.Context) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// CountSessionRecords returns the number of stored session records,
// including logically expired rows not yet swept.
func (r *SessionRepository) CountSessionRecords(ctx context.Context) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteExpiredSessionRecords removes records whose expiry is at or before
// the reference instant.
func (r *SessionRepository) DeleteExpiredSessionRecords(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, timeText(reference))
	if err != nil {
		return mapError(err)
	}
	return nil
}
