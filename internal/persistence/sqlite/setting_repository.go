package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/conversation-inbox/internal/persistence"
)

// SettingRepository implements persistence.SettingRepository backed by SQLite.
type SettingRepository struct {
	pool *ConnectionPool
}

// NewSettingRepository creates a new SQLite setting repository.
func NewSettingRepository(pool *ConnectionPool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// GetSetting retrieves a settings row by key.
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (persistence.Setting, error) {
	query := `SELECT key, value, updated_at FROM settings WHERE key = ?`

	var setting persistence.Setting
	var updatedStr string
	err := r.pool.db.QueryRowContext(ctx, query, key).Scan(&setting.Key, &setting.Value, &updatedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Setting{}, persistence.ErrNotFound
		}
		return persistence.Setting{}, mapError(err)
	}

	if setting.UpdatedAt, err = parseTimeText("updated_at", updatedStr); err != nil {
		return persistence.Setting{}, err
	}
	return setting, nil
}

// PutSetting inserts or replaces a settings row.
func (r *SettingRepository) PutSetting(ctx context.Context, setting persistence.Setting) error {
	if setting.Key == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query, setting.Key, setting.Value, timeText(setting.UpdatedAt))
	if err != nil {
		return mapError(err)
	}
	return nil
}
