package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

// ReminderRepository implements persistence.ReminderRepository backed by
// SQLite.
type ReminderRepository struct {
	pool *ConnectionPool
}

// NewReminderRepository creates a new SQLite reminder repository.
func NewReminderRepository(pool *ConnectionPool) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

const reminderColumns = `id, contact_id, title, description, remind_at,
	repeat_interval_days, repeat_until, last_triggered_at, completed_at,
	created_at, updated_at`

// CreateReminder stores a new reminder.
func (r *ReminderRepository) CreateReminder(ctx context.Context, reminder persistence.Reminder) error {
	if reminder.ID == "" || reminder.ContactID == "" {
		return persistence.ErrConstraintViolation
	}
	if reminder.RepeatIntervalDays < 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.ContactID,
		reminder.Title,
		nullString(reminder.Description),
		timeText(reminder.RemindAt),
		reminder.RepeatIntervalDays,
		timeTextPtr(reminder.RepeatUntil),
		timeTextPtr(reminder.LastTriggeredAt),
		timeTextPtr(reminder.CompletedAt),
		timeText(reminder.CreatedAt),
		timeText(reminder.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateReminder rewrites the mutable fields of an existing reminder.
func (r *ReminderRepository) UpdateReminder(ctx context.Context, reminder persistence.Reminder) error {
	if reminder.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE reminders
		SET title = ?, description = ?, remind_at = ?, repeat_interval_days = ?,
			repeat_until = ?, last_triggered_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		reminder.Title,
		nullString(reminder.Description),
		timeText(reminder.RemindAt),
		reminder.RepeatIntervalDays,
		timeTextPtr(reminder.RepeatUntil),
		timeTextPtr(reminder.LastTriggeredAt),
		timeTextPtr(reminder.CompletedAt),
		timeText(reminder.UpdatedAt),
		reminder.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetReminder retrieves a reminder by id.
func (r *ReminderRepository) GetReminder(ctx context.Context, id string) (persistence.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`
	row := r.pool.db.QueryRowContext(ctx, query, id)
	reminder, err := scanReminder(row)
	if err != nil {
		return persistence.Reminder{}, mapError(err)
	}
	return reminder, nil
}

// ListReminders returns all reminders ordered by remind_at ascending,
// optionally including completed ones.
func (r *ReminderRepository) ListReminders(ctx context.Context, includeCompleted bool) ([]persistence.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders`
	if !includeCompleted {
		query += " WHERE completed_at IS NULL"
	}
	query += " ORDER BY remind_at ASC"
	return r.queryReminders(ctx, query)
}

// ListActiveDueBetween returns active reminders whose remind_at falls inside
// the inclusive window.
func (r *ReminderRepository) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]persistence.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE completed_at IS NULL AND remind_at >= ? AND remind_at <= ?
		ORDER BY remind_at ASC`
	return r.queryReminders(ctx, query, timeText(from), timeText(to))
}

func (r *ReminderRepository) queryReminders(ctx context.Context, query string, args ...any) ([]persistence.Reminder, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reminders []persistence.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reminders, nil
}

func scanReminder(row rowScanner) (persistence.Reminder, error) {
	var reminder persistence.Reminder
	var description, repeatUntil, lastTriggered, completed sql.NullString
	var remindAtStr, createdStr, updatedStr string

	err := row.Scan(
		&reminder.ID,
		&reminder.ContactID,
		&reminder.Title,
		&description,
		&remindAtStr,
		&reminder.RepeatIntervalDays,
		&repeatUntil,
		&lastTriggered,
		&completed,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Reminder{}, err
	}

	reminder.Description = stringPtr(description)

	if reminder.RemindAt, err = parseTimeText("remind_at", remindAtStr); err != nil {
		return persistence.Reminder{}, err
	}
	if reminder.RepeatUntil, err = parseTimeTextPtr("repeat_until", repeatUntil); err != nil {
		return persistence.Reminder{}, err
	}
	if reminder.LastTriggeredAt, err = parseTimeTextPtr("last_triggered_at", lastTriggered); err != nil {
		return persistence.Reminder{}, err
	}
	if reminder.CompletedAt, err = parseTimeTextPtr("completed_at", completed); err != nil {
		return persistence.Reminder{}, err
	}
	if reminder.CreatedAt, err = parseTimeText("created_at", createdStr); err != nil {
		return persistence.Reminder{}, err
	}
	if reminder.UpdatedAt, err = parseTimeText("updated_at", updatedStr); err != nil {
		return persistence.Reminder{}, err
	}

	return reminder, nil
}
