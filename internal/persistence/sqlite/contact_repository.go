package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/conversation-inbox/internal/persistence"
)

// ContactRepository implements persistence.ContactRepository backed by SQLite.
type ContactRepository struct {
	pool *ConnectionPool
}

// NewContactRepository creates a new SQLite contact repository.
func NewContactRepository(pool *ConnectionPool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// CreateContact stores a new contact.
func (r *ContactRepository) CreateContact(ctx context.Context, contact persistence.Contact) error {
	if contact.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO contacts (id, display_name, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		contact.ID,
		contact.DisplayName,
		contact.Phone,
		timeText(contact.CreatedAt),
		timeText(contact.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetContact retrieves a contact by id.
func (r *ContactRepository) GetContact(ctx context.Context, id string) (persistence.Contact, error) {
	query := `SELECT id, display_name, phone, created_at, updated_at FROM contacts WHERE id = ?`

	var contact persistence.Contact
	var createdStr, updatedStr string
	err := r.pool.db.QueryRowContext(ctx, query, id).Scan(
		&contact.ID,
		&contact.DisplayName,
		&contact.Phone,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Contact{}, persistence.ErrNotFound
		}
		return persistence.Contact{}, mapError(err)
	}

	if contact.CreatedAt, err = parseTimeText("created_at", createdStr); err != nil {
		return persistence.Contact{}, err
	}
	if contact.UpdatedAt, err = parseTimeText("updated_at", updatedStr); err != nil {
		return persistence.Contact{}, err
	}
	return contact, nil
}
