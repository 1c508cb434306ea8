package sqlite

import (
	"context"

	"github.com/example/conversation-inbox/internal/persistence"
)

// MessageRepository implements persistence.MessageRepository backed by SQLite.
type MessageRepository struct {
	pool *ConnectionPool
}

// NewMessageRepository creates a new SQLite message repository.
func NewMessageRepository(pool *ConnectionPool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// CreateMessage appends a conversation message.
func (r *MessageRepository) CreateMessage(ctx context.Context, message persistence.Message) error {
	if message.ID == "" || message.ConversationID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO messages (id, conversation_id, body, outbound, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.Body,
		boolToInt(message.Outbound),
		boolToInt(message.Delivered),
		timeText(message.CreatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// StatusEventRepository implements persistence.StatusEventRepository backed
// by SQLite. Events are append-only; there is no update or delete path.
type StatusEventRepository struct {
	pool *ConnectionPool
}

// NewStatusEventRepository creates a new SQLite status event repository.
func NewStatusEventRepository(pool *ConnectionPool) *StatusEventRepository {
	return &StatusEventRepository{pool: pool}
}

// AppendStatusEvent records an immutable status-change audit event.
func (r *StatusEventRepository) AppendStatusEvent(ctx context.Context, event persistence.StatusEvent) error {
	if event.ID == "" || event.ConversationID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO status_events (id, conversation_id, previous_status, new_status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		event.ID,
		event.ConversationID,
		string(event.PreviousStatus),
		string(event.NewStatus),
		event.Reason,
		timeText(event.CreatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}
