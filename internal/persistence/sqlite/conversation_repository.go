package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

// ConversationRepository implements persistence.ConversationRepository
// backed by SQLite.
type ConversationRepository struct {
	pool *ConnectionPool
}

// NewConversationRepository creates a new SQLite conversation repository.
func NewConversationRepository(pool *ConnectionPool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

const conversationColumns = `id, contact_id, status, owner_id, group_id, bot_active,
	last_activity_at, closed_at, closed_reason, created_at, updated_at`

// CreateConversation stores a new conversation.
func (r *ConversationRepository) CreateConversation(ctx context.Context, conversation persistence.Conversation) error {
	if conversation.ID == "" || conversation.ContactID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO conversations (` + conversationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		conversation.ID,
		conversation.ContactID,
		string(conversation.Status),
		nullString(conversation.OwnerID),
		nullString(conversation.GroupID),
		boolToInt(conversation.BotActive),
		timeText(conversation.LastActivityAt),
		timeTextPtr(conversation.ClosedAt),
		nullString(conversation.ClosedReason),
		timeText(conversation.CreatedAt),
		timeText(conversation.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateConversation rewrites the mutable fields of an existing conversation.
func (r *ConversationRepository) UpdateConversation(ctx context.Context, conversation persistence.Conversation) error {
	if conversation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE conversations
		SET status = ?, owner_id = ?, group_id = ?, bot_active = ?,
			last_activity_at = ?, closed_at = ?, closed_reason = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		string(conversation.Status),
		nullString(conversation.OwnerID),
		nullString(conversation.GroupID),
		boolToInt(conversation.BotActive),
		timeText(conversation.LastActivityAt),
		timeTextPtr(conversation.ClosedAt),
		nullString(conversation.ClosedReason),
		timeText(conversation.UpdatedAt),
		conversation.ID,
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

// GetConversation retrieves a conversation by id.
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (persistence.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	row := r.pool.db.QueryRowContext(ctx, query, id)
	conversation, err := scanConversation(row)
	if err != nil {
		return persistence.Conversation{}, mapError(err)
	}
	return conversation, nil
}

// ListConversations returns conversations matching the filter ordered by
// last activity descending.
func (r *ConversationRepository) ListConversations(ctx context.Context, filter persistence.ConversationFilter) ([]persistence.Conversation, error) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ContactID != "" {
		clauses = append(clauses, "contact_id = ?")
		args = append(args, filter.ContactID)
	}

	query := `SELECT ` + conversationColumns + ` FROM conversations`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY last_activity_at DESC"

	return r.queryConversations(ctx, query, args...)
}

// ListStaleConversations returns conversations in the given statuses whose
// last activity is strictly older than the cutoff.
func (r *ConversationRepository) ListStaleConversations(ctx context.Context, statuses []persistence.ConversationStatus, olderThan time.Time) ([]persistence.Conversation, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, 0, len(statuses)+1)
	for i, status := range statuses {
		placeholders[i] = "?"
		args = append(args, string(status))
	}
	args = append(args, timeText(olderThan))

	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE status IN (` + strings.Join(placeholders, ", ") + `) AND last_activity_at < ?
		ORDER BY last_activity_at ASC`

	return r.queryConversations(ctx, query, args...)
}

func (r *ConversationRepository) queryConversations(ctx context.Context, query string, args ...any) ([]persistence.Conversation, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var conversations []persistence.Conversation
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return conversations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (persistence.Conversation, error) {
	var conversation persistence.Conversation
	var status string
	var ownerID, groupID, closedAt, closedReason sql.NullString
	var botActive int
	var lastActivityStr, createdStr, updatedStr string

	err := row.Scan(
		&conversation.ID,
		&conversation.ContactID,
		&status,
		&ownerID,
		&groupID,
		&botActive,
		&lastActivityStr,
		&closedAt,
		&closedReason,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Conversation{}, err
	}

	conversation.Status = persistence.ConversationStatus(status)
	conversation.OwnerID = stringPtr(ownerID)
	conversation.GroupID = stringPtr(groupID)
	conversation.BotActive = botActive != 0
	conversation.ClosedReason = stringPtr(closedReason)

	if conversation.LastActivityAt, err = parseTimeText("last_activity_at", lastActivityStr); err != nil {
		return persistence.Conversation{}, err
	}
	if conversation.ClosedAt, err = parseTimeTextPtr("closed_at", closedAt); err != nil {
		return persistence.Conversation{}, err
	}
	if conversation.CreatedAt, err = parseTimeText("created_at", createdStr); err != nil {
		return persistence.Conversation{}, err
	}
	if conversation.UpdatedAt, err = parseTimeText("updated_at", updatedStr); err != nil {
		return persistence.Conversation{}, err
	}

	return conversation, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	clone := value.String
	return &clone
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
