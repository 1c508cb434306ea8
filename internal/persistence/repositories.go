package persistence

import "context"
import "time"

// ConversationFilter narrows conversation listings.
type ConversationFilter struct {
	Statuses  []ConversationStatus
	ContactID string
}

// ConversationRepository stores customer conversations.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation Conversation) error
	UpdateConversation(ctx context.Context, conversation Conversation) error
	GetConversation(ctx context.Context, id string) (Conversation, error)
	ListConversations(ctx context.Context, filter ConversationFilter) ([]Conversation, error)
	// ListStaleConversations returns conversations whose status is in the
	// provided set and whose last activity is strictly older than the cutoff.
	ListStaleConversations(ctx context.Context, statuses []ConversationStatus, olderThan time.Time) ([]Conversation, error)
}

// ReminderRepository stores contact reminders.
type ReminderRepository interface {
	CreateReminder(ctx context.Context, reminder Reminder) error
	UpdateReminder(ctx context.Context, reminder Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	// ListReminders returns reminders ordered by RemindAt ascending,
	// optionally including completed ones.
	ListReminders(ctx context.Context, includeCompleted bool) ([]Reminder, error)
	// ListActiveDueBetween returns active reminders whose RemindAt falls
	// inside the inclusive window.
	ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]Reminder, error)
}

// ContactRepository resolves contact records referenced by conversations
// and reminders.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact Contact) error
	GetContact(ctx context.Context, id string) (Contact, error)
}

// MessageRepository appends conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, message Message) error
}

// StatusEventRepository appends immutable status-change audit events.
type StatusEventRepository interface {
	AppendStatusEvent(ctx context.Context, event StatusEvent) error
}

// SettingRepository reads and writes system-wide settings rows.
type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, setting Setting) error
}

// SessionRepository stores durable web session records keyed by sid.
type SessionRepository interface {
	GetSessionRecord(ctx context.Context, sid string) (SessionRecord, error)
	// UpsertSessionRecord inserts the record or replaces an existing one
	// with the same sid.
	UpsertSessionRecord(ctx context.Context, record SessionRecord) error
	// UpdateSessionExpiry rewrites only the expiry of an existing record.
	// Missing sids report ErrNotFound.
	UpdateSessionExpiry(ctx context.Context, sid string, expiresAt, updatedAt time.Time) error
	DeleteSessionRecord(ctx context.Context, sid string) error
	DeleteAllSessionRecords(ctx context.Context) error
	CountSessionRecords(ctx context.Context) (int, error)
	// DeleteExpiredSessionRecords removes records whose expiry is at or
	// before the reference instant.
	DeleteExpiredSessionRecords(ctx context.Context, reference time.Time) error
}
