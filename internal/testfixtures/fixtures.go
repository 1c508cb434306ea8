package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

var (
	contactCounter      uint64
	conversationCounter uint64
	reminderCounter     uint64
)

// ContactOption configures a generated contact fixture.
type ContactOption func(*persistence.Contact)

// NewContact returns a deterministic contact record with optional overrides.
func NewContact(opts ...ContactOption) persistence.Contact {
	idx := atomic.AddUint64(&contactCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	contact := persistence.Contact{
		ID:          fmt.Sprintf("contact-%03d", idx),
		DisplayName: fmt.Sprintf("Contact %03d", idx),
		Phone:       fmt.Sprintf("+1555000%04d", idx),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&contact)
	}
	return contact
}

// WithContactID overrides the generated contact ID.
func WithContactID(id string) ContactOption {
	return func(c *persistence.Contact) {
		c.ID = id
	}
}

// WithContactName overrides the generated display name.
func WithContactName(name string) ContactOption {
	return func(c *persistence.Contact) {
		c.DisplayName = name
	}
}

// WithContactPhone overrides the generated phone number.
func WithContactPhone(phone string) ContactOption {
	return func(c *persistence.Contact) {
		c.Phone = phone
	}
}

// ConversationOption configures a generated conversation fixture.
type ConversationOption func(*persistence.Conversation)

// NewConversation returns a deterministic open conversation bound to the
// given contact.
func NewConversation(contactID string, opts ...ConversationOption) persistence.Conversation {
	idx := atomic.AddUint64(&conversationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	conversation := persistence.Conversation{
		ID:             fmt.Sprintf("conv-%03d", idx),
		ContactID:      contactID,
		Status:         persistence.StatusActive,
		BotActive:      true,
		LastActivityAt: created,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&conversation)
	}
	return conversation
}

// WithConversationID overrides the generated conversation ID.
func WithConversationID(id string) ConversationOption {
	return func(c *persistence.Conversation) {
		c.ID = id
	}
}

// WithStatus overrides the conversation status.
func WithStatus(status persistence.ConversationStatus) ConversationOption {
	return func(c *persistence.Conversation) {
		c.Status = status
	}
}

// WithOwner assigns the conversation to an operator.
func WithOwner(ownerID string) ConversationOption {
	return func(c *persistence.Conversation) {
		c.OwnerID = &ownerID
	}
}

// WithLastActivityAt overrides the conversation's last activity timestamp.
func WithLastActivityAt(ts time.Time) ConversationOption {
	return func(c *persistence.Conversation) {
		c.LastActivityAt = ts
	}
}

// ReminderOption configures a generated reminder fixture.
type ReminderOption func(*persistence.Reminder)

// NewReminder returns a deterministic one-shot reminder bound to the given
// contact.
func NewReminder(contactID string, opts ...ReminderOption) persistence.Reminder {
	idx := atomic.AddUint64(&reminderCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	reminder := persistence.Reminder{
		ID:        fmt.Sprintf("rem-%03d", idx),
		ContactID: contactID,
		Title:     fmt.Sprintf("Reminder %03d", idx),
		RemindAt:  created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&reminder)
	}
	return reminder
}

// WithReminderID overrides the generated reminder ID.
func WithReminderID(id string) ReminderOption {
	return func(r *persistence.Reminder) {
		r.ID = id
	}
}

// WithRemindAt overrides the next due occurrence.
func WithRemindAt(ts time.Time) ReminderOption {
	return func(r *persistence.Reminder) {
		r.RemindAt = ts
	}
}

// WithRepeat makes the reminder recur every intervalDays, optionally bounded
// by until.
func WithRepeat(intervalDays int, until *time.Time) ReminderOption {
	return func(r *persistence.Reminder) {
		r.RepeatIntervalDays = intervalDays
		r.RepeatUntil = until
	}
}

// WithCompletedAt marks the reminder as completed.
func WithCompletedAt(ts time.Time) ReminderOption {
	return func(r *persistence.Reminder) {
		r.CompletedAt = &ts
	}
}
