package persistence

import "time"

// ConversationStatus enumerates the lifecycle states of a conversation.
type ConversationStatus string

const (
	// StatusPending marks a conversation awaiting first agent response.
	StatusPending ConversationStatus = "PENDING"
	// StatusActive marks a conversation with an ongoing exchange.
	StatusActive ConversationStatus = "ACTIVE"
	// StatusPaused marks a conversation parked by an agent.
	StatusPaused ConversationStatus = "PAUSED"
	// StatusClosed marks a finished conversation.
	StatusClosed ConversationStatus = "CLOSED"
)

// OpenStatuses are the states eligible for inactivity auto-close.
var OpenStatuses = []ConversationStatus{StatusPending, StatusActive, StatusPaused}

// Conversation represents an ongoing customer exchange.
//
// Status is CLOSED iff ClosedAt is non-nil; re-opening clears ClosedAt and
// ClosedReason again (handled by the inbound-message path, not here).
type Conversation struct {
	ID             string
	ContactID      string
	Status         ConversationStatus
	OwnerID        *string
	GroupID        *string
	BotActive      bool
	LastActivityAt time.Time
	ClosedAt       *time.Time
	ClosedReason   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reminder is a possibly recurring future notification tied to a contact.
//
// RemindAt always holds the next due occurrence. RepeatIntervalDays of zero
// means the reminder does not repeat. A reminder is active while CompletedAt
// is nil.
type Reminder struct {
	ID                 string
	ContactID          string
	Title              string
	Description        *string
	RemindAt           time.Time
	RepeatIntervalDays int
	RepeatUntil        *time.Time
	LastTriggeredAt    *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Contact is the customer a conversation or reminder refers to.
type Contact struct {
	ID          string
	DisplayName string
	Phone       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Message is a recorded conversation message. The sweeper records the
// rendered closing message here with its delivery outcome.
type Message struct {
	ID             string
	ConversationID string
	Body           string
	Outbound       bool
	Delivered      bool
	CreatedAt      time.Time
}

// StatusEvent is an immutable audit record of a conversation status change.
type StatusEvent struct {
	ID             string
	ConversationID string
	PreviousStatus ConversationStatus
	NewStatus      ConversationStatus
	Reason         string
	CreatedAt      time.Time
}

// Setting is a system-wide key/value configuration row.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SessionRecord is the durable representation of a web session. The payload
// is an opaque serialized blob owned by the session middleware's codec.
type SessionRecord struct {
	SID       string
	Payload   []byte
	ExpiresAt time.Time
	UpdatedAt time.Time
}
