package application

import (
	"context"
	"sync"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

type conversationRepoStub struct {
	mu        sync.Mutex
	stale     []persistence.Conversation
	listErr   error
	updated   []persistence.Conversation
	updateErr map[string]error
}

func (s *conversationRepoStub) CreateConversation(ctx context.Context, conversation persistence.Conversation) error {
	return nil
}

func (s *conversationRepoStub) UpdateConversation(ctx context.Context, conversation persistence.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.updateErr[conversation.ID]; ok {
		return err
	}
	s.updated = append(s.updated, conversation)
	return nil
}

func (s *conversationRepoStub) GetConversation(ctx context.Context, id string) (persistence.Conversation, error) {
	return persistence.Conversation{}, persistence.ErrNotFound
}

func (s *conversationRepoStub) ListConversations(ctx context.Context, filter persistence.ConversationFilter) ([]persistence.Conversation, error) {
	return nil, nil
}

func (s *conversationRepoStub) ListStaleConversations(ctx context.Context, statuses []persistence.ConversationStatus, olderThan time.Time) ([]persistence.Conversation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var matched []persistence.Conversation
	for _, conversation := range s.stale {
		if conversation.LastActivityAt.Before(olderThan) {
			matched = append(matched, conversation)
		}
	}
	return matched, nil
}

type reminderRepoStub struct {
	reminders map[string]persistence.Reminder
	listed    []persistence.Reminder
	listErr   error
	updateErr error
	updated   []persistence.Reminder
}

func newReminderRepoStub() *reminderRepoStub {
	return &reminderRepoStub{reminders: make(map[string]persistence.Reminder)}
}

func (s *reminderRepoStub) seed(reminder persistence.Reminder) {
	s.reminders[reminder.ID] = reminder
}

func (s *reminderRepoStub) CreateReminder(ctx context.Context, reminder persistence.Reminder) error {
	s.reminders[reminder.ID] = reminder
	return nil
}

func (s *reminderRepoStub) UpdateReminder(ctx context.Context, reminder persistence.Reminder) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.reminders[reminder.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.reminders[reminder.ID] = reminder
	s.updated = append(s.updated, reminder)
	return nil
}

func (s *reminderRepoStub) GetReminder(ctx context.Context, id string) (persistence.Reminder, error) {
	reminder, ok := s.reminders[id]
	if !ok {
		return persistence.Reminder{}, persistence.ErrNotFound
	}
	return reminder, nil
}

func (s *reminderRepoStub) ListReminders(ctx context.Context, includeCompleted bool) ([]persistence.Reminder, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var reminders []persistence.Reminder
	for _, reminder := range s.listed {
		if !includeCompleted && reminder.CompletedAt != nil {
			continue
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func (s *reminderRepoStub) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]persistence.Reminder, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var due []persistence.Reminder
	for _, reminder := range s.listed {
		if reminder.CompletedAt != nil {
			continue
		}
		if reminder.RemindAt.Before(from) || reminder.RemindAt.After(to) {
			continue
		}
		due = append(due, reminder)
	}
	return due, nil
}

type contactRepoStub struct {
	contacts map[string]persistence.Contact
}

func newContactRepoStub(contacts ...persistence.Contact) *contactRepoStub {
	stub := &contactRepoStub{contacts: make(map[string]persistence.Contact)}
	for _, contact := range contacts {
		stub.contacts[contact.ID] = contact
	}
	return stub
}

func (s *contactRepoStub) CreateContact(ctx context.Context, contact persistence.Contact) error {
	s.contacts[contact.ID] = contact
	return nil
}

func (s *contactRepoStub) GetContact(ctx context.Context, id string) (persistence.Contact, error) {
	contact, ok := s.contacts[id]
	if !ok {
		return persistence.Contact{}, persistence.ErrNotFound
	}
	return contact, nil
}

type messageRepoStub struct {
	createErr error
	messages  []persistence.Message
}

func (s *messageRepoStub) CreateMessage(ctx context.Context, message persistence.Message) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.messages = append(s.messages, message)
	return nil
}

type statusEventRepoStub struct {
	appendErr error
	events    []persistence.StatusEvent
}

func (s *statusEventRepoStub) AppendStatusEvent(ctx context.Context, event persistence.StatusEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

type settingRepoStub struct {
	mu       sync.Mutex
	values   map[string]string
	getCalls int
}

func newSettingRepoStub(values map[string]string) *settingRepoStub {
	if values == nil {
		values = make(map[string]string)
	}
	return &settingRepoStub{values: values}
}

func (s *settingRepoStub) GetSetting(ctx context.Context, key string) (persistence.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	value, ok := s.values[key]
	if !ok {
		return persistence.Setting{}, persistence.ErrNotFound
	}
	return persistence.Setting{Key: key, Value: value}, nil
}

func (s *settingRepoStub) PutSetting(ctx context.Context, setting persistence.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[setting.Key] = setting.Value
	return nil
}

type sendAttempt struct {
	OwnerID     string
	Destination string
	Text        string
}

type channelStub struct {
	liveOwners []string
	failFor    map[string]error
	attempts   []sendAttempt
}

func (s *channelStub) Send(ctx context.Context, ownerID, destination, text string) (string, error) {
	s.attempts = append(s.attempts, sendAttempt{OwnerID: ownerID, Destination: destination, Text: text})
	if err, ok := s.failFor[ownerID]; ok {
		return "", err
	}
	return "ext-" + ownerID, nil
}

func (s *channelStub) LiveOwnerIDs() []string {
	return append([]string(nil), s.liveOwners...)
}

type templateResolverStub struct {
	renderErr error
}

func (s *templateResolverStub) Render(ctx context.Context, conversationID, template string) (string, error) {
	if s.renderErr != nil {
		return "", s.renderErr
	}
	return "rendered:" + template, nil
}

type broadcastEvent struct {
	Event   string
	Payload any
}

type broadcasterStub struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (s *broadcasterStub) Publish(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, broadcastEvent{Event: event, Payload: payload})
}

func (s *broadcasterStub) byName(event string) []broadcastEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []broadcastEvent
	for _, e := range s.events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}
