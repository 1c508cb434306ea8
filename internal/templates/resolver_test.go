package templates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

type conversationGetterStub struct {
	conversations map[string]persistence.Conversation
}

func (s *conversationGetterStub) CreateConversation(ctx context.Context, conversation persistence.Conversation) error {
	return nil
}

func (s *conversationGetterStub) UpdateConversation(ctx context.Context, conversation persistence.Conversation) error {
	return nil
}

func (s *conversationGetterStub) GetConversation(ctx context.Context, id string) (persistence.Conversation, error) {
	conversation, ok := s.conversations[id]
	if !ok {
		return persistence.Conversation{}, persistence.ErrNotFound
	}
	return conversation, nil
}

func (s *conversationGetterStub) ListConversations(ctx context.Context, filter persistence.ConversationFilter) ([]persistence.Conversation, error) {
	return nil, nil
}

func (s *conversationGetterStub) ListStaleConversations(ctx context.Context, statuses []persistence.ConversationStatus, olderThan time.Time) ([]persistence.Conversation, error) {
	return nil, nil
}

type contactGetterStub struct {
	contacts map[string]persistence.Contact
}

func (s *contactGetterStub) CreateContact(ctx context.Context, contact persistence.Contact) error {
	return nil
}

func (s *contactGetterStub) GetContact(ctx context.Context, id string) (persistence.Contact, error) {
	contact, ok := s.contacts[id]
	if !ok {
		return persistence.Contact{}, persistence.ErrNotFound
	}
	return contact, nil
}

func newTestResolver() *Resolver {
	conversations := &conversationGetterStub{conversations: map[string]persistence.Conversation{
		"conv-1":      {ID: "conv-1", ContactID: "contact-1"},
		"conv-orphan": {ID: "conv-orphan", ContactID: "ghost"},
	}}
	contacts := &contactGetterStub{contacts: map[string]persistence.Contact{
		"contact-1": {ID: "contact-1", DisplayName: "Ada Lovelace", Phone: "+15550001111"},
	}}
	return NewResolver(conversations, contacts)
}

func TestResolver_Render(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver()
	ctx := context.Background()

	t.Run("substitutes contact placeholders", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.Render(ctx, "conv-1", "Hi {{contact.name}}, call us back at {{contact.phone}}.")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if want := "Hi Ada Lovelace, call us back at +15550001111."; got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("repeated and unknown placeholders", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.Render(ctx, "conv-1", "{{contact.name}} / {{contact.name}} / {{contact.email}}")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if want := "Ada Lovelace / Ada Lovelace / {{contact.email}}"; got != want {
			t.Fatalf("expected unknown placeholder verbatim, got %q", got)
		}
	})

	t.Run("template without placeholders passes through", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.Render(ctx, "conv-1", "plain text")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if got != "plain text" {
			t.Fatalf("expected pass-through, got %q", got)
		}
	})

	t.Run("unknown conversation is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := resolver.Render(ctx, "missing", "x"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unresolvable contact is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := resolver.Render(ctx, "conv-orphan", "x"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
