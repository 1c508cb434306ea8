package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/conversation-inbox/internal/persistence"
)

// Resolver substitutes contact placeholders in message templates. Supported
// placeholders are {{contact.name}} and {{contact.phone}}; anything else is
// left verbatim.
type Resolver struct {
	conversations persistence.ConversationRepository
	contacts      persistence.ContactRepository
}

// NewResolver constructs a resolver over the conversation and contact
// repositories.
func NewResolver(conversations persistence.ConversationRepository, contacts persistence.ContactRepository) *Resolver {
	return &Resolver{conversations: conversations, contacts: contacts}
}

// Render resolves the template against the conversation's contact. An
// unknown conversation or contact is an error; the caller decides whether
// to fall back to the raw template.
func (r *Resolver) Render(ctx context.Context, conversationID, template string) (string, error) {
	conversation, err := r.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}
	contact, err := r.contacts.GetContact(ctx, conversation.ContactID)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", conversation.ContactID, err)
	}

	replacer := strings.NewReplacer(
		"{{contact.name}}", contact.DisplayName,
		"{{contact.phone}}", contact.Phone,
	)
	return replacer.Replace(template), nil
}
