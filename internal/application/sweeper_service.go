package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

// CloseReasonInactivity is recorded on conversations closed by the sweeper.
const CloseReasonInactivity = "auto_inactivity"

// Broadcast event names emitted while closing a conversation.
const (
	EventMessageCreated     = "message:created"
	EventConversationUpdate = "conversation:update"
	EventConversationClosed = "conversation:closed"
)

// SweeperService closes conversations that have been inactive past the
// configured threshold and notifies the customer on a best-effort basis.
type SweeperService struct {
	conversations   persistence.ConversationRepository
	contacts        persistence.ContactRepository
	messages        persistence.MessageRepository
	events          persistence.StatusEventRepository
	settings        *SettingsCache
	channel         NotificationChannel
	templates       TemplateResolver
	broadcaster     Broadcaster
	idGenerator     func() string
	fallbackMinutes int
	logger          *slog.Logger
}

// NewSweeperService constructs a SweeperService with the provided
// dependencies. fallbackMinutes is used whenever the stored threshold is
// missing or non-positive.
func NewSweeperService(
	conversations persistence.ConversationRepository,
	contacts persistence.ContactRepository,
	messages persistence.MessageRepository,
	events persistence.StatusEventRepository,
	settings *SettingsCache,
	channel NotificationChannel,
	templates TemplateResolver,
	broadcaster Broadcaster,
	idGenerator func() string,
	fallbackMinutes int,
	logger *slog.Logger,
) *SweeperService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if fallbackMinutes <= 0 {
		fallbackMinutes = 30
	}
	return &SweeperService{
		conversations:   conversations,
		contacts:        contacts,
		messages:        messages,
		events:          events,
		settings:        settings,
		channel:         channel,
		templates:       templates,
		broadcaster:     broadcaster,
		idGenerator:     idGenerator,
		fallbackMinutes: fallbackMinutes,
		logger:          defaultLogger(logger),
	}
}

func (s *SweeperService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SweeperService", operation, attrs...)
}

// Sweep closes every conversation whose last activity is older than the
// auto-close threshold. Each conversation is an independent unit of work: a
// failure is logged and the sweep continues with the next one. Returns the
// number of conversations closed.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.conversations == nil {
		return 0, fmt.Errorf("sweeper not configured")
	}

	logger := s.loggerWith(ctx, "Sweep")

	minutes := s.fallbackMinutes
	if s.settings != nil {
		minutes = s.settings.AutoCloseMinutes(ctx, s.fallbackMinutes)
	}
	cutoff := now.Add(-time.Duration(minutes) * time.Minute)

	stale, err := s.conversations.ListStaleConversations(ctx, persistence.OpenStatuses, cutoff)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list stale conversations", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	closed := 0
	for _, conversation := range stale {
		if err := s.closeConversation(ctx, conversation, now); err != nil {
			logger.ErrorContext(ctx, "failed to close conversation",
				"conversation_id", conversation.ID,
				"error", err,
				"error_kind", ErrorKind(err),
			)
			continue
		}
		closed++
	}

	if closed > 0 {
		logger.InfoContext(ctx, "auto-closed inactive conversations", "closed", closed, "threshold_minutes", minutes)
	}
	return closed, nil
}

// closeConversation performs the closure sequence for one conversation. The
// status update is the commit point: once it succeeds the conversation is
// closed regardless of how notification turns out.
func (s *SweeperService) closeConversation(ctx context.Context, conversation persistence.Conversation, now time.Time) error {
	previous := conversation.Status
	reason := CloseReasonInactivity

	conversation.Status = persistence.StatusClosed
	conversation.ClosedAt = &now
	conversation.ClosedReason = &reason
	conversation.BotActive = true
	conversation.LastActivityAt = now
	conversation.UpdatedAt = now

	if err := s.conversations.UpdateConversation(ctx, conversation); err != nil {
		return fmt.Errorf("close commit failed: %w", err)
	}

	if s.events != nil {
		event := persistence.StatusEvent{
			ID:             s.idGenerator(),
			ConversationID: conversation.ID,
			PreviousStatus: previous,
			NewStatus:      persistence.StatusClosed,
			Reason:         reason,
			CreatedAt:      now,
		}
		if err := s.events.AppendStatusEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to append status event: %w", err)
		}
	}

	if err := s.notifyClosure(ctx, conversation, now); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(EventConversationUpdate, conversationEventPayload(conversation))
		s.broadcaster.Publish(EventConversationClosed, conversationEventPayload(conversation))
	}
	return nil
}

// notifyClosure renders the closing message, tries each candidate sender in
// order until one delivers, and records the message with the delivery
// outcome either way so operators always see what happened.
func (s *SweeperService) notifyClosure(ctx context.Context, conversation persistence.Conversation, now time.Time) error {
	logger := s.loggerWith(ctx, "Sweep", "conversation_id", conversation.ID)

	var destination string
	if s.contacts != nil {
		contact, err := s.contacts.GetContact(ctx, conversation.ContactID)
		if err != nil {
			return fmt.Errorf("failed to resolve contact: %w", err)
		}
		destination = contact.Phone
	}

	template := DefaultCloseMessage
	if s.settings != nil {
		template = s.settings.CloseMessageTemplate(ctx)
	}

	text := template
	if s.templates != nil {
		rendered, err := s.templates.Render(ctx, conversation.ID, template)
		if err != nil {
			return fmt.Errorf("failed to render closing message: %w", err)
		}
		text = rendered
	}

	delivered := false
	if s.channel != nil {
		for _, ownerID := range s.candidateSenders(conversation) {
			if _, err := s.channel.Send(ctx, ownerID, destination, text); err != nil {
				logger.WarnContext(ctx, "closing message delivery attempt failed", "owner_id", ownerID, "error", err)
				continue
			}
			delivered = true
			break
		}
	}

	message := persistence.Message{
		ID:             s.idGenerator(),
		ConversationID: conversation.ID,
		Body:           text,
		Outbound:       true,
		Delivered:      delivered,
		CreatedAt:      now,
	}
	if s.messages != nil {
		if err := s.messages.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to record closing message: %w", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(EventMessageCreated, messageEventPayload(message))
	}
	return nil
}

// candidateSenders returns the assigned owner (when present) followed by
// every owner with a live outbound session, deduplicated in that order.
func (s *SweeperService) candidateSenders(conversation persistence.Conversation) []string {
	seen := make(map[string]struct{}, 4)
	candidates := make([]string, 0, 4)

	if conversation.OwnerID != nil && *conversation.OwnerID != "" {
		candidates = append(candidates, *conversation.OwnerID)
		seen[*conversation.OwnerID] = struct{}{}
	}
	for _, ownerID := range s.channel.LiveOwnerIDs() {
		if _, dup := seen[ownerID]; dup {
			continue
		}
		seen[ownerID] = struct{}{}
		candidates = append(candidates, ownerID)
	}
	return candidates
}

func conversationEventPayload(conversation persistence.Conversation) map[string]any {
	payload := map[string]any{
		"id":               conversation.ID,
		"contact_id":       conversation.ContactID,
		"status":           string(conversation.Status),
		"bot_active":       conversation.BotActive,
		"last_activity_at": conversation.LastActivityAt,
	}
	if conversation.ClosedAt != nil {
		payload["closed_at"] = *conversation.ClosedAt
	}
	if conversation.ClosedReason != nil {
		payload["closed_reason"] = *conversation.ClosedReason
	}
	return payload
}

func messageEventPayload(message persistence.Message) map[string]any {
	return map[string]any{
		"id":              message.ID,
		"conversation_id": message.ConversationID,
		"body":            message.Body,
		"outbound":        message.Outbound,
		"delivered":       message.Delivered,
		"created_at":      message.CreatedAt,
	}
}
