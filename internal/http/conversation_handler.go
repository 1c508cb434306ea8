package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/conversation-inbox/internal/persistence"
)

var errInvalidStatusFilter = errors.New("unknown conversation status")

type conversationLister interface {
	ListConversations(ctx context.Context, filter persistence.ConversationFilter) ([]persistence.Conversation, error)
}

type ConversationHandler struct {
	conversations conversationLister
	responder     responder
}

func NewConversationHandler(conversations conversationLister, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, responder: newResponder(logger)}
}

// List returns conversations ordered by recency, optionally filtered by a
// comma-separated status set.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.conversations == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var filter persistence.ConversationFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := persistence.ConversationStatus(strings.ToUpper(strings.TrimSpace(part)))
			switch status {
			case persistence.StatusPending, persistence.StatusActive, persistence.StatusPaused, persistence.StatusClosed:
				filter.Statuses = append(filter.Statuses, status)
			default:
				h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStatusFilter)
				return
			}
		}
	}
	filter.ContactID = strings.TrimSpace(r.URL.Query().Get("contact_id"))

	conversations, err := h.conversations.ListConversations(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listConversationsResponse{
		Conversations: toConversationDTOs(conversations),
	})
}

type listConversationsResponse struct {
	Conversations []conversationDTO `json:"conversations"`
}

type conversationDTO struct {
	ID             string  `json:"id"`
	ContactID      string  `json:"contact_id"`
	Status         string  `json:"status"`
	OwnerID        *string `json:"owner_id,omitempty"`
	GroupID        *string `json:"group_id,omitempty"`
	BotActive      bool    `json:"bot_active"`
	LastActivityAt string  `json:"last_activity_at"`
	ClosedAt       *string `json:"closed_at,omitempty"`
	ClosedReason   *string `json:"closed_reason,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toConversationDTO(conversation persistence.Conversation) conversationDTO {
	return conversationDTO{
		ID:             conversation.ID,
		ContactID:      conversation.ContactID,
		Status:         string(conversation.Status),
		OwnerID:        conversation.OwnerID,
		GroupID:        conversation.GroupID,
		BotActive:      conversation.BotActive,
		LastActivityAt: formatTimeDTO(conversation.LastActivityAt),
		ClosedAt:       formatTimePtrDTO(conversation.ClosedAt),
		ClosedReason:   conversation.ClosedReason,
		CreatedAt:      formatTimeDTO(conversation.CreatedAt),
		UpdatedAt:      formatTimeDTO(conversation.UpdatedAt),
	}
}

func toConversationDTOs(conversations []persistence.Conversation) []conversationDTO {
	if len(conversations) == 0 {
		return nil
	}
	out := make([]conversationDTO, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, toConversationDTO(conversation))
	}
	return out
}
