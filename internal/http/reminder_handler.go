package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/conversation-inbox/internal/application"
	"github.com/example/conversation-inbox/internal/persistence"
)

type reminderService interface {
	ListReminders(ctx context.Context, params application.ListRemindersParams) ([]persistence.Reminder, error)
	AdvanceOnFire(ctx context.Context, reminderID string, firedAt time.Time) (persistence.Reminder, error)
}

type ReminderHandler struct {
	service   reminderService
	now       func() time.Time
	responder responder
}

func NewReminderHandler(service reminderService, now func() time.Time, logger *slog.Logger) *ReminderHandler {
	if now == nil {
		now = time.Now
	}
	return &ReminderHandler{service: service, now: now, responder: newResponder(logger)}
}

// List returns reminders, optionally narrowed to a time range. A range keeps
// the reminders with at least one occurrence inside it, so a weekly reminder
// anchored before the range still shows up.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.ListRemindersParams{
		IncludeCompleted: r.URL.Query().Get("include_completed") == "true",
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
			return
		}
		params.Start = &ts
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
			return
		}
		params.End = &ts
	}
	if (params.Start == nil) != (params.End == nil) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}

	reminders, err := h.service.ListReminders(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRemindersResponse{
		Reminders: toReminderDTOs(reminders),
	})
}

// Fire records that the reminder went off and advances or completes it.
func (h *ReminderHandler) Fire(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reminderID := strings.TrimSpace(chi.URLParam(r, "id"))
	if reminderID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReminderID)
		return
	}

	reminder, err := h.service.AdvanceOnFire(r.Context(), reminderID, h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reminderResponse{Reminder: toReminderDTO(reminder)})
}

type reminderResponse struct {
	Reminder reminderDTO `json:"reminder"`
}

type listRemindersResponse struct {
	Reminders []reminderDTO `json:"reminders"`
}

type reminderDTO struct {
	ID                 string  `json:"id"`
	ContactID          string  `json:"contact_id"`
	Title              string  `json:"title"`
	Description        *string `json:"description,omitempty"`
	RemindAt           string  `json:"remind_at"`
	RepeatIntervalDays int     `json:"repeat_interval_days,omitempty"`
	RepeatUntil        *string `json:"repeat_until,omitempty"`
	LastTriggeredAt    *string `json:"last_triggered_at,omitempty"`
	CompletedAt        *string `json:"completed_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func toReminderDTO(reminder persistence.Reminder) reminderDTO {
	return reminderDTO{
		ID:                 reminder.ID,
		ContactID:          reminder.ContactID,
		Title:              reminder.Title,
		Description:        reminder.Description,
		RemindAt:           formatTimeDTO(reminder.RemindAt),
		RepeatIntervalDays: reminder.RepeatIntervalDays,
		RepeatUntil:        formatTimePtrDTO(reminder.RepeatUntil),
		LastTriggeredAt:    formatTimePtrDTO(reminder.LastTriggeredAt),
		CompletedAt:        formatTimePtrDTO(reminder.CompletedAt),
		CreatedAt:          formatTimeDTO(reminder.CreatedAt),
		UpdatedAt:          formatTimeDTO(reminder.UpdatedAt),
	}
}

func toReminderDTOs(reminders []persistence.Reminder) []reminderDTO {
	if len(reminders) == 0 {
		return nil
	}
	out := make([]reminderDTO, 0, len(reminders))
	for _, reminder := range reminders {
		out = append(out, toReminderDTO(reminder))
	}
	return out
}

func formatTimeDTO(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func formatTimePtrDTO(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	formatted := formatTimeDTO(*ts)
	return &formatted
}
