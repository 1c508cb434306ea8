package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
	"github.com/example/conversation-inbox/internal/recurrence"
)

// EventRemindersDueToday is broadcast once per day with the full due list.
const EventRemindersDueToday = "reminder:due_today"

// DueReminder is one entry of the daily due-reminder broadcast.
type DueReminder struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ContactID   string    `json:"contact_id"`
	ContactName string    `json:"contact_name"`
	RemindAt    time.Time `json:"remind_at"`
}

// ListRemindersParams narrows reminder listings. Start and End must be set
// together; when present a reminder is included iff one of its occurrences
// falls inside the inclusive window.
type ListRemindersParams struct {
	Start            *time.Time
	End              *time.Time
	IncludeCompleted bool
}

// ReminderService reports due reminders once per day and advances reminders
// after they fire.
type ReminderService struct {
	reminders   persistence.ReminderRepository
	contacts    persistence.ContactRepository
	broadcaster Broadcaster
	now         func() time.Time
	logger      *slog.Logger

	// lastDailyRun guards the daily pass; it is process-local, so a restart
	// may repeat at most one broadcast for the current day.
	mu           sync.Mutex
	lastDailyRun time.Time
}

// NewReminderService constructs a ReminderService with the provided
// dependencies.
func NewReminderService(
	reminders persistence.ReminderRepository,
	contacts persistence.ContactRepository,
	broadcaster Broadcaster,
	now func() time.Time,
	logger *slog.Logger,
) *ReminderService {
	if now == nil {
		now = time.Now
	}
	return &ReminderService{
		reminders:   reminders,
		contacts:    contacts,
		broadcaster: broadcaster,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ReminderService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReminderService", operation, attrs...)
}

// RunDailyPass publishes the reminders due on the calendar day of now. The
// pass is a no-op until a full day has elapsed since the last successful
// run; the marker advances even when nothing was due, so empty days are not
// rechecked every tick.
func (s *ReminderService) RunDailyPass(ctx context.Context, now time.Time) error {
	if s == nil || s.reminders == nil {
		return fmt.Errorf("reminder service not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastDailyRun.IsZero() && now.Sub(s.lastDailyRun) < 24*time.Hour {
		return nil
	}

	logger := s.loggerWith(ctx, "RunDailyPass")

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	due, err := s.reminders.ListActiveDueBetween(ctx, dayStart, dayEnd)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list due reminders", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	entries := make([]DueReminder, 0, len(due))
	for _, reminder := range due {
		entry := DueReminder{
			ID:        reminder.ID,
			Title:     reminder.Title,
			ContactID: reminder.ContactID,
			RemindAt:  reminder.RemindAt,
		}
		if s.contacts != nil {
			contact, err := s.contacts.GetContact(ctx, reminder.ContactID)
			if err != nil {
				logger.WarnContext(ctx, "failed to resolve reminder contact",
					"reminder_id", reminder.ID,
					"contact_id", reminder.ContactID,
					"error", err,
				)
			} else {
				entry.ContactName = contact.DisplayName
			}
		}
		entries = append(entries, entry)
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(EventRemindersDueToday, map[string]any{
			"date":      dayStart,
			"reminders": entries,
		})
	}

	s.lastDailyRun = now
	logger.InfoContext(ctx, "daily reminder pass completed", "due", len(entries))
	return nil
}

// AdvanceOnFire records that a reminder fired and moves it to its next
// occurrence, or completes it. The daily pass never calls this; it is driven
// by the external fire action.
func (s *ReminderService) AdvanceOnFire(ctx context.Context, reminderID string, firedAt time.Time) (persistence.Reminder, error) {
	if s == nil || s.reminders == nil {
		return persistence.Reminder{}, fmt.Errorf("reminder service not configured")
	}

	logger := s.loggerWith(ctx, "AdvanceOnFire", "reminder_id", reminderID)

	reminder, err := s.reminders.GetReminder(ctx, reminderID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = fmt.Errorf("%w: reminder %s", ErrNotFound, reminderID)
		}
		logger.ErrorContext(ctx, "failed to load reminder", "error", err, "error_kind", ErrorKind(err))
		return persistence.Reminder{}, err
	}
	if reminder.CompletedAt != nil {
		logger.ErrorContext(ctx, "reminder already completed", "error", ErrReminderCompleted, "error_kind", ErrorKind(ErrReminderCompleted))
		return persistence.Reminder{}, ErrReminderCompleted
	}

	result := recurrence.Advance(recurrence.Schedule{
		RemindAt:           reminder.RemindAt,
		RepeatIntervalDays: reminder.RepeatIntervalDays,
		RepeatUntil:        reminder.RepeatUntil,
	})

	reminder.LastTriggeredAt = &firedAt
	if result.Completed {
		reminder.CompletedAt = &firedAt
	} else {
		reminder.RemindAt = result.Next
	}
	reminder.UpdatedAt = s.now()

	if err := s.reminders.UpdateReminder(ctx, reminder); err != nil {
		logger.ErrorContext(ctx, "failed to persist reminder advancement", "error", err, "error_kind", ErrorKind(err))
		return persistence.Reminder{}, err
	}

	logger.InfoContext(ctx, "reminder advanced", "completed", result.Completed)
	return reminder, nil
}

// ListReminders returns reminders sorted by next occurrence. Without a range
// it returns everything (optionally excluding completed). With a range, a
// reminder is included iff occurrence expansion yields an instant inside the
// window; callers should keep End reasonable since generation cost grows
// with the number of intervals.
func (s *ReminderService) ListReminders(ctx context.Context, params ListRemindersParams) ([]persistence.Reminder, error) {
	if s == nil || s.reminders == nil {
		return nil, fmt.Errorf("reminder service not configured")
	}

	reminders, err := s.reminders.ListReminders(ctx, params.IncludeCompleted)
	if err != nil {
		s.loggerWith(ctx, "ListReminders").ErrorContext(ctx, "failed to list reminders", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	if params.Start == nil || params.End == nil {
		return reminders, nil
	}

	filtered := reminders[:0]
	for _, reminder := range reminders {
		occurrences := recurrence.Occurrences(recurrence.Schedule{
			RemindAt:           reminder.RemindAt,
			RepeatIntervalDays: reminder.RepeatIntervalDays,
			RepeatUntil:        reminder.RepeatUntil,
		}, *params.Start, *params.End)
		if recurrence.AnyWithin(occurrences, *params.Start, *params.End) {
			filtered = append(filtered, reminder)
		}
	}
	return filtered, nil
}
