package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/conversation-inbox/internal/channel"
	"github.com/example/conversation-inbox/internal/persistence"
	"github.com/example/conversation-inbox/internal/templates"
	"github.com/example/conversation-inbox/internal/testfixtures"
)

// End-to-end sweep over real SQLite repositories: stale conversations get
// closed, audited, messaged and the fresh one survives.
func TestSweeperService_SweepAgainstSQLite(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("sweep")
	ctx := context.Background()
	now := clock.Now()

	contact := testfixtures.NewContact(testfixtures.WithContactName("Ada"), testfixtures.WithContactPhone("+15550001111"))
	if err := harness.Contacts.CreateContact(ctx, contact); err != nil {
		t.Fatalf("failed to seed contact: %v", err)
	}

	stale := testfixtures.NewConversation(contact.ID,
		testfixtures.WithConversationID("conv-stale"),
		testfixtures.WithOwner("owner-1"),
		testfixtures.WithLastActivityAt(now.Add(-2*time.Hour)),
	)
	fresh := testfixtures.NewConversation(contact.ID,
		testfixtures.WithConversationID("conv-fresh"),
		testfixtures.WithLastActivityAt(now.Add(-5*time.Minute)),
	)
	for _, conversation := range []persistence.Conversation{stale, fresh} {
		if err := harness.Conversations.CreateConversation(ctx, conversation); err != nil {
			t.Fatalf("failed to seed conversation %s: %v", conversation.ID, err)
		}
	}

	registry := channel.NewRegistry(time.Second)
	var deliveredText string
	registry.Register("owner-1", func(ctx context.Context, destination, text string) (string, error) {
		deliveredText = text
		return "ext-1", nil
	})

	broadcaster := &broadcasterStub{}
	svc := NewSweeperService(
		harness.Conversations,
		harness.Contacts,
		harness.Messages,
		harness.StatusEvents,
		NewSettingsCache(harness.Settings, time.Minute, clock.NowFunc()),
		registry,
		templates.NewResolver(harness.Conversations, harness.Contacts),
		broadcaster,
		ids.NextFunc(),
		30,
		nil,
	)

	closed, err := svc.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closure, got %d", closed)
	}

	got, err := harness.Conversations.GetConversation(ctx, "conv-stale")
	if err != nil {
		t.Fatalf("failed to reload conversation: %v", err)
	}
	if got.Status != persistence.StatusClosed {
		t.Fatalf("expected CLOSED, got %s", got.Status)
	}
	if got.ClosedReason == nil || *got.ClosedReason != CloseReasonInactivity {
		t.Fatalf("expected inactivity close reason, got %v", got.ClosedReason)
	}

	untouched, err := harness.Conversations.GetConversation(ctx, "conv-fresh")
	if err != nil {
		t.Fatalf("failed to reload conversation: %v", err)
	}
	if untouched.Status != persistence.StatusActive {
		t.Fatalf("expected the fresh conversation untouched, got %s", untouched.Status)
	}

	// The default template resolved the contact name into the message.
	if deliveredText == "" {
		t.Fatalf("expected the assigned owner's channel to deliver")
	}
	if want := "Ada"; !strings.Contains(deliveredText, want) {
		t.Fatalf("expected rendered message to mention %q, got %q", want, deliveredText)
	}

	// A second sweep finds nothing: CLOSED conversations are not eligible.
	closed, err = svc.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected an idempotent second sweep, got %d closures", closed)
	}
}

// The daily pass over real repositories publishes reminders due on the
// reference day, resolving contact names through the contact table.
func TestReminderService_DailyPassAgainstSQLite(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	ctx := context.Background()
	now := clock.Now()

	contact := testfixtures.NewContact(testfixtures.WithContactName("Grace"))
	if err := harness.Contacts.CreateContact(ctx, contact); err != nil {
		t.Fatalf("failed to seed contact: %v", err)
	}

	dueToday := testfixtures.NewReminder(contact.ID,
		testfixtures.WithReminderID("rem-today"),
		testfixtures.WithRemindAt(now.Add(2*time.Hour)),
	)
	dueTomorrow := testfixtures.NewReminder(contact.ID,
		testfixtures.WithReminderID("rem-tomorrow"),
		testfixtures.WithRemindAt(now.Add(26*time.Hour)),
	)
	for _, reminder := range []persistence.Reminder{dueToday, dueTomorrow} {
		if err := harness.Reminders.CreateReminder(ctx, reminder); err != nil {
			t.Fatalf("failed to seed reminder %s: %v", reminder.ID, err)
		}
	}

	broadcaster := &broadcasterStub{}
	svc := NewReminderService(harness.Reminders, harness.Contacts, broadcaster, clock.NowFunc(), nil)

	if err := svc.RunDailyPass(ctx, now); err != nil {
		t.Fatalf("RunDailyPass failed: %v", err)
	}

	events := broadcaster.byName(EventRemindersDueToday)
	if len(events) != 1 {
		t.Fatalf("expected one due-today broadcast, got %d", len(events))
	}
	entries := events[0].Payload.(map[string]any)["reminders"].([]DueReminder)
	if len(entries) != 1 {
		t.Fatalf("expected only today's reminder, got %+v", entries)
	}
	if entries[0].ID != "rem-today" || entries[0].ContactName != "Grace" {
		t.Fatalf("unexpected due entry %+v", entries[0])
	}
}
