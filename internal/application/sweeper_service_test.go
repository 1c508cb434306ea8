package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + string(rune('0'+n))
	}
}

func newSweeperFixture(conversations *conversationRepoStub, settings map[string]string) (*SweeperService, *contactRepoStub, *messageRepoStub, *statusEventRepoStub, *channelStub, *broadcasterStub) {
	contacts := newContactRepoStub(persistence.Contact{ID: "contact-1", DisplayName: "Ada", Phone: "+15550001111"})
	messages := &messageRepoStub{}
	events := &statusEventRepoStub{}
	channel := &channelStub{}
	broadcaster := &broadcasterStub{}
	cache := NewSettingsCache(newSettingRepoStub(settings), time.Minute, nil)

	svc := NewSweeperService(
		conversations, contacts, messages, events, cache,
		channel, &templateResolverStub{}, broadcaster,
		sequentialIDs("id"), 30, nil,
	)
	return svc, contacts, messages, events, channel, broadcaster
}

func staleConversation(id string, lastActivity time.Time, owner *string) persistence.Conversation {
	return persistence.Conversation{
		ID:             id,
		ContactID:      "contact-1",
		Status:         persistence.StatusActive,
		OwnerID:        owner,
		LastActivityAt: lastActivity,
	}
}

func TestSweeperService_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("closes conversations past the threshold", func(t *testing.T) {
		t.Parallel()

		cutoff := now.Add(-30 * time.Minute)
		conversations := &conversationRepoStub{stale: []persistence.Conversation{
			staleConversation("conv-stale", cutoff.Add(-time.Second), nil),
			staleConversation("conv-fresh", cutoff.Add(time.Second), nil),
		}}
		svc, _, messages, events, _, broadcaster := newSweeperFixture(conversations, nil)

		closed, err := svc.Sweep(context.Background(), now)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if closed != 1 {
			t.Fatalf("expected 1 closed conversation, got %d", closed)
		}

		if len(conversations.updated) != 1 {
			t.Fatalf("expected one update, got %d", len(conversations.updated))
		}
		updated := conversations.updated[0]
		if updated.ID != "conv-stale" {
			t.Fatalf("expected conv-stale to be closed, got %s", updated.ID)
		}
		if updated.Status != persistence.StatusClosed {
			t.Fatalf("expected CLOSED status, got %s", updated.Status)
		}
		if updated.ClosedAt == nil || !updated.ClosedAt.Equal(now) {
			t.Fatalf("expected closed_at = now, got %v", updated.ClosedAt)
		}
		if updated.ClosedReason == nil || *updated.ClosedReason != CloseReasonInactivity {
			t.Fatalf("expected closed_reason %q, got %v", CloseReasonInactivity, updated.ClosedReason)
		}
		if !updated.BotActive {
			t.Fatalf("expected bot to be re-enabled on close")
		}
		if !updated.LastActivityAt.Equal(now) {
			t.Fatalf("expected last activity bumped to now, got %s", updated.LastActivityAt)
		}

		if len(events.events) != 1 {
			t.Fatalf("expected one status event, got %d", len(events.events))
		}
		event := events.events[0]
		if event.PreviousStatus != persistence.StatusActive || event.NewStatus != persistence.StatusClosed {
			t.Fatalf("unexpected status transition %s -> %s", event.PreviousStatus, event.NewStatus)
		}
		if event.Reason != CloseReasonInactivity {
			t.Fatalf("unexpected event reason %q", event.Reason)
		}

		if len(messages.messages) != 1 {
			t.Fatalf("expected closing message to be recorded, got %d", len(messages.messages))
		}

		for _, name := range []string{EventMessageCreated, EventConversationUpdate, EventConversationClosed} {
			if len(broadcaster.byName(name)) != 1 {
				t.Fatalf("expected one %s broadcast", name)
			}
		}
	})

	t.Run("threshold comes from settings with env fallback", func(t *testing.T) {
		t.Parallel()

		// 45-minute stored threshold: a conversation 40 minutes idle stays open.
		conversations := &conversationRepoStub{stale: []persistence.Conversation{
			staleConversation("conv-40m", now.Add(-40*time.Minute), nil),
		}}
		svc, _, _, _, _, _ := newSweeperFixture(conversations, map[string]string{SettingAutoCloseMinutes: "45"})

		closed, err := svc.Sweep(context.Background(), now)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if closed != 0 {
			t.Fatalf("expected no closures under the stored threshold, got %d", closed)
		}

		// A non-positive stored value falls back to the 30-minute default.
		conversations = &conversationRepoStub{stale: []persistence.Conversation{
			staleConversation("conv-40m", now.Add(-40*time.Minute), nil),
		}}
		svc, _, _, _, _, _ = newSweeperFixture(conversations, map[string]string{SettingAutoCloseMinutes: "0"})

		closed, err = svc.Sweep(context.Background(), now)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if closed != 1 {
			t.Fatalf("expected fallback threshold to close the conversation, got %d", closed)
		}
	})

	t.Run("one failing conversation does not abort the sweep", func(t *testing.T) {
		t.Parallel()

		old := now.Add(-2 * time.Hour)
		conversations := &conversationRepoStub{
			stale: []persistence.Conversation{
				staleConversation("conv-1", old, nil),
				staleConversation("conv-2", old, nil),
				staleConversation("conv-3", old, nil),
			},
			updateErr: map[string]error{"conv-2": errors.New("store unavailable")},
		}
		svc, _, _, _, _, _ := newSweeperFixture(conversations, nil)

		closed, err := svc.Sweep(context.Background(), now)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if closed != 2 {
			t.Fatalf("expected 2 closures despite the failure, got %d", closed)
		}
		for _, updated := range conversations.updated {
			if updated.ID == "conv-2" {
				t.Fatalf("conv-2 should not have been closed")
			}
		}
	})

	t.Run("assigned owner is tried before live owners", func(t *testing.T) {
		t.Parallel()

		owner := "owner-assigned"
		conversations := &conversationRepoStub{stale: []persistence.Conversation{
			staleConversation("conv-1", now.Add(-2*time.Hour), &owner),
		}}
		svc, _, messages, _, channel, _ := newSweeperFixture(conversations, nil)
		channel.liveOwners = []string{"owner-live", "owner-assigned"}
		channel.failFor = map[string]error{"owner-assigned": errors.New("socket gone")}

		if _, err := svc.Sweep(context.Background(), now); err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}

		if len(channel.attempts) != 2 {
			t.Fatalf("expected 2 delivery attempts, got %d", len(channel.attempts))
		}
		if channel.attempts[0].OwnerID != "owner-assigned" {
			t.Fatalf("expected assigned owner first, got %s", channel.attempts[0].OwnerID)
		}
		if channel.attempts[1].OwnerID != "owner-live" {
			t.Fatalf("expected live owner fallback, got %s", channel.attempts[1].OwnerID)
		}
		if channel.attempts[0].Destination != "+15550001111" {
			t.Fatalf("expected contact phone destination, got %s", channel.attempts[0].Destination)
		}

		if len(messages.messages) != 1 || !messages.messages[0].Delivered {
			t.Fatalf("expected recorded message with delivered=true, got %+v", messages.messages)
		}
	})

	t.Run("undeliverable closure is still recorded and broadcast", func(t *testing.T) {
		t.Parallel()

		conversations := &conversationRepoStub{stale: []persistence.Conversation{
			staleConversation("conv-1", now.Add(-2*time.Hour), nil),
		}}
		svc, _, messages, _, channel, broadcaster := newSweeperFixture(conversations, nil)
		// No assigned owner and no live sessions: zero delivery attempts.
		channel.liveOwners = nil

		closed, err := svc.Sweep(context.Background(), now)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if closed != 1 {
			t.Fatalf("expected conversation closed without delivery, got %d", closed)
		}
		if len(channel.attempts) != 0 {
			t.Fatalf("expected no delivery attempts, got %d", len(channel.attempts))
		}
		if len(messages.messages) != 1 || messages.messages[0].Delivered {
			t.Fatalf("expected recorded message with delivered=false, got %+v", messages.messages)
		}
		if len(broadcaster.byName(EventMessageCreated)) != 1 {
			t.Fatalf("expected message broadcast despite failed delivery")
		}
		if len(broadcaster.byName(EventConversationClosed)) != 1 {
			t.Fatalf("expected conversation-closed broadcast")
		}
	})

	t.Run("list failure aborts the tick with an error", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("db down")
		conversations := &conversationRepoStub{listErr: expected}
		svc, _, _, _, _, _ := newSweeperFixture(conversations, nil)

		_, err := svc.Sweep(context.Background(), now)
		if !errors.Is(err, expected) {
			t.Fatalf("expected list error to propagate, got %v", err)
		}
	})
}
