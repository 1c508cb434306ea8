package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2026, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}
}

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("entity")

	first := gen.Next()
	second := gen.Next()

	if first != "entity-1" || second != "entity-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestFixturesAreDistinct(t *testing.T) {
	contact := NewContact()
	other := NewContact()
	if contact.ID == other.ID {
		t.Fatalf("expected distinct contact ids, got %q twice", contact.ID)
	}

	conversation := NewConversation(contact.ID, WithOwner("owner-1"))
	if conversation.ContactID != contact.ID {
		t.Fatalf("expected conversation bound to %q, got %q", contact.ID, conversation.ContactID)
	}
	if conversation.OwnerID == nil || *conversation.OwnerID != "owner-1" {
		t.Fatalf("expected assigned owner, got %v", conversation.OwnerID)
	}

	until := ReferenceTime().Add(30 * 24 * time.Hour)
	reminder := NewReminder(contact.ID, WithRepeat(7, &until))
	if reminder.RepeatIntervalDays != 7 || reminder.RepeatUntil == nil {
		t.Fatalf("expected repeating reminder, got %+v", reminder)
	}
}
