package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/conversation-inbox/internal/persistence"
	"github.com/example/conversation-inbox/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Conversations persistence.ConversationRepository
	Reminders     persistence.ReminderRepository
	Contacts      persistence.ContactRepository
	Messages      persistence.MessageRepository
	StatusEvents  persistence.StatusEventRepository
	Settings      persistence.SettingRepository
	Sessions      persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a migrated SQLiteHarness over a temporary
// file. A cleanup callback is registered with the provided testing.TB, so
// calling Close is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "inbox.db")
	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Conversations: sqlite.NewConversationRepository(pool),
		Reminders:     sqlite.NewReminderRepository(pool),
		Contacts:      sqlite.NewContactRepository(pool),
		Messages:      sqlite.NewMessageRepository(pool),
		StatusEvents:  sqlite.NewStatusEventRepository(pool),
		Settings:      sqlite.NewSettingRepository(pool),
		Sessions:      sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
