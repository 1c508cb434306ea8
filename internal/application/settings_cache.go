package application

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/example/conversation-inbox/internal/persistence"
)

// Setting keys read by the background services.
const (
	SettingAutoCloseMinutes = "auto_close_minutes"
	SettingCloseMessage     = "close_message"
)

// DefaultCloseMessage is used when no close_message setting row exists.
const DefaultCloseMessage = "Hi {{contact.name}}, this conversation was closed due to inactivity. Reach out again any time."

// SettingsCache serves system-wide settings with a short-lived cache so the
// sweeper does not hit the settings table on every tick. Stale entries are
// refreshed lazily on read.
type SettingsCache struct {
	settings persistence.SettingRepository
	ttl      time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]settingsCacheEntry
}

type settingsCacheEntry struct {
	value     string
	found     bool
	expiresAt time.Time
}

// NewSettingsCache constructs a cache over the settings repository.
func NewSettingsCache(settings persistence.SettingRepository, ttl time.Duration, now func() time.Time) *SettingsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &SettingsCache{
		settings: settings,
		ttl:      ttl,
		now:      now,
		entries:  make(map[string]settingsCacheEntry),
	}
}

// AutoCloseMinutes returns the configured inactivity threshold in minutes,
// falling back to the provided default when the stored value is missing,
// unreadable or non-positive.
func (c *SettingsCache) AutoCloseMinutes(ctx context.Context, fallback int) int {
	value, found := c.get(ctx, SettingAutoCloseMinutes)
	if !found {
		return fallback
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return minutes
}

// CloseMessageTemplate returns the configured closing-message template or
// the built-in default.
func (c *SettingsCache) CloseMessageTemplate(ctx context.Context) string {
	value, found := c.get(ctx, SettingCloseMessage)
	if !found || value == "" {
		return DefaultCloseMessage
	}
	return value
}

// Invalidate drops all cached entries so the next read refreshes.
func (c *SettingsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]settingsCacheEntry)
	c.mu.Unlock()
}

func (c *SettingsCache) get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.settings == nil {
		return "", false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, entry.found
	}

	setting, err := c.settings.GetSetting(ctx, key)
	entry = settingsCacheEntry{expiresAt: c.now().Add(c.ttl)}
	if err == nil {
		entry.value = setting.Value
		entry.found = true
	}

	// Lookup failures other than absence are not cached as absent for the
	// full TTL; the zero entry still short-circuits repeated hits within
	// one tick, which is all the sweeper needs.
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return entry.value, entry.found
}
