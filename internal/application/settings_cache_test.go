package application

import (
	"context"
	"testing"
	"time"
)

func TestSettingsCache(t *testing.T) {
	t.Parallel()

	t.Run("caches reads within the ttl", func(t *testing.T) {
		t.Parallel()

		repo := newSettingRepoStub(map[string]string{SettingAutoCloseMinutes: "45"})
		current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		cache := NewSettingsCache(repo, time.Minute, func() time.Time { return current })

		ctx := context.Background()
		if got := cache.AutoCloseMinutes(ctx, 30); got != 45 {
			t.Fatalf("expected 45, got %d", got)
		}
		if got := cache.AutoCloseMinutes(ctx, 30); got != 45 {
			t.Fatalf("expected 45 from cache, got %d", got)
		}
		if repo.getCalls != 1 {
			t.Fatalf("expected one repository read, got %d", repo.getCalls)
		}

		// Past the ttl the value refreshes.
		repo.values[SettingAutoCloseMinutes] = "60"
		current = current.Add(2 * time.Minute)
		if got := cache.AutoCloseMinutes(ctx, 30); got != 60 {
			t.Fatalf("expected refreshed value 60, got %d", got)
		}
	})

	t.Run("falls back on missing or invalid values", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()

		cache := NewSettingsCache(newSettingRepoStub(nil), time.Minute, nil)
		if got := cache.AutoCloseMinutes(ctx, 30); got != 30 {
			t.Fatalf("expected fallback for missing value, got %d", got)
		}

		cache = NewSettingsCache(newSettingRepoStub(map[string]string{SettingAutoCloseMinutes: "-5"}), time.Minute, nil)
		if got := cache.AutoCloseMinutes(ctx, 30); got != 30 {
			t.Fatalf("expected fallback for non-positive value, got %d", got)
		}

		cache = NewSettingsCache(newSettingRepoStub(map[string]string{SettingAutoCloseMinutes: "soon"}), time.Minute, nil)
		if got := cache.AutoCloseMinutes(ctx, 30); got != 30 {
			t.Fatalf("expected fallback for unparseable value, got %d", got)
		}
	})

	t.Run("close message template defaults when unset", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()

		cache := NewSettingsCache(newSettingRepoStub(nil), time.Minute, nil)
		if got := cache.CloseMessageTemplate(ctx); got != DefaultCloseMessage {
			t.Fatalf("expected default template, got %q", got)
		}

		cache = NewSettingsCache(newSettingRepoStub(map[string]string{SettingCloseMessage: "bye {{contact.name}}"}), time.Minute, nil)
		if got := cache.CloseMessageTemplate(ctx); got != "bye {{contact.name}}" {
			t.Fatalf("expected stored template, got %q", got)
		}
	})

	t.Run("invalidate forces a refresh", func(t *testing.T) {
		t.Parallel()

		repo := newSettingRepoStub(map[string]string{SettingAutoCloseMinutes: "45"})
		cache := NewSettingsCache(repo, time.Hour, nil)

		ctx := context.Background()
		if got := cache.AutoCloseMinutes(ctx, 30); got != 45 {
			t.Fatalf("expected 45, got %d", got)
		}
		repo.values[SettingAutoCloseMinutes] = "90"
		cache.Invalidate()
		if got := cache.AutoCloseMinutes(ctx, 30); got != 90 {
			t.Fatalf("expected refreshed 90 after invalidate, got %d", got)
		}
	})
}
