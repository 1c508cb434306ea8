package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the inbox service.
type Config struct {
	HTTPPort               int
	SQLiteDSN              string
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration
	SchedulerTick          time.Duration
	AutoCloseMinutes       int
	SettingsCacheTTL       time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; invalid values are accumulated and
// reported together so a misconfigured deployment fails with one message.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:               8080,
		SQLiteDSN:              "file:inbox.db?_foreign_keys=on",
		SessionTTL:             24 * time.Hour,
		SessionCleanupInterval: 15 * time.Minute,
		SchedulerTick:          time.Minute,
		AutoCloseMinutes:       30,
		SettingsCacheTTL:       30 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("INBOX_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "INBOX_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("INBOX_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("INBOX_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "INBOX_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if cleanupValue := strings.TrimSpace(os.Getenv("INBOX_SESSION_CLEANUP_INTERVAL")); cleanupValue != "" {
		interval, err := time.ParseDuration(cleanupValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "INBOX_SESSION_CLEANUP_INTERVAL")
		} else {
			cfg.SessionCleanupInterval = interval
		}
	}

	if tickValue := strings.TrimSpace(os.Getenv("INBOX_SCHEDULER_TICK")); tickValue != "" {
		tick, err := time.ParseDuration(tickValue)
		if err != nil || tick <= 0 {
			invalid = append(invalid, "INBOX_SCHEDULER_TICK")
		} else {
			cfg.SchedulerTick = tick
		}
	}

	if minutesValue := strings.TrimSpace(os.Getenv("INBOX_AUTO_CLOSE_MINUTES")); minutesValue != "" {
		minutes, err := strconv.Atoi(minutesValue)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "INBOX_AUTO_CLOSE_MINUTES")
		} else {
			cfg.AutoCloseMinutes = minutes
		}
	}

	if cacheValue := strings.TrimSpace(os.Getenv("INBOX_SETTINGS_CACHE_TTL")); cacheValue != "" {
		ttl, err := time.ParseDuration(cacheValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "INBOX_SETTINGS_CACHE_TTL")
		} else {
			cfg.SettingsCacheTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
