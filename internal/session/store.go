package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/conversation-inbox/internal/logging"
	"github.com/example/conversation-inbox/internal/persistence"
)

// Codec serializes session payloads. The store treats the payload as an
// opaque blob; the middleware that owns the session shape supplies the codec.
type Codec interface {
	Encode(payload map[string]any) ([]byte, error)
	Decode(data []byte) (map[string]any, error)
}

// JSONCodec is the default payload codec.
type JSONCodec struct{}

// Encode marshals the payload as JSON.
func (JSONCodec) Encode(payload map[string]any) ([]byte, error) {
	return json.Marshal(payload)
}

// Decode unmarshals a JSON payload.
func (JSONCodec) Decode(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CookieMeta carries the cookie attributes relevant to expiry computation.
type CookieMeta struct {
	Expires *time.Time
	MaxAge  time.Duration
}

// Store implements the session-store contract over durable session records.
// Records are independent rows keyed by sid; concurrent writes to the same
// sid resolve as last-write-wins.
type Store struct {
	records persistence.SessionRepository
	codec   Codec
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore constructs a session store. A nil codec defaults to JSON and a
// non-positive ttl defaults to 24 hours.
func NewStore(records persistence.SessionRepository, codec Codec, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		records: records,
		codec:   codec,
		ttl:     ttl,
		now:     now,
		logger:  logger,
	}
}

func (s *Store) loggerFrom(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return s.logger
}

// Get returns the decoded payload for sid. Absent, expired and corrupt
// records all report ok=false rather than an error; expired and corrupt
// records are deleted on the way out so the session heals itself into a
// fresh login.
func (s *Store) Get(ctx context.Context, sid string) (map[string]any, bool, error) {
	record, err := s.records.GetSessionRecord(ctx, sid)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if record.ExpiresAt.Before(s.now()) {
		if err := s.records.DeleteSessionRecord(ctx, sid); err != nil {
			s.loggerFrom(ctx).WarnContext(ctx, "failed to delete expired session", "sid", sid, "error", err)
		}
		return nil, false, nil
	}

	payload, err := s.codec.Decode(record.Payload)
	if err != nil {
		s.loggerFrom(ctx).WarnContext(ctx, "deleting corrupt session record", "sid", sid, "error", err)
		if delErr := s.records.DeleteSessionRecord(ctx, sid); delErr != nil {
			s.loggerFrom(ctx).WarnContext(ctx, "failed to delete corrupt session", "sid", sid, "error", delErr)
		}
		return nil, false, nil
	}

	return payload, true, nil
}

// Set serializes the payload and upserts the record under sid. Encoding
// failures are surfaced: they indicate a caller bug, not a storage
// condition.
func (s *Store) Set(ctx context.Context, sid string, payload map[string]any, meta CookieMeta) error {
	data, err := s.codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	now := s.now()
	record := persistence.SessionRecord{
		SID:       sid,
		Payload:   data,
		ExpiresAt: s.expiryFrom(meta, now),
		UpdatedAt: now,
	}
	return s.records.UpsertSessionRecord(ctx, record)
}

// Touch extends the record's expiry without rewriting the payload. Touching
// a missing sid is a no-op.
func (s *Store) Touch(ctx context.Context, sid string, meta CookieMeta) error {
	now := s.now()
	err := s.records.UpdateSessionExpiry(ctx, sid, s.expiryFrom(meta, now), now)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	return err
}

// Destroy removes the record for sid. Destroying a missing sid is not an
// error.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	return s.records.DeleteSessionRecord(ctx, sid)
}

// Clear removes every session record unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	return s.records.DeleteAllSessionRecords(ctx)
}

// Length returns the stored record count, including logically expired rows
// the cleanup sweep has not removed yet.
func (s *Store) Length(ctx context.Context) (int, error) {
	return s.records.CountSessionRecords(ctx)
}

// RunCleanup deletes expired records on the given interval until the
// context is cancelled. Cleanup failures are logged and swallowed; hygiene
// must never disturb request serving.
func (s *Store) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.records.DeleteExpiredSessionRecords(ctx, s.now()); err != nil {
				s.logger.Warn("session cleanup sweep failed", "error", err)
			}
		}
	}
}

// expiryFrom resolves the record expiry with the precedence cookie Expires,
// then MaxAge, then the configured ttl.
func (s *Store) expiryFrom(meta CookieMeta, now time.Time) time.Time {
	if meta.Expires != nil && !meta.Expires.IsZero() {
		return *meta.Expires
	}
	if meta.MaxAge > 0 {
		return now.Add(meta.MaxAge)
	}
	return now.Add(s.ttl)
}
