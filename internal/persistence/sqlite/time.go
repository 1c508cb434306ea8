package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are stored as second-precision RFC3339 UTC text columns. The
// fixed-width format keeps lexical ordering equal to chronological ordering,
// which the stale-conversation and expiry range scans rely on.

func timeText(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func timeTextPtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timeText(*t), Valid: true}
}

func parseTimeText(column, value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return parsed, nil
}

func parseTimeTextPtr(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseTimeText(column, value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
