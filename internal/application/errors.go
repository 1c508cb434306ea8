package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrReminderCompleted is returned when a fire is applied to a reminder
	// that already completed; firing it again is a caller bug.
	ErrReminderCompleted = errors.New("application: reminder already completed")
)
