package recurrence

import "time"

// Schedule describes when a reminder fires and how it repeats. A
// RepeatIntervalDays of zero means the reminder does not repeat. Interval
// validity (positive day counts) is enforced where reminders are created,
// not here.
type Schedule struct {
	RemindAt           time.Time
	RepeatIntervalDays int
	RepeatUntil        *time.Time
}

// DefaultHorizon bounds occurrence generation for repeating schedules
// without an explicit end, preventing unbounded expansion.
const DefaultHorizon = 365 * 24 * time.Hour

// Advancement is the outcome of advancing a schedule past a fired
// occurrence.
type Advancement struct {
	Next      time.Time
	Completed bool
}

// IsDueToday reports whether the schedule's next occurrence falls within the
// calendar day of the reference instant, inclusive on both ends. The day
// window is derived from the reference's own date and location rather than
// the UTC day.
func IsDueToday(s Schedule, reference time.Time) bool {
	start := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, reference.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return !s.RemindAt.Before(start) && !s.RemindAt.After(end)
}

// Occurrences expands the schedule into candidate instants for the given
// range. Non-repeating schedules yield at most the anchor itself when it
// falls inside the range. Repeating schedules yield every generated instant
// up to min(rangeEnd, RepeatUntil or rangeStart+DefaultHorizon) without
// filtering to the range, so callers can test range membership themselves
// via AnyWithin. Day arithmetic is plain day-count addition; DST shifts are
// not compensated.
func Occurrences(s Schedule, rangeStart, rangeEnd time.Time) []time.Time {
	if s.RepeatIntervalDays <= 0 {
		if s.RemindAt.Before(rangeStart) || s.RemindAt.After(rangeEnd) {
			return nil
		}
		return []time.Time{s.RemindAt}
	}

	upper := rangeEnd
	if s.RepeatUntil != nil {
		if s.RepeatUntil.Before(upper) {
			upper = *s.RepeatUntil
		}
	} else if horizon := rangeStart.Add(DefaultHorizon); horizon.Before(upper) {
		upper = horizon
	}

	step := time.Duration(s.RepeatIntervalDays) * 24 * time.Hour
	var occurrences []time.Time
	for candidate := s.RemindAt; !candidate.After(upper); candidate = candidate.Add(step) {
		occurrences = append(occurrences, candidate)
	}
	return occurrences
}

// AnyWithin reports whether any of the instants falls inside the inclusive
// [start, end] window.
func AnyWithin(occurrences []time.Time, start, end time.Time) bool {
	for _, occurrence := range occurrences {
		if !occurrence.Before(start) && !occurrence.After(end) {
			return true
		}
	}
	return false
}

// Advance computes the schedule's state after an occurrence fired.
// Non-repeating schedules complete immediately. A repeating schedule moves
// to RemindAt plus its interval unless the candidate would pass RepeatUntil,
// in which case the schedule completes and the anchor stays frozen. The
// next occurrence is always derived from the anchor, never from when the
// trigger actually ran.
func Advance(s Schedule) Advancement {
	if s.RepeatIntervalDays <= 0 {
		return Advancement{Completed: true}
	}

	candidate := s.RemindAt.Add(time.Duration(s.RepeatIntervalDays) * 24 * time.Hour)
	if s.RepeatUntil != nil && candidate.After(*s.RepeatUntil) {
		return Advancement{Completed: true}
	}
	return Advancement{Next: candidate}
}
