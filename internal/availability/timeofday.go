package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive time-of-day upper bound; "24:00" is accepted as an end time.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeOfDay indicates a time of day outside 00:00..24:00 or in an unexpected format.
var ErrInvalidTimeOfDay = errors.New("availability: invalid time of day")

// TimeOfDay is a wall clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" value. "24:00" is the only accepted value past 23:59.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	hh, mm, ok := strings.Cut(trimmed, ":")
	if !ok || !isTwoDigits(hh) || !isTwoDigits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	if minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	t := TimeOfDay(hours*60 + minutes)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return t, nil
}

func isTwoDigits(part string) bool {
	return len(part) == 2 && part[0] >= '0' && part[0] <= '9' && part[1] >= '0' && part[1] <= '9'
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on malformed input.
func MustParseTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock builds a TimeOfDay from hours and minutes without validation.
func Clock(hours, minutes int) TimeOfDay {
	return TimeOfDay(hours*60 + minutes)
}

// Valid reports whether t lies within 00:00..24:00 inclusive.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
