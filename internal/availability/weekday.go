package availability

import (
	"strconv"
	"strings"
	"time"
)

// ISOWeekday converts a weekday to ISO 8601 numbering, Monday=1 through Sunday=7.
func ISOWeekday(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}

// WeekdayFromISO converts an ISO 8601 weekday number back to time.Weekday.
func WeekdayFromISO(iso int) (time.Weekday, bool) {
	switch {
	case iso == 7:
		return time.Sunday, true
	case iso >= 1 && iso <= 6:
		return time.Weekday(iso), true
	}
	return time.Sunday, false
}

// ParseWeekday accepts English weekday names in any case, e.g. "monday" or "Mon",
// and ISO 8601 numbers "1" (Monday) through "7" (Sunday).
func ParseWeekday(value string) (time.Weekday, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) == 1 && normalized[0] >= '0' && normalized[0] <= '9' {
		iso, _ := strconv.Atoi(normalized)
		return WeekdayFromISO(iso)
	}
	if len(normalized) < 3 {
		return time.Sunday, false
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if normalized == name || normalized == name[:3] {
			return day, true
		}
	}
	return time.Sunday, false
}
