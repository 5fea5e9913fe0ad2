// Package availability computes the blocked intervals of a room on a calendar date
// and classifies requested slots against the late-booking approval rule.
//
// The package performs no I/O. Callers load the weekly class entries and the
// bookings for a room/date and hand them over as Commitments.
package availability

import (
	"sort"
	"strings"
	"time"
)

// BookingStatus is the approval state of a booking.
type BookingStatus string

const (
	// StatusPending marks a request awaiting an administrator decision.
	StatusPending BookingStatus = "pending"
	// StatusConfirmed marks an accepted booking.
	StatusConfirmed BookingStatus = "confirmed"
	// StatusRejected marks a denied booking. Rejected bookings never block.
	StatusRejected BookingStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Source identifies what produced a blocked interval.
type Source string

const (
	SourceClass   Source = "class"
	SourceBooking Source = "booking"
)

// ReasonBooked is the reason attached to intervals produced by bookings.
const ReasonBooked = "Booked"

// Interval is a labelled [Start, End) range that is unavailable.
type Interval struct {
	Start  TimeOfDay
	End    TimeOfDay
	Reason string
	Source Source
	// RefID is the identifier of the class entry or booking behind the interval.
	RefID string
	// Status is set for booking intervals only.
	Status BookingStatus
}

// Overlaps reports whether the half-open ranges of a and b intersect.
// Touching ranges such as 09:00-10:00 and 10:00-11:00 do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// ClassEntry is a recurring weekly commitment of a room.
type ClassEntry struct {
	ID      string
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
	Label   string
}

// BookedSlot is an ad-hoc booking of a room on the date being resolved.
type BookedSlot struct {
	ID     string
	Start  TimeOfDay
	End    TimeOfDay
	Status BookingStatus
}

// Commitments groups everything recorded for a single room.
type Commitments struct {
	Classes  []ClassEntry
	Bookings []BookedSlot
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(w.Start)) && !d.After(DateOf(w.End))
}

// DateOf strips the clock and location from t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassReason builds the reason shown for a class interval.
func ClassReason(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "Class"
	}
	return "Class: " + label
}

// Policy carries the configured semester window and late-booking cutoff.
type Policy struct {
	Semester   Window
	LateCutoff TimeOfDay
}

// DefaultLateCutoff is 18:00.
const DefaultLateCutoff TimeOfDay = 18 * 60

// BlockedIntervals returns the unavailable intervals for the given date.
//
// Class entries matching the date's weekday are included only when the date is
// inside the semester window. Bookings in any state other than rejected are
// included. The result is sorted by start, then end; intervals are never merged.
func (p Policy) BlockedIntervals(date time.Time, commitments Commitments) []Interval {
	blocked := make([]Interval, 0, len(commitments.Classes)+len(commitments.Bookings))

	if p.Semester.Contains(date) {
		weekday := date.Weekday()
		for _, entry := range commitments.Classes {
			if entry.Weekday != weekday {
				continue
			}
			blocked = append(blocked, Interval{
				Start:  entry.Start,
				End:    entry.End,
				Reason: ClassReason(entry.Label),
				Source: SourceClass,
				RefID:  entry.ID,
			})
		}
	}

	for _, booking := range commitments.Bookings {
		if booking.Status == StatusRejected {
			continue
		}
		blocked = append(blocked, Interval{
			Start:  booking.Start,
			End:    booking.End,
			Reason: ReasonBooked,
			Source: SourceBooking,
			RefID:  booking.ID,
			Status: booking.Status,
		})
	}

	sortIntervals(blocked)
	return blocked
}

// RequiresApproval reports whether [start, end) is a late slot: it starts at or
// after the cutoff, or ends after it.
func (p Policy) RequiresApproval(start, end TimeOfDay) bool {
	cutoff := p.cutoff()
	return start >= cutoff || end > cutoff
}

// InitialStatus returns the status a new booking for [start, end) is created with.
func (p Policy) InitialStatus(start, end TimeOfDay) BookingStatus {
	if p.RequiresApproval(start, end) {
		return StatusPending
	}
	return StatusConfirmed
}

func (p Policy) cutoff() TimeOfDay {
	if p.LateCutoff <= 0 {
		return DefaultLateCutoff
	}
	return p.LateCutoff
}

// Conflicts returns the blocked intervals that prevent candidate from becoming
// confirmed: class intervals and confirmed bookings that overlap it. Pending
// bookings never conflict. An interval whose RefID equals candidate.RefID is
// skipped so a booking does not conflict with itself.
func Conflicts(candidate Interval, blocked []Interval) []Interval {
	var conflicts []Interval
	for _, interval := range blocked {
		if candidate.RefID != "" && interval.RefID == candidate.RefID && interval.Source == SourceBooking {
			continue
		}
		if interval.Source == SourceBooking && interval.Status != StatusConfirmed {
			continue
		}
		if candidate.Overlaps(interval) {
			conflicts = append(conflicts, interval)
		}
	}
	return conflicts
}

func sortIntervals(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Source != b.Source {
			return a.Source == SourceClass
		}
		return a.RefID < b.RefID
	})
}
