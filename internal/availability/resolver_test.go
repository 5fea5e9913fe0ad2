package availability

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}

func fallSemester(t *testing.T) Policy {
	t.Helper()
	return Policy{
		Semester:   Window{Start: date(t, "2025-09-01"), End: date(t, "2025-12-31")},
		LateCutoff: Clock(18, 0),
	}
}

func TestPolicy_BlockedIntervals(t *testing.T) {
	t.Run("lab 405 class applies inside the semester only", func(t *testing.T) {
		policy := fallSemester(t)
		commitments := Commitments{Classes: []ClassEntry{{
			ID:      "fx-1",
			Weekday: time.Monday,
			Start:   Clock(9, 0),
			End:     Clock(10, 30),
			Label:   "CS101",
		}}}

		inside := policy.BlockedIntervals(date(t, "2025-10-06"), commitments)
		if len(inside) != 1 {
			t.Fatalf("expected one interval, got %d: %+v", len(inside), inside)
		}
		got := inside[0]
		if got.Start != Clock(9, 0) || got.End != Clock(10, 30) || got.Reason != "Class: CS101" {
			t.Fatalf("unexpected interval: %+v", got)
		}

		outside := policy.BlockedIntervals(date(t, "2026-01-05"), commitments)
		for _, interval := range outside {
			if strings.HasPrefix(interval.Reason, "Class") {
				t.Fatalf("expected no class entries outside semester, got %+v", interval)
			}
		}
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		policy := fallSemester(t)
		// 2025-09-01 and 2025-12-31 are a Monday and a Wednesday.
		commitments := Commitments{Classes: []ClassEntry{
			{ID: "mon", Weekday: time.Monday, Start: Clock(8, 0), End: Clock(9, 0), Label: "A"},
			{ID: "wed", Weekday: time.Wednesday, Start: Clock(8, 0), End: Clock(9, 0), Label: "B"},
		}}

		if got := policy.BlockedIntervals(date(t, "2025-09-01"), commitments); len(got) != 1 || got[0].RefID != "mon" {
			t.Fatalf("expected monday class on first day, got %+v", got)
		}
		if got := policy.BlockedIntervals(date(t, "2025-12-31"), commitments); len(got) != 1 || got[0].RefID != "wed" {
			t.Fatalf("expected wednesday class on last day, got %+v", got)
		}
		if got := policy.BlockedIntervals(date(t, "2025-08-31"), commitments); len(got) != 0 {
			t.Fatalf("expected nothing the day before the semester, got %+v", got)
		}
	})

	t.Run("each matching class entry appears exactly once", func(t *testing.T) {
		policy := fallSemester(t)
		commitments := Commitments{Classes: []ClassEntry{
			{ID: "a", Weekday: time.Tuesday, Start: Clock(9, 0), End: Clock(10, 0), Label: "Math"},
			{ID: "b", Weekday: time.Tuesday, Start: Clock(9, 30), End: Clock(11, 0), Label: "Physics"},
			{ID: "c", Weekday: time.Thursday, Start: Clock(9, 0), End: Clock(10, 0), Label: "Chemistry"},
		}}

		got := policy.BlockedIntervals(date(t, "2025-10-07"), commitments)
		seen := map[string]int{}
		for _, interval := range got {
			seen[interval.RefID]++
		}
		if seen["a"] != 1 || seen["b"] != 1 {
			t.Fatalf("expected tuesday classes once each, got %v", seen)
		}
		if seen["c"] != 0 {
			t.Fatalf("thursday class must not appear on tuesday, got %v", seen)
		}
	})

	t.Run("empty label renders as plain class", func(t *testing.T) {
		policy := fallSemester(t)
		got := policy.BlockedIntervals(date(t, "2025-10-06"), Commitments{Classes: []ClassEntry{
			{ID: "x", Weekday: time.Monday, Start: Clock(9, 0), End: Clock(10, 0)},
		}})
		if len(got) != 1 || got[0].Reason != "Class" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("rejected bookings never block while pending and confirmed do", func(t *testing.T) {
		policy := fallSemester(t)
		commitments := Commitments{Bookings: []BookedSlot{
			{ID: "p", Start: Clock(12, 0), End: Clock(13, 0), Status: StatusPending},
			{ID: "c", Start: Clock(14, 0), End: Clock(15, 0), Status: StatusConfirmed},
			{ID: "r", Start: Clock(16, 0), End: Clock(17, 0), Status: StatusRejected},
		}}

		got := policy.BlockedIntervals(date(t, "2026-02-10"), commitments)
		if len(got) != 2 {
			t.Fatalf("expected two intervals, got %+v", got)
		}
		for _, interval := range got {
			if interval.RefID == "r" {
				t.Fatalf("rejected booking leaked into result: %+v", interval)
			}
			if interval.Reason != ReasonBooked {
				t.Fatalf("expected booked reason, got %q", interval.Reason)
			}
		}
	})

	t.Run("output is sorted by start then end without merging", func(t *testing.T) {
		policy := fallSemester(t)
		commitments := Commitments{
			Classes: []ClassEntry{
				{ID: "late", Weekday: time.Monday, Start: Clock(15, 0), End: Clock(16, 0), Label: "L"},
				{ID: "early", Weekday: time.Monday, Start: Clock(8, 0), End: Clock(9, 30), Label: "E"},
			},
			Bookings: []BookedSlot{
				{ID: "b2", Start: Clock(8, 0), End: Clock(9, 0), Status: StatusConfirmed},
				{ID: "b1", Start: Clock(10, 0), End: Clock(11, 0), Status: StatusPending},
				{ID: "b3", Start: Clock(10, 0), End: Clock(11, 0), Status: StatusPending},
			},
		}

		got := policy.BlockedIntervals(date(t, "2025-10-06"), commitments)
		if len(got) != 5 {
			t.Fatalf("expected five raw intervals, got %d", len(got))
		}
		if !sort.SliceIsSorted(got, func(i, j int) bool {
			if got[i].Start != got[j].Start {
				return got[i].Start < got[j].Start
			}
			return got[i].End < got[j].End
		}) {
			t.Fatalf("intervals are not sorted: %+v", got)
		}
		order := []string{got[0].RefID, got[1].RefID, got[2].RefID, got[3].RefID, got[4].RefID}
		want := []string{"b2", "early", "b1", "b3", "late"}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("unexpected order %v, want %v", order, want)
			}
		}
	})

	t.Run("nothing blocked yields an empty sequence", func(t *testing.T) {
		got := fallSemester(t).BlockedIntervals(date(t, "2025-10-06"), Commitments{})
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestPolicy_InitialStatus(t *testing.T) {
	policy := fallSemester(t)

	cases := []struct {
		name  string
		start TimeOfDay
		end   TimeOfDay
		want  BookingStatus
	}{
		{name: "morning slot confirms", start: Clock(9, 0), end: Clock(10, 0), want: StatusConfirmed},
		{name: "ending exactly at cutoff confirms", start: Clock(17, 0), end: Clock(18, 0), want: StatusConfirmed},
		{name: "crossing cutoff is pending", start: Clock(17, 0), end: Clock(18, 30), want: StatusPending},
		{name: "starting at cutoff is pending", start: Clock(18, 0), end: Clock(19, 0), want: StatusPending},
		{name: "ending at midnight is pending", start: Clock(20, 0), end: Clock(24, 0), want: StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.InitialStatus(tc.start, tc.end); got != tc.want {
				t.Fatalf("InitialStatus(%s, %s) = %s, want %s", tc.start, tc.end, got, tc.want)
			}
		})
	}

	t.Run("zero cutoff falls back to six pm", func(t *testing.T) {
		if !(Policy{}).RequiresApproval(Clock(18, 0), Clock(18, 30)) {
			t.Fatalf("expected default cutoff to require approval")
		}
	})
}

func TestConflicts(t *testing.T) {
	blocked := []Interval{
		{Start: Clock(9, 0), End: Clock(10, 30), Source: SourceClass, RefID: "class", Reason: "Class: CS101"},
		{Start: Clock(11, 0), End: Clock(12, 0), Source: SourceBooking, RefID: "confirmed", Status: StatusConfirmed},
		{Start: Clock(13, 0), End: Clock(14, 0), Source: SourceBooking, RefID: "pending", Status: StatusPending},
	}

	t.Run("class entries and confirmed bookings conflict", func(t *testing.T) {
		got := Conflicts(Interval{Start: Clock(10, 0), End: Clock(11, 30)}, blocked)
		if len(got) != 2 || got[0].RefID != "class" || got[1].RefID != "confirmed" {
			t.Fatalf("unexpected conflicts: %+v", got)
		}
	})

	t.Run("pending bookings do not conflict", func(t *testing.T) {
		if got := Conflicts(Interval{Start: Clock(13, 30), End: Clock(14, 30)}, blocked); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		if got := Conflicts(Interval{Start: Clock(10, 30), End: Clock(11, 0)}, blocked); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("a booking does not conflict with itself", func(t *testing.T) {
		self := Interval{Start: Clock(11, 0), End: Clock(12, 0), Source: SourceBooking, RefID: "confirmed"}
		if got := Conflicts(self, blocked); len(got) != 0 {
			t.Fatalf("expected no self conflict, got %+v", got)
		}
	})
}
