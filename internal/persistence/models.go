package persistence

import "time"

// User represents an account of the booking service.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable room. Rooms are deactivated, never deleted.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Amenities *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FixedScheduleEntry is a weekly class occupying a room.
// Times are stored as minutes since midnight.
type FixedScheduleEntry struct {
	ID          string
	RoomID      string
	DayOfWeek   time.Weekday
	StartMinute int
	EndMinute   int
	Label       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking is a date specific reservation request.
type Booking struct {
	ID            string
	RoomID        string
	RequesterID   string
	Date          time.Time
	StartMinute   int
	EndMinute     int
	Status        string
	Justification *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Approval records a single administrator decision on a booking.
type Approval struct {
	ID           string
	BookingID    string
	Action       string
	ResultStatus string
	ReviewerID   string
	ReviewedAt   time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// DayCommitments is everything recorded for one room on one date: the weekly
// entries for the date's weekday and every booking on the date regardless of status.
type DayCommitments struct {
	Entries  []FixedScheduleEntry
	Bookings []Booking
}

// BookingDecision describes the status change applied to a pending booking.
type BookingDecision struct {
	BookingID string
	Status    string
	UpdatedAt time.Time
	Approval  Approval
}
