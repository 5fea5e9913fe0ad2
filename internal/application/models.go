package application

import (
	"time"

	"github.com/example/room-booking/internal/availability"
)

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Location  string
	Capacity  int
	Amenities *string
}

// Room represents a bookable room. Inactive rooms keep their history but
// accept no new bookings.
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

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// ListRoomsParams narrows the room catalog.
type ListRoomsParams struct {
	Principal   Principal
	MinCapacity int
	// Location matches as a case-folded substring.
	Location string
	// IncludeInactive is honoured for administrators only.
	IncludeInactive bool
}

// FixedScheduleInput captures a weekly class entry.
type FixedScheduleInput struct {
	RoomID  string
	Weekday time.Weekday
	Start   availability.TimeOfDay
	End     availability.TimeOfDay
	Label   string
}

// FixedScheduleEntry is a weekly class that blocks a room during the semester.
type FixedScheduleEntry struct {
	ID        string
	RoomID    string
	Weekday   time.Weekday
	Start     availability.TimeOfDay
	End       availability.TimeOfDay
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateFixedScheduleParams wraps the data required to create an entry.
type CreateFixedScheduleParams struct {
	Principal Principal
	Input     FixedScheduleInput
}

// UpdateFixedScheduleParams wraps the data required to update an entry.
type UpdateFixedScheduleParams struct {
	Principal Principal
	EntryID   string
	Input     FixedScheduleInput
}

// Booking is a request to use a room on one date.
type Booking struct {
	ID            string
	RoomID        string
	RequesterID   string
	Date          time.Time
	Start         availability.TimeOfDay
	End           availability.TimeOfDay
	Status        availability.BookingStatus
	Justification *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BlockedIntervalsParams identifies the room and date to resolve.
type BlockedIntervalsParams struct {
	Principal Principal
	RoomID    string
	Date      time.Time
}

// SubmitBookingParams wraps a booking request made by the principal.
type SubmitBookingParams struct {
	Principal     Principal
	RoomID        string
	Date          time.Time
	Start         availability.TimeOfDay
	End           availability.TimeOfDay
	Justification *string
}

// ApprovalAction is an administrator decision on a pending booking.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionDeny    ApprovalAction = "deny"
)

// DecideApprovalParams wraps an approval decision.
type DecideApprovalParams struct {
	Principal Principal
	BookingID string
	Action    ApprovalAction
}

// ApprovalRecord is the audit entry written for each decision.
type ApprovalRecord struct {
	ID           string
	BookingID    string
	Action       ApprovalAction
	ResultStatus availability.BookingStatus
	ReviewerID   string
	ReviewedAt   time.Time
}

// BookingDecision is the status change handed to the repository.
type BookingDecision struct {
	BookingID string
	Status    availability.BookingStatus
	UpdatedAt time.Time
	Approval  ApprovalRecord
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Role        Role
	Password    string
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
