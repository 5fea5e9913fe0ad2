package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account storage.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository exposes the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// FixedScheduleRepository stores weekly class entries.
type FixedScheduleRepository interface {
	CreateEntry(ctx context.Context, entry FixedScheduleEntry) error
	UpdateEntry(ctx context.Context, entry FixedScheduleEntry) error
	GetEntry(ctx context.Context, id string) (FixedScheduleEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntriesForRoom(ctx context.Context, roomID string) ([]FixedScheduleEntry, error)
	ListEntriesForRoomWeekday(ctx context.Context, roomID string, day time.Weekday) ([]FixedScheduleEntry, error)
}

// CreateGuard inspects the commitments of the target room/date inside the write
// transaction. Returning an error aborts the insert.
type CreateGuard func(existing DayCommitments) error

// DecisionGuard inspects the pending booking being decided and the commitments
// of its room/date inside the write transaction. Returning an error aborts the update.
type DecisionGuard func(target Booking, existing DayCommitments) error

// BookingRepository stores bookings and their approval history.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking, guard CreateGuard) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsForRoomDate(ctx context.Context, roomID string, date time.Time) ([]Booking, error)
	ListBookingsByRequester(ctx context.Context, requesterID string) ([]Booking, error)
	ListBookingsByStatus(ctx context.Context, status string) ([]Booking, error)
	// DecideBooking applies decision to a booking that is still pending and
	// records the approval in the same transaction. ErrNotFound is returned when
	// no pending booking with the identifier exists.
	DecideBooking(ctx context.Context, decision BookingDecision, guard DecisionGuard) (Booking, error)
	ListApprovals(ctx context.Context, bookingID string) ([]Approval, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
