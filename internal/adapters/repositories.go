// Package adapters binds the application repository ports to the persistence
// layer, converting between storage models and application types.
package adapters

import (
	"context"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

var (
	_ application.UserRepository          = (*UserRepository)(nil)
	_ application.CredentialStore         = (*UserRepository)(nil)
	_ application.RoomRepository          = (*RoomRepository)(nil)
	_ application.FixedScheduleRepository = (*FixedScheduleRepository)(nil)
	_ application.BookingRepository       = (*BookingRepository)(nil)
	_ application.SessionRepository       = (*SessionRepository)(nil)
)

// Repositories groups the adapters wired to one storage.
type Repositories struct {
	Users     *UserRepository
	Rooms     *RoomRepository
	Schedules *FixedScheduleRepository
	Bookings  *BookingRepository
	Sessions  *SessionRepository
}

// FromStorage adapts every repository of a SQLite storage.
func FromStorage(storage *sqlite.Storage) Repositories {
	return Repositories{
		Users:     NewUserRepository(storage.Users),
		Rooms:     NewRoomRepository(storage.Rooms),
		Schedules: NewFixedScheduleRepository(storage.Schedules),
		Bookings:  NewBookingRepository(storage.Bookings),
		Sessions:  NewSessionRepository(storage.Sessions),
	}
}

type UserRepository struct {
	repo persistence.UserRepository
}

func NewUserRepository(repo persistence.UserRepository) *UserRepository {
	return &UserRepository{repo: repo}
}

func (a *UserRepository) CreateUser(ctx context.Context, credentials application.UserCredentials) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(credentials)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, credentials.User.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *UserRepository) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *UserRepository) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

func (a *UserRepository) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(stored))
	for _, model := range stored {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type RoomRepository struct {
	repo persistence.RoomRepository
}

func NewRoomRepository(repo persistence.RoomRepository) *RoomRepository {
	return &RoomRepository{repo: repo}
}

func (a *RoomRepository) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *RoomRepository) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *RoomRepository) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *RoomRepository) ListRooms(ctx context.Context) ([]application.Room, error) {
	stored, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(stored))
	for _, model := range stored {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type FixedScheduleRepository struct {
	repo persistence.FixedScheduleRepository
}

func NewFixedScheduleRepository(repo persistence.FixedScheduleRepository) *FixedScheduleRepository {
	return &FixedScheduleRepository{repo: repo}
}

func (a *FixedScheduleRepository) CreateEntry(ctx context.Context, entry application.FixedScheduleEntry) (application.FixedScheduleEntry, error) {
	if err := a.repo.CreateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.FixedScheduleEntry{}, err
	}
	return a.GetEntry(ctx, entry.ID)
}

func (a *FixedScheduleRepository) UpdateEntry(ctx context.Context, entry application.FixedScheduleEntry) (application.FixedScheduleEntry, error) {
	if err := a.repo.UpdateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.FixedScheduleEntry{}, err
	}
	return a.GetEntry(ctx, entry.ID)
}

func (a *FixedScheduleRepository) GetEntry(ctx context.Context, id string) (application.FixedScheduleEntry, error) {
	stored, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return application.FixedScheduleEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *FixedScheduleRepository) DeleteEntry(ctx context.Context, id string) error {
	return a.repo.DeleteEntry(ctx, id)
}

func (a *FixedScheduleRepository) ListEntriesForRoom(ctx context.Context, roomID string) ([]application.FixedScheduleEntry, error) {
	stored, err := a.repo.ListEntriesForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(stored), nil
}

func (a *FixedScheduleRepository) ListEntriesForRoomWeekday(ctx context.Context, roomID string, day time.Weekday) ([]application.FixedScheduleEntry, error) {
	stored, err := a.repo.ListEntriesForRoomWeekday(ctx, roomID, day)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(stored), nil
}

type BookingRepository struct {
	repo persistence.BookingRepository
}

func NewBookingRepository(repo persistence.BookingRepository) *BookingRepository {
	return &BookingRepository{repo: repo}
}

// CreateBooking runs guard against the room's day inside the storage transaction.
func (a *BookingRepository) CreateBooking(ctx context.Context, booking application.Booking, guard application.CommitmentGuard) (application.Booking, error) {
	var check persistence.CreateGuard
	if guard != nil {
		check = func(existing persistence.DayCommitments) error {
			return guard(commitmentsOf(existing))
		}
	}
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking), check); err != nil {
		return application.Booking{}, err
	}
	return a.GetBooking(ctx, booking.ID)
}

func (a *BookingRepository) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *BookingRepository) ListBookingsForRoomDate(ctx context.Context, roomID string, date time.Time) ([]application.Booking, error) {
	stored, err := a.repo.ListBookingsForRoomDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

func (a *BookingRepository) ListBookingsByRequester(ctx context.Context, requesterID string) ([]application.Booking, error) {
	stored, err := a.repo.ListBookingsByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

func (a *BookingRepository) ListBookingsByStatus(ctx context.Context, status availability.BookingStatus) ([]application.Booking, error) {
	stored, err := a.repo.ListBookingsByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

// DecideBooking runs guard against the pending booking and its room's day
// inside the storage transaction.
func (a *BookingRepository) DecideBooking(ctx context.Context, decision application.BookingDecision, guard application.DecisionGuard) (application.Booking, error) {
	var check persistence.DecisionGuard
	if guard != nil {
		check = func(target persistence.Booking, existing persistence.DayCommitments) error {
			return guard(toApplicationBooking(target), commitmentsOf(existing))
		}
	}
	stored, err := a.repo.DecideBooking(ctx, persistence.BookingDecision{
		BookingID: decision.BookingID,
		Status:    string(decision.Status),
		UpdatedAt: decision.UpdatedAt,
		Approval:  toPersistenceApproval(decision.Approval),
	}, check)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *BookingRepository) ListApprovals(ctx context.Context, bookingID string) ([]application.ApprovalRecord, error) {
	stored, err := a.repo.ListApprovals(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	records := make([]application.ApprovalRecord, 0, len(stored))
	for _, model := range stored {
		records = append(records, application.ApprovalRecord{
			ID:           model.ID,
			BookingID:    model.BookingID,
			Action:       application.ApprovalAction(model.Action),
			ResultStatus: availability.BookingStatus(model.ResultStatus),
			ReviewerID:   model.ReviewerID,
			ReviewedAt:   model.ReviewedAt,
		})
	}
	return records, nil
}

type SessionRepository struct {
	repo persistence.SessionRepository
}

func NewSessionRepository(repo persistence.SessionRepository) *SessionRepository {
	return &SessionRepository{repo: repo}
}

func (a *SessionRepository) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func commitmentsOf(day persistence.DayCommitments) availability.Commitments {
	return application.CommitmentsOf(toApplicationEntries(day.Entries), toApplicationBookings(day.Bookings))
}
