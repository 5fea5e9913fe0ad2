package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/persistence"
)

var (
	userCounter    uint64
	roomCounter    uint64
	entryCounter   uint64
	bookingCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures,
// the morning of the first semester day.
func ReferenceTime() time.Time {
	return referenceTime
}

// Semester is the fall term used across fixtures: 2025-09-01 through 2025-12-19.
func Semester() availability.Window {
	return availability.Window{
		Start: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC),
	}
}

// Policy combines Semester with the default 18:00 late cutoff.
func Policy() availability.Policy {
	return availability.Policy{Semester: Semester(), LateCutoff: availability.DefaultLateCutoff}
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account record.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption customises a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a student account unless options say otherwise.
func NewUserFixture(opts ...UserOption) UserFixture {
	n := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:           fmt.Sprintf("user-%d", n),
		Email:        fmt.Sprintf("user%d@example.edu", n),
		DisplayName:  fmt.Sprintf("User %d", n),
		Role:         application.RoleStudent,
		PasswordHash: "hash",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic room record.
type RoomFixture struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Amenities *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption customises a RoomFixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an active 30 seat room.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	n := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%d", n),
		Name:      fmt.Sprintf("Room %d", n),
		Location:  "Science Hall",
		Capacity:  30,
		Active:    true,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

func WithRoomLocation(location string) RoomOption {
	return func(f *RoomFixture) { f.Location = location }
}

func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

func WithRoomAmenities(amenities string) RoomOption {
	return func(f *RoomFixture) { f.Amenities = &amenities }
}

func WithRoomInactive() RoomOption {
	return func(f *RoomFixture) { f.Active = false }
}

func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Amenities: copyStringPtr(f.Amenities),
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Amenities: copyStringPtr(f.Amenities),
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Amenities: copyStringPtr(f.Amenities),
	}
}

// ------------------------- Fixed schedule fixtures -------------------------

// EntryFixture is a deterministic weekly class entry.
type EntryFixture struct {
	ID        string
	RoomID    string
	Weekday   time.Weekday
	Start     availability.TimeOfDay
	End       availability.TimeOfDay
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryOption customises an EntryFixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a Monday 09:00-11:00 class named CS101.
func NewEntryFixture(roomID string, opts ...EntryOption) EntryFixture {
	n := atomic.AddUint64(&entryCounter, 1)
	fixture := EntryFixture{
		ID:        fmt.Sprintf("entry-%d", n),
		RoomID:    roomID,
		Weekday:   time.Monday,
		Start:     availability.Clock(9, 0),
		End:       availability.Clock(11, 0),
		Label:     "CS101",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithEntryID(id string) EntryOption {
	return func(f *EntryFixture) { f.ID = id }
}

func WithEntryWeekday(day time.Weekday) EntryOption {
	return func(f *EntryFixture) { f.Weekday = day }
}

// WithEntryTimes takes "HH:MM" values and panics on malformed input.
func WithEntryTimes(start, end string) EntryOption {
	return func(f *EntryFixture) {
		f.Start = availability.MustParseTimeOfDay(start)
		f.End = availability.MustParseTimeOfDay(end)
	}
}

func WithEntryLabel(label string) EntryOption {
	return func(f *EntryFixture) { f.Label = label }
}

func (f EntryFixture) Application() application.FixedScheduleEntry {
	return application.FixedScheduleEntry{
		ID:        f.ID,
		RoomID:    f.RoomID,
		Weekday:   f.Weekday,
		Start:     f.Start,
		End:       f.End,
		Label:     f.Label,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f EntryFixture) Persistence() persistence.FixedScheduleEntry {
	return persistence.FixedScheduleEntry{
		ID:          f.ID,
		RoomID:      f.RoomID,
		DayOfWeek:   f.Weekday,
		StartMinute: int(f.Start),
		EndMinute:   int(f.End),
		Label:       f.Label,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (f EntryFixture) Input() application.FixedScheduleInput {
	return application.FixedScheduleInput{
		RoomID:  f.RoomID,
		Weekday: f.Weekday,
		Start:   f.Start,
		End:     f.End,
		Label:   f.Label,
	}
}

// ----------------------------- Booking fixtures -----------------------------

// BookingFixture is a deterministic booking record.
type BookingFixture struct {
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

// BookingOption customises a BookingFixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a confirmed 13:00-14:00 booking on Monday 2025-10-06.
func NewBookingFixture(roomID, requesterID string, opts ...BookingOption) BookingFixture {
	n := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		ID:          fmt.Sprintf("booking-%d", n),
		RoomID:      roomID,
		RequesterID: requesterID,
		Date:        Date(2025, time.October, 6),
		Start:       availability.Clock(13, 0),
		End:         availability.Clock(14, 0),
		Status:      availability.StatusConfirmed,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

func WithBookingDate(date time.Time) BookingOption {
	return func(f *BookingFixture) { f.Date = availability.DateOf(date) }
}

// WithBookingTimes takes "HH:MM" values and panics on malformed input.
func WithBookingTimes(start, end string) BookingOption {
	return func(f *BookingFixture) {
		f.Start = availability.MustParseTimeOfDay(start)
		f.End = availability.MustParseTimeOfDay(end)
	}
}

func WithBookingStatus(status availability.BookingStatus) BookingOption {
	return func(f *BookingFixture) { f.Status = status }
}

func WithBookingJustification(reason string) BookingOption {
	return func(f *BookingFixture) { f.Justification = &reason }
}

func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:            f.ID,
		RoomID:        f.RoomID,
		RequesterID:   f.RequesterID,
		Date:          f.Date,
		Start:         f.Start,
		End:           f.End,
		Status:        f.Status,
		Justification: copyStringPtr(f.Justification),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:            f.ID,
		RoomID:        f.RoomID,
		RequesterID:   f.RequesterID,
		Date:          f.Date,
		StartMinute:   int(f.Start),
		EndMinute:     int(f.End),
		Status:        string(f.Status),
		Justification: copyStringPtr(f.Justification),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ----------------------------- Session fixtures -----------------------------

// SessionFixture is a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption customises a SessionFixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session valid for a day after ReferenceTime.
func NewSessionFixture(userID string, opts ...SessionOption) SessionFixture {
	n := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%d", n),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%d", n),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) { f.Token = token }
}

func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = t }
}

func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &t }
}

func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
