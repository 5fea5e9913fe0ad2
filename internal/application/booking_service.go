package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/persistence"
)

// CommitmentGuard inspects the commitments of the target room/date inside the
// write transaction. Returning an error aborts the write.
type CommitmentGuard func(existing availability.Commitments) error

// DecisionGuard inspects the pending booking being decided and the commitments
// of its room/date inside the write transaction.
type DecisionGuard func(target Booking, existing availability.Commitments) error

// BookingRepository captures the persistence operations needed by BookingService.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking, guard CommitmentGuard) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsForRoomDate(ctx context.Context, roomID string, date time.Time) ([]Booking, error)
	ListBookingsByRequester(ctx context.Context, requesterID string) ([]Booking, error)
	ListBookingsByStatus(ctx context.Context, status availability.BookingStatus) ([]Booking, error)
	DecideBooking(ctx context.Context, decision BookingDecision, guard DecisionGuard) (Booking, error)
	ListApprovals(ctx context.Context, bookingID string) ([]ApprovalRecord, error)
}

// BookingService resolves room availability and runs the booking workflow.
type BookingService struct {
	rooms       RoomRepository
	schedules   FixedScheduleRepository
	bookings    BookingRepository
	cache       AvailabilityCache
	policy      availability.Policy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for the booking workflow.
func NewBookingService(rooms RoomRepository, schedules FixedScheduleRepository, bookings BookingRepository, cache AvailabilityCache, policy availability.Policy, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(rooms, schedules, bookings, cache, policy, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies with a specified logger.
func NewBookingServiceWithLogger(rooms RoomRepository, schedules FixedScheduleRepository, bookings BookingRepository, cache AvailabilityCache, policy availability.Policy, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		rooms:       rooms,
		schedules:   schedules,
		bookings:    bookings,
		cache:       cacheOrNoop(cache),
		policy:      policy,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// BlockedIntervals returns the sorted unavailable intervals of an active room on a date.
func (s *BookingService) BlockedIntervals(ctx context.Context, params BlockedIntervalsParams) (intervals []availability.Interval, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date := availability.DateOf(params.Date)
	logger := s.loggerWith(ctx, "BlockedIntervals",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", date.Format(time.DateOnly),
	)
	cached := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve blocked intervals", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "blocked intervals resolved", "result_count", len(intervals), "cached", cached)
	}()

	if err = Authorize(params.Principal, CapabilityViewRooms); err != nil {
		return
	}
	if err = s.requireActiveRoom(ctx, params.RoomID); err != nil {
		return
	}

	if hit, ok := s.cache.Get(ctx, params.RoomID, date); ok {
		cached = true
		intervals = hit
		return
	}

	version := s.cache.Version(ctx, params.RoomID)
	var commitments availability.Commitments
	commitments, err = s.loadCommitments(ctx, params.RoomID, date)
	if err != nil {
		return
	}

	intervals = s.policy.BlockedIntervals(date, commitments)
	s.cache.Store(ctx, params.RoomID, date, version, intervals)
	return
}

// SubmitBooking creates a booking for the principal. Late slots are created
// pending and need a justification; other slots are confirmed immediately and
// fail with a *SlotConflictError when they overlap a class or confirmed booking.
func (s *BookingService) SubmitBooking(ctx context.Context, params SubmitBookingParams) (booking Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date := availability.DateOf(params.Date)
	logger := s.loggerWith(ctx, "SubmitBooking",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", date.Format(time.DateOnly),
		"start", params.Start.String(),
		"end", params.End.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID, "status", string(booking.Status)).InfoContext(ctx, "booking submitted")
	}()

	if err = Authorize(params.Principal, CapabilityBook); err != nil {
		return
	}
	if !params.Start.Valid() || !params.End.Valid() || params.Start >= params.End {
		err = ErrInvalidInterval
		return
	}

	status := s.policy.InitialStatus(params.Start, params.End)
	justification := normalizeOptionalString(params.Justification)
	if status == availability.StatusPending && justification == nil {
		err = ErrMissingJustification
		return
	}

	if err = s.requireActiveRoom(ctx, params.RoomID); err != nil {
		return
	}

	booking = Booking{
		ID:            s.idGenerator(),
		RoomID:        params.RoomID,
		RequesterID:   params.Principal.UserID,
		Date:          date,
		Start:         params.Start,
		End:           params.End,
		Status:        status,
		Justification: justification,
		CreatedAt:     s.now(),
	}
	booking.UpdatedAt = booking.CreatedAt

	var guard CommitmentGuard
	if status == availability.StatusConfirmed {
		candidate := booking
		guard = func(existing availability.Commitments) error {
			return s.checkConflicts(candidate, existing)
		}
	}

	booking, err = s.bookings.CreateBooking(ctx, booking, guard)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	s.cache.InvalidateRoom(ctx, booking.RoomID)
	return
}

// DecideApproval approves or denies a pending booking and records the decision.
// Approval fails with a *SlotConflictError when a class or confirmed booking
// now overlaps the slot. Competing pending bookings are left untouched.
func (s *BookingService) DecideApproval(ctx context.Context, params DecideApprovalParams) (booking Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DecideApproval",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
		"action", string(params.Action),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide approval", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(booking.Status)).InfoContext(ctx, "approval decided")
	}()

	if err = Authorize(params.Principal, CapabilityDecideApprovals); err != nil {
		return
	}

	var status availability.BookingStatus
	switch params.Action {
	case ActionApprove:
		status = availability.StatusConfirmed
	case ActionDeny:
		status = availability.StatusRejected
	default:
		err = ErrInvalidAction
		return
	}
	if strings.TrimSpace(params.BookingID) == "" {
		err = ErrNotFound
		return
	}

	now := s.now()
	decision := BookingDecision{
		BookingID: params.BookingID,
		Status:    status,
		UpdatedAt: now,
		Approval: ApprovalRecord{
			ID:           s.idGenerator(),
			BookingID:    params.BookingID,
			Action:       params.Action,
			ResultStatus: status,
			ReviewerID:   params.Principal.UserID,
			ReviewedAt:   now,
		},
	}

	var guard DecisionGuard
	if status == availability.StatusConfirmed {
		guard = func(target Booking, existing availability.Commitments) error {
			return s.checkConflicts(target, existing)
		}
	}

	booking, err = s.bookings.DecideBooking(ctx, decision, guard)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	s.cache.InvalidateRoom(ctx, booking.RoomID)
	return
}

// GetBooking returns a booking visible to its requester or an administrator.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if err := s.ready(); err != nil {
		return Booking{}, err
	}
	if err := Authorize(principal, CapabilityBook); err != nil {
		return Booking{}, err
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	if booking.RequesterID != principal.UserID && !principal.IsAdmin() {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

// ListMyBookings returns the principal's bookings, newest date first.
func (s *BookingService) ListMyBookings(ctx context.Context, principal Principal) ([]Booking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := Authorize(principal, CapabilityBook); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListBookingsByRequester(ctx, principal.UserID)
	if err != nil {
		return nil, mapBookingRepoError(err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

// ListPendingBookings returns the approval queue, oldest request first.
func (s *BookingService) ListPendingBookings(ctx context.Context, principal Principal) ([]Booking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := Authorize(principal, CapabilityDecideApprovals); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListBookingsByStatus(ctx, availability.StatusPending)
	if err != nil {
		return nil, mapBookingRepoError(err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

// ListApprovals returns the decision history of a booking.
func (s *BookingService) ListApprovals(ctx context.Context, principal Principal, bookingID string) ([]ApprovalRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := Authorize(principal, CapabilityDecideApprovals); err != nil {
		return nil, err
	}
	if _, err := s.bookings.GetBooking(ctx, bookingID); err != nil {
		return nil, mapBookingRepoError(err)
	}

	records, err := s.bookings.ListApprovals(ctx, bookingID)
	if err != nil {
		return nil, mapBookingRepoError(err)
	}
	if records == nil {
		records = []ApprovalRecord{}
	}
	return records, nil
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.rooms == nil || s.schedules == nil || s.bookings == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

func (s *BookingService) requireActiveRoom(ctx context.Context, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrNotFound
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return mapRoomRepoError(err)
	}
	if !room.Active {
		return ErrNotFound
	}
	return nil
}

func (s *BookingService) loadCommitments(ctx context.Context, roomID string, date time.Time) (availability.Commitments, error) {
	entries, err := s.schedules.ListEntriesForRoomWeekday(ctx, roomID, date.Weekday())
	if err != nil {
		return availability.Commitments{}, mapFixedScheduleRepoError(err)
	}
	bookings, err := s.bookings.ListBookingsForRoomDate(ctx, roomID, date)
	if err != nil {
		return availability.Commitments{}, mapBookingRepoError(err)
	}
	return CommitmentsOf(entries, bookings), nil
}

func (s *BookingService) checkConflicts(target Booking, existing availability.Commitments) error {
	blocked := s.policy.BlockedIntervals(target.Date, existing)
	candidate := availability.Interval{
		Start:  target.Start,
		End:    target.End,
		Source: availability.SourceBooking,
		RefID:  target.ID,
	}
	if conflicts := availability.Conflicts(candidate, blocked); len(conflicts) > 0 {
		return &SlotConflictError{Conflicts: conflicts}
	}
	return nil
}

// CommitmentsOf converts stored entries and bookings into resolver input.
func CommitmentsOf(entries []FixedScheduleEntry, bookings []Booking) availability.Commitments {
	commitments := availability.Commitments{
		Classes:  make([]availability.ClassEntry, 0, len(entries)),
		Bookings: make([]availability.BookedSlot, 0, len(bookings)),
	}
	for _, entry := range entries {
		commitments.Classes = append(commitments.Classes, availability.ClassEntry{
			ID:      entry.ID,
			Weekday: entry.Weekday,
			Start:   entry.Start,
			End:     entry.End,
			Label:   entry.Label,
		})
	}
	for _, booking := range bookings {
		commitments.Bookings = append(commitments.Bookings, availability.BookedSlot{
			ID:     booking.ID,
			Start:  booking.Start,
			End:    booking.End,
			Status: booking.Status,
		})
	}
	return commitments
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	var conflict *SlotConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return ErrInvalidInterval
	}
	return err
}
