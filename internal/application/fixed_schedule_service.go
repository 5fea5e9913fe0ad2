package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// FixedScheduleRepository captures the persistence operations for weekly class entries.
type FixedScheduleRepository interface {
	CreateEntry(ctx context.Context, entry FixedScheduleEntry) (FixedScheduleEntry, error)
	UpdateEntry(ctx context.Context, entry FixedScheduleEntry) (FixedScheduleEntry, error)
	GetEntry(ctx context.Context, id string) (FixedScheduleEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntriesForRoom(ctx context.Context, roomID string) ([]FixedScheduleEntry, error)
	ListEntriesForRoomWeekday(ctx context.Context, roomID string, day time.Weekday) ([]FixedScheduleEntry, error)
}

// FixedScheduleService maintains the weekly timetable that blocks rooms during the semester.
type FixedScheduleService struct {
	entries     FixedScheduleRepository
	rooms       RoomRepository
	cache       AvailabilityCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFixedScheduleService wires dependencies for fixed schedule operations.
func NewFixedScheduleService(entries FixedScheduleRepository, rooms RoomRepository, cache AvailabilityCache, idGenerator func() string, now func() time.Time) *FixedScheduleService {
	return NewFixedScheduleServiceWithLogger(entries, rooms, cache, idGenerator, now, nil)
}

// NewFixedScheduleServiceWithLogger wires dependencies with a specified logger.
func NewFixedScheduleServiceWithLogger(entries FixedScheduleRepository, rooms RoomRepository, cache AvailabilityCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FixedScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FixedScheduleService{
		entries:     entries,
		rooms:       rooms,
		cache:       cacheOrNoop(cache),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *FixedScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FixedScheduleService", operation, attrs...)
}

// CreateEntry adds a weekly class to a room.
func (s *FixedScheduleService) CreateEntry(ctx context.Context, params CreateFixedScheduleParams) (entry FixedScheduleEntry, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateEntry",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create fixed schedule entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", entry.ID).InfoContext(ctx, "fixed schedule entry created")
	}()

	if err = Authorize(params.Principal, CapabilityManageSchedules); err != nil {
		return
	}
	if err = s.validate(ctx, params.Input); err != nil {
		return
	}

	entry = FixedScheduleEntry{
		ID:        s.idGenerator(),
		RoomID:    params.Input.RoomID,
		Weekday:   params.Input.Weekday,
		Start:     params.Input.Start,
		End:       params.Input.End,
		Label:     strings.TrimSpace(params.Input.Label),
		CreatedAt: s.now(),
	}
	entry.UpdatedAt = entry.CreatedAt

	entry, err = s.entries.CreateEntry(ctx, entry)
	if err != nil {
		err = mapFixedScheduleRepoError(err)
		return
	}

	s.cache.InvalidateRoom(ctx, entry.RoomID)
	return
}

// UpdateEntry replaces an entry. Moving it to another room invalidates both rooms.
func (s *FixedScheduleService) UpdateEntry(ctx context.Context, params UpdateFixedScheduleParams) (entry FixedScheduleEntry, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateEntry",
		"principal_id", params.Principal.UserID,
		"entry_id", params.EntryID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update fixed schedule entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fixed schedule entry updated")
	}()

	if err = Authorize(params.Principal, CapabilityManageSchedules); err != nil {
		return
	}

	var existing FixedScheduleEntry
	existing, err = s.entries.GetEntry(ctx, params.EntryID)
	if err != nil {
		err = mapFixedScheduleRepoError(err)
		return
	}
	if err = s.validate(ctx, params.Input); err != nil {
		return
	}

	updated := existing
	updated.RoomID = params.Input.RoomID
	updated.Weekday = params.Input.Weekday
	updated.Start = params.Input.Start
	updated.End = params.Input.End
	updated.Label = strings.TrimSpace(params.Input.Label)
	updated.UpdatedAt = s.now()

	entry, err = s.entries.UpdateEntry(ctx, updated)
	if err != nil {
		err = mapFixedScheduleRepoError(err)
		return
	}

	s.cache.InvalidateRoom(ctx, existing.RoomID)
	if entry.RoomID != existing.RoomID {
		s.cache.InvalidateRoom(ctx, entry.RoomID)
	}
	return
}

// DeleteEntry removes an entry.
func (s *FixedScheduleService) DeleteEntry(ctx context.Context, principal Principal, entryID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := Authorize(principal, CapabilityManageSchedules); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteEntry",
		"principal_id", principal.UserID,
		"entry_id", entryID,
	)

	existing, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		err = mapFixedScheduleRepoError(err)
		logger.ErrorContext(ctx, "failed to delete fixed schedule entry", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		err = mapFixedScheduleRepoError(err)
		logger.ErrorContext(ctx, "failed to delete fixed schedule entry", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.InvalidateRoom(ctx, existing.RoomID)
	logger.InfoContext(ctx, "fixed schedule entry deleted")
	return nil
}

// ListEntries returns the weekly timetable of a room ordered by weekday and start.
func (s *FixedScheduleService) ListEntries(ctx context.Context, principal Principal, roomID string) ([]FixedScheduleEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := Authorize(principal, CapabilityViewRooms); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapRoomRepoError(err)
	}

	entries, err := s.entries.ListEntriesForRoom(ctx, roomID)
	if err != nil {
		return nil, mapFixedScheduleRepoError(err)
	}
	if entries == nil {
		entries = []FixedScheduleEntry{}
	}
	return entries, nil
}

func (s *FixedScheduleService) ready() error {
	if s == nil {
		return fmt.Errorf("FixedScheduleService is nil")
	}
	if s.entries == nil || s.rooms == nil {
		return fmt.Errorf("fixed schedule repositories not configured")
	}
	return nil
}

func (s *FixedScheduleService) validate(ctx context.Context, input FixedScheduleInput) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room_id is required")
	}
	if input.Weekday < time.Sunday || input.Weekday > time.Saturday {
		vErr.add("day_of_week", "day_of_week is invalid")
	}
	if !input.Start.Valid() {
		vErr.add("start", "start must be between 00:00 and 24:00")
	}
	if !input.End.Valid() {
		vErr.add("end", "end must be between 00:00 and 24:00")
	}
	if input.Start.Valid() && input.End.Valid() && input.Start >= input.End {
		vErr.add("end", "end must be after start")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if _, err := s.rooms.GetRoom(ctx, input.RoomID); err != nil {
		if errors.Is(mapRoomRepoError(err), ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			return vErr
		}
		return err
	}
	return nil
}

func mapFixedScheduleRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not exist")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("end", "end must be after start")
		return vErr
	}
	return err
}
