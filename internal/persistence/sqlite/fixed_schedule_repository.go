package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// FixedScheduleRepository implements persistence.FixedScheduleRepository using SQLite
type FixedScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewFixedScheduleRepository creates a new SQLite fixed schedule repository
func NewFixedScheduleRepository(pool *ConnectionPool) *FixedScheduleRepository {
	return &FixedScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const entryColumns = `id, room_id, day_of_week, start_minute, end_minute, label, created_at, updated_at`

// CreateEntry inserts a weekly class entry
func (r *FixedScheduleRepository) CreateEntry(ctx context.Context, entry persistence.FixedScheduleEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	createdAt, updatedAt := timestampsOrNow(entry.CreatedAt, entry.UpdatedAt)

	query := `
		INSERT INTO fixed_schedule_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.RoomID,
		isoWeekday(entry.DayOfWeek),
		entry.StartMinute,
		entry.EndMinute,
		entry.Label,
		formatTimestamp(createdAt),
		formatTimestamp(updatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateEntry replaces the mutable fields of an entry
func (r *FixedScheduleRepository) UpdateEntry(ctx context.Context, entry persistence.FixedScheduleEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	_, updatedAt := timestampsOrNow(entry.CreatedAt, entry.UpdatedAt)

	query := `
		UPDATE fixed_schedule_entries
		SET room_id = ?, day_of_week = ?, start_minute = ?, end_minute = ?, label = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		entry.RoomID,
		isoWeekday(entry.DayOfWeek),
		entry.StartMinute,
		entry.EndMinute,
		entry.Label,
		formatTimestamp(updatedAt),
		entry.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEntry retrieves an entry by ID
func (r *FixedScheduleRepository) GetEntry(ctx context.Context, id string) (persistence.FixedScheduleEntry, error) {
	if id == "" {
		return persistence.FixedScheduleEntry{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+entryColumns+` FROM fixed_schedule_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return persistence.FixedScheduleEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// DeleteEntry removes an entry by ID
func (r *FixedScheduleRepository) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM fixed_schedule_entries WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListEntriesForRoom returns every entry of a room ordered by weekday and start time
func (r *FixedScheduleRepository) ListEntriesForRoom(ctx context.Context, roomID string) ([]persistence.FixedScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM fixed_schedule_entries
		WHERE room_id = ?
		ORDER BY day_of_week ASC, start_minute ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectEntries(rows, r.mapper)
}

// ListEntriesForRoomWeekday returns the entries of a room that recur on day
func (r *FixedScheduleRepository) ListEntriesForRoomWeekday(ctx context.Context, roomID string, day time.Weekday) ([]persistence.FixedScheduleEntry, error) {
	rows, err := r.helper.Query(ctx, entriesForWeekdayQuery, roomID, isoWeekday(day))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectEntries(rows, r.mapper)
}

const entriesForWeekdayQuery = `SELECT ` + entryColumns + ` FROM fixed_schedule_entries
	WHERE room_id = ? AND day_of_week = ?
	ORDER BY start_minute ASC, id ASC`

// listEntriesForWeekdayTx is the in-transaction variant used by guarded booking writes.
func listEntriesForWeekdayTx(ctx context.Context, helper *QueryHelper, mapper *ErrorMapper, tx *sql.Tx, roomID string, day time.Weekday) ([]persistence.FixedScheduleEntry, error) {
	rows, err := helper.QueryTx(ctx, tx, entriesForWeekdayQuery, roomID, isoWeekday(day))
	if err != nil {
		return nil, mapper.MapError(err)
	}
	return collectEntries(rows, mapper)
}

func collectEntries(rows *sql.Rows, mapper *ErrorMapper) ([]persistence.FixedScheduleEntry, error) {
	defer rows.Close()

	entries := make([]persistence.FixedScheduleEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapper.MapError(err)
	}
	return entries, nil
}

func scanEntry(row rowScanner) (persistence.FixedScheduleEntry, error) {
	var entry persistence.FixedScheduleEntry
	var day int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&entry.ID,
		&entry.RoomID,
		&day,
		&entry.StartMinute,
		&entry.EndMinute,
		&entry.Label,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.FixedScheduleEntry{}, err
	}

	entry.DayOfWeek = time.Weekday(day % 7)
	if entry.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.FixedScheduleEntry{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.FixedScheduleEntry{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return entry, nil
}

func validateEntry(entry persistence.FixedScheduleEntry) error {
	if entry.ID == "" || entry.RoomID == "" {
		return persistence.ErrConstraintViolation
	}
	if entry.DayOfWeek < time.Sunday || entry.DayOfWeek > time.Saturday {
		return persistence.ErrConstraintViolation
	}
	return nil
}

// isoWeekday stores Monday as 1 and Sunday as 7.
func isoWeekday(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}
