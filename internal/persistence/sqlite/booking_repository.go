package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
// Guarded writes run inside WithTransaction so the check and the write see the
// same state of the room's day.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, room_id, requester_id, booking_date, start_minute, end_minute, status, justification, created_at, updated_at`

const approvalColumns = `id, booking_id, action, result_status, reviewer_id, reviewed_at`

// CreateBooking inserts booking after guard accepted the commitments already
// recorded for the same room and date. A nil guard skips the check.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking, guard persistence.CreateGuard) error {
	if booking.ID == "" || booking.RoomID == "" || booking.RequesterID == "" {
		return persistence.ErrConstraintViolation
	}

	createdAt, updatedAt := timestampsOrNow(booking.CreatedAt, booking.UpdatedAt)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if guard != nil {
			existing, err := r.loadDayCommitmentsTx(ctx, tx, booking.RoomID, booking.Date)
			if err != nil {
				return err
			}
			if err := guard(existing); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(ctx, tx, query,
			booking.ID,
			booking.RoomID,
			booking.RequesterID,
			formatDate(booking.Date),
			booking.StartMinute,
			booking.EndMinute,
			booking.Status,
			nullableString(booking.Justification),
			formatTimestamp(createdAt),
			formatTimestamp(updatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookingsForRoomDate returns every booking of a room on date, whatever its status
func (r *BookingRepository) ListBookingsForRoomDate(ctx context.Context, roomID string, date time.Time) ([]persistence.Booking, error) {
	rows, err := r.helper.Query(ctx, bookingsForRoomDateQuery, roomID, formatDate(date))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectBookings(rows, r.mapper)
}

// ListBookingsByRequester returns the bookings a user submitted, newest date first
func (r *BookingRepository) ListBookingsByRequester(ctx context.Context, requesterID string) ([]persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE requester_id = ?
		ORDER BY booking_date DESC, start_minute ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, requesterID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectBookings(rows, r.mapper)
}

// ListBookingsByStatus returns bookings with status in submission order
func (r *BookingRepository) ListBookingsByStatus(ctx context.Context, status string) ([]persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, status)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return collectBookings(rows, r.mapper)
}

// DecideBooking moves a pending booking to decision.Status and stores the
// approval record. Other bookings are left untouched.
func (r *BookingRepository) DecideBooking(ctx context.Context, decision persistence.BookingDecision, guard persistence.DecisionGuard) (persistence.Booking, error) {
	if decision.BookingID == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	updatedAt := decision.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var decided persistence.Booking
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := r.helper.QueryRowTx(ctx, tx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND status = 'pending'`, decision.BookingID)
		target, err := scanBooking(row)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if guard != nil {
			existing, err := r.loadDayCommitmentsTx(ctx, tx, target.RoomID, target.Date)
			if err != nil {
				return err
			}
			if err := guard(target, existing); err != nil {
				return err
			}
		}

		result, err := r.helper.ExecTx(ctx, tx,
			`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = 'pending'`,
			decision.Status, formatTimestamp(updatedAt), target.ID)
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

		approval := decision.Approval
		approval.BookingID = target.ID
		if approval.ReviewedAt.IsZero() {
			approval.ReviewedAt = updatedAt
		}
		_, err = r.helper.ExecTx(ctx, tx,
			`INSERT INTO booking_approvals (`+approvalColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			approval.ID,
			approval.BookingID,
			approval.Action,
			approval.ResultStatus,
			approval.ReviewerID,
			formatTimestamp(approval.ReviewedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		decided = target
		decided.Status = decision.Status
		decided.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return decided, nil
}

// ListApprovals returns the decisions recorded for a booking, oldest first
func (r *BookingRepository) ListApprovals(ctx context.Context, bookingID string) ([]persistence.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM booking_approvals
		WHERE booking_id = ?
		ORDER BY reviewed_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, bookingID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	approvals := make([]persistence.Approval, 0)
	for rows.Next() {
		var approval persistence.Approval
		var reviewedAtStr string
		if err := rows.Scan(
			&approval.ID,
			&approval.BookingID,
			&approval.Action,
			&approval.ResultStatus,
			&approval.ReviewerID,
			&reviewedAtStr,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if approval.ReviewedAt, err = parseTimestamp(reviewedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse reviewed_at: %w", err)
		}
		approvals = append(approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return approvals, nil
}

const bookingsForRoomDateQuery = `SELECT ` + bookingColumns + ` FROM bookings
	WHERE room_id = ? AND booking_date = ?
	ORDER BY start_minute ASC, id ASC`

func (r *BookingRepository) loadDayCommitmentsTx(ctx context.Context, tx *sql.Tx, roomID string, date time.Time) (persistence.DayCommitments, error) {
	entries, err := listEntriesForWeekdayTx(ctx, r.helper, r.mapper, tx, roomID, date.Weekday())
	if err != nil {
		return persistence.DayCommitments{}, err
	}

	rows, err := r.helper.QueryTx(ctx, tx, bookingsForRoomDateQuery, roomID, formatDate(date))
	if err != nil {
		return persistence.DayCommitments{}, r.mapper.MapError(err)
	}
	bookings, err := collectBookings(rows, r.mapper)
	if err != nil {
		return persistence.DayCommitments{}, err
	}

	return persistence.DayCommitments{Entries: entries, Bookings: bookings}, nil
}

func collectBookings(rows *sql.Rows, mapper *ErrorMapper) ([]persistence.Booking, error) {
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapper.MapError(err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var dateStr, createdAtStr, updatedAtStr string
	var justification sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.RequesterID,
		&dateStr,
		&booking.StartMinute,
		&booking.EndMinute,
		&booking.Status,
		&justification,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	if justification.Valid {
		value := justification.String
		booking.Justification = &value
	}
	if booking.Date, err = parseDate(dateStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse booking_date: %w", err)
	}
	if booking.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return booking, nil
}
