package adapters

import (
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/persistence"
)

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Role:        application.Role(model.Role),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(credentials application.UserCredentials) persistence.User {
	user := credentials.User
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		PasswordHash: credentials.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		Capacity:  model.Capacity,
		Amenities: cloneString(model.Amenities),
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		Amenities: cloneString(room.Amenities),
		Active:    room.Active,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.FixedScheduleEntry) application.FixedScheduleEntry {
	return application.FixedScheduleEntry{
		ID:        model.ID,
		RoomID:    model.RoomID,
		Weekday:   model.DayOfWeek,
		Start:     availability.TimeOfDay(model.StartMinute),
		End:       availability.TimeOfDay(model.EndMinute),
		Label:     model.Label,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationEntries(models []persistence.FixedScheduleEntry) []application.FixedScheduleEntry {
	entries := make([]application.FixedScheduleEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries
}

func toPersistenceEntry(entry application.FixedScheduleEntry) persistence.FixedScheduleEntry {
	return persistence.FixedScheduleEntry{
		ID:          entry.ID,
		RoomID:      entry.RoomID,
		DayOfWeek:   entry.Weekday,
		StartMinute: int(entry.Start),
		EndMinute:   int(entry.End),
		Label:       entry.Label,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:            model.ID,
		RoomID:        model.RoomID,
		RequesterID:   model.RequesterID,
		Date:          model.Date,
		Start:         availability.TimeOfDay(model.StartMinute),
		End:           availability.TimeOfDay(model.EndMinute),
		Status:        availability.BookingStatus(model.Status),
		Justification: cloneString(model.Justification),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toApplicationBookings(models []persistence.Booking) []application.Booking {
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:            booking.ID,
		RoomID:        booking.RoomID,
		RequesterID:   booking.RequesterID,
		Date:          booking.Date,
		StartMinute:   int(booking.Start),
		EndMinute:     int(booking.End),
		Status:        string(booking.Status),
		Justification: cloneString(booking.Justification),
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
}

func toPersistenceApproval(record application.ApprovalRecord) persistence.Approval {
	return persistence.Approval{
		ID:           record.ID,
		BookingID:    record.BookingID,
		Action:       string(record.Action),
		ResultStatus: string(record.ResultStatus),
		ReviewerID:   record.ReviewerID,
		ReviewedAt:   record.ReviewedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
