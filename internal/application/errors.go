package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-booking/internal/availability"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute such as an email is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidInterval is returned when a booking does not start before it ends.
	ErrInvalidInterval = errors.New("application: start must be before end")
	// ErrMissingJustification is returned when a late booking has no reason.
	ErrMissingJustification = errors.New("application: justification required for late bookings")
	// ErrInvalidAction is returned for approval actions other than approve or deny.
	ErrInvalidAction = errors.New("application: invalid approval action")
	// ErrSlotConflict is returned when a slot overlaps a class or a confirmed booking.
	ErrSlotConflict = errors.New("application: slot conflict")
	// ErrInvalidCredentials is returned when an email/password pair or a token is not accepted.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// SlotConflictError lists the blocked intervals that overlap a requested slot.
// errors.Is(err, ErrSlotConflict) holds for every SlotConflictError.
type SlotConflictError struct {
	Conflicts []availability.Interval
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return ErrSlotConflict.Error()
	}
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s-%s %s", c.Start, c.End, c.Reason))
	}
	return ErrSlotConflict.Error() + ": " + strings.Join(parts, ", ")
}

// Is matches ErrSlotConflict.
func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
