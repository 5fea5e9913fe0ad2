package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
)

type bookingService interface {
	BlockedIntervals(ctx context.Context, params application.BlockedIntervalsParams) ([]availability.Interval, error)
	SubmitBooking(ctx context.Context, params application.SubmitBookingParams) (application.Booking, error)
	DecideApproval(ctx context.Context, params application.DecideApprovalParams) (application.Booking, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	ListMyBookings(ctx context.Context, principal application.Principal) ([]application.Booking, error)
	ListPendingBookings(ctx context.Context, principal application.Principal) ([]application.Booking, error)
	ListApprovals(ctx context.Context, principal application.Principal, bookingID string) ([]application.ApprovalRecord, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	decoder   requestDecoder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), decoder: newRequestDecoder(), logger: base}
}

func (h *BookingHandler) log(r *http.Request, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(r, h.logger, "BookingHandler", operation, attrs...)
}

// Availability handles GET /rooms/{id}/availability?date=YYYY-MM-DD.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	query := availabilityQuery{Date: strings.TrimSpace(r.URL.Query().Get("date"))}
	if err := h.decoder.check(&query); err != nil {
		h.log(r, "Availability", "room_id", roomID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected availability query", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	date, _ := time.Parse(dateLayout, query.Date)

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, "Availability", "room_id", roomID, "date", query.Date)

	intervals, err := h.service.BlockedIntervals(r.Context(), application.BlockedIntervalsParams{
		Principal: principal,
		RoomID:    roomID,
		Date:      date,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		RoomID:  roomID,
		Date:    query.Date,
		Blocked: toIntervalDTOs(intervals),
	})
}

// Submit handles POST /bookings.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Submit", "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected booking request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	params, err := req.toParams(principal)
	if err != nil {
		h.log(r, "Submit", "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected booking request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r, "Submit", "room_id", req.RoomID, "date", req.Date)
	booking, err := h.service.SubmitBooking(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking submitted", "booking_id", booking.ID, "status", booking.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

// Get handles GET /bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		h.log(r, "Get", "booking_id", bookingID).ErrorContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Mine handles GET /bookings/mine.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Mine", func(ctx context.Context, principal application.Principal) ([]application.Booking, error) {
		return h.service.ListMyBookings(ctx, principal)
	})
}

// Pending handles GET /bookings/pending.
func (h *BookingHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Pending", func(ctx context.Context, principal application.Principal) ([]application.Booking, error) {
		return h.service.ListPendingBookings(ctx, principal)
	})
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, operation string, fetch func(context.Context, application.Principal) ([]application.Booking, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, operation)

	bookings, err := fetch(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "bookings listed", "result_count", len(bookings))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Decide handles POST /bookings/{id}/decision.
func (h *BookingHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req decisionRequest
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Decide", "booking_id", bookingID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected decision request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	action := application.ApprovalAction(strings.ToLower(strings.TrimSpace(req.Action)))
	logger := h.log(r, "Decide", "booking_id", bookingID, "action", action)

	booking, err := h.service.DecideApproval(r.Context(), application.DecideApprovalParams{
		Principal: principal,
		BookingID: bookingID,
		Action:    action,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "approval decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "approval decided", "status", booking.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Approvals handles GET /bookings/{id}/approvals.
func (h *BookingHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, "Approvals", "booking_id", bookingID)

	records, err := h.service.ListApprovals(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "approval history failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listApprovalsResponse{Approvals: toApprovalDTOs(records)})
}

type availabilityQuery struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type bookingRequest struct {
	RoomID        string  `json:"room_id" validate:"required"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Start         string  `json:"start" validate:"required,timeofday"`
	End           string  `json:"end" validate:"required,timeofday"`
	Justification *string `json:"justification" validate:"omitempty,max=2000"`
}

func (r bookingRequest) toParams(principal application.Principal) (application.SubmitBookingParams, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return application.SubmitBookingParams{}, fieldParseError("date", "must be a date in YYYY-MM-DD format")
	}
	start, err := availability.ParseTimeOfDay(r.Start)
	if err != nil {
		return application.SubmitBookingParams{}, fieldParseError("start", "must be a time between 00:00 and 24:00 in HH:MM format")
	}
	end, err := availability.ParseTimeOfDay(r.End)
	if err != nil {
		return application.SubmitBookingParams{}, fieldParseError("end", "must be a time between 00:00 and 24:00 in HH:MM format")
	}
	return application.SubmitBookingParams{
		Principal:     principal,
		RoomID:        strings.TrimSpace(r.RoomID),
		Date:          date,
		Start:         start,
		End:           end,
		Justification: r.Justification,
	}, nil
}

// decisionRequest leaves action unchecked so unknown values surface as an
// invalid action rather than a field error.
type decisionRequest struct {
	Action string `json:"action"`
}

type availabilityResponse struct {
	RoomID  string        `json:"room_id"`
	Date    string        `json:"date"`
	Blocked []intervalDTO `json:"blocked"`
}

type intervalDTO struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
	Source string `json:"source"`
	RefID  string `json:"ref_id,omitempty"`
	Status string `json:"status,omitempty"`
}

func toIntervalDTOs(intervals []availability.Interval) []intervalDTO {
	out := make([]intervalDTO, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, intervalDTO{
			Start:  iv.Start.String(),
			End:    iv.End.String(),
			Reason: iv.Reason,
			Source: string(iv.Source),
			RefID:  iv.RefID,
			Status: string(iv.Status),
		})
	}
	return out
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID            string  `json:"id"`
	RoomID        string  `json:"room_id"`
	RequesterID   string  `json:"requester_id"`
	Date          string  `json:"date"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Status        string  `json:"status"`
	Justification *string `json:"justification,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:            booking.ID,
		RoomID:        booking.RoomID,
		RequesterID:   booking.RequesterID,
		Date:          booking.Date.Format(dateLayout),
		Start:         booking.Start.String(),
		End:           booking.End.String(),
		Status:        string(booking.Status),
		Justification: booking.Justification,
		CreatedAt:     booking.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     booking.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

type listApprovalsResponse struct {
	Approvals []approvalDTO `json:"approvals"`
}

type approvalDTO struct {
	ID           string `json:"id"`
	BookingID    string `json:"booking_id"`
	Action       string `json:"action"`
	ResultStatus string `json:"result_status"`
	ReviewerID   string `json:"reviewer_id"`
	ReviewedAt   string `json:"reviewed_at"`
}

func toApprovalDTOs(records []application.ApprovalRecord) []approvalDTO {
	out := make([]approvalDTO, 0, len(records))
	for _, record := range records {
		out = append(out, approvalDTO{
			ID:           record.ID,
			BookingID:    record.BookingID,
			Action:       string(record.Action),
			ResultStatus: string(record.ResultStatus),
			ReviewerID:   record.ReviewerID,
			ReviewedAt:   record.ReviewedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
