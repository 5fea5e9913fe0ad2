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

type fixedScheduleService interface {
	CreateEntry(ctx context.Context, params application.CreateFixedScheduleParams) (application.FixedScheduleEntry, error)
	UpdateEntry(ctx context.Context, params application.UpdateFixedScheduleParams) (application.FixedScheduleEntry, error)
	DeleteEntry(ctx context.Context, principal application.Principal, entryID string) error
	ListEntries(ctx context.Context, principal application.Principal, roomID string) ([]application.FixedScheduleEntry, error)
}

type FixedScheduleHandler struct {
	service   fixedScheduleService
	responder responder
	decoder   requestDecoder
	logger    *slog.Logger
}

func NewFixedScheduleHandler(service fixedScheduleService, logger *slog.Logger) *FixedScheduleHandler {
	base := defaultLogger(logger)
	return &FixedScheduleHandler{service: service, responder: newResponder(base), decoder: newRequestDecoder(), logger: base}
}

func (h *FixedScheduleHandler) log(r *http.Request, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(r, h.logger, "FixedScheduleHandler", operation, attrs...)
}

// Create handles POST /rooms/{id}/fixed-schedules.
func (h *FixedScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req fixedScheduleRequest
	req.RoomID = roomID
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Create", "room_id", roomID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected fixed schedule request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}
	// The path wins over any room_id in the body.
	req.RoomID = roomID

	input, err := req.toInput()
	if err != nil {
		h.log(r, "Create", "room_id", roomID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected fixed schedule request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r, "Create", "room_id", roomID)
	entry, err := h.service.CreateEntry(r.Context(), application.CreateFixedScheduleParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "fixed schedule creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fixed schedule created", "entry_id", entry.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, fixedScheduleResponse{Entry: toFixedScheduleDTO(entry)})
}

// List handles GET /rooms/{id}/fixed-schedules.
func (h *FixedScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, "List", "room_id", roomID)

	entries, err := h.service.ListEntries(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "fixed schedule list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fixed schedules listed", "result_count", len(entries))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listFixedSchedulesResponse{Entries: toFixedScheduleDTOs(entries)})
}

// Update handles PUT /fixed-schedules/{id}.
func (h *FixedScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req fixedScheduleRequest
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Update", "entry_id", entryID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected fixed schedule update", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r, "Update", "entry_id", entryID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected fixed schedule update", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r, "Update", "entry_id", entryID)
	entry, err := h.service.UpdateEntry(r.Context(), application.UpdateFixedScheduleParams{
		Principal: principal,
		EntryID:   entryID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "fixed schedule update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fixed schedule updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, fixedScheduleResponse{Entry: toFixedScheduleDTO(entry)})
}

// Delete handles DELETE /fixed-schedules/{id}.
func (h *FixedScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, "Delete", "entry_id", entryID)
	if err := h.service.DeleteEntry(r.Context(), principal, entryID); err != nil {
		logger.ErrorContext(r.Context(), "fixed schedule delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fixed schedule deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type fixedScheduleRequest struct {
	RoomID    string `json:"room_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	Start     string `json:"start" validate:"required,timeofday"`
	End       string `json:"end" validate:"required,timeofday"`
	Label     string `json:"label" validate:"max=200"`
}

func (r fixedScheduleRequest) toInput() (application.FixedScheduleInput, error) {
	day, ok := availability.ParseWeekday(r.DayOfWeek)
	if !ok {
		return application.FixedScheduleInput{}, fieldParseError("day_of_week", "must be a weekday name such as monday or an ISO number from 1 to 7")
	}
	start, err := availability.ParseTimeOfDay(r.Start)
	if err != nil {
		return application.FixedScheduleInput{}, fieldParseError("start", "must be a time between 00:00 and 24:00 in HH:MM format")
	}
	end, err := availability.ParseTimeOfDay(r.End)
	if err != nil {
		return application.FixedScheduleInput{}, fieldParseError("end", "must be a time between 00:00 and 24:00 in HH:MM format")
	}
	return application.FixedScheduleInput{
		RoomID:  strings.TrimSpace(r.RoomID),
		Weekday: day,
		Start:   start,
		End:     end,
		Label:   r.Label,
	}, nil
}

type fixedScheduleResponse struct {
	Entry fixedScheduleDTO `json:"fixed_schedule"`
}

type listFixedSchedulesResponse struct {
	Entries []fixedScheduleDTO `json:"fixed_schedules"`
}

type fixedScheduleDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	DayOfWeek string `json:"day_of_week"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toFixedScheduleDTO(entry application.FixedScheduleEntry) fixedScheduleDTO {
	return fixedScheduleDTO{
		ID:        entry.ID,
		RoomID:    entry.RoomID,
		DayOfWeek: strings.ToLower(entry.Weekday.String()),
		Start:     entry.Start.String(),
		End:       entry.End.String(),
		Label:     entry.Label,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toFixedScheduleDTOs(entries []application.FixedScheduleEntry) []fixedScheduleDTO {
	out := make([]fixedScheduleDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toFixedScheduleDTO(entry))
	}
	return out
}
