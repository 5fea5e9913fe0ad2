package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeactivateRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	decoder   requestDecoder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), decoder: newRequestDecoder(), logger: base}
}

func (h *RoomHandler) log(r *http.Request, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(r, h.logger, "RoomHandler", operation, attrs...)
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Create", "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected room request", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r, "Create")
	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room created", "room_id", room.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

// Get handles GET /rooms/{id}.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		h.log(r, "Get", "room_id", roomID).ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

// Update handles PUT /rooms/{id}.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.log(r, "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := h.decoder.decode(r, &req); err != nil {
		h.log(r, "Update", "room_id", roomID, "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected room update", "error", err)
		h.responder.writeDecodeError(w, r, err)
		return
	}

	logger := h.log(r, "Update", "room_id", roomID)
	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

// Deactivate handles DELETE /rooms/{id}. The room is kept for history.
func (h *RoomHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.log(r, "Deactivate", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for deactivation")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r, "Deactivate", "room_id", roomID)
	if _, err := h.service.DeactivateRoom(r.Context(), principal, roomID); err != nil {
		logger.ErrorContext(r.Context(), "room deactivation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /rooms?min_capacity=&location=&include_inactive=.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	query := roomListQuery{
		MinCapacity:     strings.TrimSpace(r.URL.Query().Get("min_capacity")),
		Location:        r.URL.Query().Get("location"),
		IncludeInactive: strings.TrimSpace(r.URL.Query().Get("include_inactive")),
	}
	if err := h.decoder.check(&query); err != nil {
		h.log(r, "List", "error_kind", decodeErrorKind(err)).WarnContext(r.Context(), "rejected room filters", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r, "List")
	rooms, err := h.service.ListRooms(r.Context(), query.toParams(principal))
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "rooms listed", "result_count", len(rooms))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

type roomListQuery struct {
	MinCapacity     string `json:"min_capacity" validate:"omitempty,number"`
	Location        string `json:"location" validate:"max=200"`
	IncludeInactive string `json:"include_inactive" validate:"omitempty,boolean"`
}

func (q roomListQuery) toParams(principal application.Principal) application.ListRoomsParams {
	params := application.ListRoomsParams{Principal: principal, Location: q.Location}
	if q.MinCapacity != "" {
		params.MinCapacity, _ = strconv.Atoi(q.MinCapacity)
	}
	if q.IncludeInactive != "" {
		params.IncludeInactive, _ = strconv.ParseBool(q.IncludeInactive)
	}
	return params
}

type roomRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Location  string  `json:"location" validate:"required,max=200"`
	Capacity  int     `json:"capacity" validate:"gt=0"`
	Amenities *string `json:"amenities" validate:"omitempty,max=1000"`
}

func (r roomRequest) toInput() application.RoomInput {
	var amenities *string
	if r.Amenities != nil {
		trimmed := strings.TrimSpace(*r.Amenities)
		amenities = &trimmed
	}
	return application.RoomInput{
		Name:      strings.TrimSpace(r.Name),
		Location:  strings.TrimSpace(r.Location),
		Capacity:  r.Capacity,
		Amenities: amenities,
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	Capacity  int     `json:"capacity"`
	Amenities *string `json:"amenities,omitempty"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		Amenities: room.Amenities,
		Active:    room.Active,
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
