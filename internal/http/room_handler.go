package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/persistence"
)

type roomService interface {
	CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (persistence.Room, error)
	ListRooms(ctx context.Context, principal application.Principal) ([]persistence.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)

	var req roomRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		h.log(ctx, "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode room request", "error", err)
		return h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
	}

	logger := h.log(ctx, "Create", "principal_id", principal.UserID)
	room, err := h.service.CreateRoom(ctx, principal, req.toInput())
	if err != nil {
		logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	return h.responder.writeJSON(c, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)
	logger := h.log(ctx, "List", "principal_id", principal.UserID)

	rooms, err := h.service.ListRooms(ctx, principal)
	if err != nil {
		logger.ErrorContext(ctx, "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	return h.responder.writeJSON(c, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

type roomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{Name: r.Name, Description: r.Description, Capacity: r.Capacity}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Capacity:    room.Capacity,
		CreatedAt:   formatTimestamp(room.CreatedAt),
		UpdatedAt:   formatTimestamp(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
