package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/persistence"
)

type fixedScheduleService interface {
	CreateFixedSchedule(ctx context.Context, principal application.Principal, input application.FixedScheduleInput) (application.FixedScheduleResult, error)
	UpdateFixedSchedule(ctx context.Context, principal application.Principal, scheduleID string, input application.FixedScheduleInput) (application.FixedScheduleResult, error)
	DeleteFixedSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	ListFixedSchedules(ctx context.Context, roomID string) ([]persistence.FixedSchedule, []application.OverlapWarning, error)
}

type FixedScheduleHandler struct {
	service   fixedScheduleService
	responder responder
	logger    *slog.Logger
}

func NewFixedScheduleHandler(service fixedScheduleService, logger *slog.Logger) *FixedScheduleHandler {
	base := defaultLogger(logger)
	return &FixedScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FixedScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "FixedScheduleHandler", operation, attrs...)
}

// List answers GET /v1/rooms/:roomID/fixed-schedules.
func (h *FixedScheduleHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	roomID := c.Param("roomID")
	logger := h.log(ctx, "List", "principal_id", principalOf(c).UserID, "room_id", roomID)

	schedules, warnings, err := h.service.ListFixedSchedules(ctx, roomID)
	if err != nil {
		logger.ErrorContext(ctx, "fixed schedule list failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	out := make([]fixedScheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toFixedScheduleDTO(schedule))
	}
	logger.With("result_count", len(out)).DebugContext(ctx, "fixed schedules listed")
	return h.responder.writeJSON(c, http.StatusOK, listFixedSchedulesResponse{
		FixedSchedules: out,
		Warnings:       toOverlapDTOs(warnings),
	})
}

// Create answers POST /v1/rooms/:roomID/fixed-schedules.
func (h *FixedScheduleHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)

	req, err := decodeFixedSchedule(c)
	if err != nil {
		h.log(ctx, "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode fixed schedule", "error", err)
		return h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
	}
	input := req.toInput()
	input.RoomID = c.Param("roomID")

	logger := h.log(ctx, "Create", "principal_id", principal.UserID, "room_id", input.RoomID)
	result, err := h.service.CreateFixedSchedule(ctx, principal, input)
	if err != nil {
		logger.ErrorContext(ctx, "fixed schedule creation failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.InfoContext(ctx, "fixed schedule created", "schedule_id", result.Schedule.ID, "warning_count", len(result.Warnings))
	return h.responder.writeJSON(c, http.StatusCreated, toFixedScheduleResponse(result))
}

// Update answers PUT /v1/fixed-schedules/:id.
func (h *FixedScheduleHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)
	scheduleID := c.Param("id")

	req, err := decodeFixedSchedule(c)
	if err != nil {
		h.log(ctx, "Update", "principal_id", principal.UserID, "schedule_id", scheduleID, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode fixed schedule", "error", err)
		return h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
	}

	logger := h.log(ctx, "Update", "principal_id", principal.UserID, "schedule_id", scheduleID)
	result, err := h.service.UpdateFixedSchedule(ctx, principal, scheduleID, req.toInput())
	if err != nil {
		logger.ErrorContext(ctx, "fixed schedule update failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.InfoContext(ctx, "fixed schedule updated", "warning_count", len(result.Warnings))
	return h.responder.writeJSON(c, http.StatusOK, toFixedScheduleResponse(result))
}

// Delete answers DELETE /v1/fixed-schedules/:id.
func (h *FixedScheduleHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)
	scheduleID := c.Param("id")
	logger := h.log(ctx, "Delete", "principal_id", principal.UserID, "schedule_id", scheduleID)

	if err := h.service.DeleteFixedSchedule(ctx, principal, scheduleID); err != nil {
		logger.ErrorContext(ctx, "fixed schedule delete failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.InfoContext(ctx, "fixed schedule deleted")
	return h.responder.writeJSON(c, http.StatusNoContent, nil)
}

func decodeFixedSchedule(c echo.Context) (fixedScheduleRequest, error) {
	var req fixedScheduleRequest
	err := json.NewDecoder(c.Request().Body).Decode(&req)
	return req, err
}

type fixedScheduleRequest struct {
	RoomID      string `json:"room_id"`
	Weekday     *int   `json:"weekday"`
	Periods     []int  `json:"periods"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`
	Description string `json:"description"`
}

func (r fixedScheduleRequest) toInput() application.FixedScheduleInput {
	weekday := -1
	if r.Weekday != nil {
		weekday = *r.Weekday
	}
	return application.FixedScheduleInput{
		RoomID:      r.RoomID,
		Weekday:     weekday,
		Periods:     r.Periods,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
		Description: r.Description,
	}
}

type fixedScheduleResponse struct {
	FixedSchedule fixedScheduleDTO `json:"fixed_schedule"`
	Warnings      []overlapDTO     `json:"warnings"`
}

type listFixedSchedulesResponse struct {
	FixedSchedules []fixedScheduleDTO `json:"fixed_schedules"`
	Warnings       []overlapDTO       `json:"warnings"`
}

type fixedScheduleDTO struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	Weekday     int    `json:"weekday"`
	WeekdayName string `json:"weekday_name"`
	Periods     []int  `json:"periods"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type overlapDTO struct {
	ScheduleID      string `json:"schedule_id"`
	OtherScheduleID string `json:"other_schedule_id"`
	Weekday         int    `json:"weekday"`
	Periods         []int  `json:"periods"`
}

func toFixedScheduleDTO(schedule persistence.FixedSchedule) fixedScheduleDTO {
	return fixedScheduleDTO{
		ID:          schedule.ID,
		RoomID:      schedule.RoomID,
		Weekday:     int(schedule.Weekday),
		WeekdayName: schedule.Weekday.String(),
		Periods:     schedule.Periods.Ints(),
		ValidFrom:   schedule.ValidFrom.String(),
		ValidUntil:  schedule.ValidUntil.String(),
		Description: schedule.Description,
		CreatedBy:   schedule.CreatedBy,
		CreatedAt:   formatTimestamp(schedule.CreatedAt),
		UpdatedAt:   formatTimestamp(schedule.UpdatedAt),
	}
}

func toOverlapDTOs(warnings []application.OverlapWarning) []overlapDTO {
	out := make([]overlapDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, overlapDTO{
			ScheduleID:      w.ScheduleID,
			OtherScheduleID: w.OtherScheduleID,
			Weekday:         int(w.Weekday),
			Periods:         w.Periods.Ints(),
		})
	}
	return out
}

func toFixedScheduleResponse(result application.FixedScheduleResult) fixedScheduleResponse {
	return fixedScheduleResponse{
		FixedSchedule: toFixedScheduleDTO(result.Schedule),
		Warnings:      toOverlapDTOs(result.Warnings),
	}
}
