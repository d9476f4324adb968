package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/export"
	"github.com/example/lab-booking/internal/scheduler"
)

type availabilityService interface {
	CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (application.AvailabilityResult, error)
	Agenda(ctx context.Context, query application.AgendaQuery) (application.AgendaResult, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Availability answers GET /v1/rooms/:roomID/availability?date=&periods=.
func (h *AvailabilityHandler) Availability(c echo.Context) error {
	ctx := c.Request().Context()
	roomID := c.Param("roomID")
	logger := h.log(ctx, "Availability", "principal_id", principalOf(c).UserID, "room_id", roomID)

	periods, err := parsePeriodsParam(c.QueryParam("periods"))
	if err != nil {
		logger.WarnContext(ctx, "invalid periods parameter", "error", err, "error_kind", "validation")
		return h.responder.writeFieldError(c, "periods", errInvalidPeriods)
	}

	result, err := h.service.CheckAvailability(ctx, application.AvailabilityQuery{
		RoomID:  roomID,
		Date:    c.QueryParam("date"),
		Periods: periods,
	})
	if err != nil {
		logger.WarnContext(ctx, "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	return h.responder.writeJSON(c, http.StatusOK, availabilityResponse{
		RoomID:      result.RoomID,
		Date:        result.Date.String(),
		Available:   result.Available,
		Proposed:    result.Proposed.Ints(),
		Occupied:    result.Occupied.Ints(),
		Conflicting: result.Conflicting.Ints(),
	})
}

// Agenda answers GET /v1/rooms/:roomID/agenda?from=&to=&format=.
func (h *AvailabilityHandler) Agenda(c echo.Context) error {
	ctx := c.Request().Context()
	roomID := c.Param("roomID")
	logger := h.log(ctx, "Agenda", "principal_id", principalOf(c).UserID, "room_id", roomID)

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		logger.WarnContext(ctx, "unsupported agenda format", "error", err, "error_kind", "validation")
		return h.responder.writeFieldError(c, "format", errInvalidFormat)
	}

	result, err := h.service.Agenda(ctx, application.AgendaQuery{
		RoomID: roomID,
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		logger.WarnContext(ctx, "agenda failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	agenda, err := export.GroupByDay(result.RoomID, result.From, result.To, result.Entries)
	if err != nil {
		return h.responder.writeError(c, http.StatusInternalServerError, err)
	}
	var buf bytes.Buffer
	if err := export.Render(&buf, format, agenda); err != nil {
		return h.responder.writeError(c, http.StatusInternalServerError, err)
	}

	logger.DebugContext(ctx, "agenda rendered", "format", string(format), "days", len(agenda.Days))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

type availabilityResponse struct {
	RoomID      string `json:"room_id"`
	Date        string `json:"date"`
	Available   bool   `json:"available"`
	Proposed    []int  `json:"proposed"`
	Occupied    []int  `json:"occupied"`
	Conflicting []int  `json:"conflicting"`
}

func parsePeriodsParam(value string) ([]int, error) {
	periods, err := scheduler.ParsePeriods(value)
	if err != nil {
		return nil, err
	}
	return scheduler.PeriodSet(periods).Ints(), nil
}
