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

type bookingService interface {
	SubmitBooking(ctx context.Context, principal application.Principal, input application.BookingInput) (persistence.Booking, error)
	ApproveBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	RejectBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	ListMyBookings(ctx context.Context, principal application.Principal) ([]persistence.Booking, error)
	ListPendingBookings(ctx context.Context, principal application.Principal, filter application.PendingFilter) ([]persistence.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Submit answers POST /v1/bookings.
func (h *BookingHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)

	var req bookingRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		h.log(ctx, "Submit", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode booking request", "error", err)
		return h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
	}

	logger := h.log(ctx, "Submit", "principal_id", principal.UserID, "room_id", req.RoomID)
	booking, err := h.service.SubmitBooking(ctx, principal, application.BookingInput{
		RoomID:      req.RoomID,
		Date:        req.Date,
		Periods:     req.Periods,
		Description: req.Description,
	})
	if err != nil {
		logger.WarnContext(ctx, "booking submission failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.InfoContext(ctx, "booking submitted", "booking_id", booking.ID)
	return h.responder.writeJSON(c, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

// Mine answers GET /v1/bookings/mine.
func (h *BookingHandler) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)

	bookings, err := h.service.ListMyBookings(ctx, principal)
	if err != nil {
		h.log(ctx, "Mine", "principal_id", principal.UserID).ErrorContext(ctx, "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeJSON(c, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Pending answers GET /v1/bookings/pending?room_id=&from=&to=.
func (h *BookingHandler) Pending(c echo.Context) error {
	ctx := c.Request().Context()
	principal := principalOf(c)

	bookings, err := h.service.ListPendingBookings(ctx, principal, application.PendingFilter{
		RoomID: c.QueryParam("room_id"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		h.log(ctx, "Pending", "principal_id", principal.UserID).ErrorContext(ctx, "pending list failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeJSON(c, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Approve answers POST /v1/bookings/:id/approve.
func (h *BookingHandler) Approve(c echo.Context) error {
	return h.transition(c, "Approve", h.service.ApproveBooking)
}

// Reject answers POST /v1/bookings/:id/reject.
func (h *BookingHandler) Reject(c echo.Context) error {
	return h.transition(c, "Reject", h.service.RejectBooking)
}

// Cancel answers POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, "Cancel", h.service.CancelBooking)
}

func (h *BookingHandler) transition(c echo.Context, operation string, apply func(context.Context, application.Principal, string) (persistence.Booking, error)) error {
	ctx := c.Request().Context()
	principal := principalOf(c)
	bookingID := c.Param("id")
	logger := h.log(ctx, operation, "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := apply(ctx, principal, bookingID)
	if err != nil {
		logger.WarnContext(ctx, "booking transition failed", "error", err, "error_kind", application.ErrorKind(err))
		return h.responder.handleServiceError(c, err)
	}

	logger.InfoContext(ctx, "booking transitioned", "status", string(booking.Status))
	return h.responder.writeJSON(c, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

type bookingRequest struct {
	RoomID      string `json:"room_id"`
	Date        string `json:"date"`
	Periods     []int  `json:"periods"`
	Description string `json:"description"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	RequesterID string `json:"requester_id"`
	Date        string `json:"date"`
	Periods     []int  `json:"periods"`
	Status      string `json:"status"`
	Description string `json:"description"`
	DecidedBy   string `json:"decided_by,omitempty"`
	DecidedAt   string `json:"decided_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toBookingDTO(booking persistence.Booking) bookingDTO {
	dto := bookingDTO{
		ID:          booking.ID,
		RoomID:      booking.RoomID,
		RequesterID: booking.RequesterID,
		Date:        booking.Date.String(),
		Periods:     booking.Periods.Ints(),
		Status:      string(booking.Status),
		Description: booking.Description,
		DecidedBy:   booking.DecidedBy,
		CreatedAt:   formatTimestamp(booking.CreatedAt),
	}
	if booking.DecidedAt != nil {
		dto.DecidedAt = formatTimestamp(*booking.DecidedAt)
	}
	return dto
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}
