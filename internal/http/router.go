package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type RouterConfig struct {
	Rooms          *RoomHandler
	Availability   *AvailabilityHandler
	FixedSchedules *FixedScheduleHandler
	Bookings       *BookingHandler
	JWTSecret      string
	Logger         *slog.Logger
	Middleware     []echo.MiddlewareFunc
}

// NewRouter registers every route on a fresh Echo instance. Nil handlers
// leave their routes unregistered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(RequestLogger(cfg.Logger))
	e.Use(cfg.Middleware...)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/v1", JWTAuth(cfg.JWTSecret, cfg.Logger))

	if h := cfg.Rooms; h != nil {
		v1.GET("/rooms", h.List)
		v1.POST("/rooms", h.Create)
	}
	if h := cfg.Availability; h != nil {
		v1.GET("/rooms/:roomID/availability", h.Availability)
		v1.GET("/rooms/:roomID/agenda", h.Agenda)
	}
	if h := cfg.FixedSchedules; h != nil {
		v1.GET("/rooms/:roomID/fixed-schedules", h.List)
		v1.POST("/rooms/:roomID/fixed-schedules", h.Create)
		v1.PUT("/fixed-schedules/:id", h.Update)
		v1.DELETE("/fixed-schedules/:id", h.Delete)
	}
	if h := cfg.Bookings; h != nil {
		v1.POST("/bookings", h.Submit)
		v1.GET("/bookings/mine", h.Mine)
		v1.GET("/bookings/pending", h.Pending)
		v1.POST("/bookings/:id/approve", h.Approve)
		v1.POST("/bookings/:id/reject", h.Reject)
		v1.POST("/bookings/:id/cancel", h.Cancel)
	}

	return e
}
