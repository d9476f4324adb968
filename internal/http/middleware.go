package http

import (
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/logging"
)

// RequestLogger attaches a request scoped logger carrying an incrementing
// request_id to the request context and logs start and completion.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := counter.Add(1)
			req := c.Request()
			logger := base.With(
				"request_id", id,
				"method", req.Method,
				"path", req.URL.Path,
			)

			ctx := logging.ContextWithLogger(req.Context(), logger)
			withContext(c, ctx)
			c.Response().Header().Set(echo.HeaderXRequestID, strconv.FormatUint(id, 10))

			start := time.Now()
			logger.InfoContext(ctx, "request started")
			if err := next(c); err != nil {
				c.Error(err)
			}
			logger.InfoContext(ctx, "request completed", "status", c.Response().Status, "duration", time.Since(start))
			return nil
		}
	}
}
