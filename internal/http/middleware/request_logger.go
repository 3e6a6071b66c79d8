package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "board-service/pkg/errors"
)

// RequestLogger writes one structured line per request. It runs inside the
// error handler's reach, so the logged status reflects the rendered error.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("route", c.Path()),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.Int64("bytes_out", c.Response().Size),
				slog.String("remote_ip", c.RealIP()),
				slog.String("request_id", GetRequestID(c)),
			}
			if appErr, ok := apperrors.As(err); ok {
				attrs = append(attrs, slog.String("error_code", appErr.Code))
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(req.Context(), level, "http request", attrs...)

			return nil
		}
	}
}
