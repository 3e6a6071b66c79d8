package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"board-service/internal/http/middleware"
	apperrors "board-service/pkg/errors"
)

// NewHTTPErrorHandler renders every error as {"error":{"code","message"}}.
// Messages of 5xx errors are replaced with a generic one and the cause is logged.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := toAppError(err)
		status := appErr.Status()
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && !isAppError(err) {
			status = httpErr.Code
		}

		if status >= http.StatusInternalServerError {
			logger.Error("internal server error",
				slog.String("request_id", middleware.GetRequestID(c)),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("error", err.Error()),
			)
			appErr = apperrors.InternalServer("", nil)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, appErr.Body())
		}
		if writeErr != nil {
			logger.Error("failed to write error response", slog.String("error", writeErr.Error()))
		}
	}
}

func isAppError(err error) bool {
	_, ok := apperrors.As(err)
	return ok
}

// toAppError maps echo's own errors (404 route, 405, body limit, bind) onto the
// error taxonomy.
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		return apperrors.InternalServer("", err)
	}

	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	} else if httpErr.Message != nil {
		message = fmt.Sprint(httpErr.Message)
	}

	switch {
	case httpErr.Code == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case httpErr.Code == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case httpErr.Code == http.StatusNotFound:
		return apperrors.NotFound(message)
	case httpErr.Code == http.StatusConflict:
		return apperrors.Conflict(message)
	case httpErr.Code >= http.StatusInternalServerError:
		return apperrors.InternalServer(message, httpErr)
	default:
		return apperrors.BadRequest(message)
	}
}
