package middleware

import (
	"github.com/labstack/echo/v4"

	"board-service/internal/audit"
)

// RequestInfo exposes client details to audit writers further down the chain.
// It must run after RequestID.
func RequestInfo() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := audit.ContextWithRequestInfo(req.Context(), audit.RequestInfo{
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
				RequestID: GetRequestID(c),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
