// Package middleware carries the HTTP middleware chain of the document
// processing server: request identity, structured request logging, panic
// recovery, timeouts, body limits, and a per-client rate limit.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKeyRequestID is where the request identifier is stored on the
// echo context.
const ContextKeyRequestID = "request_id"

// HeaderRequestID is the response header echoing the request identifier.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request a UUID, honoring an inbound X-Request-ID
// so callers can correlate across services.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(ContextKeyRequestID, rid)
			c.Response().Header().Set(HeaderRequestID, rid)
			return next(c)
		}
	}
}
