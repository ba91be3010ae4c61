package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireFreshLogin gates sensitive operations on a recent authentication.
// The session is otherwise valid, so 403 with a distinct message lets the
// client prompt for re-login instead of discarding the session.
func RequireFreshLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := SessionAuthFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !auth.FreshLogin {
				return echo.NewHTTPError(http.StatusForbidden, "please log in again to access sensitive account information")
			}
			return next(c)
		}
	}
}
