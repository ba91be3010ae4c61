package middleware

import (
	"errors"
	"net/http"
	"strings"

	"streetrelay/internal/service"

	"github.com/labstack/echo/v4"
)

const SessionCookieName = "session"

// SessionAuthMiddleware guards browser-facing routes. The credential is the
// session token cookie; a token the codec rejects outright also gets the
// cookie cleared so the browser stops presenting it.
type SessionAuthMiddleware struct {
	Sessions *service.SessionService
}

func (m SessionAuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Sessions == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		auth, err := m.Sessions.VerifyToken(c.Request().Context(), readSessionCookie(c))
		if err != nil {
			if errors.Is(err, service.ErrBadToken) {
				clearSessionCookie(c)
			}
			return authError(err)
		}
		SetSessionAuth(c, auth)
		return next(c)
	}
}

// ConsoleAuthMiddleware guards console-facing routes via the Authorization
// header. Stale tokens still authenticate; handlers that do privileged work
// check Stale themselves.
type ConsoleAuthMiddleware struct {
	Consoles *service.ConsoleService
}

func (m ConsoleAuthMiddleware) RequireConsole(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Consoles == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		auth, err := m.Consoles.VerifyAccessToken(c.Request().Context(), ExtractBearerToken(c.Request()))
		if err != nil {
			return authError(err)
		}
		SetConsoleAuth(c, auth)
		return next(c)
	}
}

func ExtractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authError keeps the taxonomy/infrastructure split: verification outcomes
// become 401s with their taxonomy message, anything else is a 500.
func authError(err error) error {
	switch {
	case errors.Is(err, service.ErrNoToken),
		errors.Is(err, service.ErrBadToken),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrExpiredSession),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrExpiredToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func readSessionCookie(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
