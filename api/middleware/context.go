package middleware

import (
	"streetrelay/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	contextSessionAuthKey = "session_auth"
	contextConsoleAuthKey = "console_auth"
)

func SetSessionAuth(c echo.Context, auth service.SessionAuth) {
	c.Set(contextSessionAuthKey, auth)
}

func SessionAuthFromContext(c echo.Context) (service.SessionAuth, bool) {
	auth, ok := c.Get(contextSessionAuthKey).(service.SessionAuth)
	return auth, ok
}

func SetConsoleAuth(c echo.Context, auth service.ConsoleAuth) {
	c.Set(contextConsoleAuthKey, auth)
}

func ConsoleAuthFromContext(c echo.Context) (service.ConsoleAuth, bool) {
	auth, ok := c.Get(contextConsoleAuthKey).(service.ConsoleAuth)
	return auth, ok
}
