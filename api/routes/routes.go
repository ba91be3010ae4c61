package routes

import (
	"time"

	"streetrelay/api/handler"
	"streetrelay/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo     *echo.Echo
	Auth     *handler.AuthHandler
	Sessions *handler.SessionHandler
	Consoles *handler.ConsoleHandler

	SessionAuth middleware.SessionAuthMiddleware
	ConsoleAuth middleware.ConsoleAuthMiddleware

	AuthRate  *middleware.RateLimiter
	LoginRate *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	consoleHandler *handler.ConsoleHandler,
	sessionAuth middleware.SessionAuthMiddleware,
	consoleAuth middleware.ConsoleAuthMiddleware,
) *Router {
	return &Router{
		Echo:        e,
		Auth:        authHandler,
		Sessions:    sessionHandler,
		Consoles:    consoleHandler,
		SessionAuth: sessionAuth,
		ConsoleAuth: consoleAuth,
		AuthRate:    middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:   middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.LoginRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.SessionAuth.RequireSession)
	e.GET("/auth/verify-email", r.Auth.VerifyEmail, r.AuthRate.Middleware())
	e.POST("/auth/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	e.POST("/auth/password/reset", r.Auth.PasswordReset, r.AuthRate.Middleware())

	e.GET("/me", r.Auth.Me, r.SessionAuth.RequireSession)
	e.GET("/me/sessions", r.Sessions.ListSessions, r.SessionAuth.RequireSession)
	e.DELETE("/me/sessions/:id", r.Sessions.RevokeSession, r.SessionAuth.RequireSession)

	e.GET("/me/console", r.Consoles.GetConsole, r.SessionAuth.RequireSession)
	e.POST("/console/pair", r.Consoles.Pair, r.SessionAuth.RequireSession, middleware.RequireFreshLogin())
	e.DELETE("/console", r.Consoles.Unlink, r.SessionAuth.RequireSession, middleware.RequireFreshLogin())

	e.GET("/console/token", r.Consoles.RefreshToken, r.AuthRate.Middleware())
	e.PUT("/me/profile", r.Consoles.UpdateProfile, r.ConsoleAuth.RequireConsole)
}
