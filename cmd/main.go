package main

import (
	"net/http"
	"os"
	"time"

	"streetrelay/api/handler"
	apiMiddleware "streetrelay/api/middleware"
	"streetrelay/api/routes"
	"streetrelay/config"
	"streetrelay/internal/repository"
	"streetrelay/internal/service"
	"streetrelay/internal/token"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	db, err := config.ConnectDB(logger)
	if err != nil {
		logger.WithError(err).Fatal("database setup failed")
	}

	secret := []byte(os.Getenv("TOKEN_SECRET"))
	if len(secret) == 0 {
		logger.Fatal("TOKEN_SECRET is required")
	}
	codec := token.NewCodec(secret)

	authConfig := service.AuthConfig{
		SessionFreshWindow:  envDuration(logger, "SESSION_FRESH_WINDOW", 24*time.Hour),
		SessionCeiling:      envDuration(logger, "SESSION_CEILING", 30*24*time.Hour),
		ConsoleAccessWindow: envDuration(logger, "CONSOLE_ACCESS_WINDOW", 5*time.Minute),
		ConsoleCeiling:      envDuration(logger, "CONSOLE_CEILING", 14*24*time.Hour),
		EmailVerifyTTL:      envDuration(logger, "EMAIL_VERIFY_TTL", 10*time.Minute),
		PasswordResetTTL:    envDuration(logger, "PASSWORD_RESET_TTL", 5*time.Minute),
		StoreTimeout:        envDuration(logger, "STORE_TIMEOUT", 5*time.Second),
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	consoleRepo := repository.NewConsoleRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)

	emailSender := service.NewResendEmailSender(
		os.Getenv("RESEND_KEY"),
		envDefault("EMAIL_VERIFY_FROM", "StreetRelay <onboarding@resend.dev>"),
		envDefault("EMAIL_RECOVER_FROM", "StreetRelay <onboarding@resend.dev>"),
		os.Getenv("APP_BASE_URL"),
	)
	passwordHasher := service.BcryptPasswordHasher{}
	clock := service.RealClock{}

	sessionService := service.NewSessionService(
		userRepo, sessionRepo, securityRepo,
		codec, passwordHasher, emailSender, clock, authConfig,
	)
	consoleService := service.NewConsoleService(
		consoleRepo, securityRepo,
		codec, clock, authConfig,
	)
	accountService := service.NewAccountService(
		userRepo, sessionRepo, consoleRepo, securityRepo,
		codec, passwordHasher, emailSender, clock, authConfig,
	)

	validate := validator.New()
	authHandler := handler.NewAuthHandler(sessionService, accountService, validate)
	authHandler.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	authHandler.SecureCookies = os.Getenv("COOKIE_SECURE") != "false"
	authHandler.CookieTTL = authConfig.SessionCeiling

	sessionHandler := handler.NewSessionHandler(sessionService)
	consoleHandler := handler.NewConsoleHandler(consoleService, accountService, validate)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(
		app,
		authHandler,
		sessionHandler,
		consoleHandler,
		apiMiddleware.SessionAuthMiddleware{Sessions: sessionService},
		apiMiddleware.ConsoleAuthMiddleware{Consoles: consoleService},
	)
	router.RegisterRoutes()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func envDefault(name string, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envDuration(logger *logrus.Logger, name string, fallback time.Duration) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.WithField("var", name).WithError(err).Warn("invalid duration, using default")
		return fallback
	}
	return parsed
}
