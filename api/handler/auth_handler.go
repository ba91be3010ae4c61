package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"streetrelay/api/middleware"
	"streetrelay/internal/dto"
	"streetrelay/internal/service"
	"streetrelay/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Sessions *service.SessionService
	Accounts *service.AccountService
	Validate *validator.Validate

	CookieDomain  string
	SecureCookies bool
	SameSite      http.SameSite
	CookieTTL     time.Duration
}

func NewAuthHandler(sessions *service.SessionService, accounts *service.AccountService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Sessions:      sessions,
		Accounts:      accounts,
		Validate:      validate,
		SecureCookies: true,
		SameSite:      http.SameSiteLaxMode,
		CookieTTL:     30 * 24 * time.Hour,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	label, class := utils.DeviceLabel(c.Request().UserAgent())
	result, err := h.Sessions.Register(c.Request().Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DeviceLabel: label,
		DeviceClass: class,
		IPAddress:   stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	h.setSessionCookie(c, result.Token)
	return c.JSON(http.StatusCreated, dto.LoginResponse{
		UserID:    result.UserID,
		SessionID: result.SessionID.String(),
		EmailSent: result.EmailSent,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	label, class := utils.DeviceLabel(c.Request().UserAgent())
	result, err := h.Sessions.Login(c.Request().Context(), service.LoginInput{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
		PresentedToken:  readCookie(c, middleware.SessionCookieName),
		DeviceLabel:     label,
		DeviceClass:     class,
		IPAddress:       stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	h.setSessionCookie(c, result.Token)
	return c.JSON(http.StatusOK, dto.LoginResponse{
		UserID:    result.UserID,
		SessionID: result.SessionID.String(),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Sessions.Logout(c.Request().Context(), auth, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	email, err := h.Accounts.VerifyEmail(c.Request().Context(), c.QueryParam("t"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"email": email})
}

func (h *AuthHandler) PasswordForgot(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Accounts.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	user, err := h.Accounts.CurrentUser(c.Request().Context(), auth.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) validate(req any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(req)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(h.CookieTTL / time.Second),
		Expires:  time.Now().Add(h.CookieTTL),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrCurrentSession):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoToken),
		errors.Is(err, service.ErrBadToken),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrExpiredSession),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrExpiredToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrFreshLoginRequired),
		errors.Is(err, service.ErrForeignSession):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrConsoleAlreadyPaired):
		status = http.StatusConflict
	}
	return writeError(c, status, err)
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
