package handler

import (
	"errors"
	"net/http"

	"streetrelay/api/middleware"
	"streetrelay/internal/dto"
	"streetrelay/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ConsoleHandler struct {
	Consoles *service.ConsoleService
	Accounts *service.AccountService
	Validate *validator.Validate
}

func NewConsoleHandler(consoles *service.ConsoleService, accounts *service.AccountService, validate *validator.Validate) *ConsoleHandler {
	return &ConsoleHandler{Consoles: consoles, Accounts: accounts, Validate: validate}
}

// Pair registers a console for the logged-in user and returns the initial
// token pair. The route sits behind the fresh-login gate.
func (h *ConsoleHandler) Pair(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}

	var req dto.PairConsoleRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			return writeError(c, http.StatusBadRequest, err)
		}
	}

	result, err := h.Consoles.Pair(c.Request().Context(), auth.UserID, req.DeviceName, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.PairConsoleResponse{
		Console:      dto.ConsoleResponseFromEntity(result.Console),
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		IssuedAt:     result.Tokens.IssuedAt.Unix(),
	})
}

// RefreshToken is the console rotation endpoint: refresh token in the
// Authorization header, new pair in the body. Losing a concurrent refresh
// race surfaces here as a 401, a failed store update as a 500.
func (h *ConsoleHandler) RefreshToken(c echo.Context) error {
	raw := middleware.ExtractBearerToken(c.Request())
	pair, err := h.Consoles.Refresh(c.Request().Context(), raw, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IssuedAt:     pair.IssuedAt.Unix(),
	})
}

func (h *ConsoleHandler) GetConsole(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	console, err := h.Consoles.Get(c.Request().Context(), auth.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	if console == nil {
		return writeError(c, http.StatusNotFound, errors.New("no console paired"))
	}
	return c.JSON(http.StatusOK, dto.ConsoleResponseFromEntity(console))
}

func (h *ConsoleHandler) Unlink(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Consoles.Unlink(c.Request().Context(), auth.UserID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile is the console-facing profile write. A stale access token
// still authenticates reads, but privileged writes demand a refresh first.
func (h *ConsoleHandler) UpdateProfile(c echo.Context) error {
	auth, ok := middleware.ConsoleAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if auth.Stale {
		return writeError(c, http.StatusUnauthorized, errors.New("access token is stale, refresh it first"))
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			return writeError(c, http.StatusBadRequest, err)
		}
	}
	if err := h.Accounts.UpdateProfile(c.Request().Context(), auth, req.Nickname, req.DeviceName); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
