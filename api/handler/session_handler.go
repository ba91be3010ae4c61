package handler

import (
	"errors"
	"net/http"

	"streetrelay/api/middleware"
	"streetrelay/internal/dto"
	"streetrelay/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	Sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

func (h *SessionHandler) ListSessions(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	sessions, err := h.Sessions.ListSessions(c.Request().Context(), auth.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SessionResponsesFromEntities(sessions, auth.SessionID))
}

func (h *SessionHandler) RevokeSession(c echo.Context) error {
	auth, ok := middleware.SessionAuthFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid session id"))
	}
	if err := h.Sessions.RevokeSession(c.Request().Context(), auth, target, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
