package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/verte-zerg/typetrack/internal/auth"
	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/session"
)

const userKey = "user"

type handler struct {
	deps Deps
}

func okBody(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func errorBody(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}

type userView struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (h *handler) health(c echo.Context) error {
	if h.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Health.Ping(ctx); err != nil {
			h.deps.Logger.Warn("health check failed", "err", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) randomPassage(c echo.Context) error {
	if h.deps.Passage == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("No passages available"))
	}
	return c.JSON(http.StatusOK, okBody(map[string]string{"text": h.deps.Passage()}))
}

func (h *handler) register(c echo.Context) error {
	var req auth.Registration
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	user, token, err := h.deps.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"token":   token,
		"user":    viewOf(user),
	})
}

func (h *handler) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	user, token, err := h.deps.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    viewOf(user),
	})
}

func (h *handler) currentUser(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    viewOf(userFrom(c)),
	})
}

func (h *handler) createSession(c echo.Context) error {
	var candidate model.Candidate
	if err := decodeJSON(c, &candidate); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	saved, err := h.deps.Sessions.Create(c.Request().Context(), userFrom(c).ID, candidate)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, okBody(saved))
}

func (h *handler) listSessions(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid limit"))
	}
	sessions, err := h.deps.Sessions.List(c.Request().Context(), userFrom(c).ID, c.Param("userId"), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, okBody(sessions))
}

func (h *handler) summary(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid limit"))
	}
	summary, err := h.deps.Sessions.Summary(c.Request().Context(), userFrom(c).ID, c.Param("userId"), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, okBody(summary))
}

func (h *handler) analysis(c echo.Context) error {
	a, err := h.deps.Sessions.Analysis(c.Request().Context(), userFrom(c).ID, c.Param("sessionId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, okBody(a))
}

func (h *handler) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := extractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorBody("Please authenticate"))
		}
		user, err := h.deps.Auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return c.JSON(http.StatusUnauthorized, errorBody("Please authenticate"))
			}
			return h.writeError(c, err)
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func userFrom(c echo.Context) model.User {
	u, _ := c.Get(userKey).(model.User)
	return u
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported without detail.
func (h *handler) writeError(c echo.Context, err error) error {
	var sessionErr *session.ValidationError
	var authErr *auth.ValidationError
	switch {
	case errors.As(err, &sessionErr):
		return c.JSON(http.StatusBadRequest, errorBody(sessionErr.Reason))
	case errors.As(err, &authErr):
		return c.JSON(http.StatusBadRequest, errorBody(authErr.Reason))
	case errors.Is(err, session.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody("Unauthorized access"))
	case errors.Is(err, session.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("Session not found"))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody("Unable to login"))
	case errors.Is(err, auth.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, errorBody("Please authenticate"))
	case errors.Is(err, auth.ErrUserExists):
		return c.JSON(http.StatusConflict, errorBody("Username or email already registered"))
	}
	h.deps.Logger.Error("request failed",
		"err", err,
		"path", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)
	return c.JSON(http.StatusInternalServerError, errorBody("Server error"))
}

func decodeJSON(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	return dec.Decode(dst)
}

func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
