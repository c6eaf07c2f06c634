package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketsync/entity"
	"ticketsync/viewmodel"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "session_id"
)

type loginResponse struct {
	SessionID   string `json:"sessionId"`
	PassengerID string `json:"passengerId"`
	Username    string `json:"username"`
}

func (s Server) PostLogin(c echo.Context) error {
	var request entity.LoginRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Username == "" || request.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	ctx := c.Request().Context()

	session, err := s.gateway.Login(ctx, request.Username, request.Password)
	if err != nil {
		if errors.Is(err, entity.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
		}
		return errorResponse(err, "Login failed")
	}

	sessionID, workspace, err := s.registry.Open(ctx, session)
	if err != nil {
		return err
	}

	if err := workspace.Reload(ctx); err != nil {
		log.FromContext(ctx).WithError(err).Warn("Could not load tickets after login")
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, loginResponse{
		SessionID:   sessionID,
		PassengerID: session.PassengerID,
		Username:    session.Username,
	})
}

func (s Server) PostLogout(c echo.Context) error {
	sessionID := sessionIDFrom(c)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	if err := s.registry.Close(c.Request().Context(), sessionID); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:    sessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})

	return c.NoContent(http.StatusNoContent)
}

func sessionIDFrom(c echo.Context) string {
	if id := c.Request().Header.Get(sessionHeader); id != "" {
		return id
	}

	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func (s Server) workspace(c echo.Context) (*viewmodel.Workspace, error) {
	workspace, err := s.registry.Get(c.Request().Context(), sessionIDFrom(c))
	if errors.Is(err, entity.ErrNoSession) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if err != nil {
		return nil, err
	}

	return workspace, nil
}

// optionalWorkspace is nil when the caller has no session.
func (s Server) optionalWorkspace(c echo.Context) *viewmodel.Workspace {
	workspace, err := s.registry.Get(c.Request().Context(), sessionIDFrom(c))
	if err != nil {
		return nil
	}

	return workspace
}

// forgetExpired drops the session once the backend no longer accepts its token.
func (s Server) forgetExpired(c echo.Context, err error) {
	if !errors.Is(err, entity.ErrUnauthorized) {
		return
	}

	ctx := c.Request().Context()
	if closeErr := s.registry.Close(ctx, sessionIDFrom(c)); closeErr != nil {
		log.FromContext(ctx).WithError(closeErr).Warn("Could not close expired session")
	}
}
