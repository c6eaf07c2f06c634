package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketsync/dispatcher"
	"ticketsync/entity"
)

func statusFor(err error) int {
	var (
		clientErr *entity.ClientValidationError
		serverErr *entity.ServerError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &clientErr), errors.Is(err, entity.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNoSession), errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, entity.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrNetwork), errors.As(err, &serverErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse turns a gateway error into the JSON error body, keeping the
// backend's own message when it sent one.
func errorResponse(err error, fallback string) error {
	message := fallback

	var serverErr *entity.ServerError
	switch {
	case errors.Is(err, entity.ErrNetwork):
		message = "Network error. Please try again."
	case errors.As(err, &serverErr) && serverErr.Message != "":
		message = serverErr.Message
	}

	return echo.NewHTTPError(statusFor(err), message).SetInternal(err)
}

func (s Server) respond(c echo.Context, outcome dispatcher.Outcome, okStatus int) error {
	if outcome.OK || outcome.Declined {
		if outcome.Declined {
			okStatus = http.StatusOK
		}
		return c.JSON(okStatus, outcome)
	}

	s.forgetExpired(c, outcome.Err)

	return c.JSON(statusFor(outcome.Err), outcome)
}
