package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketsync/entity"
)

func (s Server) GetTrips(c echo.Context) error {
	status := entity.TripStatus(c.QueryParam("status"))
	if status == "" {
		status = entity.TripStatusScheduled
	}

	trips, err := s.gateway.ListTrips(c.Request().Context(), status)
	if err != nil {
		return errorResponse(err, "Failed to load trips")
	}

	return c.JSON(http.StatusOK, trips)
}
