package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketsync/dispatcher"
	"ticketsync/entity"
	"ticketsync/view"
	"ticketsync/viewmodel"
)

type ticketsResponse struct {
	view.ListView
	Stale bool `json:"stale,omitempty"`
}

type cancelTicketRequest struct {
	Confirm bool `json:"confirm"`
}

func (s Server) GetTickets(c echo.Context) error {
	category, err := viewmodel.ParseCategory(c.QueryParam("filter"), s.legacyCategories)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	workspace, err := s.workspace(c)
	if err != nil {
		return err
	}

	stale := false
	if c.QueryParam("refresh") == "true" || !workspace.Loaded() {
		if err := workspace.Reload(c.Request().Context()); err != nil {
			s.forgetExpired(c, err)
			if errors.Is(err, entity.ErrUnauthorized) || !workspace.Loaded() {
				return errorResponse(err, "Failed to load tickets. Please try again later.")
			}

			log.FromContext(c.Request().Context()).WithError(err).Warn("Serving cached tickets")
			stale = true
		}
	}

	return c.JSON(http.StatusOK, ticketsResponse{
		ListView: view.List(category, workspace.Tickets().All()),
		Stale:    stale,
	})
}

func (s Server) GetTicket(c echo.Context) error {
	ticket, err := s.ticket(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view.Project(ticket))
}

func (s Server) GetTicketQRCode(c echo.Context) error {
	size := view.DefaultQRSize
	if raw := c.QueryParam("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			return echo.NewHTTPError(http.StatusBadRequest, "size must be between 64 and 1024")
		}
		size = parsed
	}

	ticket, err := s.ticket(c)
	if err != nil {
		return err
	}

	png, err := view.QRCodePNG(ticket, size)
	if errors.Is(err, view.ErrNoQRCode) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// ticket prefers the workspace cache and asks the backend only on a miss.
func (s Server) ticket(c echo.Context) (entity.Ticket, error) {
	workspace, err := s.workspace(c)
	if err != nil {
		return entity.Ticket{}, err
	}

	ticketID := c.Param("id")
	if cached, ok := workspace.Tickets().Get(ticketID); ok {
		return cached, nil
	}

	ticket, err := s.gateway.GetTicket(c.Request().Context(), ticketID, workspace.Session().Token)
	if err != nil {
		s.forgetExpired(c, err)
		return entity.Ticket{}, errorResponse(err, "Failed to load ticket")
	}

	return ticket, nil
}

func (s Server) PostTickets(c echo.Context) error {
	var form dispatcher.BookingForm
	if err := c.Bind(&form); err != nil {
		return err
	}

	workspace, err := s.workspace(c)
	if err != nil {
		return err
	}

	outcome := s.dispatcher.SubmitBooking(c.Request().Context(), workspace, &form)

	return s.respond(c, outcome, http.StatusCreated)
}

func (s Server) PostCancelTicket(c echo.Context) error {
	var request cancelTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	workspace, err := s.workspace(c)
	if err != nil {
		return err
	}

	outcome := s.dispatcher.SubmitCancellation(
		c.Request().Context(),
		workspace,
		c.Param("id"),
		dispatcher.Answer(request.Confirm),
	)

	return s.respond(c, outcome, http.StatusOK)
}

func (s Server) PutValidateTicket(c echo.Context) error {
	var request entity.ValidateTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	request.TicketID = c.Param("id")

	outcome := s.dispatcher.SubmitValidation(c.Request().Context(), s.optionalWorkspace(c), request)

	return s.respond(c, outcome, http.StatusOK)
}
