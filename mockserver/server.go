package mockserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketsync/entity"
	"ticketsync/gateway"
)

const DefaultLatency = 300 * time.Millisecond

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Token       string `json:"token"`
	PassengerID string `json:"passengerId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Message     string `json:"message"`
}

// Server exposes a TicketingMock over the same HTTP API as the real
// ticketing, transport and passenger services, under /api.
type Server struct {
	addr    string
	e       *echo.Echo
	backend *gateway.TicketingMock
	latency time.Duration
}

func New(addr string, backend *gateway.TicketingMock, secret string, latency time.Duration) *Server {
	if backend == nil {
		panic("nil backend")
	}

	backend.Tokens = NewJWTTokens(secret, 24*time.Hour)

	e := echoHTTP.NewEcho()
	server := &Server{
		addr:    addr,
		e:       e,
		backend: backend,
		latency: latency,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api", server.delay)
	api.POST("/passengers/login", server.PostLogin)
	api.GET("/passengers/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/tickets/passenger/:id", server.GetPassengerTickets)
	api.GET("/tickets/:id", server.GetTicket)
	api.POST("/tickets", server.PostTicket)
	api.PUT("/tickets/:id/cancel", server.CancelTicket)
	api.DELETE("/tickets/:id", server.CancelTicket)
	api.PUT("/tickets/:id/validate", server.PutValidateTicket)
	api.PUT("/tickets/:id/pay", server.PutPayTicket)

	api.GET("/transport/trips", server.GetTrips)

	return server
}

func (s Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(context.Background())
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown mock backend")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] mock backend listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// delay simulates a slow network, the request context still cancels it.
func (s Server) delay(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		return next(c)
	}
}

func (s Server) PostLogin(c echo.Context) error {
	var request entity.LoginRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	session, err := s.backend.Login(c.Request().Context(), request.Username, request.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:       session.Token,
		PassengerID: session.PassengerID,
		Username:    session.Username,
		Email:       session.Email,
		Message:     "Login successful",
	})
}

func (s Server) GetPassengerTickets(c echo.Context) error {
	var opts []gateway.FetchOption
	if status := c.QueryParam("status"); status != "" {
		opts = append(opts, gateway.WithStatus(entity.TicketStatus(strings.ToUpper(status))))
	}

	tickets, err := s.backend.FetchTicketsForPassenger(c.Request().Context(), c.Param("id"), bearerToken(c), opts...)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s Server) GetTicket(c echo.Context) error {
	ticket, err := s.backend.GetTicket(c.Request().Context(), c.Param("id"), bearerToken(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s Server) PostTicket(c echo.Context) error {
	var request entity.BookTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	ticket, err := s.backend.BookTicket(c.Request().Context(), request, bearerToken(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, ticket)
}

func (s Server) CancelTicket(c echo.Context) error {
	err := s.backend.CancelTicket(c.Request().Context(), c.Param("id"), bearerToken(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Ticket cancelled"})
}

func (s Server) PutPayTicket(c echo.Context) error {
	ticket, err := s.backend.PayTicket(c.Request().Context(), c.Param("id"), bearerToken(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s Server) PutValidateTicket(c echo.Context) error {
	var request entity.ValidateTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	request.TicketID = c.Param("id")

	result, err := s.backend.ValidateTicket(c.Request().Context(), request)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s Server) GetTrips(c echo.Context) error {
	trips, err := s.backend.ListTrips(c.Request().Context(), entity.TripStatus(c.QueryParam("status")))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, trips)
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}

	return strings.TrimSpace(token)
}

func respondError(c echo.Context, err error) error {
	var serverErr *entity.ServerError
	if errors.As(err, &serverErr) {
		return c.JSON(serverErr.StatusCode, messageResponse{Message: serverErr.Message})
	}

	return err
}
