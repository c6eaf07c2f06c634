package http

import (
	"context"
	"errors"
	"net/http"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"ticketsync/dispatcher"
	"ticketsync/entity"
	"ticketsync/viewmodel"
)

type Gateway interface {
	Login(ctx context.Context, username, password string) (entity.Session, error)
	GetTicket(ctx context.Context, ticketID string, token string) (entity.Ticket, error)
	ListTrips(ctx context.Context, status entity.TripStatus) ([]entity.Trip, error)
}

type ActivityFeed interface {
	Recent(ctx context.Context, limit int) ([]entity.ActivityEntry, error)
}

type Server struct {
	addr string
	e    *echo.Echo

	gateway          Gateway
	registry         *viewmodel.Registry
	dispatcher       dispatcher.Dispatcher
	activity         ActivityFeed
	legacyCategories bool
}

func NewServer(
	addr string,
	gateway Gateway,
	registry *viewmodel.Registry,
	commands dispatcher.Dispatcher,
	activity ActivityFeed,
	legacyCategories bool,
) *Server {
	if gateway == nil {
		panic("nil gateway")
	}
	if registry == nil {
		panic("nil registry")
	}
	if activity == nil {
		panic("nil activity feed")
	}

	e := echoHTTP.NewEcho()
	e.Use(otelecho.Middleware("ticketsync"))

	server := &Server{
		addr:             addr,
		e:                e,
		gateway:          gateway,
		registry:         registry,
		dispatcher:       commands,
		activity:         activity,
		legacyCategories: legacyCategories,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/login", server.PostLogin)
	e.POST("/logout", server.PostLogout)

	e.GET("/tickets", server.GetTickets)
	e.GET("/tickets/:id", server.GetTicket)
	e.GET("/tickets/:id/qr.png", server.GetTicketQRCode)
	e.POST("/tickets", server.PostTickets)
	e.POST("/tickets/:id/cancel", server.PostCancelTicket)
	e.PUT("/tickets/:id/validate", server.PutValidateTicket)

	e.GET("/trips", server.GetTrips)
	e.GET("/activity", server.GetActivity)

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
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
