package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"ticketsync/app"
	"ticketsync/config"
	"ticketsync/dispatcher"
	"ticketsync/entity"
	"ticketsync/gateway"
	"ticketsync/mockserver"
	"ticketsync/session"
	"ticketsync/view"
	"ticketsync/viewmodel"
)

// the terminal has a single session, kept in the session file
const cliSessionID = "cli"

var (
	errCommandFailed = errors.New("command failed")

	errMockGateway = errors.New(
		"gateway mode mock keeps no state between commands: " +
			"run `ticketsync mock-backend` and point gateway.ticketing_url at it",
	)
)

type cli struct {
	ConfigPath string `short:"c" long:"config" env:"TICKETSYNC_CONFIG" default:"ticketsync.yaml" description:"yaml config file, environment variables override it"`

	ctx context.Context
	in  io.Reader
	out io.Writer
}

func newCLI(ctx context.Context, in io.Reader, out io.Writer) *cli {
	return &cli{ctx: ctx, in: in, out: out}
}

func (c *cli) parser() *flags.Parser {
	parser := flags.NewParser(c, flags.Default)

	commands := []struct {
		name        string
		description string
		data        any
	}{
		{"serve", "Run the ticket portal", &serveCommand{cli: c}},
		{"mock-backend", "Run a fake ticketing backend for demos", &mockBackendCommand{cli: c}},
		{"login", "Log in and remember the session", &loginCommand{cli: c}},
		{"logout", "Forget the stored session", &logoutCommand{cli: c}},
		{"tickets", "List your tickets", &ticketsCommand{cli: c}},
		{"book", "Book a ticket", &bookCommand{cli: c}},
		{"cancel", "Cancel a ticket", &cancelCommand{cli: c}},
		{"validate", "Validate a ticket at a gate", &validateCommand{cli: c}},
		{"trips", "List trips open for booking", &tripsCommand{cli: c}},
	}
	for _, cmd := range commands {
		if _, err := parser.AddCommand(cmd.name, cmd.description, cmd.description, cmd.data); err != nil {
			panic(fmt.Errorf("could not add command %s: %w", cmd.name, err))
		}
	}

	return parser
}

func (c *cli) config() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.Init(level)

	return cfg, nil
}

// backend is the gateway plus the session file of the terminal user.
func (c *cli) backend() (app.Gateway, *session.FileStore, *config.Config, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Gateway.Mode == config.GatewayModeMock {
		return nil, nil, nil, errMockGateway
	}

	return app.NewGateway(cfg.Gateway), session.NewFileStore(cfg.Session.File), cfg, nil
}

func (c *cli) workspace(gw app.Gateway, store *session.FileStore) (*viewmodel.Workspace, error) {
	ws, err := viewmodel.NewRegistry(gw, store).Get(c.ctx, cliSessionID)
	if errors.Is(err, entity.ErrNoSession) {
		return nil, errors.New("please log in first: ticketsync login -u <username> -p <password>")
	}
	if err != nil {
		return nil, err
	}

	return ws, nil
}

func (c *cli) dispatcher(gw app.Gateway) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(gw, nil, dispatcher.PrintNotifier{Out: c.out})
}

func (c *cli) result(outcome dispatcher.Outcome) error {
	if outcome.OK || outcome.Declined {
		return nil
	}
	return errCommandFailed
}

type serveCommand struct {
	cli *cli
}

func (s *serveCommand) Execute([]string) error {
	cfg, err := s.cli.config()
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(cfg)
	if err != nil {
		return err
	}

	a, err := app.New(app.Options{
		Addr:                   cfg.HTTP.Addr,
		RefreshInterval:        cfg.ViewModel.RefreshInterval,
		LegacyCategoryFallback: cfg.ViewModel.LegacyCategoryFallback,
	}, deps)
	if err != nil {
		return err
	}

	return a.Run(s.cli.ctx)
}

type mockBackendCommand struct {
	cli *cli
}

func (m *mockBackendCommand) Execute([]string) error {
	cfg, err := m.cli.config()
	if err != nil {
		return err
	}

	server := mockserver.New(cfg.Mock.Addr, gateway.NewTicketingMock(), cfg.Mock.JWTSecret, cfg.Mock.Latency)

	return server.Run(m.cli.ctx)
}

type loginCommand struct {
	Username string `short:"u" long:"username" required:"yes" description:"passenger username"`
	Password string `short:"p" long:"password" env:"TICKETSYNC_PASSWORD" required:"yes" description:"passenger password"`

	cli *cli
}

func (l *loginCommand) Execute([]string) error {
	gw, store, _, err := l.cli.backend()
	if err != nil {
		return err
	}

	passenger, err := gw.Login(l.cli.ctx, l.Username, l.Password)
	if errors.Is(err, entity.ErrUnauthorized) {
		return errors.New("invalid username or password")
	}
	if err != nil {
		return err
	}

	if err := store.Save(l.cli.ctx, cliSessionID, passenger); err != nil {
		return err
	}

	fmt.Fprintf(l.cli.out, "Logged in as %s (%s)\n", passenger.Username, passenger.PassengerID)

	return nil
}

type logoutCommand struct {
	cli *cli
}

func (l *logoutCommand) Execute([]string) error {
	_, store, _, err := l.cli.backend()
	if err != nil {
		return err
	}

	if err := store.Delete(l.cli.ctx, cliSessionID); err != nil {
		return err
	}

	fmt.Fprintln(l.cli.out, "Logged out")

	return nil
}

type ticketsCommand struct {
	Filter string `short:"f" long:"filter" default:"all" description:"all, active, used, expired or cancelled"`

	cli *cli
}

func (t *ticketsCommand) Execute([]string) error {
	gw, store, cfg, err := t.cli.backend()
	if err != nil {
		return err
	}

	category, err := viewmodel.ParseCategory(t.Filter, cfg.ViewModel.LegacyCategoryFallback)
	if err != nil {
		return err
	}

	ws, err := t.cli.workspace(gw, store)
	if err != nil {
		return err
	}

	if err := ws.Reload(t.cli.ctx); err != nil {
		return fmt.Errorf("could not load tickets: %w", err)
	}

	printTickets(t.cli.out, view.List(category, ws.Tickets().All()))

	return nil
}

func printTickets(out io.Writer, list view.ListView) {
	for _, c := range viewmodel.Categories {
		fmt.Fprintf(out, "%s: %d  ", c, list.Counts[c])
	}
	fmt.Fprintln(out)

	if list.Message != "" {
		fmt.Fprintln(out, list.Message)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKET\tTRIP\tSEAT\tTYPE\tPRICE\tSTATUS\tPURCHASED\tVALID UNTIL")
	for _, ticket := range list.Tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ticket.ShortID,
			ticket.TripID,
			ticket.SeatNumber,
			ticket.TypeLabel,
			ticket.Price,
			ticket.Status,
			ticket.PurchaseDate,
			ticket.ValidUntil,
		)
	}
	_ = w.Flush()
}

type bookCommand struct {
	TripID     string `short:"t" long:"trip" required:"yes" description:"trip to book"`
	TicketType string `long:"type" default:"single" description:"single, return, day-pass, weekly-pass or monthly-pass"`
	SeatNumber string `short:"s" long:"seat" description:"seat, any free seat when empty"`

	cli *cli
}

func (b *bookCommand) Execute([]string) error {
	gw, store, _, err := b.cli.backend()
	if err != nil {
		return err
	}

	ws, err := b.cli.workspace(gw, store)
	if err != nil {
		return err
	}

	outcome := b.cli.dispatcher(gw).SubmitBooking(b.cli.ctx, ws, &dispatcher.BookingForm{
		TripID:     b.TripID,
		SeatNumber: b.SeatNumber,
		TicketType: entity.TicketType(b.TicketType),
	})
	if outcome.Ticket != nil {
		fmt.Fprintf(b.cli.out, "Ticket %s, QR code %s\n", outcome.Ticket.TicketID, outcome.Ticket.QRCode)
	}

	return b.cli.result(outcome)
}

type cancelCommand struct {
	Yes  bool `short:"y" long:"yes" description:"do not ask for confirmation"`
	Args struct {
		TicketID string `positional-arg-name:"ticket-id" required:"yes"`
	} `positional-args:"yes"`

	cli *cli
}

func (c *cancelCommand) Execute([]string) error {
	gw, store, _, err := c.cli.backend()
	if err != nil {
		return err
	}

	ws, err := c.cli.workspace(gw, store)
	if err != nil {
		return err
	}

	// lets the dispatcher refuse final statuses without asking
	if err := ws.Reload(c.cli.ctx); err != nil {
		log.FromContext(c.cli.ctx).WithError(err).Debug("Could not load tickets before cancelling")
	}

	var confirmer dispatcher.Confirmer = dispatcher.PromptConfirmer{In: c.cli.in, Out: c.cli.out}
	if c.Yes {
		confirmer = dispatcher.Answer(true)
	}

	outcome := c.cli.dispatcher(gw).SubmitCancellation(c.cli.ctx, ws, c.Args.TicketID, confirmer)

	return c.cli.result(outcome)
}

type validateCommand struct {
	TicketID    string `long:"ticket" required:"yes" description:"ticket to validate"`
	QRCode      string `long:"qr" required:"yes" description:"scanned QR code"`
	ValidatorID string `long:"validator" default:"cli" description:"id of the validating device"`

	cli *cli
}

func (v *validateCommand) Execute([]string) error {
	gw, store, _, err := v.cli.backend()
	if err != nil {
		return err
	}

	// validators do not need to be logged in
	ws, _ := v.cli.workspace(gw, store)

	outcome := v.cli.dispatcher(gw).SubmitValidation(v.cli.ctx, ws, entity.ValidateTicketRequest{
		TicketID:    v.TicketID,
		QRCode:      v.QRCode,
		ValidatorID: v.ValidatorID,
	})

	return v.cli.result(outcome)
}

type tripsCommand struct {
	Status string `long:"status" default:"scheduled" description:"trip status to list"`

	cli *cli
}

func (t *tripsCommand) Execute([]string) error {
	gw, _, _, err := t.cli.backend()
	if err != nil {
		return err
	}

	trips, err := gw.ListTrips(t.cli.ctx, entity.TripStatus(t.Status))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(t.cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIP\tROUTE\tDEPARTURE\tARRIVAL\tSEATS\tPRICE")
	for _, trip := range trips {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t$%.2f\n",
			trip.TripID,
			trip.RouteID,
			trip.ScheduledDeparture.Format("Jan 2, 2006 15:04"),
			trip.ScheduledArrival.Format("Jan 2, 2006 15:04"),
			trip.AvailableSeats,
			trip.TotalSeats,
			trip.CurrentPrice,
		)
	}

	return w.Flush()
}
