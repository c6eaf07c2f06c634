package viewmodel

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"ticketsync/entity"
	"ticketsync/gateway"
	"ticketsync/metrics"
)

type TicketSource interface {
	FetchTicketsForPassenger(ctx context.Context, passengerID string, token string, opts ...gateway.FetchOption) ([]entity.Ticket, error)
}

// Workspace is the view-model of one logged-in passenger: the session and
// the cached ticket list that every filter and render reads from.
type Workspace struct {
	session entity.Session
	source  TicketSource
	tickets *TicketCollection
}

func NewWorkspace(session entity.Session, source TicketSource) *Workspace {
	if source == nil {
		panic("nil source")
	}
	if !session.Valid() {
		panic("invalid session")
	}

	return &Workspace{
		session: session,
		source:  source,
		tickets: NewTicketCollection(),
	}
}

func (w *Workspace) Session() entity.Session {
	return w.session
}

func (w *Workspace) Tickets() *TicketCollection {
	return w.tickets
}

// Reload fetches the full ticket list and swaps it into the cache. On error
// the previous snapshot stays untouched.
func (w *Workspace) Reload(ctx context.Context) error {
	logger := log.FromContext(ctx).WithField("passenger_id", w.session.PassengerID)

	tickets, err := w.source.FetchTicketsForPassenger(ctx, w.session.PassengerID, w.session.Token)
	if err != nil {
		metrics.CacheReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("could not reload tickets: %w", err)
	}

	w.tickets.ReplaceAll(tickets)
	metrics.CacheReloads.WithLabelValues("ok").Inc()

	logger.WithField("tickets", len(tickets)).Debug("Ticket list reloaded")

	return nil
}

// View is the cached list narrowed to a category.
func (w *Workspace) View(category Category) []entity.Ticket {
	return Filter(w.tickets.All(), category)
}

// Loaded reports whether at least one reload succeeded.
func (w *Workspace) Loaded() bool {
	return !w.tickets.LoadedAt().IsZero()
}
