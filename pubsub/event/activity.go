package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketsync/entity"
)

type ActivityRepository interface {
	Append(ctx context.Context, entry entity.ActivityEntry) error
}

// ActivityHandlers project ticket events into the recent activity feed.
type ActivityHandlers struct {
	repo ActivityRepository
}

func NewActivityHandlers(repo ActivityRepository) ActivityHandlers {
	if repo == nil {
		panic("repo is nil")
	}

	return ActivityHandlers{repo: repo}
}

func (h ActivityHandlers) Handlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("activity.OnTicketBooked", h.OnTicketBooked),
		cqrs.NewEventHandler("activity.OnTicketCancelled", h.OnTicketCancelled),
		cqrs.NewEventHandler("activity.OnTicketValidated", h.OnTicketValidated),
	}
}

func (h ActivityHandlers) OnTicketBooked(ctx context.Context, event *entity.TicketBooked) error {
	details := fmt.Sprintf("%s ticket, $%.2f", event.TicketType, event.Price)
	if event.SeatNumber != "" {
		details += ", seat " + event.SeatNumber
	}

	return h.append(ctx, entity.ActivityEntry{
		EventID:     event.Header.ID,
		OccurredAt:  event.Header.PublishedAt,
		Kind:        entity.ActivityTicketBooked,
		PassengerID: event.PassengerID,
		TicketID:    event.TicketID,
		TripID:      event.TripID,
		Details:     details,
	})
}

func (h ActivityHandlers) OnTicketCancelled(ctx context.Context, event *entity.TicketCancelled) error {
	return h.append(ctx, entity.ActivityEntry{
		EventID:     event.Header.ID,
		OccurredAt:  event.Header.PublishedAt,
		Kind:        entity.ActivityTicketCancelled,
		PassengerID: event.PassengerID,
		TicketID:    event.TicketID,
	})
}

func (h ActivityHandlers) OnTicketValidated(ctx context.Context, event *entity.TicketValidated) error {
	details := event.Message
	if !event.IsValid {
		details = "rejected: " + details
	}
	if event.ValidatorID != "" {
		details += " (validator " + event.ValidatorID + ")"
	}

	return h.append(ctx, entity.ActivityEntry{
		EventID:     event.Header.ID,
		OccurredAt:  event.Header.PublishedAt,
		Kind:        entity.ActivityTicketValidated,
		PassengerID: event.PassengerID,
		TicketID:    event.TicketID,
		Details:     details,
	})
}

func (h ActivityHandlers) append(ctx context.Context, entry entity.ActivityEntry) error {
	log.FromContext(ctx).
		WithField("ticket_id", entry.TicketID).
		WithField("kind", entry.Kind).
		Debug("Recording activity")

	if err := h.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("could not record %s activity: %w", entry.Kind, err)
	}

	return nil
}
