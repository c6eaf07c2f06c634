package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"ticketsync/entity"
	"ticketsync/metrics"
	"ticketsync/viewmodel"
)

const (
	CommandBook     = "book_ticket"
	CommandCancel   = "cancel_ticket"
	CommandValidate = "validate_ticket"

	networkErrorMessage = "Network error. Please try again."
	staleListNote       = " The ticket list could not be refreshed."
)

type Gateway interface {
	BookTicket(ctx context.Context, booking entity.BookTicketRequest, token string) (entity.Ticket, error)
	CancelTicket(ctx context.Context, ticketID string, token string) error
	ValidateTicket(ctx context.Context, validation entity.ValidateTicketRequest) (entity.ValidationResult, error)
}

// EventPublisher is satisfied by *cqrs.EventBus.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Outcome struct {
	Command      string                   `json:"command"`
	OK           bool                     `json:"ok"`
	Declined     bool                     `json:"declined,omitempty"`
	Notification Notification             `json:"notification"`
	Ticket       *entity.Ticket           `json:"ticket,omitempty"`
	Validation   *entity.ValidationResult `json:"validation,omitempty"`

	// Err is the classified cause of a failed command.
	Err error `json:"-"`
}

// Dispatcher runs the user's mutating commands. Every error ends up in the
// returned Outcome and its notification; none is propagated.
type Dispatcher struct {
	gateway   Gateway
	publisher EventPublisher
	notifier  Notifier
}

// NewDispatcher builds a dispatcher. publisher may be nil when nothing
// listens for ticket events.
func NewDispatcher(gateway Gateway, publisher EventPublisher, notifier Notifier) Dispatcher {
	if gateway == nil {
		panic("nil gateway")
	}
	if notifier == nil {
		panic("nil notifier")
	}

	return Dispatcher{
		gateway:   gateway,
		publisher: publisher,
		notifier:  notifier,
	}
}

type BookingForm struct {
	TripID     string            `json:"tripId"`
	SeatNumber string            `json:"seatNumber"`
	TicketType entity.TicketType `json:"ticketType"`
}

func (f BookingForm) Validate() error {
	if f.TripID == "" {
		return &entity.ClientValidationError{Field: "tripId", Message: "Please select a trip"}
	}
	return nil
}

func (f *BookingForm) Reset() {
	*f = BookingForm{}
}

// SubmitBooking books a ticket and, once the backend accepted it, reloads
// the list, clears the form and only then reports success.
func (d Dispatcher) SubmitBooking(ctx context.Context, workspace *viewmodel.Workspace, form *BookingForm) Outcome {
	if workspace == nil {
		return d.finish(ctx, Outcome{
			Command:      CommandBook,
			Notification: failure("Please login first", false),
			Err:          entity.ErrNoSession,
		})
	}

	if err := form.Validate(); err != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandBook,
			Notification: failure(err.Error(), true),
			Err:          err,
		})
	}

	ticketType := form.TicketType
	if ticketType == "" {
		ticketType = entity.TicketTypeSingle
	}

	session := workspace.Session()
	ticket, err := d.gateway.BookTicket(ctx, entity.BookTicketRequest{
		PassengerID: session.PassengerID,
		TripID:      form.TripID,
		SeatNumber:  form.SeatNumber,
		TicketType:  ticketType,
	}, session.Token)
	if err != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandBook,
			Notification: failure(errorMessage(err, "Unknown error occurred"), errors.Is(err, entity.ErrValidation)),
			Err:          err,
		})
	}

	notification := success("Ticket purchased successfully!")
	if err := workspace.Reload(ctx); err != nil {
		log.FromContext(ctx).WithError(err).Warn("Could not reload tickets after booking")
		notification.Message += staleListNote
	}

	form.Reset()

	d.publish(ctx, entity.TicketBooked{
		Header:      entity.NewEventHeader(),
		TicketID:    ticket.TicketID,
		PassengerID: session.PassengerID,
		TripID:      ticket.TripID,
		SeatNumber:  ticket.SeatNumber,
		TicketType:  ticket.TicketType,
		Price:       ticket.Price,
		Status:      ticket.Status,
	})

	return d.finish(ctx, Outcome{
		Command:      CommandBook,
		OK:           true,
		Notification: notification,
		Ticket:       &ticket,
	})
}

// SubmitCancellation asks for confirmation, cancels and reloads. A declined
// confirmation sends nothing.
func (d Dispatcher) SubmitCancellation(ctx context.Context, workspace *viewmodel.Workspace, ticketID string, confirmer Confirmer) Outcome {
	if workspace == nil {
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Notification: failure("Please login first", false),
			Err:          entity.ErrNoSession,
		})
	}

	if ticketID == "" {
		err := &entity.ClientValidationError{Field: "ticketId", Message: "Please select a ticket"}
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Notification: failure(err.Error(), true),
			Err:          err,
		})
	}

	// statuses only move forward, so a cached final status is still final
	if cached, ok := workspace.Tickets().Get(ticketID); ok && !cached.IsCancellable() {
		err := &entity.ServerError{
			Message: fmt.Sprintf("Ticket cannot be cancelled in status %s", cached.Status),
			Kind:    entity.ErrInvalidState,
		}
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Notification: failure(err.Message, false),
			Err:          err,
		})
	}

	confirmed, err := confirmer.Confirm(ctx, CancelQuestion)
	if err != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Notification: failure("Failed to cancel ticket", false),
			Err:          fmt.Errorf("could not confirm cancellation: %w", err),
		})
	}
	if !confirmed {
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Declined:     true,
			Notification: Notification{Level: LevelInfo, Message: "Cancellation aborted"},
		})
	}

	session := workspace.Session()
	if err := d.gateway.CancelTicket(ctx, ticketID, session.Token); err != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandCancel,
			Notification: failure(errorMessage(err, "Failed to cancel ticket"), false),
			Err:          err,
		})
	}

	notification := success("Ticket cancelled successfully")
	if err := workspace.Reload(ctx); err != nil {
		log.FromContext(ctx).WithError(err).Warn("Could not reload tickets after cancellation")
		notification.Message += staleListNote
	}

	d.publish(ctx, entity.TicketCancelled{
		Header:      entity.NewEventHeader(),
		TicketID:    ticketID,
		PassengerID: session.PassengerID,
	})

	return d.finish(ctx, Outcome{
		Command:      CommandCancel,
		OK:           true,
		Notification: notification,
	})
}

// SubmitValidation checks a ticket at a validator. workspace is optional,
// when given its list is reloaded after the check.
func (d Dispatcher) SubmitValidation(ctx context.Context, workspace *viewmodel.Workspace, validation entity.ValidateTicketRequest) Outcome {
	var missing error
	switch {
	case validation.TicketID == "":
		missing = &entity.ClientValidationError{Field: "ticketId", Message: "Please enter a ticket ID"}
	case validation.QRCode == "":
		missing = &entity.ClientValidationError{Field: "qrCode", Message: "Please enter the QR code"}
	}
	if missing != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandValidate,
			Notification: failure(missing.Error(), true),
			Err:          missing,
		})
	}

	result, err := d.gateway.ValidateTicket(ctx, validation)
	if err != nil {
		return d.finish(ctx, Outcome{
			Command:      CommandValidate,
			Notification: failure(errorMessage(err, "Validation failed"), false),
			Err:          err,
		})
	}

	d.publish(ctx, entity.TicketValidated{
		Header:      entity.NewEventHeader(),
		TicketID:    validation.TicketID,
		PassengerID: result.PassengerID,
		ValidatorID: validation.ValidatorID,
		IsValid:     result.IsValid,
		Message:     result.Message,
	})

	outcome := Outcome{
		Command:    CommandValidate,
		OK:         result.IsValid,
		Validation: &result,
	}

	if !result.IsValid {
		message := result.Message
		if message == "" {
			message = "Ticket is not valid"
		}
		outcome.Notification = failure(message, false)
		outcome.Err = &entity.ServerError{Message: message, Kind: entity.ErrValidation}

		return d.finish(ctx, outcome)
	}

	outcome.Notification = success("Ticket validated successfully!")
	if workspace != nil {
		if err := workspace.Reload(ctx); err != nil {
			log.FromContext(ctx).WithError(err).Warn("Could not reload tickets after validation")
			outcome.Notification.Message += staleListNote
		}
	}

	return d.finish(ctx, outcome)
}

func (d Dispatcher) finish(ctx context.Context, outcome Outcome) Outcome {
	metrics.CommandsDispatched.WithLabelValues(outcome.Command, outcomeLabel(outcome)).Inc()

	logger := log.FromContext(ctx).WithField("command", outcome.Command)
	if outcome.Err != nil {
		logger = logger.WithError(outcome.Err)
	}
	logger.WithField("ok", outcome.OK).Debug("Command finished")

	d.notifier.Notify(ctx, outcome.Notification)

	return outcome
}

func (d Dispatcher) publish(ctx context.Context, event any) {
	if d.publisher == nil {
		return
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		log.FromContext(ctx).WithError(err).Errorf("Could not publish %T", event)
	}
}

func outcomeLabel(outcome Outcome) string {
	switch {
	case outcome.OK:
		return "ok"
	case outcome.Declined:
		return "declined"
	case errors.Is(outcome.Err, entity.ErrNetwork):
		return "network_error"
	default:
		return "rejected"
	}
}

// errorMessage is what the user sees for a failed command: the backend's
// own message when it sent one.
func errorMessage(err error, fallback string) string {
	if errors.Is(err, entity.ErrNetwork) {
		return networkErrorMessage
	}

	var serverErr *entity.ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}

	return fallback
}
