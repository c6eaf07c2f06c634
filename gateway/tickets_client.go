package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ticketsync/entity"
)

type FetchOption func(*fetchOptions)

type fetchOptions struct {
	status entity.TicketStatus
}

// WithStatus asks the ticketing service to filter server-side.
func WithStatus(status entity.TicketStatus) FetchOption {
	return func(o *fetchOptions) {
		o.status = status
	}
}

func (c TicketingClient) FetchTicketsForPassenger(
	ctx context.Context,
	passengerID string,
	token string,
	opts ...FetchOption,
) ([]entity.Ticket, error) {
	options := fetchOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	endpoint := c.ticketingURL + "/tickets/passenger/" + url.PathEscape(passengerID)
	if options.status != "" {
		endpoint += "?status=" + url.QueryEscape(string(options.status))
	}

	tickets := make([]entity.Ticket, 0)
	err := c.do(ctx, "fetch_tickets", request{
		method:   http.MethodGet,
		url:      endpoint,
		token:    token,
		response: &tickets,
	})
	if err != nil {
		return nil, fmt.Errorf("could not fetch tickets of passenger %s: %w", passengerID, err)
	}

	// the service answers `null` for passengers without tickets
	if tickets == nil {
		tickets = make([]entity.Ticket, 0)
	}

	return tickets, nil
}

func (c TicketingClient) GetTicket(ctx context.Context, ticketID string, token string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := c.do(ctx, "get_ticket", request{
		method:   http.MethodGet,
		url:      c.ticketingURL + "/tickets/" + url.PathEscape(ticketID),
		token:    token,
		response: &ticket,
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket %s: %w", ticketID, err)
	}

	return ticket, nil
}

func (c TicketingClient) BookTicket(ctx context.Context, booking entity.BookTicketRequest, token string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := c.do(ctx, "book_ticket", request{
		method:   http.MethodPost,
		url:      c.ticketingURL + "/tickets",
		token:    token,
		body:     booking,
		response: &ticket,
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not book ticket for trip %s: %w", booking.TripID, err)
	}

	return ticket, nil
}

func (c TicketingClient) CancelTicket(ctx context.Context, ticketID string, token string) error {
	endpoint := c.ticketingURL + "/tickets/" + url.PathEscape(ticketID)
	if c.cancelMethod == http.MethodPut {
		endpoint += "/cancel"
	}

	err := c.do(ctx, "cancel_ticket", request{
		method: c.cancelMethod,
		url:    endpoint,
		token:  token,
	})
	if err != nil {
		return fmt.Errorf("could not cancel ticket %s: %w", ticketID, err)
	}

	return nil
}

func (c TicketingClient) ValidateTicket(ctx context.Context, validation entity.ValidateTicketRequest) (entity.ValidationResult, error) {
	var result entity.ValidationResult
	err := c.do(ctx, "validate_ticket", request{
		method:   http.MethodPut,
		url:      c.ticketingURL + "/tickets/" + url.PathEscape(validation.TicketID) + "/validate",
		body:     validation,
		response: &result,
	})
	if err != nil {
		return entity.ValidationResult{}, fmt.Errorf("could not validate ticket %s: %w", validation.TicketID, err)
	}

	return result, nil
}

func (c TicketingClient) ListTrips(ctx context.Context, status entity.TripStatus) ([]entity.Trip, error) {
	endpoint := c.transportURL + "/transport/trips"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(strings.ToLower(string(status)))
	}

	trips := make([]entity.Trip, 0)
	err := c.do(ctx, "list_trips", request{
		method:   http.MethodGet,
		url:      endpoint,
		response: &trips,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list trips: %w", err)
	}
	if trips == nil {
		trips = make([]entity.Trip, 0)
	}

	return trips, nil
}

type loginResponse struct {
	Token       string `json:"token"`
	PassengerID string `json:"passengerId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Message     string `json:"message"`
}

func (c TicketingClient) Login(ctx context.Context, username, password string) (entity.Session, error) {
	var resp loginResponse
	err := c.do(ctx, "login", request{
		method:   http.MethodPost,
		url:      c.passengerURL + "/passengers/login",
		body:     entity.LoginRequest{Username: username, Password: password},
		response: &resp,
	})
	if err != nil {
		return entity.Session{}, fmt.Errorf("could not log in as %s: %w", username, err)
	}

	if resp.Token == "" || resp.PassengerID == "" {
		return entity.Session{}, &entity.ServerError{
			StatusCode: http.StatusOK,
			Message:    "login response without token",
			Kind:       entity.ErrUnauthorized,
		}
	}

	return entity.Session{
		PassengerID: resp.PassengerID,
		Username:    resp.Username,
		Email:       resp.Email,
		Token:       resp.Token,
		CreatedAt:   c.now(),
	}, nil
}
