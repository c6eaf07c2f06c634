package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"

	"ticketsync/entity"
)

// TokenIssuer lets the fake backend decide how bearer tokens look.
type TokenIssuer interface {
	Issue(passengerID string) (string, error)
	Verify(token string) (passengerID string, err error)
}

type mockUser struct {
	passenger entity.Session
	password  string
}

// TicketingMock is an in-memory stand-in for the ticketing, transport and
// passenger services. It follows the same error contract as TicketingClient.
type TicketingMock struct {
	mock sync.Mutex

	Tokens TokenIssuer
	Now    func() time.Time

	users   map[string]mockUser
	trips   []entity.Trip
	tickets []entity.Ticket

	// calls per operation, read by tests
	Calls map[string]int
}

func NewTicketingMock() *TicketingMock {
	m := &TicketingMock{}
	m.AddUser(entity.Session{
		PassengerID: "pass-001",
		Username:    "demo",
		Email:       "demo@example.com",
	}, "demo123")

	m.AddTrip(demoTrip("trip-001", "route-001", "VEH-101", "DRV-201", 10, 10, 0, 12, 30, 45, 50, 25.50))
	m.AddTrip(demoTrip("trip-002", "route-002", "VEH-102", "DRV-202", 10, 14, 30, 16, 0, 30, 40, 18.00))
	m.AddTrip(demoTrip("trip-003", "route-003", "VEH-103", "DRV-203", 11, 9, 0, 11, 45, 25, 35, 32.00))

	return m
}

func demoTrip(id, routeID, vehicleID, driverID string, day, depHour, depMinute, arrHour, arrMinute, available, total int, price float64) entity.Trip {
	return entity.Trip{
		TripID:             id,
		RouteID:            routeID,
		VehicleID:          vehicleID,
		DriverID:           driverID,
		ScheduledDeparture: entity.NewTimestamp(time.Date(2025, 10, day, depHour, depMinute, 0, 0, time.UTC)),
		ScheduledArrival:   entity.NewTimestamp(time.Date(2025, 10, day, arrHour, arrMinute, 0, 0, time.UTC)),
		Status:             entity.TripStatusScheduled,
		AvailableSeats:     available,
		TotalSeats:         total,
		CurrentPrice:       price,
	}
}

func (m *TicketingMock) init() {
	if m.users == nil {
		m.users = make(map[string]mockUser)
	}
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	if m.Tokens == nil {
		m.Tokens = &opaqueTokens{}
	}
	if m.Now == nil {
		m.Now = time.Now
	}
}

func (m *TicketingMock) AddUser(passenger entity.Session, password string) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()

	passenger.Token = ""
	m.users[passenger.Username] = mockUser{passenger: passenger, password: password}
}

func (m *TicketingMock) AddTrip(trip entity.Trip) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()

	m.trips = append(m.trips, trip)
}

// AddTicket stores a ticket as if the backend had created it.
func (m *TicketingMock) AddTicket(ticket entity.Ticket) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()

	m.tickets = append(m.tickets, ticket)
}

// SetStatus moves a ticket along the state machine, as payment or the
// expiry job of the real backend would.
func (m *TicketingMock) SetStatus(ticketID string, status entity.TicketStatus) error {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()

	idx := m.ticketIndex(ticketID)
	if idx < 0 {
		return notFound("Ticket not found")
	}

	if !m.tickets[idx].Status.CanTransitionTo(status) {
		return fmt.Errorf("ticket %s cannot move from %s to %s", ticketID, m.tickets[idx].Status, status)
	}
	m.tickets[idx].Status = status

	return nil
}

// IssueToken logs a passenger in without a password, for tests.
func (m *TicketingMock) IssueToken(passengerID string) (string, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()

	return m.Tokens.Issue(passengerID)
}

func (m *TicketingMock) Login(_ context.Context, username, password string) (entity.Session, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["login"]++

	user, ok := m.users[username]
	if !ok || user.password != password {
		return entity.Session{}, &entity.ServerError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid username or password",
			Kind:       entity.ErrUnauthorized,
		}
	}

	token, err := m.Tokens.Issue(user.passenger.PassengerID)
	if err != nil {
		return entity.Session{}, fmt.Errorf("could not issue token: %w", err)
	}

	session := user.passenger
	session.Token = token
	session.CreatedAt = m.Now()

	return session, nil
}

func (m *TicketingMock) FetchTicketsForPassenger(
	_ context.Context,
	passengerID string,
	token string,
	opts ...FetchOption,
) ([]entity.Ticket, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["fetch_tickets"]++

	if err := m.authorize(token, passengerID); err != nil {
		return nil, err
	}

	options := fetchOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	return lo.Filter(m.tickets, func(t entity.Ticket, _ int) bool {
		if t.PassengerID != passengerID {
			return false
		}
		return options.status == "" || t.Status == options.status
	}), nil
}

func (m *TicketingMock) GetTicket(_ context.Context, ticketID string, token string) (entity.Ticket, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["get_ticket"]++

	idx := m.ticketIndex(ticketID)
	if idx < 0 {
		return entity.Ticket{}, notFound("Ticket not found")
	}
	if err := m.authorize(token, m.tickets[idx].PassengerID); err != nil {
		return entity.Ticket{}, err
	}

	return m.tickets[idx], nil
}

func (m *TicketingMock) BookTicket(_ context.Context, booking entity.BookTicketRequest, token string) (entity.Ticket, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["book_ticket"]++

	if err := m.authorize(token, booking.PassengerID); err != nil {
		return entity.Ticket{}, err
	}

	tripIdx := -1
	for i, trip := range m.trips {
		if trip.TripID == booking.TripID {
			tripIdx = i
			break
		}
	}
	if tripIdx < 0 {
		return entity.Ticket{}, rejected(http.StatusBadRequest, "Trip not found")
	}

	trip := m.trips[tripIdx]
	if trip.IsFull() {
		return entity.Ticket{}, rejected(http.StatusConflict, "Trip is fully booked")
	}

	if booking.SeatNumber != "" {
		_, taken := lo.Find(m.tickets, func(t entity.Ticket) bool {
			return t.TripID == booking.TripID &&
				strings.EqualFold(t.SeatNumber, booking.SeatNumber) &&
				t.Status != entity.TicketStatusCancelled
		})
		if taken {
			return entity.Ticket{}, rejected(http.StatusConflict, fmt.Sprintf("Seat %s is already taken", booking.SeatNumber))
		}
	}

	ticketType := booking.TicketType
	if ticketType == "" {
		ticketType = entity.TicketTypeSingle
	}

	now := m.Now()
	validUntil := entity.NewTimestamp(now.Add(24 * time.Hour))
	ticket := entity.Ticket{
		TicketID:     "ticket-" + uuid.NewString(),
		PassengerID:  booking.PassengerID,
		TripID:       booking.TripID,
		SeatNumber:   booking.SeatNumber,
		TicketType:   ticketType,
		Price:        trip.CurrentPrice,
		Status:       entity.TicketStatusCreated,
		PurchaseDate: entity.NewTimestamp(now),
		ValidUntil:   &validUntil,
		QRCode:       "QR-" + strings.ToUpper(shortuuid.New()[:8]),
	}

	m.trips[tripIdx].AvailableSeats--
	m.tickets = append(m.tickets, ticket)

	return ticket, nil
}

func (m *TicketingMock) CancelTicket(_ context.Context, ticketID string, token string) error {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["cancel_ticket"]++

	idx := m.ticketIndex(ticketID)
	if idx < 0 {
		return notFound("Ticket not found")
	}

	ticket := m.tickets[idx]
	if err := m.authorize(token, ticket.PassengerID); err != nil {
		return err
	}

	if !ticket.IsCancellable() {
		return &entity.ServerError{
			StatusCode: http.StatusConflict,
			Message:    fmt.Sprintf("Ticket cannot be cancelled in status %s", ticket.Status),
			Kind:       entity.ErrInvalidState,
		}
	}

	m.tickets[idx].Status = entity.TicketStatusCancelled

	// the seat goes back on sale, which the client cannot derive by itself
	for i := range m.trips {
		if m.trips[i].TripID == ticket.TripID && m.trips[i].AvailableSeats < m.trips[i].TotalSeats {
			m.trips[i].AvailableSeats++
		}
	}

	return nil
}

// PayTicket settles a booked ticket for its owner, standing in for the
// payment service of the real backend.
func (m *TicketingMock) PayTicket(_ context.Context, ticketID string, token string) (entity.Ticket, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["pay_ticket"]++

	idx := m.ticketIndex(ticketID)
	if idx < 0 {
		return entity.Ticket{}, notFound("Ticket not found")
	}

	ticket := m.tickets[idx]
	if err := m.authorize(token, ticket.PassengerID); err != nil {
		return entity.Ticket{}, err
	}

	if ticket.Status != entity.TicketStatusCreated {
		return entity.Ticket{}, &entity.ServerError{
			StatusCode: http.StatusConflict,
			Message:    fmt.Sprintf("Ticket cannot be paid in status %s", ticket.Status),
			Kind:       entity.ErrInvalidState,
		}
	}

	m.tickets[idx].Status = entity.TicketStatusPaid

	return m.tickets[idx], nil
}

func (m *TicketingMock) ValidateTicket(_ context.Context, validation entity.ValidateTicketRequest) (entity.ValidationResult, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["validate_ticket"]++

	idx := m.ticketIndex(validation.TicketID)
	if idx < 0 {
		return entity.ValidationResult{}, notFound("Ticket not found")
	}

	ticket := m.tickets[idx]
	result := entity.ValidationResult{
		TicketID:    ticket.TicketID,
		PassengerID: ticket.PassengerID,
	}

	switch {
	case ticket.QRCode != validation.QRCode:
		result.Message = "QR code does not match"
	case ticket.Status != entity.TicketStatusPaid:
		result.Message = fmt.Sprintf("Ticket is %s and cannot be validated", ticket.Status)
	default:
		validatedAt := entity.NewTimestamp(m.Now())
		m.tickets[idx].Status = entity.TicketStatusValidated
		m.tickets[idx].ValidatedAt = &validatedAt

		result.IsValid = true
		result.ValidatedAt = &validatedAt
		result.Message = "Ticket validated successfully"
	}

	return result, nil
}

func (m *TicketingMock) ListTrips(_ context.Context, status entity.TripStatus) ([]entity.Trip, error) {
	m.mock.Lock()
	defer m.mock.Unlock()
	m.init()
	m.Calls["list_trips"]++

	return lo.Filter(m.trips, func(t entity.Trip, _ int) bool {
		return status == "" || strings.EqualFold(string(t.Status), string(status))
	}), nil
}

func (m *TicketingMock) CallCount(operation string) int {
	m.mock.Lock()
	defer m.mock.Unlock()

	return m.Calls[operation]
}

func (m *TicketingMock) authorize(token, passengerID string) error {
	owner, err := m.Tokens.Verify(token)
	if err != nil {
		return &entity.ServerError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid or expired token",
			Kind:       entity.ErrUnauthorized,
		}
	}
	if owner != passengerID {
		return &entity.ServerError{
			StatusCode: http.StatusForbidden,
			Message:    "Access denied",
			Kind:       entity.ErrUnauthorized,
		}
	}

	return nil
}

func (m *TicketingMock) ticketIndex(ticketID string) int {
	for i, t := range m.tickets {
		if t.TicketID == ticketID {
			return i
		}
	}
	return -1
}

func notFound(message string) error {
	return &entity.ServerError{StatusCode: http.StatusNotFound, Message: message, Kind: entity.ErrNotFound}
}

func rejected(statusCode int, message string) error {
	return &entity.ServerError{StatusCode: statusCode, Message: message, Kind: entity.ErrValidation}
}

// opaqueTokens hands out random tokens and remembers who they belong to.
type opaqueTokens struct {
	tokens map[string]string
}

func (o *opaqueTokens) Issue(passengerID string) (string, error) {
	if o.tokens == nil {
		o.tokens = make(map[string]string)
	}

	token := "mock-token-" + shortuuid.New()
	o.tokens[token] = passengerID

	return token, nil
}

func (o *opaqueTokens) Verify(token string) (string, error) {
	passengerID, ok := o.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}

	return passengerID, nil
}
