package mockserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/entity"
	"ticketsync/gateway"
	"ticketsync/mockserver"
)

func newClient(t *testing.T, latency time.Duration, cancelMethod string) (gateway.TicketingClient, *gateway.TicketingMock) {
	t.Helper()

	backend := gateway.NewTicketingMock()
	srv := httptest.NewServer(mockserver.New(":0", backend, "test-secret", latency))
	t.Cleanup(srv.Close)

	client := gateway.NewTicketingClient(gateway.Config{
		TicketingURL: srv.URL + "/api",
		Timeout:      5 * time.Second,
		CancelMethod: cancelMethod,
	})

	return client, backend
}

func TestServer_round_trip(t *testing.T) {
	for _, cancelMethod := range []string{http.MethodPut, http.MethodDelete} {
		cancelMethod := cancelMethod
		t.Run(cancelMethod, func(t *testing.T) {
			client, backend := newClient(t, 0, cancelMethod)
			ctx := context.Background()

			session, err := client.Login(ctx, "demo", "demo123")
			require.NoError(t, err)
			assert.Equal(t, "pass-001", session.PassengerID)
			assert.Equal(t, "demo@example.com", session.Email)

			tickets, err := client.FetchTicketsForPassenger(ctx, session.PassengerID, session.Token)
			require.NoError(t, err)
			assert.Empty(t, tickets)

			ticket, err := client.BookTicket(ctx, entity.BookTicketRequest{
				PassengerID: session.PassengerID,
				TripID:      "trip-001",
				SeatNumber:  "4D",
				TicketType:  entity.TicketTypeReturn,
			}, session.Token)
			require.NoError(t, err)
			assert.Equal(t, entity.TicketStatusCreated, ticket.Status)
			assert.Equal(t, 25.50, ticket.Price)

			fetched, err := client.GetTicket(ctx, ticket.TicketID, session.Token)
			require.NoError(t, err)
			assert.Equal(t, ticket.QRCode, fetched.QRCode)

			require.NoError(t, client.CancelTicket(ctx, ticket.TicketID, session.Token))
			assert.Equal(t, 1, backend.CallCount("cancel_ticket"))

			err = client.CancelTicket(ctx, ticket.TicketID, session.Token)
			assert.ErrorIs(t, err, entity.ErrInvalidState)

			cancelled, err := client.FetchTicketsForPassenger(ctx, session.PassengerID, session.Token, gateway.WithStatus(entity.TicketStatusCancelled))
			require.NoError(t, err)
			assert.Len(t, cancelled, 1)
		})
	}
}

func TestServer_errors(t *testing.T) {
	client, _ := newClient(t, 0, http.MethodPut)
	ctx := context.Background()

	_, err := client.Login(ctx, "demo", "wrong")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, err = client.FetchTicketsForPassenger(ctx, "pass-001", "not-a-jwt")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	session, err := client.Login(ctx, "demo", "demo123")
	require.NoError(t, err)

	_, err = client.FetchTicketsForPassenger(ctx, "pass-002", session.Token)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, err = client.GetTicket(ctx, "ticket-missing", session.Token)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = client.BookTicket(ctx, entity.BookTicketRequest{PassengerID: session.PassengerID, TripID: "trip-404"}, session.Token)
	require.ErrorIs(t, err, entity.ErrValidation)
	var serverErr *entity.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Trip not found", serverErr.Message)
}

func TestServer_validate_and_trips(t *testing.T) {
	client, backend := newClient(t, 0, http.MethodPut)
	ctx := context.Background()

	session, err := client.Login(ctx, "demo", "demo123")
	require.NoError(t, err)

	ticket, err := client.BookTicket(ctx, entity.BookTicketRequest{PassengerID: session.PassengerID, TripID: "trip-002"}, session.Token)
	require.NoError(t, err)
	require.NoError(t, backend.SetStatus(ticket.TicketID, entity.TicketStatusPaid))

	result, err := client.ValidateTicket(ctx, entity.ValidateTicketRequest{TicketID: ticket.TicketID, QRCode: ticket.QRCode, ValidatorID: "gate-3"})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, session.PassengerID, result.PassengerID)

	trips, err := client.ListTrips(ctx, entity.TripStatusScheduled)
	require.NoError(t, err)
	require.Len(t, trips, 3)
	assert.Equal(t, 29, trips[1].AvailableSeats)

	trips, err = client.ListTrips(ctx, entity.TripStatusDeparted)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestServer_latency_honours_cancellation(t *testing.T) {
	client, backend := newClient(t, time.Minute, http.MethodPut)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListTrips(ctx, "")
	assert.ErrorIs(t, err, entity.ErrNetwork)
	assert.Equal(t, 0, backend.CallCount("list_trips"))
}

func TestServer_pay_then_validate(t *testing.T) {
	backend := gateway.NewTicketingMock()
	srv := httptest.NewServer(mockserver.New(":0", backend, "test-secret", 0))
	t.Cleanup(srv.Close)

	client := gateway.NewTicketingClient(gateway.Config{TicketingURL: srv.URL + "/api", Timeout: 5 * time.Second})
	ctx := context.Background()

	session, err := client.Login(ctx, "demo", "demo123")
	require.NoError(t, err)

	ticket, err := client.BookTicket(ctx, entity.BookTicketRequest{PassengerID: session.PassengerID, TripID: "trip-001"}, session.Token)
	require.NoError(t, err)

	pay := func(token string) int {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, srv.URL+"/api/tickets/"+ticket.TicketID+"/pay", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, pay(""))
	assert.Equal(t, http.StatusOK, pay(session.Token))
	assert.Equal(t, http.StatusConflict, pay(session.Token), "a ticket is paid once")

	result, err := client.ValidateTicket(ctx, entity.ValidateTicketRequest{TicketID: ticket.TicketID, QRCode: ticket.QRCode})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}
