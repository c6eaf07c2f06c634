package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/db"
	"ticketsync/dispatcher"
	"ticketsync/entity"
	"ticketsync/gateway"
	ticketsHTTP "ticketsync/http"
	"ticketsync/session"
	"ticketsync/viewmodel"
)

type portal struct {
	t        *testing.T
	server   *ticketsHTTP.Server
	backend  *gateway.TicketingMock
	activity *db.ActivityMemoryRepository
}

func newPortal(t *testing.T) portal {
	t.Helper()

	backend := gateway.NewTicketingMock()
	activity := db.NewActivityMemoryRepository()
	registry := viewmodel.NewRegistry(backend, session.NewMemoryStore())
	commands := dispatcher.NewDispatcher(backend, nil, dispatcher.LogNotifier{})

	return portal{
		t:        t,
		server:   ticketsHTTP.NewServer(":0", backend, registry, commands, activity, false),
		backend:  backend,
		activity: activity,
	}
}

func (p portal) do(method, path string, body any, sessionID string) *httptest.ResponseRecorder {
	p.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(p.t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	rec := httptest.NewRecorder()
	p.server.ServeHTTP(rec, req)

	return rec
}

func (p portal) login() string {
	p.t.Helper()

	rec := p.do(http.MethodPost, "/login", entity.LoginRequest{Username: "demo", Password: "demo123"}, "")
	require.Equal(p.t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		SessionID   string `json:"sessionId"`
		PassengerID string `json:"passengerId"`
	}
	decode(p.t, rec, &response)
	require.NotEmpty(p.t, response.SessionID)
	assert.Equal(p.t, "pass-001", response.PassengerID)

	return response.SessionID
}

func (p portal) book(sessionID, tripID string) entity.Ticket {
	p.t.Helper()

	rec := p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: tripID}, sessionID)
	require.Equal(p.t, http.StatusCreated, rec.Code, rec.Body.String())

	var outcome outcomeBody
	decode(p.t, rec, &outcome)
	require.NotNil(p.t, outcome.Ticket)

	return *outcome.Ticket
}

type outcomeBody struct {
	OK           bool                     `json:"ok"`
	Declined     bool                     `json:"declined"`
	Notification dispatcher.Notification  `json:"notification"`
	Ticket       *entity.Ticket           `json:"ticket"`
	Validation   *entity.ValidationResult `json:"validation"`
}

type listBody struct {
	Category string           `json:"category"`
	Tickets  []map[string]any `json:"tickets"`
	Counts   map[string]int   `json:"counts"`
	Message  string           `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_health(t *testing.T) {
	p := newPortal(t)

	rec := p.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_login(t *testing.T) {
	p := newPortal(t)

	rec := p.do(http.MethodPost, "/login", entity.LoginRequest{Username: "demo", Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = p.do(http.MethodPost, "/login", entity.LoginRequest{Username: "demo"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(http.MethodPost, "/login", entity.LoginRequest{Username: "demo", Password: "demo123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.AddCookie(cookies[0])
	cookieRec := httptest.NewRecorder()
	p.server.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
}

func TestServer_requires_session(t *testing.T) {
	p := newPortal(t)

	for _, path := range []string{"/tickets", "/tickets/ticket-1", "/tickets/ticket-1/qr.png"} {
		rec := p.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = p.do(http.MethodGet, path, nil, "unknown-session")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: "trip-001"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_book_filter_and_cancel(t *testing.T) {
	p := newPortal(t)
	sessionID := p.login()

	rec := p.do(http.MethodGet, "/tickets", nil, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listBody
	decode(t, rec, &list)
	assert.Empty(t, list.Tickets)
	assert.Equal(t, "You don't have any tickets yet. Book your first ticket now!", list.Message)

	rec = p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: "trip-001", SeatNumber: "12A"}, sessionID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booked outcomeBody
	decode(t, rec, &booked)
	assert.True(t, booked.OK)
	assert.Equal(t, "Ticket purchased successfully!", booked.Notification.Message)
	require.NotNil(t, booked.Ticket)

	// the list is already reloaded, no refresh needed
	rec = p.do(http.MethodGet, "/tickets?filter=active", nil, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	list = listBody{}
	decode(t, rec, &list)
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, booked.Ticket.TicketID, list.Tickets[0]["ticketId"])
	assert.Equal(t, "12A", list.Tickets[0]["seatNumber"])
	assert.Equal(t, 1, list.Counts["all"])
	assert.Equal(t, 0, list.Counts["cancelled"])

	rec = p.do(http.MethodGet, "/tickets?filter=lost", nil, sessionID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cancelPath := "/tickets/" + booked.Ticket.TicketID + "/cancel"

	rec = p.do(http.MethodPost, cancelPath, map[string]bool{"confirm": false}, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	var declined outcomeBody
	decode(t, rec, &declined)
	assert.True(t, declined.Declined)
	assert.Equal(t, 0, p.backend.CallCount("cancel_ticket"))

	rec = p.do(http.MethodPost, cancelPath, map[string]bool{"confirm": true}, sessionID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cancelled outcomeBody
	decode(t, rec, &cancelled)
	assert.True(t, cancelled.OK)
	assert.Equal(t, "Ticket cancelled successfully", cancelled.Notification.Message)

	rec = p.do(http.MethodGet, "/tickets?filter=cancelled", nil, sessionID)
	list = listBody{}
	decode(t, rec, &list)
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, false, list.Tickets[0]["canCancel"])

	rec = p.do(http.MethodGet, "/tickets?filter=active", nil, sessionID)
	list = listBody{}
	decode(t, rec, &list)
	assert.Empty(t, list.Tickets)
	assert.Equal(t, "No tickets in this category.", list.Message)

	// already cancelled, rejected before asking the backend
	rec = p.do(http.MethodPost, cancelPath, map[string]bool{"confirm": true}, sessionID)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, p.backend.CallCount("cancel_ticket"))
}

func TestServer_booking_rejections(t *testing.T) {
	p := newPortal(t)
	sessionID := p.login()

	rec := p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{}, sessionID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var outcome outcomeBody
	decode(t, rec, &outcome)
	assert.Equal(t, "Please select a trip", outcome.Notification.Message)
	assert.True(t, outcome.Notification.Persistent)
	assert.Equal(t, 0, p.backend.CallCount("book_ticket"))

	rec = p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: "trip-404"}, sessionID)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	outcome = outcomeBody{}
	decode(t, rec, &outcome)
	assert.Equal(t, "Trip not found", outcome.Notification.Message)

	p.book(sessionID, "trip-002")
	rec = p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: "trip-002", SeatNumber: "3C"}, sessionID)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = p.do(http.MethodPost, "/tickets", dispatcher.BookingForm{TripID: "trip-002", SeatNumber: "3c"}, sessionID)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_ticket_details_and_qr_code(t *testing.T) {
	p := newPortal(t)
	sessionID := p.login()
	ticket := p.book(sessionID, "trip-003")

	rec := p.do(http.MethodGet, "/tickets/"+ticket.TicketID, nil, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	var details map[string]any
	decode(t, rec, &details)
	assert.Equal(t, "$32.00", details["price"])
	assert.Equal(t, "Single Ride", details["typeLabel"])
	assert.Equal(t, "Any", details["seatNumber"])

	rec = p.do(http.MethodGet, "/tickets/"+ticket.TicketID+"/qr.png", nil, sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = p.do(http.MethodGet, "/tickets/"+ticket.TicketID+"/qr.png?size=5", nil, sessionID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(http.MethodGet, "/tickets/ticket-missing", nil, sessionID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_validate_ticket(t *testing.T) {
	p := newPortal(t)
	sessionID := p.login()
	ticket := p.book(sessionID, "trip-001")
	validatePath := "/tickets/" + ticket.TicketID + "/validate"

	rec := p.do(http.MethodPut, validatePath, map[string]string{"validatorId": "kiosk-1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(http.MethodPut, validatePath, map[string]string{"qrCode": ticket.QRCode}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "unpaid tickets are rejected")
	var rejected outcomeBody
	decode(t, rec, &rejected)
	require.NotNil(t, rejected.Validation)
	assert.False(t, rejected.Validation.IsValid)

	require.NoError(t, p.backend.SetStatus(ticket.TicketID, entity.TicketStatusPaid))

	rec = p.do(http.MethodPut, validatePath, map[string]string{"qrCode": ticket.QRCode, "validatorId": "kiosk-1"}, sessionID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var validated outcomeBody
	decode(t, rec, &validated)
	assert.True(t, validated.OK)
	assert.Equal(t, "Ticket validated successfully!", validated.Notification.Message)

	rec = p.do(http.MethodGet, "/tickets?filter=used", nil, sessionID)
	var list listBody
	decode(t, rec, &list)
	assert.Len(t, list.Tickets, 1)
}

func TestServer_trips_and_activity(t *testing.T) {
	p := newPortal(t)

	rec := p.do(http.MethodGet, "/trips", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var trips []entity.Trip
	decode(t, rec, &trips)
	assert.Len(t, trips, 3)

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, p.activity.Append(ctx, entity.ActivityEntry{EventID: "e-1", OccurredAt: now.Add(-time.Minute), Kind: entity.ActivityTicketBooked}))
	require.NoError(t, p.activity.Append(ctx, entity.ActivityEntry{EventID: "e-2", OccurredAt: now, Kind: entity.ActivityTicketCancelled}))

	rec = p.do(http.MethodGet, "/activity?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []entity.ActivityEntry
	decode(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "e-2", entries[0].EventID)

	rec = p.do(http.MethodGet, "/activity?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_logout(t *testing.T) {
	p := newPortal(t)
	sessionID := p.login()

	rec := p.do(http.MethodPost, "/logout", nil, sessionID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = p.do(http.MethodGet, "/tickets", nil, sessionID)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
