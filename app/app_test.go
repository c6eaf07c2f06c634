package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/app"
	"ticketsync/db"
	"ticketsync/entity"
	"ticketsync/gateway"
	"ticketsync/pubsub"
	"ticketsync/session"
)

func TestComponent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := gateway.NewTicketingMock()
	activity := db.NewActivityMemoryRepository()
	addr := freeAddr(t)

	application, err := app.New(app.Options{
		Addr:            addr,
		RefreshInterval: 50 * time.Millisecond,
	}, app.Dependencies{
		Gateway:   backend,
		Sessions:  session.NewMemoryStore(),
		Transport: pubsub.NewMemoryTransport(log.NewWatermill(log.FromContext(ctx))),
		Activity:  activity,
	})
	require.NoError(t, err)

	finished := make(chan error, 1)
	go func() {
		finished <- application.Run(ctx)
	}()

	baseURL := "http://" + addr
	waitForHttpServer(t, baseURL)

	sessionID := login(t, baseURL)

	var booked struct {
		OK     bool          `json:"ok"`
		Ticket entity.Ticket `json:"ticket"`
	}
	status := call(t, http.MethodPost, baseURL+"/tickets", sessionID, map[string]string{"tripId": "trip-003", "seatNumber": "2B"}, &booked)
	require.Equal(t, http.StatusCreated, status)
	require.True(t, booked.OK)

	assertActivityRecorded(t, baseURL, entity.ActivityTicketBooked, booked.Ticket.TicketID)

	// a payment confirmed elsewhere shows up through the background refresh
	require.NoError(t, backend.SetStatus(booked.Ticket.TicketID, entity.TicketStatusPaid))
	assert.EventuallyWithT(t, func(t *assert.CollectT) {
		var list struct {
			Tickets []struct {
				Status entity.TicketStatus `json:"status"`
			} `json:"tickets"`
		}
		status := call(t, http.MethodGet, baseURL+"/tickets?filter=active", sessionID, nil, &list)
		if !assert.Equal(t, http.StatusOK, status) || !assert.Len(t, list.Tickets, 1) {
			return
		}
		assert.Equal(t, entity.TicketStatusPaid, list.Tickets[0].Status)
	}, 5*time.Second, 50*time.Millisecond)

	var cancelled struct {
		OK bool `json:"ok"`
	}
	status = call(t, http.MethodPost, baseURL+"/tickets/"+booked.Ticket.TicketID+"/cancel", sessionID, map[string]bool{"confirm": true}, &cancelled)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, cancelled.OK)

	assertActivityRecorded(t, baseURL, entity.ActivityTicketCancelled, booked.Ticket.TicketID)

	cancel()
	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().String()
}

func waitForHttpServer(t *testing.T, baseURL string) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode)
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

func login(t *testing.T, baseURL string) string {
	t.Helper()

	var response struct {
		SessionID string `json:"sessionId"`
	}
	status := call(t, http.MethodPost, baseURL+"/login", "", entity.LoginRequest{Username: "demo", Password: "demo123"}, &response)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, response.SessionID)

	return response.SessionID
}

func assertActivityRecorded(t *testing.T, baseURL string, kind entity.ActivityKind, ticketID string) {
	t.Helper()

	assert.EventuallyWithT(t, func(t *assert.CollectT) {
		var entries []entity.ActivityEntry
		status := call(t, http.MethodGet, baseURL+"/activity", "", nil, &entries)
		if !assert.Equal(t, http.StatusOK, status) {
			return
		}

		found := false
		for _, entry := range entries {
			if entry.Kind == kind && entry.TicketID == ticketID {
				found = true
			}
		}
		assert.True(t, found, "no %s activity for ticket %s", kind, ticketID)
	}, 5*time.Second, 50*time.Millisecond)
}

func call(t assert.TestingT, method, url, sessionID string, body any, response any) int {
	var payload bytes.Buffer
	if body != nil {
		if !assert.NoError(t, json.NewEncoder(&payload).Encode(body)) {
			return 0
		}
	}

	req, err := http.NewRequest(method, url, &payload)
	if !assert.NoError(t, err) {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	if !assert.NoError(t, err) {
		return 0
	}
	defer resp.Body.Close()

	if response != nil && resp.StatusCode < 300 {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(response), fmt.Sprintf("%s %s", method, url))
	}

	return resp.StatusCode
}

type brokenSubscriber struct{}

func (brokenSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("broker unreachable")
}

func (brokenSubscriber) Close() error {
	return nil
}

func TestRun_returns_router_startup_error(t *testing.T) {
	logger := log.NewWatermill(log.FromContext(context.Background()))

	application, err := app.New(app.Options{
		Addr:            freeAddr(t),
		RefreshInterval: time.Second,
	}, app.Dependencies{
		Gateway:  gateway.NewTicketingMock(),
		Sessions: session.NewMemoryStore(),
		Transport: pubsub.Transport{
			Publisher: gochannel.NewGoChannel(gochannel.Config{}, logger),
			NewSubscriber: func(string) (message.Subscriber, error) {
				return brokenSubscriber{}, nil
			},
		},
		Activity: db.NewActivityMemoryRepository(),
	})
	require.NoError(t, err)

	finished := make(chan error, 1)
	go func() {
		finished <- application.Run(context.Background())
	}()

	select {
	case err := <-finished:
		assert.ErrorContains(t, err, "broker unreachable")
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the router failed to start")
	}
}
