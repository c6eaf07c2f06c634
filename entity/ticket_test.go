package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/entity"
)

func TestTicketStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from    entity.TicketStatus
		to      entity.TicketStatus
		allowed bool
	}{
		{entity.TicketStatusCreated, entity.TicketStatusPaid, true},
		{entity.TicketStatusCreated, entity.TicketStatusCancelled, true},
		{entity.TicketStatusCreated, entity.TicketStatusExpired, true},
		{entity.TicketStatusCreated, entity.TicketStatusValidated, false},
		{entity.TicketStatusPaid, entity.TicketStatusValidated, true},
		{entity.TicketStatusPaid, entity.TicketStatusCancelled, true},
		{entity.TicketStatusPaid, entity.TicketStatusExpired, true},
		{entity.TicketStatusPaid, entity.TicketStatusCreated, false},
		{entity.TicketStatusValidated, entity.TicketStatusExpired, true},
		{entity.TicketStatusValidated, entity.TicketStatusCancelled, false},
		{entity.TicketStatusValidated, entity.TicketStatusCreated, false},
		{entity.TicketStatusCancelled, entity.TicketStatusCreated, false},
		{entity.TicketStatusCancelled, entity.TicketStatusPaid, false},
		{entity.TicketStatusExpired, entity.TicketStatusCreated, false},
		{entity.TicketStatusExpired, entity.TicketStatusValidated, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTicketStatus_nothing_reenters_created(t *testing.T) {
	for _, status := range []entity.TicketStatus{
		entity.TicketStatusCreated,
		entity.TicketStatusPaid,
		entity.TicketStatusValidated,
		entity.TicketStatusExpired,
		entity.TicketStatusCancelled,
	} {
		assert.False(t, status.CanTransitionTo(entity.TicketStatusCreated), status)
	}
}

func TestTicketStatus_IsCancellable(t *testing.T) {
	assert.True(t, entity.TicketStatusCreated.IsCancellable())
	assert.True(t, entity.TicketStatusPaid.IsCancellable())
	assert.False(t, entity.TicketStatusValidated.IsCancellable())
	assert.False(t, entity.TicketStatusExpired.IsCancellable())
	assert.False(t, entity.TicketStatusCancelled.IsCancellable())
	assert.False(t, entity.TicketStatus("UNKNOWN").IsCancellable())
}

func TestTicket_decodes_backend_payload(t *testing.T) {
	payload := `{
		"ticketId": "ticket-1",
		"passengerId": "pass-001",
		"tripId": "trip-001",
		"seatNumber": "12A",
		"ticketType": "day-pass",
		"price": 25.5,
		"status": "PAID",
		"purchaseDate": "2025-10-10T08:00:00Z",
		"validFrom": {"year": 2025, "month": 10, "day": 10, "hour": 9, "minute": 30},
		"validUntil": null,
		"qrCode": "QR-ABC123",
		"somethingNew": true
	}`

	var ticket entity.Ticket
	require.NoError(t, json.Unmarshal([]byte(payload), &ticket))

	assert.Equal(t, "ticket-1", ticket.TicketID)
	assert.Equal(t, entity.TicketTypeDayPass, ticket.TicketType)
	assert.Equal(t, 25.5, ticket.Price)
	assert.Equal(t, entity.TicketStatusPaid, ticket.Status)
	assert.Equal(t, time.Date(2025, 10, 10, 8, 0, 0, 0, time.UTC), ticket.PurchaseDate.UTC())

	require.NotNil(t, ticket.ValidFrom)
	assert.Equal(t, time.Date(2025, 10, 10, 9, 30, 0, 0, time.UTC), ticket.ValidFrom.Time)

	if ticket.ValidUntil != nil {
		assert.True(t, ticket.ValidUntil.IsZero())
	}
}

func TestTimestamp_rejects_garbage(t *testing.T) {
	var ts entity.Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`{"year": 0}`), &ts))
}

func TestTimestamp_roundtrip_zero_is_null(t *testing.T) {
	out, err := json.Marshal(entity.Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestamp_civil_time_ignores_host_zone(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("UTC+9", 9*60*60)
	t.Cleanup(func() { time.Local = local })

	var ts entity.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`{"year": 2025, "month": 10, "day": 10, "hour": 23, "minute": 15}`), &ts))

	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, "2025-10-10T23:15:00Z", ts.Format(time.RFC3339))
}
