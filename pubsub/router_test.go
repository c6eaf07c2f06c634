package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/db"
	"ticketsync/entity"
	"ticketsync/pubsub"
	"ticketsync/pubsub/event"
)

func TestRouter_memory_transport(t *testing.T) {
	logger := log.NewWatermill(log.FromContext(context.Background()))

	testRouterRecordsActivity(t, pubsub.NewMemoryTransport(logger))
}

func TestRouter_postgres_transport(t *testing.T) {
	logger := log.NewWatermill(log.FromContext(context.Background()))

	transport, err := pubsub.NewPostgresTransport(db.GetDb(t), logger)
	require.NoError(t, err)

	testRouterRecordsActivity(t, transport)
}

func testRouterRecordsActivity(t *testing.T, transport pubsub.Transport) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.NewWatermill(log.FromContext(ctx))
	repo := db.NewActivityMemoryRepository()

	router, err := pubsub.NewWatermillRouter(
		pubsub.NewEventProcessorConfig(transport, logger),
		event.NewActivityHandlers(repo).Handlers(),
		logger,
	)
	require.NoError(t, err)

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		assert.NoError(t, router.Run(ctx))
	}()
	<-router.Running()

	bus, err := pubsub.NewEventBus(transport.Publisher)
	require.NoError(t, err)

	ticketID := "ticket-" + uuid.NewString()
	publishCtx := log.ContextWithCorrelationID(ctx, "test-correlation")
	require.NoError(t, bus.Publish(publishCtx, entity.TicketBooked{
		Header:      entity.NewEventHeader(),
		TicketID:    ticketID,
		PassengerID: "pass-001",
		TripID:      "trip-001",
		TicketType:  entity.TicketTypeSingle,
		Price:       25.5,
		Status:      entity.TicketStatusCreated,
	}))
	require.NoError(t, bus.Publish(publishCtx, entity.TicketCancelled{
		Header:      entity.NewEventHeader(),
		TicketID:    ticketID,
		PassengerID: "pass-001",
	}))

	assert.EventuallyWithT(t, func(t *assert.CollectT) {
		entries, err := repo.Recent(context.Background(), 0)
		if !assert.NoError(t, err) {
			return
		}

		kinds := map[entity.ActivityKind]bool{}
		for _, entry := range entries {
			if entry.TicketID == ticketID {
				kinds[entry.Kind] = true
			}
		}
		assert.True(t, kinds[entity.ActivityTicketBooked], "booking not recorded")
		assert.True(t, kinds[entity.ActivityTicketCancelled], "cancellation not recorded")
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	<-routerDone
}
