package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"ticketsync/tracing"
)

type watermillLogger = watermill.LoggerAdapter

const consumerGroupPrefix = "ticketsync."

// Transport is where ticket events travel: one publisher, and a subscriber
// per handler so every handler gets its own copy of each event.
type Transport struct {
	Publisher     message.Publisher
	NewSubscriber func(handlerName string) (message.Subscriber, error)
}

func decorate(pub message.Publisher) message.Publisher {
	pub = tracing.PublisherDecorator{Publisher: pub}
	pub = log.CorrelationPublisherDecorator{Publisher: pub}
	return pub
}

// NewMemoryTransport keeps events inside the process.
func NewMemoryTransport(logger watermillLogger) Transport {
	goChannel := gochannel.NewGoChannel(gochannel.Config{}, logger)

	return Transport{
		Publisher: decorate(goChannel),
		NewSubscriber: func(string) (message.Subscriber, error) {
			return goChannel, nil
		},
	}
}

func NewRedisTransport(rdb *redis.Client, logger watermillLogger) (Transport, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("could not create redis publisher: %w", err)
	}

	return Transport{
		Publisher: decorate(publisher),
		NewSubscriber: func(handlerName string) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: consumerGroupPrefix + handlerName,
			}, logger)
		},
	}, nil
}

func NewPostgresTransport(db *sqlx.DB, logger watermillLogger) (Transport, error) {
	publisher, err := sql.NewPublisher(db, sql.PublisherConfig{
		SchemaAdapter:        sql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("could not create postgres publisher: %w", err)
	}

	return Transport{
		Publisher: decorate(publisher),
		NewSubscriber: func(handlerName string) (message.Subscriber, error) {
			return sql.NewSubscriber(db, sql.SubscriberConfig{
				ConsumerGroup:    consumerGroupPrefix + handlerName,
				SchemaAdapter:    sql.DefaultPostgreSQLSchema{},
				OffsetsAdapter:   sql.DefaultPostgreSQLOffsetsAdapter{},
				InitializeSchema: true,
			}, logger)
		},
	}, nil
}
