package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"ticketsync/config"
	"ticketsync/db"
	"ticketsync/dispatcher"
	"ticketsync/gateway"
	"ticketsync/http"
	"ticketsync/pubsub"
	"ticketsync/pubsub/event"
	"ticketsync/session"
	"ticketsync/tracing"
	"ticketsync/viewmodel"
)

// Gateway is everything the portal asks the backend services for.
type Gateway interface {
	viewmodel.TicketSource
	dispatcher.Gateway
	http.Gateway
}

type ActivityStore interface {
	event.ActivityRepository
	http.ActivityFeed
}

// Dependencies are the outside systems the app talks to. DB, Redis and
// TraceProvider are optional and closed by the app on shutdown.
type Dependencies struct {
	Gateway   Gateway
	Sessions  viewmodel.SessionStore
	Transport pubsub.Transport
	Activity  ActivityStore

	DB            *sqlx.DB
	Redis         *redis.Client
	TraceProvider *tracesdk.TracerProvider
}

func (d Dependencies) validate() {
	if d.Gateway == nil {
		panic("nil gateway")
	}
	if d.Sessions == nil {
		panic("nil session store")
	}
	if d.Transport.Publisher == nil || d.Transport.NewSubscriber == nil {
		panic("incomplete events transport")
	}
	if d.Activity == nil {
		panic("nil activity store")
	}
}

func (d Dependencies) InitSchema() error {
	return db.InitializeDatabaseSchema(d.DB)
}

func (d Dependencies) Close(ctx context.Context) error {
	var errs []error

	if d.TraceProvider != nil {
		errs = append(errs, d.TraceProvider.Shutdown(ctx))
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}

	return errors.Join(errs...)
}

// NewDependencies connects to whatever the configuration selects.
func NewDependencies(cfg *config.Config) (deps Dependencies, err error) {
	defer func() {
		if err != nil {
			if closeErr := deps.Close(context.Background()); closeErr != nil {
				log.FromContext(context.Background()).WithError(closeErr).Warn("Could not close dependencies")
			}
		}
	}()

	deps.TraceProvider, err = tracing.ConfigureTraceProvider(cfg.Tracing.JaegerEndpoint)
	if err != nil {
		return deps, err
	}

	if cfg.Session.Store == config.StoreRedis || cfg.Events.Backend == config.StoreRedis {
		deps.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}
	if cfg.Events.Backend == config.StorePostgres || cfg.Events.ActivityStore == config.StorePostgres {
		deps.DB, err = db.Open(cfg.Postgres.URL)
		if err != nil {
			return deps, err
		}
	}

	deps.Gateway = NewGateway(cfg.Gateway)

	switch cfg.Session.Store {
	case config.StoreRedis:
		deps.Sessions = session.NewRedisStore(deps.Redis, cfg.Session.TTL)
	case config.StoreFile:
		deps.Sessions = session.NewFileStore(cfg.Session.File)
	default:
		deps.Sessions = session.NewMemoryStore()
	}

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))
	switch cfg.Events.Backend {
	case config.StoreRedis:
		deps.Transport, err = pubsub.NewRedisTransport(deps.Redis, watermillLogger)
	case config.StorePostgres:
		deps.Transport, err = pubsub.NewPostgresTransport(deps.DB, watermillLogger)
	default:
		deps.Transport = pubsub.NewMemoryTransport(watermillLogger)
	}
	if err != nil {
		return deps, fmt.Errorf("could not create events transport: %w", err)
	}

	if cfg.Events.ActivityStore == config.StorePostgres {
		deps.Activity = db.NewActivityPostgresRepository(deps.DB)
	} else {
		deps.Activity = db.NewActivityMemoryRepository()
	}

	return deps, nil
}

// NewGateway picks the real backend client or the in-memory fake.
func NewGateway(cfg config.Gateway) Gateway {
	if cfg.Mode == config.GatewayModeMock {
		return gateway.NewTicketingMock()
	}

	return gateway.NewTicketingClient(gateway.Config{
		TicketingURL: cfg.TicketingURL,
		TransportURL: cfg.TransportURL,
		PassengerURL: cfg.PassengerURL,
		Timeout:      cfg.Timeout,
		CancelMethod: cfg.CancelMethod,
	})
}
