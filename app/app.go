package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"ticketsync/dispatcher"
	"ticketsync/http"
	"ticketsync/pubsub"
	"ticketsync/pubsub/event"
	"ticketsync/viewmodel"
)

type Options struct {
	Addr                   string
	RefreshInterval        time.Duration
	LegacyCategoryFallback bool
}

type App struct {
	deps            Dependencies
	watermillRouter *message.Router
	httpServer      *http.Server
	registry        *viewmodel.Registry
	refreshInterval time.Duration
}

func New(opts Options, deps Dependencies) (App, error) {
	deps.validate()

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	eventBus, err := pubsub.NewEventBus(deps.Transport.Publisher)
	if err != nil {
		return App{}, fmt.Errorf("could not create event bus: %w", err)
	}

	activityHandlers := event.NewActivityHandlers(deps.Activity)

	watermillRouter, err := pubsub.NewWatermillRouter(
		pubsub.NewEventProcessorConfig(deps.Transport, watermillLogger),
		activityHandlers.Handlers(),
		watermillLogger,
	)
	if err != nil {
		return App{}, fmt.Errorf("could not create watermill router: %w", err)
	}

	registry := viewmodel.NewRegistry(deps.Gateway, deps.Sessions)
	commands := dispatcher.NewDispatcher(deps.Gateway, eventBus, dispatcher.LogNotifier{})

	httpServer := http.NewServer(
		opts.Addr,
		deps.Gateway,
		registry,
		commands,
		deps.Activity,
		opts.LegacyCategoryFallback,
	)

	return App{
		deps:            deps,
		watermillRouter: watermillRouter,
		httpServer:      httpServer,
		registry:        registry,
		refreshInterval: opts.RefreshInterval,
	}, nil
}

func (a App) Run(ctx context.Context) error {
	if a.deps.DB != nil {
		if err := a.deps.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize database schema: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return a.deps.Close(context.Background())
	})

	g.Go(func() error {
		return a.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the portal is not healthy before events can be processed
		if !routerRunning(ctx, a.watermillRouter) {
			return nil
		}

		return a.httpServer.Run(ctx)
	})

	g.Go(func() error {
		if !routerRunning(ctx, a.watermillRouter) {
			return nil
		}

		return a.registry.RunRefresh(ctx, a.refreshInterval)
	})

	return g.Wait()
}

// routerRunning waits for the router to start. It gives up once ctx is done,
// which is also the case when the router failed to start.
func routerRunning(ctx context.Context, router *message.Router) bool {
	select {
	case <-router.Running():
		return true
	case <-ctx.Done():
		return false
	}
}
