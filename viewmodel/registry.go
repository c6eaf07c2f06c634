package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lithammer/shortuuid/v3"

	"ticketsync/entity"
	"ticketsync/metrics"
)

type SessionStore interface {
	Save(ctx context.Context, sessionID string, session entity.Session) error
	Load(ctx context.Context, sessionID string) (entity.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Registry keeps one Workspace per session id. Workspaces evicted by a
// restart are rebuilt from the session store on first use.
type Registry struct {
	lock sync.Mutex

	source     TicketSource
	sessions   SessionStore
	workspaces map[string]*Workspace
}

func NewRegistry(source TicketSource, sessions SessionStore) *Registry {
	if source == nil {
		panic("nil source")
	}
	if sessions == nil {
		panic("nil sessions")
	}

	return &Registry{
		source:     source,
		sessions:   sessions,
		workspaces: make(map[string]*Workspace),
	}
}

// Open stores the session and starts an empty workspace for it.
func (r *Registry) Open(ctx context.Context, session entity.Session) (string, *Workspace, error) {
	if !session.Valid() {
		return "", nil, entity.ErrNoSession
	}

	sessionID := shortuuid.New()
	if err := r.sessions.Save(ctx, sessionID, session); err != nil {
		return "", nil, fmt.Errorf("could not save session: %w", err)
	}

	workspace := NewWorkspace(session, r.source)

	r.lock.Lock()
	r.workspaces[sessionID] = workspace
	metrics.OpenWorkspaces.Set(float64(len(r.workspaces)))
	r.lock.Unlock()

	log.FromContext(ctx).
		WithField("passenger_id", session.PassengerID).
		Info("Session opened")

	return sessionID, workspace, nil
}

// Get returns the workspace of the session, restoring it from the session
// store if this process has not seen it yet.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Workspace, error) {
	if sessionID == "" {
		return nil, entity.ErrNoSession
	}

	r.lock.Lock()
	workspace, ok := r.workspaces[sessionID]
	r.lock.Unlock()
	if ok {
		return workspace, nil
	}

	return r.restore(ctx, sessionID)
}

func (r *Registry) restore(ctx context.Context, sessionID string) (*Workspace, error) {
	session, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not load session: %w", err)
	}
	if !session.Valid() {
		return nil, entity.ErrNoSession
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	// another request may have restored it meanwhile
	if workspace, ok := r.workspaces[sessionID]; ok {
		return workspace, nil
	}

	workspace := NewWorkspace(session, r.source)
	r.workspaces[sessionID] = workspace
	metrics.OpenWorkspaces.Set(float64(len(r.workspaces)))

	log.FromContext(ctx).
		WithField("passenger_id", session.PassengerID).
		Info("Session restored")

	return workspace, nil
}

// Close drops the workspace and forgets the session.
func (r *Registry) Close(ctx context.Context, sessionID string) error {
	r.lock.Lock()
	delete(r.workspaces, sessionID)
	metrics.OpenWorkspaces.Set(float64(len(r.workspaces)))
	r.lock.Unlock()

	if err := r.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}

	return nil
}

// RefreshAll reloads every open workspace one after another. Sessions whose
// token the backend no longer accepts are closed.
func (r *Registry) RefreshAll(ctx context.Context) error {
	r.lock.Lock()
	workspaces := make(map[string]*Workspace, len(r.workspaces))
	for id, workspace := range r.workspaces {
		workspaces[id] = workspace
	}
	r.lock.Unlock()

	var errs []error
	for sessionID, workspace := range workspaces {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := workspace.Reload(ctx)
		if err == nil {
			continue
		}

		logger := log.FromContext(ctx).WithField("passenger_id", workspace.Session().PassengerID)

		if errors.Is(err, entity.ErrUnauthorized) {
			logger.Info("Session rejected by backend, closing")
			if err := r.Close(ctx, sessionID); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		logger.WithError(err).Warn("Periodic refresh failed")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RunRefresh calls RefreshAll every interval until ctx is done. A zero
// interval disables the refresh.
func (r *Registry) RunRefresh(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// failures are per session and already logged
			_ = r.RefreshAll(ctx)
		}
	}
}

func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.workspaces)
}
