package session

import (
	"context"
	"sync"

	"ticketsync/entity"
)

type MemoryStore struct {
	lock     sync.Mutex
	sessions map[string]entity.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]entity.Session)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, session entity.Session) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sessions[sessionID] = session
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (entity.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return entity.Session{}, entity.ErrNoSession
	}

	return session, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
