package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"ticketsync/entity"
)

// FileStore keeps sessions in a local YAML file. The CLI uses it to stay
// logged in between invocations.
type FileStore struct {
	lock sync.Mutex
	path string
}

type sessionFile struct {
	Sessions map[string]entity.Session `yaml:"sessions"`
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("missing session file path")
	}

	return &FileStore{path: path}
}

func (s *FileStore) Save(_ context.Context, sessionID string, session entity.Session) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}

	file.Sessions[sessionID] = session

	return s.write(file)
}

func (s *FileStore) Load(_ context.Context, sessionID string) (entity.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := s.read()
	if err != nil {
		return entity.Session{}, err
	}

	session, ok := file.Sessions[sessionID]
	if !ok {
		return entity.Session{}, entity.ErrNoSession
	}

	return session, nil
}

func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := file.Sessions[sessionID]; !ok {
		return nil
	}
	delete(file.Sessions, sessionID)

	return s.write(file)
}

func (s *FileStore) read() (sessionFile, error) {
	file := sessionFile{}

	content, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return file, fmt.Errorf("could not read session file: %w", err)
	}

	if err := yaml.Unmarshal(content, &file); err != nil {
		return file, fmt.Errorf("could not parse session file %s: %w", s.path, err)
	}
	if file.Sessions == nil {
		file.Sessions = make(map[string]entity.Session)
	}

	return file, nil
}

func (s *FileStore) write(file sessionFile) error {
	content, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("could not marshal sessions: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("could not create session directory: %w", err)
		}
	}

	// tokens are secrets
	if err := os.WriteFile(s.path, content, 0o600); err != nil {
		return fmt.Errorf("could not write session file: %w", err)
	}

	return nil
}
