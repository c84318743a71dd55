// Package session owns the process-wide session identifier and mirrors every
// change of it to the persisted record.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/storage"
)

// StorageKey is the persisted record's key.
const StorageKey = "session_id"

const module = "session"

// Change describes one transition of the active session. An empty field means
// no session.
type Change struct {
	Previous string
	Current  string
}

// Store holds at most one session id. Reads and writes go through Current,
// Establish, Clear and Invalidate only. Safe for concurrent use.
type Store struct {
	backend storage.Store
	log     logger.ILogger

	mu        sync.Mutex
	id        string
	observers map[int]func(Change)
	nextObs   int
}

// Open seeds the in-memory value from the persisted record. The record is not
// read again for the lifetime of the Store.
func Open(ctx context.Context, backend storage.Store, log logger.ILogger) *Store {
	s := &Store{
		backend:   backend,
		log:       log,
		observers: make(map[int]func(Change)),
	}

	id, err := backend.Get(ctx, StorageKey)
	switch {
	case err == nil:
		s.id = id
		log.Debug(module, "session restored from storage", nil)
	case errors.Is(err, storage.ErrKeyNotFound):
	default:
		log.Warn(module, "could not read persisted session, starting signed out", map[string]interface{}{
			"error": err,
		})
	}
	return s
}

// Current returns the active session id and whether one is present.
func (s *Store) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}

// Establish makes id the active session and persists it. Subscribers are
// notified before Establish returns. An empty id is ignored.
func (s *Store) Establish(id string) {
	if id == "" {
		s.log.Warn(module, "ignoring empty session id", nil)
		return
	}

	s.mu.Lock()
	previous := s.id
	s.id = id
	if err := s.backend.Set(context.Background(), StorageKey, id); err != nil {
		s.log.Error(module, "failed to persist session", map[string]interface{}{"error": err})
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if previous == id {
		return
	}
	s.log.Info(module, "session established", map[string]interface{}{"replaced": previous != ""})
	notify(observers, Change{Previous: previous, Current: id})
}

// Clear drops the active session and deletes the persisted record. Calling it
// without a session is a no-op.
func (s *Store) Clear() {
	s.clear(func(string) bool { return true })
}

// Invalidate clears the session only if id is still the active one and reports
// whether it did. A rejection for an id that has since been replaced leaves
// the newer session alone.
func (s *Store) Invalidate(id string) bool {
	if id == "" {
		return false
	}
	return s.clear(func(current string) bool { return current == id })
}

func (s *Store) clear(match func(current string) bool) bool {
	s.mu.Lock()
	previous := s.id
	if previous == "" || !match(previous) {
		s.mu.Unlock()
		return false
	}
	s.id = ""
	if err := s.backend.Delete(context.Background(), StorageKey); err != nil {
		s.log.Error(module, "failed to delete persisted session", map[string]interface{}{"error": err})
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	s.log.Info(module, "session cleared", nil)
	notify(observers, Change{Previous: previous})
	return true
}

// Subscribe registers fn for every change and returns a function that removes
// it. fn runs on the goroutine that made the change and must not block.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextObs
	s.nextObs++
	s.observers[key] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, key)
	}
}

func (s *Store) snapshotObservers() []func(Change) {
	observers := make([]func(Change), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	return observers
}

func notify(observers []func(Change), change Change) {
	for _, fn := range observers {
		fn(change)
	}
}
