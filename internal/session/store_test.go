package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/session"
	"github.com/systematicmess/calendar-assistant/internal/storage"
)

func openMemory(t *testing.T) (*session.Store, storage.Store) {
	t.Helper()
	backend := storage.NewMemoryStore()
	return session.Open(context.Background(), backend, logger.NewNopLogger()), backend
}

func TestStore_StartsAbsent(t *testing.T) {
	s, _ := openMemory(t)

	id, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestStore_LastEstablishWins(t *testing.T) {
	s, backend := openMemory(t)

	for _, id := range []string{"abc123", "def456", "xyz789"} {
		s.Establish(id)
	}

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "xyz789", id)

	persisted, err := backend.Get(context.Background(), session.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "xyz789", persisted)
}

func TestStore_ClearRemovesMemoryAndRecord(t *testing.T) {
	s, backend := openMemory(t)
	s.Establish("abc123")

	s.Clear()

	_, ok := s.Current()
	assert.False(t, ok)
	_, err := backend.Get(context.Background(), session.StorageKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// Idempotent.
	assert.NotPanics(t, s.Clear)
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.yaml")

	first := session.Open(ctx, storage.NewFileStore(path, "http://localhost:5173"), logger.NewNopLogger())
	first.Establish("abc123")

	restarted := session.Open(ctx, storage.NewFileStore(path, "http://localhost:5173"), logger.NewNopLogger())
	id, ok := restarted.Current()
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	restarted.Clear()
	again := session.Open(ctx, storage.NewFileStore(path, "http://localhost:5173"), logger.NewNopLogger())
	_, ok = again.Current()
	assert.False(t, ok)
}

func TestStore_NotifiesSynchronously(t *testing.T) {
	s, _ := openMemory(t)

	var changes []session.Change
	unsubscribe := s.Subscribe(func(c session.Change) {
		changes = append(changes, c)
	})

	s.Establish("abc123")
	require.Len(t, changes, 1, "observer must run before Establish returns")
	assert.Equal(t, session.Change{Previous: "", Current: "abc123"}, changes[0])

	s.Establish("abc123") // same id, no transition
	s.Establish("xyz789")
	s.Clear()
	s.Clear() // already clear, no transition

	assert.Equal(t, []session.Change{
		{Previous: "", Current: "abc123"},
		{Previous: "abc123", Current: "xyz789"},
		{Previous: "xyz789", Current: ""},
	}, changes)

	unsubscribe()
	s.Establish("again")
	assert.Len(t, changes, 3)
}

func TestStore_Invalidate(t *testing.T) {
	tests := []struct {
		name        string
		active      string
		rejected    string
		wantCleared bool
		wantCurrent string
	}{
		{"matching id clears", "abc123", "abc123", true, ""},
		{"stale id keeps newer session", "xyz789", "abc123", false, "xyz789"},
		{"already absent", "", "abc123", false, ""},
		{"empty id never clears", "abc123", "", false, "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := openMemory(t)
			if tt.active != "" {
				s.Establish(tt.active)
			}

			assert.Equal(t, tt.wantCleared, s.Invalidate(tt.rejected))
			id, _ := s.Current()
			assert.Equal(t, tt.wantCurrent, id)
		})
	}
}

func TestStore_EmptyEstablishIgnored(t *testing.T) {
	s, _ := openMemory(t)
	s.Establish("abc123")

	s.Establish("")

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "abc123", id)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (brokenStore) Set(context.Context, string, string) error    { return errors.New("disk gone") }
func (brokenStore) Delete(context.Context, string) error         { return errors.New("disk gone") }

func TestStore_NeverFailsOnStorageErrors(t *testing.T) {
	s := session.Open(context.Background(), brokenStore{}, logger.NewNopLogger())

	_, ok := s.Current()
	assert.False(t, ok)

	s.Establish("abc123")
	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	s.Clear()
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestStore_ConcurrentClearIsSafe(t *testing.T) {
	s, _ := openMemory(t)
	s.Establish("abc123")

	var mu sync.Mutex
	transitions := 0
	s.Subscribe(func(c session.Change) {
		mu.Lock()
		transitions++
		mu.Unlock()
	})

	const n = 50
	var wg sync.WaitGroup
	cleared := make(chan bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			cleared <- s.Invalidate("abc123")
		}()
	}
	wg.Wait()
	close(cleared)

	wins := 0
	for c := range cleared {
		if c {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, transitions)
}
