package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systematicmess/calendar-assistant/internal/storage"
)

func backends(t *testing.T) map[string]storage.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
		"file":   storage.NewFileStore(filepath.Join(t.TempDir(), "storage.yaml"), "http://localhost:5173"),
		"redis":  storage.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "http://localhost:5173"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "session_id")
			assert.ErrorIs(t, err, storage.ErrKeyNotFound)

			require.NoError(t, s.Set(ctx, "session_id", "abc123"))
			got, err := s.Get(ctx, "session_id")
			require.NoError(t, err)
			assert.Equal(t, "abc123", got)

			require.NoError(t, s.Set(ctx, "session_id", "xyz789"))
			got, err = s.Get(ctx, "session_id")
			require.NoError(t, err)
			assert.Equal(t, "xyz789", got)

			require.NoError(t, s.Delete(ctx, "session_id"))
			_, err = s.Get(ctx, "session_id")
			assert.ErrorIs(t, err, storage.ErrKeyNotFound)

			// Deleting twice is not an error.
			assert.NoError(t, s.Delete(ctx, "session_id"))
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.yaml")

	first := storage.NewFileStore(path, "http://localhost:5173")
	require.NoError(t, first.Set(ctx, "session_id", "abc123"))

	second := storage.NewFileStore(path, "http://localhost:5173")
	got, err := second.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_OriginsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.yaml")

	dev := storage.NewFileStore(path, "http://localhost:5173")
	prod := storage.NewFileStore(path, "https://assistant.example.com")

	require.NoError(t, dev.Set(ctx, "session_id", "dev-session"))
	require.NoError(t, prod.Set(ctx, "session_id", "prod-session"))

	got, err := dev.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "dev-session", got)

	require.NoError(t, prod.Delete(ctx, "session_id"))
	got, err = dev.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "dev-session", got)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("origins: [not, a, map"), 0o600))

	_, err := storage.NewFileStore(path, "origin").Get(context.Background(), "session_id")
	assert.ErrorIs(t, err, storage.ErrLoadFailed)
}

func TestNew_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := storage.New(ctx, storage.Options{Driver: storage.DriverMemory})
	require.NoError(t, err)
	assert.NotNil(t, s)

	s, err = storage.New(ctx, storage.Options{Path: filepath.Join(t.TempDir(), "s.yaml"), Origin: "o"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = storage.New(ctx, storage.Options{Driver: "indexeddb"})
	assert.Error(t, err)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := storage.NewRedisStoreFromURL(ctx, "redis://"+mr.Addr(), "http://localhost:5173")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "session_id", "abc123"))
	got, err := s.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
	assert.True(t, mr.Exists("calassist:http://localhost:5173:session_id"))

	require.NoError(t, s.Delete(ctx, "session_id"))
	_, err = s.Get(ctx, "session_id")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	require.NoError(t, s.Delete(ctx, "session_id"), "missing keys are ignored")
}

func TestRedisStore_OriginIsolationAndBareAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	// A bare host:port is accepted as well as a redis:// URL.
	a, err := storage.NewRedisStoreFromURL(ctx, mr.Addr(), "origin-a")
	require.NoError(t, err)
	b, err := storage.New(ctx, storage.Options{Driver: storage.DriverRedis, RedisURL: mr.Addr(), Origin: "origin-b"})
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "session_id", "from-a"))
	_, err = b.Get(ctx, "session_id")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := storage.NewRedisStoreFromURL(context.Background(), addr, "o")
	assert.Error(t, err)
}

func TestRedisStore_LiveServer(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	s, err := storage.NewRedisStoreFromURL(ctx, url, "test-"+t.Name())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "session_id", "abc123"))
	got, err := s.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
	require.NoError(t, s.Delete(ctx, "session_id"))
}
