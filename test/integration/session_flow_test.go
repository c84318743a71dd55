package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systematicmess/calendar-assistant/internal/bootstrap"
	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/config"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/server"
	"github.com/systematicmess/calendar-assistant/internal/testutil"
)

func testConfig(backendURL, storagePath string) *config.Config {
	return &config.Config{
		App: config.AppConfig{CallbackAddr: "127.0.0.1:0", LoginTimeout: time.Second},
		API: config.APIConfig{BaseURL: backendURL},
		Storage: config.StorageConfig{
			Driver: "file",
			Path:   storagePath,
			Origin: "http://localhost:5173",
		},
		Cache: config.CacheConfig{
			EventsStaleTime: time.Minute,
			Retention:       5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
	}
}

func boot(t *testing.T, cfg *config.Config) (*bootstrap.Container, *server.Server) {
	t.Helper()
	c, err := bootstrap.NewContainer(context.Background(), cfg, logger.NewNopLogger(),
		bootstrap.WithOpener(func(string) error { return nil }),
	)
	require.NoError(t, err)
	return c, server.New(cfg, c)
}

func TestSessionLifecycle(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AcceptSession("abc123")
	cfg := testConfig(backend.URL(), filepath.Join(t.TempDir(), "storage.yaml"))
	ctx := context.Background()

	// 1. Fresh start lands on login and sends nothing.
	c, srv := boot(t, cfg)
	assert.Equal(t, navigation.RouteLogin, c.OAuthService.EntryRoute())
	assert.Equal(t, cache.StatusIdle, c.CalendarService.Events(ctx).Status)

	// 2. Provider redirects back with a session.
	resp, err := srv.GetApp().Test(httptest.NewRequest("GET", "/callback?session=abc123", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, navigation.RouteAgenda, c.Router.Location())

	// 3. Agenda is fetched once and cached.
	res := c.CalendarService.Events(ctx)
	require.Equal(t, cache.StatusSuccess, res.Status)
	assert.Equal(t, 4.5, res.Data.TotalHours)
	c.CalendarService.Events(ctx)
	assert.Equal(t, 1, backend.Hits(testutil.PathEvents))

	// 4. A restart restores the session from storage.
	restarted, _ := boot(t, cfg)
	id, ok := restarted.Sessions.Current()
	require.True(t, ok)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, navigation.RouteAgenda, restarted.OAuthService.EntryRoute())

	// 5. The back-end forgets the session: the next call signs out.
	backend.RevokeSession("abc123")
	_, err = restarted.ChatService.Send(ctx, "hi")
	require.Error(t, err)
	_, ok = restarted.Sessions.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, restarted.Router.Count(navigation.RouteLogin))

	// 6. The cleared record survives another restart.
	again, _ := boot(t, cfg)
	_, ok = again.Sessions.Current()
	assert.False(t, ok)
}

func TestConcurrentRejectionsNavigateOnce(t *testing.T) {
	backend := testutil.NewBackend(t)
	cfg := testConfig(backend.URL(), filepath.Join(t.TempDir(), "storage.yaml"))
	ctx := context.Background()

	c, _ := boot(t, cfg)
	c.Sessions.Establish("expired")

	release := backend.Hold()
	done := make(chan struct{}, 2)
	go func() {
		c.CalendarService.Refresh(ctx)
		done <- struct{}{}
	}()
	go func() {
		_, _ = c.ChatService.Send(ctx, "hi")
		done <- struct{}{}
	}()

	require.Eventually(t, func() bool {
		return backend.Hits(testutil.PathEvents) == 1 && backend.Hits(testutil.PathChat) == 1
	}, 2*time.Second, 5*time.Millisecond)
	release()
	<-done
	<-done

	_, ok := c.Sessions.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, c.Router.Count(navigation.RouteLogin))
}
