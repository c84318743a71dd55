package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/service"
	"github.com/systematicmess/calendar-assistant/internal/session"
	"github.com/systematicmess/calendar-assistant/internal/testutil"
)

func newOAuth(env *testutil.Env) service.IOAuthService {
	return service.NewOAuthService(env.Client, env.Sessions, env.Router, env.Log)
}

func TestBeginSignIn_NavigatesToConsentURL(t *testing.T) {
	env := testutil.NewEnv(t)

	err := newOAuth(env).BeginSignIn(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{testutil.ConsentURL}, env.Opened.URLs())
	assert.Equal(t, 1, env.Backend.Hits(testutil.PathAuthURL))
	_, ok := env.Sessions.Current()
	assert.False(t, ok)
}

func TestBeginSignIn_BackendDown(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.Fail(testutil.PathAuthURL, http.StatusServiceUnavailable)
	env.SignIn("existing")

	err := newOAuth(env).BeginSignIn(context.Background())

	require.Error(t, err)
	assert.Empty(t, env.Opened.URLs())
	id, ok := env.Sessions.Current()
	assert.True(t, ok, "session untouched")
	assert.Equal(t, "existing", id)
}

func TestBeginSignIn_OpenerFails(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Opened.Err = errors.New("no browser")

	err := newOAuth(env).BeginSignIn(context.Background())

	assert.Error(t, err)
}

func TestCompleteSignIn(t *testing.T) {
	tests := []struct {
		name      string
		params    url.Values
		existing  string
		want      service.Outcome
		wantID    string
		wantRoute string
	}{
		{
			name:      "session present",
			params:    url.Values{"session": {"s1"}},
			want:      service.OutcomeProceed,
			wantID:    "s1",
			wantRoute: navigation.RouteAgenda,
		},
		{
			name:      "session missing",
			params:    url.Values{},
			want:      service.OutcomeFallback,
			wantRoute: navigation.RouteLogin,
		},
		{
			name:      "session blank keeps existing",
			params:    url.Values{"session": {"  "}},
			existing:  "old",
			want:      service.OutcomeFallback,
			wantID:    "old",
			wantRoute: navigation.RouteLogin,
		},
		{
			name:      "new session replaces existing",
			params:    url.Values{"session": {"new"}},
			existing:  "old",
			want:      service.OutcomeProceed,
			wantID:    "new",
			wantRoute: navigation.RouteAgenda,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			if tt.existing != "" {
				env.Sessions.Establish(tt.existing)
			}

			got := newOAuth(env).CompleteSignIn(tt.params)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRoute, got.Route())
			assert.Equal(t, tt.wantRoute, env.Router.Location())
			id, _ := env.Sessions.Current()
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCompleteSignIn_Idempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	oauth := newOAuth(env)

	var changes []session.Change
	env.Sessions.Subscribe(func(c session.Change) { changes = append(changes, c) })

	params := url.Values{"session": {"s1"}}
	assert.Equal(t, service.OutcomeProceed, oauth.CompleteSignIn(params))
	assert.Equal(t, service.OutcomeProceed, oauth.CompleteSignIn(params))

	id, _ := env.Sessions.Current()
	assert.Equal(t, "s1", id)
	assert.Len(t, changes, 1)

	stored, err := env.Storage.Get(context.Background(), session.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "s1", stored)
}

func TestEntryRouteAndSignOut(t *testing.T) {
	env := testutil.NewEnv(t)
	oauth := newOAuth(env)

	assert.Equal(t, navigation.RouteLogin, oauth.EntryRoute())

	env.SignIn("abc123")
	assert.Equal(t, navigation.RouteAgenda, oauth.EntryRoute())

	oauth.SignOut()
	assert.Equal(t, navigation.RouteLogin, oauth.EntryRoute())
	assert.Equal(t, navigation.RouteLogin, env.Router.Location())
}
