package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/session"
)

const oauthModule = "oauth"

// Outcome is the result of handling the provider's redirect.
type Outcome string

const (
	// OutcomeProceed means a session was established.
	OutcomeProceed Outcome = "proceed"
	// OutcomeFallback means the redirect carried no session.
	OutcomeFallback Outcome = "fallback"
)

// Route is where the client goes after the outcome.
func (o Outcome) Route() string {
	if o == OutcomeProceed {
		return navigation.RouteAgenda
	}
	return navigation.RouteLogin
}

type IOAuthService interface {
	// BeginSignIn asks the backend for the consent URL and navigates to it.
	BeginSignIn(ctx context.Context) error
	// CompleteSignIn handles the redirect back from the provider.
	CompleteSignIn(params url.Values) Outcome
	// EntryRoute is the route a fresh start lands on.
	EntryRoute() string
	SignOut()
}

type oauthService struct {
	client   *httpclient.Client
	sessions *session.Store
	nav      navigation.Navigator
	log      logger.ILogger
}

func NewOAuthService(client *httpclient.Client, sessions *session.Store, nav navigation.Navigator, log logger.ILogger) IOAuthService {
	return &oauthService{
		client:   client,
		sessions: sessions,
		nav:      nav,
		log:      log,
	}
}

func (s *oauthService) BeginSignIn(ctx context.Context) error {
	var res dto.AuthURLResponse
	if err := s.client.GetJSON(ctx, "/auth/url", nil, &res); err != nil {
		s.log.Error(oauthModule, "could not obtain consent url", map[string]interface{}{"error": err})
		return fmt.Errorf("request consent url: %w", err)
	}

	s.log.Info(oauthModule, "redirecting to identity provider", map[string]interface{}{"state": res.State})
	if err := s.nav.Navigate(res.URL); err != nil {
		return fmt.Errorf("navigate to consent url: %w", err)
	}
	return nil
}

// CompleteSignIn establishes the session carried by the "session" parameter.
// A missing or blank value falls back to the login route silently and leaves
// any existing session alone. Handling the same redirect twice is harmless.
func (s *oauthService) CompleteSignIn(params url.Values) Outcome {
	id := strings.TrimSpace(params.Get("session"))
	outcome := OutcomeFallback
	if id != "" {
		s.sessions.Establish(id)
		outcome = OutcomeProceed
		s.log.Info(oauthModule, "sign-in completed", nil)
	} else {
		s.log.Warn(oauthModule, "redirect without session, back to login", map[string]interface{}{
			"error": params.Get("error"),
		})
	}

	if err := s.nav.Navigate(outcome.Route()); err != nil {
		s.log.Error(oauthModule, "navigation after sign-in failed", map[string]interface{}{"error": err})
	}
	return outcome
}

func (s *oauthService) EntryRoute() string {
	if _, ok := s.sessions.Current(); ok {
		return navigation.RouteAgenda
	}
	return navigation.RouteLogin
}

func (s *oauthService) SignOut() {
	s.sessions.Clear()
	if err := s.nav.Navigate(navigation.RouteLogin); err != nil {
		s.log.Error(oauthModule, "navigation after sign-out failed", map[string]interface{}{"error": err})
	}
}
