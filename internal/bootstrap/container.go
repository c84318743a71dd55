package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/config"
	"github.com/systematicmess/calendar-assistant/internal/controller"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/service"
	"github.com/systematicmess/calendar-assistant/internal/session"
	"github.com/systematicmess/calendar-assistant/internal/storage"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Core
	Storage  storage.Store
	Sessions *session.Store
	Router   *navigation.Router
	Client   *httpclient.Client
	Cache    *cache.Cache

	// Services
	OAuthService    service.IOAuthService
	CalendarService service.ICalendarService
	ChatService     service.IChatService
	HealthService   service.IHealthService

	// Controllers
	OAuthController controller.IOAuthController

	// SignInOutcomes receives every handled callback. Sends never block; an
	// outcome nobody waits for is dropped.
	SignInOutcomes chan service.Outcome
}

type Option func(*options)

type options struct {
	opener     navigation.Opener
	httpClient *http.Client
	storage    storage.Store
}

// WithOpener replaces the system browser.
func WithOpener(open navigation.Opener) Option {
	return func(o *options) { o.opener = open }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithStorage bypasses the configured storage driver.
func WithStorage(s storage.Store) Option {
	return func(o *options) { o.storage = s }
}

func NewContainer(ctx context.Context, cfg *config.Config, log logger.ILogger, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}

	// 1. Persisted record
	backend := o.storage
	if backend == nil {
		var err error
		backend, err = storage.New(ctx, storage.Options{
			Driver:   cfg.Storage.Driver,
			Path:     cfg.Storage.Path,
			Origin:   cfg.Storage.Origin,
			RedisURL: cfg.Storage.RedisURL,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	// 2. Session and navigation
	sessions := session.Open(ctx, backend, log)
	router := navigation.NewRouter(navigation.RouteLogin, o.opener)

	// 3. Transport
	client, err := httpclient.New(cfg.API.BaseURL, o.httpClient,
		httpclient.RequestID(),
		httpclient.Tracing(nil),
		httpclient.Logging(log),
		httpclient.Authorization(sessions, router, log),
	)
	if err != nil {
		return nil, err
	}

	queryCache := cache.New(sessions, log, cache.WithRetention(cfg.Cache.Retention, cfg.Cache.CleanupInterval))

	// 4. Services
	oauthService := service.NewOAuthService(client, sessions, router, log)
	calendarService := service.NewCalendarService(client, queryCache, cfg.Cache.EventsStaleTime)
	chatService := service.NewChatService(client, sessions, log)
	healthService := service.NewHealthService(client)

	// 5. Controllers
	outcomes := make(chan service.Outcome, 1)
	oauthController := controller.NewOAuthController(oauthService, log, func(outcome service.Outcome) {
		select {
		case outcomes <- outcome:
		default:
		}
	})

	return &Container{
		Config:          cfg,
		Logger:          log,
		Storage:         backend,
		Sessions:        sessions,
		Router:          router,
		Client:          client,
		Cache:           queryCache,
		OAuthService:    oauthService,
		CalendarService: calendarService,
		ChatService:     chatService,
		HealthService:   healthService,
		OAuthController: oauthController,
		SignInOutcomes:  outcomes,
	}, nil
}
