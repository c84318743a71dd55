package server

import (
	"context"
	"errors"
	"net"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"

	"github.com/systematicmess/calendar-assistant/internal/bootstrap"
	"github.com/systematicmess/calendar-assistant/internal/config"
	"github.com/systematicmess/calendar-assistant/internal/pkg/serverutils"
)

const module = "server"

// Server is the local listener the identity provider redirects the browser to.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "calassist",
	})

	// OpenTelemetry tracing middleware (a no-op unless the tracer was initialised)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Run listens on CALLBACK_ADDR until Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.cfg.App.CallbackAddr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.container.Logger.Info(module, "callback listener started", map[string]interface{}{"addr": ln.Addr().String()})
	err := s.app.Listener(ln)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.OAuthController.RegisterRoutes(app)
}
