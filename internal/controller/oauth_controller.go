package controller

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/service"
)

const (
	completingText = "Completing sign-in… You can close this tab and return to the terminal."
	fallbackText   = "Sign-in did not complete. Run `calassist login` to try again."
	loginText      = "Signed out. Run `calassist login` in your terminal to sign in."
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Callback(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	log       logger.ILogger
	onOutcome func(service.Outcome)
}

// NewOAuthController serves the pages the identity provider redirects the
// browser to. onOutcome, when set, receives every completed callback.
func NewOAuthController(service service.IOAuthService, log logger.ILogger, onOutcome func(service.Outcome)) IOAuthController {
	return &oauthController{service: service, log: log, onOutcome: onOutcome}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	r.Get(navigation.RouteCallback, c.Callback)
	r.Get(navigation.RouteLogin, c.Login)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	var params dto.CallbackParams
	if err := ctx.QueryParser(&params); err != nil {
		// An unreadable query carries no session: fall back to login.
		c.log.Warn("callback", "could not parse callback query", map[string]interface{}{"error": err})
		params = dto.CallbackParams{}
	}

	outcome := c.service.CompleteSignIn(url.Values{
		"session": {params.Session},
		"error":   {params.Error},
	})
	c.log.Info("callback", "callback handled", map[string]interface{}{"outcome": string(outcome)})
	if c.onOutcome != nil {
		c.onOutcome(outcome)
	}

	if outcome == service.OutcomeProceed {
		return ctx.Status(fiber.StatusOK).SendString(completingText)
	}
	return ctx.Status(fiber.StatusOK).SendString(fallbackText)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).SendString(loginText)
}
