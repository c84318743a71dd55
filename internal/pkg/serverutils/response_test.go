package serverutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/panic", func(ctx *fiber.Ctx) error { panic("boom") })
	app.Get("/ok", func(ctx *fiber.Ctx) error { return ctx.SendString("ok") })

	tests := []struct {
		path    string
		code    int
		success bool
	}{
		{"/missing", fiber.StatusNotFound, false},
		{"/panic", fiber.StatusInternalServerError, false},
	}

	t.Run("/ok", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			var body Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.success, body.Success)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
