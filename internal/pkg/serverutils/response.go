package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ErrorResponse(code int, message string) Response {
	return Response{Code: code, Success: false, Message: message}
}

// ErrorHandlerMiddleware turns returned errors and panics into JSON responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ctx.Status(fiber.StatusInternalServerError).
					JSON(ErrorResponse(fiber.StatusInternalServerError, "internal error"))
			}
		}()

		if err = ctx.Next(); err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
