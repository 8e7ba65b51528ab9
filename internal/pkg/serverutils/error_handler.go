package serverutils

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper maps a domain error onto an HTTP status.
type StatusMapper func(err error) (int, bool)

// ErrorHandlerMiddleware renders any error returned down the chain as a
// BaseResponse. Mappers are tried in order before the built-in rules.
func ErrorHandlerMiddleware(mappers ...StatusMapper) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.Is(err, context.Canceled):
			code = fiber.StatusRequestTimeout
		case errors.Is(err, context.DeadlineExceeded):
			code = fiber.StatusRequestTimeout
		default:
			for _, m := range mappers {
				if c, ok := m(err); ok {
					code = c
					break
				}
			}
		}
		if code == fiber.StatusInternalServerError {
			message = "internal server error"
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
