package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/openkra/etims-relay/internal/domain"
	"github.com/openkra/etims-relay/internal/notify"
)

// ErrorHandler renders application errors as JSON. Blocking errors keep their
// user-facing title and message; sentinel errors map to their HTTP status.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{"error": err.Error()}

		var blocking *notify.BlockingError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &blocking):
			code = fiber.StatusBadGateway
			if errors.Is(err, domain.ErrConfiguration) {
				code = fiber.StatusInternalServerError
			}
			body = fiber.Map{
				"title":   blocking.Title,
				"message": blocking.Message,
				"detail":  blocking.Detail,
			}
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.Is(err, domain.ErrValidation):
			code = fiber.StatusBadRequest
		case errors.Is(err, domain.ErrRateLimited):
			code = fiber.StatusTooManyRequests
		case errors.Is(err, domain.ErrNotFound):
			code = fiber.StatusNotFound
		}

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(body)
	}
}
