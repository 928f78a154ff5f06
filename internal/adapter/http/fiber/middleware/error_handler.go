package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/respond"
)

// ErrorHandler renders errors that escape handlers with the same envelope
// the handlers use.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
			}
			return respond.Fail(c, fe.Code, fe.Message)
		}
		return respond.Error(c, log, err)
	}
}
