// Package respond writes the {success, data|error} envelope shared by every
// JSON endpoint and maps domain errors onto HTTP status codes.
package respond

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/pkg/validation"
)

func OK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// StatusFor maps a domain error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidState:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Overrides replaces the default status of some error kinds on a route.
type Overrides map[domain.ErrorKind]int

// Error writes err to the client. Unclassified errors are logged and hidden
// behind a generic message.
func Error(c *fiber.Ctx, log *zap.Logger, err error) error {
	return ErrorWith(c, log, err, nil)
}

// ErrorWith is Error with route-specific statuses for the kinds in o.
func ErrorWith(c *fiber.Ctx, log *zap.Logger, err error, o Overrides) error {
	status := StatusFor(err)
	if s, ok := o[domain.KindOf(err)]; ok {
		status = s
	}
	if status == fiber.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return Fail(c, status, "Internal server error")
	}
	return Fail(c, status, err.Error())
}

// Bind parses the JSON body into dst and validates its struct tags.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.NewValidation("Invalid request body")
	}
	return validation.Struct(dst)
}
