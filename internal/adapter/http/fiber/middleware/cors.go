package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/evcharge/pkg/config"
)

// Defaults cover the driver app: JSON bodies, the websocket upgrade and the
// request id echoed back by the logger.
var (
	corsMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions}
	corsHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization, fiber.HeaderXRequestID}
	corsExposed = []string{fiber.HeaderContentLength, fiber.HeaderXRequestID}
)

const corsMaxAge = 12 * 60 * 60

// NewCORS builds the cors middleware for the charging API.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = corsMaxAge
	}
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	// fiber refuses credentials with a wildcard origin
	credentials := cfg.Credentials && origins[0] != "*"
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     strings.Join(orDefault(cfg.AllowedMethods, corsMethods), ","),
		AllowHeaders:     strings.Join(orDefault(cfg.AllowedHeaders, corsHeaders), ","),
		ExposeHeaders:    strings.Join(orDefault(cfg.ExposeHeaders, corsExposed), ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func orDefault(list, def []string) []string {
	if len(list) == 0 {
		return def
	}
	return list
}
