package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/respond"
	"github.com/seu-repo/evcharge/pkg/config"
)

// CircuitBreaker sheds load with 503 once too many requests end in a 5xx.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	maxRequests := uint32(3)
	if cfg.MaxRequests > 0 {
		maxRequests = uint32(cfg.MaxRequests)
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "evcharge-api",
		MaxRequests: maxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		_, err := cb.Execute(func() (interface{}, error) {
			if err := c.Next(); err != nil {
				return nil, err
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, errServerFailure
			}
			return nil, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return respond.Fail(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable")
		case errors.Is(err, errServerFailure):
			// response already written
			return nil
		}
		return err
	}
}

var errServerFailure = errors.New("handler responded with 5xx")
