package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler serves the liveness and readiness probes.
type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes mounts the probes on r, outside the versioned API.
func (h *FiberHandler) RegisterRoutes(r fiber.Router) {
	for _, p := range []string{"/health", "/healthz"} {
		r.Get(p, h.Live)
	}
	for _, p := range []string{"/ready", "/readyz"} {
		r.Get(p, h.Ready)
	}
}

// Live answers 200 while the process is serving.
func (h *FiberHandler) Live(c *fiber.Ctx) error {
	return c.JSON(h.service.Health(c.UserContext()))
}

// Ready answers 503 until Postgres, the cache, the broker and the scheduler
// all pass their checks.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	resp := h.service.Ready(c.UserContext())
	if !resp.Ready {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(resp)
}
