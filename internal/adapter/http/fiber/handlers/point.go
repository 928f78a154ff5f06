package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/respond"
	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// PointStream serves realtime point status to a websocket client.
type PointStream interface {
	Serve(conn *websocket.Conn, pointID string)
}

type PointHandler struct {
	service ports.PointService
	stream  PointStream
	log     *zap.Logger
}

func NewPointHandler(service ports.PointService, stream PointStream, log *zap.Logger) *PointHandler {
	return &PointHandler{
		service: service,
		stream:  stream,
		log:     log,
	}
}

func (h *PointHandler) RegisterRoutes(router fiber.Router) {
	points := router.Group("/points")
	points.Get("/", h.List)
	points.Get("/available", h.ListAvailable)
	points.Get("/:id", h.Get)
	points.Put("/:id/status", h.UpdateStatus)

	if h.stream != nil {
		router.Use("/ws/points", upgradeOnly)
		router.Get("/ws/points", websocket.New(func(conn *websocket.Conn) {
			h.stream.Serve(conn, conn.Query("pointId"))
		}))
	}
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *PointHandler) List(c *fiber.Ctx) error {
	filter := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if stationID := c.Query("stationId"); stationID != "" {
		filter["station_id"] = stationID
	}

	points, err := h.service.ListPoints(c.UserContext(), filter)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, points)
}

func (h *PointHandler) ListAvailable(c *fiber.Ctx) error {
	points, err := h.service.ListAvailablePoints(c.UserContext())
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, points)
}

func (h *PointHandler) Get(c *fiber.Ctx) error {
	point, err := h.service.GetPoint(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, point)
}

// UpdateStatus handles PUT /points/:id/status for operators.
func (h *PointHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status domain.ChargingPointStatus `json:"status" validate:"required"`
	}
	if err := respond.Bind(c, &req); err != nil {
		return respond.Error(c, h.log, err)
	}

	id := c.Params("id")
	if err := h.service.SetOperationalStatus(c.UserContext(), id, req.Status); err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, fiber.Map{"point_id": id, "status": req.Status})
}
