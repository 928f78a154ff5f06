package reservation

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/respond"
	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// Handler handles reservation HTTP requests
type Handler struct {
	service ports.ReservationService
	log     *zap.Logger
}

// NewHandler creates a new reservation handler
func NewHandler(service ports.ReservationService, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers reservation routes
func (h *Handler) RegisterRoutes(router fiber.Router) {
	reservations := router.Group("/reservations")

	reservations.Post("/", h.CreateReservation)
	reservations.Get("/", h.GetUserReservations)
	reservations.Get("/active", h.GetActiveReservation)
	reservations.Get("/:id", h.GetReservation)
	reservations.Get("/:id/validate", h.ValidateReservation)
	reservations.Delete("/:id", h.CancelReservation)
}

// CreateReservationRequest represents the request body
type CreateReservationRequest struct {
	UserID          domain.ID `json:"userId" validate:"required"`
	PointID         domain.ID `json:"pointId" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"gte=0"`
}

// CreateReservation handles POST /reservations
func (h *Handler) CreateReservation(c *fiber.Ctx) error {
	var req CreateReservationRequest
	if err := respond.Bind(c, &req); err != nil {
		return respond.Error(c, h.log, err)
	}

	reservation, err := h.service.CreateReservation(c.UserContext(), req.UserID.String(), req.PointID.String(), req.DurationMinutes)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.Created(c, reservation)
}

// GetReservation handles GET /reservations/:id?userId=
func (h *Handler) GetReservation(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	reservation, err := h.service.GetReservation(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	if reservation.UserID != userID {
		return respond.Error(c, h.log, domain.NewNotFound("Reservation not found"))
	}

	return respond.OK(c, reservation)
}

// GetUserReservations handles GET /reservations?userId=&status=&limit=&offset=
func (h *Handler) GetUserReservations(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	limit := c.QueryInt("limit", defaultListLimit)
	offset := c.QueryInt("offset", 0)

	reservations, err := h.service.ListUserReservations(c.UserContext(), userID, c.Query("status"), limit, offset)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.OK(c, fiber.Map{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetActiveReservation handles GET /reservations/active?userId=
func (h *Handler) GetActiveReservation(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	reservation, err := h.service.GetActiveReservation(c.UserContext(), userID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	if reservation == nil {
		return respond.Error(c, h.log, domain.NewNotFound("No active reservation"))
	}

	return respond.OK(c, reservation)
}

// ValidateReservation handles GET /reservations/:id/validate?userId=
func (h *Handler) ValidateReservation(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	result, err := h.service.ValidateReservation(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.OK(c, result)
}

// CancelReservation handles DELETE /reservations/:id?userId=
func (h *Handler) CancelReservation(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	reservation, err := h.service.CancelReservation(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return respond.Error(c, h.log, err)
	}

	return respond.OK(c, reservation)
}

func requireUser(c *fiber.Ctx) (string, error) {
	userID := c.Query("userId")
	if userID == "" {
		return "", domain.NewValidation("userId is required")
	}
	return userID, nil
}
