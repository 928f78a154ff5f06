package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/respond"
	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

type ChargingSessionHandler struct {
	service ports.SessionService
	log     *zap.Logger
}

func NewChargingSessionHandler(service ports.SessionService, log *zap.Logger) *ChargingSessionHandler {
	return &ChargingSessionHandler{
		service: service,
		log:     log,
	}
}

func (h *ChargingSessionHandler) RegisterRoutes(router fiber.Router) {
	sessions := router.Group("/charging-sessions")

	sessions.Post("/from-reservation", h.StartFromReservation)
	sessions.Post("/direct", h.StartDirect)
	sessions.Get("/active", h.GetActive)
	sessions.Post("/:id/stop", h.Stop)
	sessions.Get("/:id/summary", h.GetSummary)
	sessions.Get("/:id", h.Get)
}

// Start and stop report business-rule conflicts as 400, like the rest of
// their failures.
var sessionWriteStatus = respond.Overrides{domain.KindConflict: fiber.StatusBadRequest}

func (h *ChargingSessionHandler) fail(c *fiber.Ctx, err error) error {
	return respond.ErrorWith(c, h.log, err, sessionWriteStatus)
}

type startSessionBody struct {
	UserID                domain.ID  `json:"userId" validate:"required"`
	PointID               domain.ID  `json:"pointId" validate:"required"`
	ReservationID         *domain.ID `json:"reservationId"`
	VehicleID             *domain.ID `json:"vehicleId"`
	BookingID             *domain.ID `json:"bookingId"`
	MeterStart            float64    `json:"meterStart" validate:"gte=0"`
	InitialBatteryPercent *float64   `json:"initialBatteryPercent" validate:"omitempty,gte=0,lte=100"`
	TargetBatteryPercent  float64    `json:"targetBatteryPercent" validate:"gte=0,lte=100"`
}

func (b *startSessionBody) request() *ports.StartSessionRequest {
	return &ports.StartSessionRequest{
		UserID:                b.UserID.String(),
		PointID:               b.PointID.String(),
		ReservationID:         b.ReservationID.Ptr(),
		VehicleID:             b.VehicleID.Ptr(),
		BookingID:             b.BookingID.Ptr(),
		MeterStart:            b.MeterStart,
		InitialBatteryPercent: b.InitialBatteryPercent,
		TargetBatteryPercent:  b.TargetBatteryPercent,
	}
}

// StartFromReservation handles POST /charging-sessions/from-reservation
func (h *ChargingSessionHandler) StartFromReservation(c *fiber.Ctx) error {
	var body startSessionBody
	if err := respond.Bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	req := body.request()
	if req.ReservationID == nil {
		return h.fail(c, domain.NewValidation("reservationId is required"))
	}

	return h.start(c, req)
}

// StartDirect handles POST /charging-sessions/direct
func (h *ChargingSessionHandler) StartDirect(c *fiber.Ctx) error {
	var body startSessionBody
	if err := respond.Bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	req := body.request()
	req.ReservationID = nil

	return h.start(c, req)
}

func (h *ChargingSessionHandler) start(c *fiber.Ctx, req *ports.StartSessionRequest) error {
	session, err := h.service.StartSession(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond.Created(c, session)
}

type stopSessionBody struct {
	UserID      domain.ID `json:"userId" validate:"required"`
	MeterEnd    *float64  `json:"meterEnd" validate:"omitempty,gte=0"`
	IdleMinutes int       `json:"idleMinutes" validate:"gte=0"`
	StoppedAt   string    `json:"stoppedAt"`
}

// Stop handles POST /charging-sessions/:id/stop
func (h *ChargingSessionHandler) Stop(c *fiber.Ctx) error {
	var body stopSessionBody
	if err := respond.Bind(c, &body); err != nil {
		return h.fail(c, err)
	}

	req := &ports.StopSessionRequest{
		SessionID:   c.Params("id"),
		UserID:      body.UserID.String(),
		MeterEnd:    body.MeterEnd,
		IdleMinutes: body.IdleMinutes,
	}
	if body.StoppedAt != "" {
		ts, err := domain.ParseTimestamp(body.StoppedAt)
		if err != nil {
			return h.fail(c, domain.NewValidation("Invalid stoppedAt: %v", err))
		}
		req.StoppedAt = &ts
	}

	result, err := h.service.StopSession(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond.OK(c, result)
}

// GetActive handles GET /charging-sessions/active?userId=
func (h *ChargingSessionHandler) GetActive(c *fiber.Ctx) error {
	session, err := h.service.GetActiveSession(c.UserContext(), c.Query("userId"))
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	if session == nil {
		return respond.Error(c, h.log, domain.NewNotFound("No active charging session"))
	}
	return respond.OK(c, withElapsed(session))
}

func (h *ChargingSessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, withElapsed(session))
}

func (h *ChargingSessionHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.GetSessionSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond.Error(c, h.log, err)
	}
	return respond.OK(c, summary)
}

type sessionView struct {
	*domain.ChargingSession
	ElapsedMinutes float64 `json:"elapsed_minutes"`
}

func withElapsed(s *domain.ChargingSession) sessionView {
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return sessionView{ChargingSession: s, ElapsedMinutes: float64(int(end.Sub(s.StartTime).Minutes()))}
}
