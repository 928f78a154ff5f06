package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/observability/telemetry"
	"github.com/seu-repo/evcharge/internal/ports"
	"github.com/seu-repo/evcharge/pkg/validation"
)

const (
	msgPointOccupied = "Point is currently occupied by another session"
	msgUserCharging  = "User already has an active charging session"

	summaryKeyPrefix = "session:summary:"
)

// Deps groups the collaborators of the session service.
type Deps struct {
	Sessions     ports.SessionRepository
	Points       ports.ChargingPointRepository
	Stations     ports.StationRepository
	Vehicles     ports.VehicleRepository
	Reservations ports.ReservationService
	Cache        ports.Cache
	Events       ports.EventPublisher
	Notifier     ports.PointStatusNotifier
}

// Options tunes the session service.
type Options struct {
	// AlmostDoneWindow is how far ahead DetectAlmostDoneSessions looks.
	AlmostDoneWindow time.Duration
	// SummaryTTL is how long stop receipts stay cached.
	SummaryTTL time.Duration
}

// Service implements ports.SessionService
type Service struct {
	deps    Deps
	billing *Billing
	opts    Options
	log     *zap.Logger
	now     func() time.Time
}

func NewService(deps Deps, billing *Billing, opts Options, log *zap.Logger) *Service {
	if billing == nil {
		billing = NewBilling(DefaultBillingConfig())
	}
	if opts.AlmostDoneWindow <= 0 {
		opts.AlmostDoneWindow = 5 * time.Minute
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = 24 * time.Hour
	}
	return &Service{
		deps:    deps,
		billing: billing,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// StartSession begins charging on a point. The checks run in a fixed order
// and the first failure is returned; the final point claim and insert happen
// in one store transaction so two concurrent starts cannot both win.
func (s *Service) StartSession(ctx context.Context, req *ports.StartSessionRequest) (cs *domain.ChargingSession, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "session.StartSession")
	defer func() { endSpan(span, err) }()

	origin := "direct"
	if req != nil && req.ReservationID != nil {
		origin = "reservation"
	}
	defer func() {
		if err != nil {
			telemetry.SessionStartRejectedTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
		}
	}()

	if req == nil {
		return nil, domain.NewValidation("request is required")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("point_id", req.PointID),
		attribute.String("origin", origin),
	)

	var reservation *domain.Reservation
	if req.ReservationID != nil {
		v, err := s.deps.Reservations.ValidateReservation(ctx, *req.ReservationID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate reservation: %w", err)
		}
		if !v.Valid {
			return nil, domain.NewInvalidState("%s", v.Reason)
		}
		reservation = v.Reservation
		if reservation != nil && reservation.PointID != req.PointID {
			return nil, domain.NewInvalidState("Reservation is for charging point %s", reservation.PointID)
		}
	}

	point, err := s.deps.Points.FindByID(ctx, req.PointID)
	if err != nil {
		return nil, fmt.Errorf("failed to find charging point: %w", err)
	}
	if point == nil {
		return nil, domain.NewNotFound("Charging point %s not found", req.PointID)
	}
	switch {
	case point.Status == domain.ChargingPointStatusInUse || point.Status == domain.ChargingPointStatusAlmostDone:
		return nil, domain.NewConflict(msgPointOccupied)
	case !point.Status.Startable():
		return nil, domain.NewConflict("Charging point is not available (status: %s)", point.Status)
	}

	onPoint, err := s.deps.Sessions.FindActiveByPointID(ctx, req.PointID)
	if err != nil {
		return nil, fmt.Errorf("failed to check point sessions: %w", err)
	}
	if onPoint != nil {
		return nil, domain.NewConflict(msgPointOccupied)
	}

	byUser, err := s.deps.Sessions.FindActiveByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user sessions: %w", err)
	}
	if byUser != nil {
		return nil, domain.NewConflict(msgUserCharging)
	}

	vehicle, err := s.findVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	target := req.TargetBatteryPercent
	if target <= 0 {
		target = 100
	}

	cs = &domain.ChargingSession{
		ID:                      uuid.New().String(),
		UserID:                  req.UserID,
		VehicleID:               req.VehicleID,
		PointID:                 req.PointID,
		ReservationID:           req.ReservationID,
		BookingID:               req.BookingID,
		StartTime:               now,
		MeterStart:              req.MeterStart,
		InitialBatteryPercent:   req.InitialBatteryPercent,
		TargetBatteryPercent:    target,
		EstimatedCompletionTime: s.billing.EstimateCompletion(now, vehicle, req.InitialBatteryPercent, target, point.PowerKW),
		Status:                  domain.SessionStatusActive,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := s.deps.Sessions.Start(ctx, cs); err != nil {
		return nil, s.startConflict(ctx, req.UserID, err)
	}

	if reservation != nil {
		if err := s.deps.Reservations.ActivateReservation(ctx, reservation.ID); err != nil {
			s.log.Warn("Failed to activate reservation",
				zap.String("reservation_id", reservation.ID),
				zap.String("session_id", cs.ID),
				zap.Error(err),
			)
		}
	}

	telemetry.SessionsStartedTotal.WithLabelValues(origin).Inc()
	telemetry.ActiveChargingSessions.Inc()

	s.log.Info("Charging session started",
		zap.String("session_id", cs.ID),
		zap.String("user_id", cs.UserID),
		zap.String("point_id", cs.PointID),
		zap.String("origin", origin),
	)

	s.notify(cs.PointID, domain.ChargingPointStatusInUse)
	s.publish(ctx, ports.EventSessionStarted, cs)

	return cs, nil
}

// startConflict phrases a failed claim or insert for the caller.
func (s *Service) startConflict(ctx context.Context, userID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPointNotClaimable):
		return domain.NewConflict(msgPointOccupied)
	case errors.Is(err, domain.ErrDuplicateActive):
		// the index does not say which side collided
		if other, ferr := s.deps.Sessions.FindActiveByUserID(ctx, userID); ferr == nil && other != nil {
			return domain.NewConflict(msgUserCharging)
		}
		return domain.NewConflict(msgPointOccupied)
	}
	return fmt.Errorf("failed to start session: %w", err)
}

// StopSession freezes the billing figures, releases the point and closes the
// linked reservation.
func (s *Service) StopSession(ctx context.Context, req *ports.StopSessionRequest) (result *ports.StopSessionResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "session.StopSession")
	defer func() { endSpan(span, err) }()

	if req == nil {
		return nil, domain.NewValidation("request is required")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session_id", req.SessionID))

	cs, err := s.deps.Sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if cs == nil {
		return nil, domain.NewNotFound("Session not found")
	}
	if cs.UserID != req.UserID {
		return nil, domain.NewInvalidState("Session does not belong to this user")
	}
	if !cs.IsActive() {
		return nil, domain.NewInvalidState("Session is not active (status: %s)", cs.Status)
	}

	point, err := s.deps.Points.FindByID(ctx, cs.PointID)
	if err != nil {
		return nil, fmt.Errorf("failed to find charging point: %w", err)
	}
	if point == nil {
		return nil, fmt.Errorf("charging point %s of session %s is missing", cs.PointID, cs.ID)
	}
	price, err := s.stationPrice(ctx, point)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.findVehicle(ctx, cs.VehicleID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	if req.StoppedAt != nil {
		stoppedAt := req.StoppedAt.UTC()
		if stoppedAt.Before(cs.StartTime) || stoppedAt.After(end) {
			return nil, domain.NewValidation("stoppedAt must lie between the session start and now")
		}
		end = stoppedAt
	}
	charge, err := s.billing.Compute(ChargeInput{
		Session:      cs,
		PowerKW:      point.PowerKW,
		CapacityKWh:  s.billing.Capacity(vehicle),
		StationPrice: price,
		MeterEnd:     req.MeterEnd,
		IdleMinutes:  req.IdleMinutes,
		End:          end,
	})
	if err != nil {
		return nil, err
	}

	meterEnd := charge.MeterEnd
	cs.EndTime = &end
	cs.MeterEnd = &meterEnd
	cs.EnergyConsumedKWh = charge.EnergyKWh
	cs.IdleMinutes = req.IdleMinutes
	cs.IdleFee = charge.IdleFee
	cs.Cost = charge.TotalCost
	cs.UpdatedAt = end

	if err := s.deps.Sessions.Complete(ctx, cs); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			return nil, domain.NewInvalidState("Session is not active")
		}
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	cs.Status = domain.SessionStatusCompleted

	if cs.ReservationID != nil {
		if err := s.deps.Reservations.CompleteReservation(ctx, *cs.ReservationID); err != nil {
			s.log.Warn("Failed to complete reservation",
				zap.String("reservation_id", *cs.ReservationID),
				zap.String("session_id", cs.ID),
				zap.Error(err),
			)
		}
	}

	summary := s.billing.Summary(cs.ID, req.IdleMinutes, charge)
	s.cacheSummary(ctx, summary)

	telemetry.ActiveChargingSessions.Dec()
	telemetry.EnergyDeliveredTotal.Add(charge.EnergyKWh)

	s.log.Info("Charging session completed",
		zap.String("session_id", cs.ID),
		zap.String("point_id", cs.PointID),
		zap.Float64("energy_kwh", charge.EnergyKWh),
		zap.Float64("total_cost", charge.TotalCost),
	)

	s.notify(cs.PointID, domain.ChargingPointStatusAvailable)
	s.publish(ctx, ports.EventSessionCompleted, summary)

	return &ports.StopSessionResult{Session: cs, Summary: summary}, nil
}

// DetectAlmostDoneSessions flags the points of sessions expected to finish
// within the window. Points already flagged are left alone, so repeated
// passes report 0.
func (s *Service) DetectAlmostDoneSessions(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	sessions, err := s.deps.Sessions.FindActiveCompletingBetween(ctx, now, now.Add(s.opts.AlmostDoneWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list completing sessions: %w", err)
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(sessions))
	pointIDs := make([]string, 0, len(sessions))
	for _, cs := range sessions {
		if _, ok := seen[cs.PointID]; ok {
			continue
		}
		seen[cs.PointID] = struct{}{}
		pointIDs = append(pointIDs, cs.PointID)
	}

	n, err := s.deps.Points.MarkAlmostDone(ctx, pointIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to mark points almost done: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	telemetry.PointsAlmostDoneTotal.Add(float64(n))
	s.log.Info("Points almost done", zap.Int64("count", n), zap.Strings("point_ids", pointIDs))

	for _, id := range pointIDs {
		s.notify(id, domain.ChargingPointStatusAlmostDone)
	}
	s.publish(ctx, ports.EventPointsAlmostDone, map[string]interface{}{
		"point_ids": pointIDs,
		"count":     n,
	})

	return n, nil
}

// GetActiveSession returns the user's Active session or nil
func (s *Service) GetActiveSession(ctx context.Context, userID string) (*domain.ChargingSession, error) {
	if userID == "" {
		return nil, domain.NewValidation("userId is required")
	}
	cs, err := s.deps.Sessions.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return cs, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*domain.ChargingSession, error) {
	cs, err := s.deps.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if cs == nil {
		return nil, domain.NewNotFound("Session not found")
	}
	return cs, nil
}

// GetSessionSummary returns the stop receipt, rebuilding it from the stored
// session when the cache no longer has it.
func (s *Service) GetSessionSummary(ctx context.Context, id string) (*domain.CostSummary, error) {
	if s.deps.Cache != nil {
		raw, err := s.deps.Cache.Get(ctx, summaryKeyPrefix+id)
		switch {
		case err == nil:
			var summary domain.CostSummary
			if jerr := json.Unmarshal([]byte(raw), &summary); jerr == nil {
				return &summary, nil
			}
			s.log.Warn("Discarding unreadable cached summary", zap.String("session_id", id))
		case !errors.Is(err, ports.ErrCacheMiss):
			s.log.Warn("Summary cache lookup failed", zap.String("session_id", id), zap.Error(err))
		}
	}

	cs, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs.IsActive() {
		return nil, domain.NewInvalidState("Session is still active")
	}

	var price float64
	if point, err := s.deps.Points.FindByID(ctx, cs.PointID); err == nil && point != nil {
		if price, err = s.stationPrice(ctx, point); err != nil {
			return nil, err
		}
	}

	summary := s.billing.SummaryOf(cs, price)
	s.cacheSummary(ctx, summary)
	return summary, nil
}

// stationPrice returns the station's price per kWh, falling back to the
// point's own rate when the station has none.
func (s *Service) stationPrice(ctx context.Context, point *domain.ChargingPoint) (float64, error) {
	station := point.Station
	if station == nil && s.deps.Stations != nil && point.StationID != "" {
		st, err := s.deps.Stations.FindByID(ctx, point.StationID)
		if err != nil {
			return 0, fmt.Errorf("failed to find station: %w", err)
		}
		station = st
	}
	if station != nil && station.PricePerKWh > 0 {
		return station.PricePerKWh, nil
	}
	return point.PriceRate, nil
}

// findVehicle returns nil for an unknown vehicle; billing then uses the
// default capacity.
func (s *Service) findVehicle(ctx context.Context, id *string) (*domain.Vehicle, error) {
	if id == nil || *id == "" || s.deps.Vehicles == nil {
		return nil, nil
	}
	v, err := s.deps.Vehicles.FindByID(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return v, nil
}

func (s *Service) cacheSummary(ctx context.Context, summary *domain.CostSummary) {
	if s.deps.Cache == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, summaryKeyPrefix+summary.SessionID, string(data), s.opts.SummaryTTL); err != nil {
		s.log.Warn("Failed to cache session summary", zap.String("session_id", summary.SessionID), zap.Error(err))
	}
}

func (s *Service) notify(pointID string, status domain.ChargingPointStatus) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyPointStatus(pointID, status)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, eventType, payload); err != nil {
		s.log.Warn("Failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
