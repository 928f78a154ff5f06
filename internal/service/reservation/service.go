package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/observability/telemetry"
	"github.com/seu-repo/evcharge/internal/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service implements ReservationService
type Service struct {
	repo     ports.ReservationRepository
	points   ports.ChargingPointRepository
	sessions ports.SessionRepository
	events   ports.EventPublisher
	config   *domain.ReservationConfig
	log      *zap.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for holds and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new reservation service
func NewService(
	repo ports.ReservationRepository,
	points ports.ChargingPointRepository,
	sessions ports.SessionRepository,
	events ports.EventPublisher,
	config *domain.ReservationConfig,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if config == nil {
		config = domain.DefaultReservationConfig()
	}

	s := &Service{
		repo:     repo,
		points:   points,
		sessions: sessions,
		events:   events,
		config:   config,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReservation holds a point for the user. The point status itself is
// left untouched.
func (s *Service) CreateReservation(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error) {
	if userID == "" || pointID == "" {
		return nil, domain.NewValidation("userId and pointId are required")
	}
	if durationMinutes <= 0 {
		durationMinutes = s.config.DefaultHoldMinutes
	}
	if s.config.MaxHoldMinutes > 0 && durationMinutes > s.config.MaxHoldMinutes {
		return nil, domain.NewValidation("Maximum hold is %d minutes", s.config.MaxHoldMinutes)
	}

	point, err := s.points.FindByID(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to find charging point: %w", err)
	}
	if point == nil {
		return nil, domain.NewNotFound("Charging point %s not found", pointID)
	}
	if point.Status != domain.ChargingPointStatusAvailable {
		return nil, domain.NewConflict("Charging point is not available (status: %s)", point.Status)
	}

	open, err := s.repo.FindOpenByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open reservations: %w", err)
	}
	if open != nil {
		return nil, domain.NewConflict("User already has an active reservation")
	}

	active, err := s.sessions.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active sessions: %w", err)
	}
	if active != nil {
		return nil, domain.NewConflict("User already has an active charging session")
	}

	now := s.now().UTC()
	reservation := &domain.Reservation{
		ID:         uuid.New().String(),
		UserID:     userID,
		PointID:    pointID,
		StationID:  point.StationID,
		StartTime:  now,
		ExpireTime: now.Add(time.Duration(durationMinutes) * time.Minute),
		Status:     domain.ReservationStatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, reservation); err != nil {
		if errors.Is(err, domain.ErrDuplicateActive) {
			return nil, domain.NewConflict("User or point already has an active reservation")
		}
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}
	reservation.Point = point

	telemetry.ReservationsCreatedTotal.Inc()
	s.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("user_id", userID),
		zap.String("point_id", pointID),
		zap.Time("expire_time", reservation.ExpireTime),
	)
	s.publish(ctx, ports.EventReservationCreated, reservation)

	return reservation, nil
}

// CancelReservation cancels a Confirmed reservation owned by userID
func (s *Service) CancelReservation(ctx context.Context, reservationID, userID string) (*domain.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	// another user's reservation is reported the same way as a missing one
	if reservation == nil || reservation.UserID != userID {
		return nil, domain.NewNotFound("Reservation not found")
	}
	if !reservation.CanBeCancelled() {
		return nil, domain.NewInvalidState("Cannot cancel reservation with status %s", reservation.Status)
	}

	n, err := s.repo.TransitionStatus(ctx, reservationID, domain.ReservationStatusConfirmed, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}
	if n == 0 {
		current, err := s.repo.FindByID(ctx, reservationID)
		if err != nil || current == nil {
			return nil, domain.NewInvalidState("Reservation changed status concurrently")
		}
		return nil, domain.NewInvalidState("Cannot cancel reservation with status %s", current.Status)
	}

	reservation.Status = domain.ReservationStatusCancelled
	reservation.UpdatedAt = s.now().UTC()

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", reservationID),
		zap.String("user_id", userID),
	)
	s.publish(ctx, ports.EventReservationCancelled, reservation)

	return reservation, nil
}

// GetActiveReservation returns the user's newest open reservation or nil
func (s *Service) GetActiveReservation(ctx context.Context, userID string) (*domain.Reservation, error) {
	reservation, err := s.repo.FindOpenByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active reservation: %w", err)
	}
	return reservation, nil
}

// ValidateReservation re-checks a reservation right before charging starts.
// A reservation found past its deadline is expired on the spot.
func (s *Service) ValidateReservation(ctx context.Context, reservationID, userID string) (*domain.ReservationValidation, error) {
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if reservation == nil {
		return &domain.ReservationValidation{Reason: "Reservation not found"}, nil
	}
	if reservation.UserID != userID {
		return &domain.ReservationValidation{Reason: "Reservation belongs to another user"}, nil
	}
	if reservation.Status != domain.ReservationStatusConfirmed {
		return &domain.ReservationValidation{
			Reason:      fmt.Sprintf("Reservation is %s", reservation.Status),
			Reservation: reservation,
		}, nil
	}

	if reservation.IsExpiredAt(s.now()) {
		n, err := s.repo.TransitionStatus(ctx, reservationID, domain.ReservationStatusConfirmed, domain.ReservationStatusExpired)
		if err != nil {
			return nil, fmt.Errorf("failed to expire reservation: %w", err)
		}
		if n > 0 {
			reservation.Status = domain.ReservationStatusExpired
			telemetry.ReservationsExpiredTotal.Inc()
			s.log.Info("Reservation expired on validation", zap.String("reservation_id", reservationID))
		}
		return &domain.ReservationValidation{Reason: "Reservation has expired", Reservation: reservation}, nil
	}

	return &domain.ReservationValidation{Valid: true, Reservation: reservation}, nil
}

// ExpireOldReservations expires every Confirmed reservation past its deadline
func (s *Service) ExpireOldReservations(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireBefore(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire reservations: %w", err)
	}
	if n > 0 {
		telemetry.ReservationsExpiredTotal.Add(float64(n))
		s.log.Info("Expired reservations", zap.Int64("count", n))
		s.publish(ctx, ports.EventReservationExpired, map[string]int64{"count": n})
	}
	return n, nil
}

// ActivateReservation marks a Confirmed reservation as used by a session
func (s *Service) ActivateReservation(ctx context.Context, reservationID string) error {
	return s.transition(ctx, reservationID, domain.ReservationStatusConfirmed, domain.ReservationStatusActive)
}

// CompleteReservation closes an Active reservation once its session stops
func (s *Service) CompleteReservation(ctx context.Context, reservationID string) error {
	return s.transition(ctx, reservationID, domain.ReservationStatusActive, domain.ReservationStatusCompleted)
}

func (s *Service) transition(ctx context.Context, id string, from, to domain.ReservationStatus) error {
	n, err := s.repo.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if n == 0 {
		return domain.NewInvalidState("Reservation %s is not %s", id, from)
	}
	s.log.Info("Reservation status changed",
		zap.String("reservation_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// GetReservation retrieves a reservation by ID
func (s *Service) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if reservation == nil {
		return nil, domain.NewNotFound("Reservation not found")
	}
	return reservation, nil
}

// ListUserReservations pages through a user's reservations, newest first
func (s *Service) ListUserReservations(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error) {
	if userID == "" {
		return nil, domain.NewValidation("userId is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindByUserID(ctx, userID, status, limit, offset)
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.log.Warn("Failed to publish event",
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}
