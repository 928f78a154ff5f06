package ports

import (
	"context"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
)

// ReservationService handles charging point reservations
type ReservationService interface {
	// CreateReservation holds a point for durationMinutes (default hold when <= 0)
	CreateReservation(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error)

	// CancelReservation cancels a Confirmed reservation owned by userID
	CancelReservation(ctx context.Context, reservationID, userID string) (*domain.Reservation, error)

	// GetActiveReservation returns the user's open reservation or nil
	GetActiveReservation(ctx context.Context, userID string) (*domain.Reservation, error)

	// ValidateReservation re-checks a reservation before charging starts from it
	ValidateReservation(ctx context.Context, reservationID, userID string) (*domain.ReservationValidation, error)

	// ExpireOldReservations expires every Confirmed reservation past its deadline
	ExpireOldReservations(ctx context.Context) (int64, error)

	ActivateReservation(ctx context.Context, reservationID string) error
	CompleteReservation(ctx context.Context, reservationID string) error

	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	ListUserReservations(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error)
}

// StartSessionRequest carries everything needed to begin charging.
type StartSessionRequest struct {
	UserID                string   `json:"userId" validate:"required"`
	PointID               string   `json:"pointId" validate:"required"`
	ReservationID         *string  `json:"reservationId,omitempty"`
	VehicleID             *string  `json:"vehicleId,omitempty"`
	BookingID             *string  `json:"bookingId,omitempty"`
	MeterStart            float64  `json:"meterStart" validate:"gte=0"`
	InitialBatteryPercent *float64 `json:"initialBatteryPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	TargetBatteryPercent  float64  `json:"targetBatteryPercent" validate:"gte=0,lte=100"`
}

// StopSessionRequest carries the meter reading taken when charging stops.
type StopSessionRequest struct {
	SessionID   string   `json:"sessionId" validate:"required"`
	UserID      string   `json:"userId" validate:"required"`
	MeterEnd    *float64 `json:"meterEnd,omitempty" validate:"omitempty,gte=0"`
	IdleMinutes int      `json:"idleMinutes" validate:"gte=0"`

	// StoppedAt is the charger-reported stop time; nil means now.
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
}

// StopSessionResult is the completed session with its cost breakdown.
type StopSessionResult struct {
	Session *domain.ChargingSession `json:"session"`
	Summary *domain.CostSummary     `json:"summary"`
}

type SessionService interface {
	StartSession(ctx context.Context, req *StartSessionRequest) (*domain.ChargingSession, error)
	StopSession(ctx context.Context, req *StopSessionRequest) (*StopSessionResult, error)

	// DetectAlmostDoneSessions flags points whose session finishes within the warning window
	DetectAlmostDoneSessions(ctx context.Context) (int64, error)

	GetActiveSession(ctx context.Context, userID string) (*domain.ChargingSession, error)
	GetSession(ctx context.Context, id string) (*domain.ChargingSession, error)
	GetSessionSummary(ctx context.Context, id string) (*domain.CostSummary, error)
}

type PointService interface {
	GetPoint(ctx context.Context, id string) (*domain.ChargingPoint, error)
	ListPoints(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error)
	ListAvailablePoints(ctx context.Context) ([]domain.ChargingPoint, error)

	// SetOperationalStatus moves a point in or out of Maintenance/Offline
	SetOperationalStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error
}
