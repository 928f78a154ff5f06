package ports

import (
	"context"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
)

// Repositories return (nil, nil) when a row does not exist.

type ChargingPointRepository interface {
	// FindByID loads the point with its station preloaded.
	FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error)
	FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error)

	// TransitionStatus moves a point to `to` only while it is in one of `from`.
	// The returned count is 0 when the guard did not match.
	TransitionStatus(ctx context.Context, id string, from []domain.ChargingPointStatus, to domain.ChargingPointStatus) (int64, error)

	// MarkAlmostDone flags every listed point that is not already AlmostDone.
	MarkAlmostDone(ctx context.Context, pointIDs []string) (int64, error)
}

type StationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Station, error)
}

type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Vehicle, error)
}

// ReservationRepository handles reservation persistence
type ReservationRepository interface {
	// Create inserts a reservation. A second open reservation for the same
	// user or point yields domain.ErrDuplicateActive.
	Create(ctx context.Context, reservation *domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)

	// FindOpenByUserID returns the newest Confirmed or Active reservation with
	// point and station preloaded.
	FindOpenByUserID(ctx context.Context, userID string) (*domain.Reservation, error)
	FindByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error)

	// TransitionStatus updates the status only while the row is still in `from`.
	TransitionStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (int64, error)

	// ExpireBefore marks every Confirmed reservation whose expire_time < now as Expired.
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// SessionRepository handles charging session persistence
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*domain.ChargingSession, error)
	FindActiveByUserID(ctx context.Context, userID string) (*domain.ChargingSession, error)
	FindActiveByPointID(ctx context.Context, pointID string) (*domain.ChargingSession, error)

	// FindActiveCompletingBetween lists Active sessions whose estimated
	// completion time lies in [from, to].
	FindActiveCompletingBetween(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error)

	// Start claims the point (Available|Reserved -> InUse) and inserts the
	// session in one transaction. It returns domain.ErrPointNotClaimable when
	// the claim matched no row and domain.ErrDuplicateActive when the user or
	// point already has an Active session.
	Start(ctx context.Context, session *domain.ChargingSession) error

	// Complete writes the frozen billing fields while the session is still
	// Active and releases its point in the same transaction. It returns
	// domain.ErrStaleState when the session was no longer Active.
	Complete(ctx context.Context, session *domain.ChargingSession) error
}
