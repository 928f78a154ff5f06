package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// Event names published on the message queue
const (
	EventSessionStarted       = "charging.session.started"
	EventSessionCompleted     = "charging.session.completed"
	EventPointsAlmostDone     = "charging.points.almost_done"
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
)

// EventPublisher emits lifecycle events. Implementations never block the
// caller on broker failures for longer than the breaker allows.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// PointStatusNotifier pushes point status changes to realtime subscribers.
type PointStatusNotifier interface {
	NotifyPointStatus(pointID string, status domain.ChargingPointStatus)
}
