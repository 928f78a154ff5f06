package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	CreateReservationFunc     func(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error)
	CancelReservationFunc     func(ctx context.Context, reservationID, userID string) (*domain.Reservation, error)
	GetActiveReservationFunc  func(ctx context.Context, userID string) (*domain.Reservation, error)
	ValidateReservationFunc   func(ctx context.Context, reservationID, userID string) (*domain.ReservationValidation, error)
	ExpireOldReservationsFunc func(ctx context.Context) (int64, error)
	ActivateReservationFunc   func(ctx context.Context, reservationID string) error
	CompleteReservationFunc   func(ctx context.Context, reservationID string) error
	GetReservationFunc        func(ctx context.Context, id string) (*domain.Reservation, error)
	ListUserReservationsFunc  func(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error)
}

func (m *MockReservationService) CreateReservation(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error) {
	if m.CreateReservationFunc != nil {
		return m.CreateReservationFunc(ctx, userID, pointID, durationMinutes)
	}
	return nil, nil
}

func (m *MockReservationService) CancelReservation(ctx context.Context, reservationID, userID string) (*domain.Reservation, error) {
	if m.CancelReservationFunc != nil {
		return m.CancelReservationFunc(ctx, reservationID, userID)
	}
	return nil, nil
}

func (m *MockReservationService) GetActiveReservation(ctx context.Context, userID string) (*domain.Reservation, error) {
	if m.GetActiveReservationFunc != nil {
		return m.GetActiveReservationFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockReservationService) ValidateReservation(ctx context.Context, reservationID, userID string) (*domain.ReservationValidation, error) {
	if m.ValidateReservationFunc != nil {
		return m.ValidateReservationFunc(ctx, reservationID, userID)
	}
	return &domain.ReservationValidation{Valid: true}, nil
}

func (m *MockReservationService) ExpireOldReservations(ctx context.Context) (int64, error) {
	if m.ExpireOldReservationsFunc != nil {
		return m.ExpireOldReservationsFunc(ctx)
	}
	return 0, nil
}

func (m *MockReservationService) ActivateReservation(ctx context.Context, reservationID string) error {
	if m.ActivateReservationFunc != nil {
		return m.ActivateReservationFunc(ctx, reservationID)
	}
	return nil
}

func (m *MockReservationService) CompleteReservation(ctx context.Context, reservationID string) error {
	if m.CompleteReservationFunc != nil {
		return m.CompleteReservationFunc(ctx, reservationID)
	}
	return nil
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockReservationService) ListUserReservations(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error) {
	if m.ListUserReservationsFunc != nil {
		return m.ListUserReservationsFunc(ctx, userID, status, limit, offset)
	}
	return nil, nil
}

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	StartSessionFunc             func(ctx context.Context, req *ports.StartSessionRequest) (*domain.ChargingSession, error)
	StopSessionFunc              func(ctx context.Context, req *ports.StopSessionRequest) (*ports.StopSessionResult, error)
	DetectAlmostDoneSessionsFunc func(ctx context.Context) (int64, error)
	GetActiveSessionFunc         func(ctx context.Context, userID string) (*domain.ChargingSession, error)
	GetSessionFunc               func(ctx context.Context, id string) (*domain.ChargingSession, error)
	GetSessionSummaryFunc        func(ctx context.Context, id string) (*domain.CostSummary, error)
}

func (m *MockSessionService) StartSession(ctx context.Context, req *ports.StartSessionRequest) (*domain.ChargingSession, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockSessionService) StopSession(ctx context.Context, req *ports.StopSessionRequest) (*ports.StopSessionResult, error) {
	if m.StopSessionFunc != nil {
		return m.StopSessionFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockSessionService) DetectAlmostDoneSessions(ctx context.Context) (int64, error) {
	if m.DetectAlmostDoneSessionsFunc != nil {
		return m.DetectAlmostDoneSessionsFunc(ctx)
	}
	return 0, nil
}

func (m *MockSessionService) GetActiveSession(ctx context.Context, userID string) (*domain.ChargingSession, error) {
	if m.GetActiveSessionFunc != nil {
		return m.GetActiveSessionFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockSessionService) GetSession(ctx context.Context, id string) (*domain.ChargingSession, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSessionService) GetSessionSummary(ctx context.Context, id string) (*domain.CostSummary, error) {
	if m.GetSessionSummaryFunc != nil {
		return m.GetSessionSummaryFunc(ctx, id)
	}
	return nil, nil
}

// MockPointService is a mock implementation of PointService
type MockPointService struct {
	GetPointFunc             func(ctx context.Context, id string) (*domain.ChargingPoint, error)
	ListPointsFunc           func(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error)
	ListAvailablePointsFunc  func(ctx context.Context) ([]domain.ChargingPoint, error)
	SetOperationalStatusFunc func(ctx context.Context, id string, status domain.ChargingPointStatus) error
}

func (m *MockPointService) GetPoint(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	if m.GetPointFunc != nil {
		return m.GetPointFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPointService) ListPoints(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error) {
	if m.ListPointsFunc != nil {
		return m.ListPointsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockPointService) ListAvailablePoints(ctx context.Context) ([]domain.ChargingPoint, error) {
	if m.ListAvailablePointsFunc != nil {
		return m.ListAvailablePointsFunc(ctx)
	}
	return nil, nil
}

func (m *MockPointService) SetOperationalStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error {
	if m.SetOperationalStatusFunc != nil {
		return m.SetOperationalStatusFunc(ctx, id, status)
	}
	return nil
}

// PublishedEvent is one call recorded by MockEventPublisher.
type PublishedEvent struct {
	Type    string
	Payload interface{}
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu          sync.Mutex
	Events      []PublishedEvent
	PublishFunc func(ctx context.Context, eventType string, payload interface{}) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	m.mu.Lock()
	m.Events = append(m.Events, PublishedEvent{Type: eventType, Payload: payload})
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, eventType, payload)
	}
	return nil
}

// Types returns the recorded event types in publish order.
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

// PointNotification is one call recorded by MockPointNotifier.
type PointNotification struct {
	PointID string
	Status  domain.ChargingPointStatus
}

// MockPointNotifier records realtime point status pushes.
type MockPointNotifier struct {
	mu            sync.Mutex
	Notifications []PointNotification
}

func (m *MockPointNotifier) NotifyPointStatus(pointID string, status domain.ChargingPointStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, PointNotification{PointID: pointID, Status: status})
}

func (m *MockPointNotifier) Last() (PointNotification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Notifications) == 0 {
		return PointNotification{}, false
	}
	return m.Notifications[len(m.Notifications)-1], true
}
