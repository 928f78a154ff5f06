package point

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// operatorStatuses are the statuses an operator may set by hand. The others
// belong to the session lifecycle.
var operatorStatuses = map[domain.ChargingPointStatus]bool{
	domain.ChargingPointStatusAvailable:   true,
	domain.ChargingPointStatusMaintenance: true,
	domain.ChargingPointStatusOffline:     true,
}

type Service struct {
	repo     ports.ChargingPointRepository
	notifier ports.PointStatusNotifier
	log      *zap.Logger
}

func NewService(repo ports.ChargingPointRepository, notifier ports.PointStatusNotifier, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

func (s *Service) GetPoint(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	cp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find charging point: %w", err)
	}
	if cp == nil {
		return nil, domain.NewNotFound("Charging point %s not found", id)
	}
	return cp, nil
}

func (s *Service) ListPoints(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error) {
	if raw, ok := filter["status"]; ok {
		status := domain.ChargingPointStatus(fmt.Sprint(raw))
		if !status.Valid() {
			return nil, domain.NewValidation("Unknown point status %s", status)
		}
		filter["status"] = status
	}
	return s.repo.FindAll(ctx, filter)
}

func (s *Service) ListAvailablePoints(ctx context.Context) ([]domain.ChargingPoint, error) {
	return s.repo.FindAll(ctx, map[string]interface{}{"status": domain.ChargingPointStatusAvailable})
}

// SetOperationalStatus takes a point in or out of service. Points with a
// session in progress cannot be moved.
func (s *Service) SetOperationalStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error {
	if !operatorStatuses[status] {
		return domain.NewValidation("Status %s cannot be set manually", status)
	}

	cp, err := s.GetPoint(ctx, id)
	if err != nil {
		return err
	}
	if cp.Status == status {
		return nil
	}
	if busy(cp.Status) {
		return domain.NewInvalidState("Charging point %s has a session in progress", id)
	}
	if !cp.Status.CanTransition(status) {
		return domain.NewInvalidState("Cannot move charging point from %s to %s", cp.Status, status)
	}

	var from []domain.ChargingPointStatus
	for _, st := range domain.PredecessorsOf(status) {
		if !busy(st) {
			from = append(from, st)
		}
	}

	n, err := s.repo.TransitionStatus(ctx, id, from, status)
	if err != nil {
		return fmt.Errorf("failed to update charging point: %w", err)
	}
	if n == 0 {
		return domain.NewConflict("Charging point %s changed status concurrently", id)
	}

	s.log.Info("Charging point status changed",
		zap.String("point_id", id),
		zap.String("from", string(cp.Status)),
		zap.String("to", string(status)),
	)
	if s.notifier != nil {
		s.notifier.NotifyPointStatus(id, status)
	}
	return nil
}

func busy(status domain.ChargingPointStatus) bool {
	return status == domain.ChargingPointStatusInUse || status == domain.ChargingPointStatusAlmostDone
}
