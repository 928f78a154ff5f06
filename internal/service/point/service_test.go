package point

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func setup() (*mocks.Store, *mocks.MockPointNotifier, *Service) {
	store := mocks.NewStore()
	store.AddStation(domain.Station{ID: "S1", Name: "Central", PricePerKWh: 3500})
	store.AddPoint(domain.ChargingPoint{ID: "P1", StationID: "S1", Status: domain.ChargingPointStatusAvailable, PowerKW: 22})
	store.AddPoint(domain.ChargingPoint{ID: "P2", StationID: "S1", Status: domain.ChargingPointStatusInUse, PowerKW: 50})
	store.AddPoint(domain.ChargingPoint{ID: "P3", StationID: "S1", Status: domain.ChargingPointStatusMaintenance, PowerKW: 7})
	notifier := &mocks.MockPointNotifier{}
	return store, notifier, NewService(store.Points(), notifier, newTestLogger())
}

func TestGetPoint(t *testing.T) {
	_, _, svc := setup()

	cp, err := svc.GetPoint(context.Background(), "P1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cp.Station == nil || cp.Station.Name != "Central" {
		t.Errorf("expected station to be loaded, got %+v", cp.Station)
	}

	if _, err := svc.GetPoint(context.Background(), "nope"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestListAvailablePoints(t *testing.T) {
	_, _, svc := setup()

	points, err := svc.ListAvailablePoints(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(points) != 1 || points[0].ID != "P1" {
		t.Errorf("expected only P1, got %+v", points)
	}
}

func TestListPoints_UnknownStatus(t *testing.T) {
	_, _, svc := setup()

	_, err := svc.ListPoints(context.Background(), map[string]interface{}{"status": "Broken"})
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSetOperationalStatus(t *testing.T) {
	store, notifier, svc := setup()
	ctx := context.Background()

	if err := svc.SetOperationalStatus(ctx, "P1", domain.ChargingPointStatusMaintenance); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := store.Point("P1").Status; got != domain.ChargingPointStatusMaintenance {
		t.Errorf("expected Maintenance, got %s", got)
	}
	if last, ok := notifier.Last(); !ok || last.PointID != "P1" || last.Status != domain.ChargingPointStatusMaintenance {
		t.Errorf("unexpected notification %+v", last)
	}

	if err := svc.SetOperationalStatus(ctx, "P3", domain.ChargingPointStatusAvailable); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := store.Point("P3").Status; got != domain.ChargingPointStatusAvailable {
		t.Errorf("expected Available, got %s", got)
	}
}

func TestSetOperationalStatus_Rejected(t *testing.T) {
	store, _, svc := setup()
	ctx := context.Background()

	err := svc.SetOperationalStatus(ctx, "P2", domain.ChargingPointStatusMaintenance)
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Errorf("expected InvalidState for a busy point, got %v", err)
	}
	if got := store.Point("P2").Status; got != domain.ChargingPointStatusInUse {
		t.Errorf("expected InUse untouched, got %s", got)
	}

	err = svc.SetOperationalStatus(ctx, "P1", domain.ChargingPointStatusInUse)
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error for a lifecycle status, got %v", err)
	}
}
