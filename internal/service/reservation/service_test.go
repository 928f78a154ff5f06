package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/mocks"
	"github.com/seu-repo/evcharge/internal/ports"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store  *mocks.Store
	events *mocks.MockEventPublisher
	svc    *Service
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: mocks.NewStore(), events: &mocks.MockEventPublisher{}, clock: t0}
	f.store.AddStation(domain.Station{ID: "S1", PricePerKWh: 0.35})
	f.store.AddPoint(domain.ChargingPoint{ID: "P1", StationID: "S1", Status: domain.ChargingPointStatusAvailable, PowerKW: 7})
	f.store.AddPoint(domain.ChargingPoint{ID: "P2", StationID: "S1", Status: domain.ChargingPointStatusAvailable, PowerKW: 22})

	f.svc = NewService(
		f.store.Reservations(),
		f.store.Points(),
		f.store.Sessions(),
		f.events,
		nil,
		zap.NewNop(),
	)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func expectKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("Expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != domain.ReservationStatusConfirmed {
		t.Errorf("Expected Confirmed, got %s", res.Status)
	}
	if !res.ExpireTime.Equal(t0.Add(15 * time.Minute)) {
		t.Errorf("Expected default 15 minute hold, got expire %v", res.ExpireTime)
	}
	if res.StationID != "S1" {
		t.Errorf("Expected station S1, got %s", res.StationID)
	}
	// the point stays Available while held
	if got := f.store.Point("P1").Status; got != domain.ChargingPointStatusAvailable {
		t.Errorf("Expected point Available, got %s", got)
	}
	if types := f.events.Types(); len(types) != 1 || types[0] != ports.EventReservationCreated {
		t.Errorf("Unexpected events %v", types)
	}
}

func TestCreateReservation_CheckOrder(t *testing.T) {
	t.Run("missing point", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateReservation(context.Background(), "u1", "nope", 15)
		expectKind(t, err, domain.KindNotFound)
	})

	t.Run("point not available", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddPoint(domain.ChargingPoint{ID: "P3", StationID: "S1", Status: domain.ChargingPointStatusMaintenance})
		_, err := f.svc.CreateReservation(context.Background(), "u1", "P3", 15)
		expectKind(t, err, domain.KindConflict)
		if err.Error() != "Charging point is not available (status: Maintenance)" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("user already holds a reservation", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		_, err := f.svc.CreateReservation(context.Background(), "u1", "P2", 15)
		expectKind(t, err, domain.KindConflict)
		if err.Error() != "User already has an active reservation" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("user is charging", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddSession(domain.ChargingSession{ID: "s1", UserID: "u1", PointID: "P2", Status: domain.SessionStatusActive})
		_, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)
		expectKind(t, err, domain.KindConflict)
		if err.Error() != "User already has an active charging session" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("point already held by another user", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		_, err := f.svc.CreateReservation(context.Background(), "u2", "P1", 15)
		expectKind(t, err, domain.KindConflict)
	})

	t.Run("hold above maximum", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 500)
		expectKind(t, err, domain.KindValidation)
	})
}

func TestCreateReservation_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn["reservations.Create"] = errors.New("connection reset")

	_, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)
	expectKind(t, err, domain.KindInternal)
}

func TestExpireOldReservations_Idempotent(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f.clock = t0.Add(16 * time.Minute)
	n, err := f.svc.ExpireOldReservations(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 expired, got %d", n)
	}
	if got := f.store.Reservation(res.ID).Status; got != domain.ReservationStatusExpired {
		t.Errorf("Expected Expired, got %s", got)
	}

	f.clock = t0.Add(17 * time.Minute)
	n, err = f.svc.ExpireOldReservations(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 expired on second pass, got %d", n)
	}
}

func TestExpireOldReservations_KeepsLiveHolds(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 30); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f.clock = t0.Add(20 * time.Minute)
	n, err := f.svc.ExpireOldReservations(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 expired, got %d", n)
	}
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t)
	res, _ := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)

	if _, err := f.svc.CancelReservation(context.Background(), res.ID, "u2"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("Expected NotFound for another user, got %v", err)
	}

	cancelled, err := f.svc.CancelReservation(context.Background(), res.ID, "u1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cancelled.Status != domain.ReservationStatusCancelled {
		t.Errorf("Expected Cancelled, got %s", cancelled.Status)
	}

	_, err = f.svc.CancelReservation(context.Background(), res.ID, "u1")
	expectKind(t, err, domain.KindInvalidState)
	if err.Error() != "Cannot cancel reservation with status Cancelled" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	// cancelling frees the user for a new hold
	if _, err := f.svc.CreateReservation(context.Background(), "u1", "P2", 15); err != nil {
		t.Errorf("Expected new reservation after cancel, got %v", err)
	}
}

func TestValidateReservation(t *testing.T) {
	f := newFixture(t)
	res, _ := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)

	v, err := f.svc.ValidateReservation(context.Background(), res.ID, "u1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !v.Valid {
		t.Errorf("Expected valid reservation, got reason %q", v.Reason)
	}

	v, _ = f.svc.ValidateReservation(context.Background(), res.ID, "u2")
	if v.Valid {
		t.Error("Expected reservation of another user to be invalid")
	}

	v, _ = f.svc.ValidateReservation(context.Background(), "missing", "u1")
	if v.Valid || v.Reason != "Reservation not found" {
		t.Errorf("Unexpected validation %+v", v)
	}
}

func TestValidateReservation_ExpiresOnTheSpot(t *testing.T) {
	f := newFixture(t)
	res, _ := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)

	f.clock = t0.Add(15*time.Minute + time.Second)
	v, err := f.svc.ValidateReservation(context.Background(), res.ID, "u1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v.Valid || v.Reason != "Reservation has expired" {
		t.Errorf("Unexpected validation %+v", v)
	}
	if got := f.store.Reservation(res.ID).Status; got != domain.ReservationStatusExpired {
		t.Errorf("Expected Expired, got %s", got)
	}
}

func TestActivateAndCompleteReservation(t *testing.T) {
	f := newFixture(t)
	res, _ := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)

	if err := f.svc.CompleteReservation(context.Background(), res.ID); domain.KindOf(err) != domain.KindInvalidState {
		t.Errorf("Expected InvalidState completing a Confirmed reservation, got %v", err)
	}
	if err := f.svc.ActivateReservation(context.Background(), res.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := f.svc.CancelReservation(context.Background(), res.ID, "u1"); domain.KindOf(err) != domain.KindInvalidState {
		t.Errorf("Expected InvalidState cancelling an Active reservation, got %v", err)
	}
	if err := f.svc.CompleteReservation(context.Background(), res.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := f.store.Reservation(res.ID).Status; got != domain.ReservationStatusCompleted {
		t.Errorf("Expected Completed, got %s", got)
	}
}

func TestGetActiveReservation(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GetActiveReservation(context.Background(), "u1")
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil, got %v, %v", got, err)
	}

	res, _ := f.svc.CreateReservation(context.Background(), "u1", "P1", 15)
	got, err = f.svc.GetActiveReservation(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.ID != res.ID {
		t.Errorf("Expected %s, got %s", res.ID, got.ID)
	}
	if got.Point == nil || got.Point.Station == nil {
		t.Error("Expected point and station to be loaded")
	}
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.events.PublishFunc = func(ctx context.Context, eventType string, payload interface{}) error {
		return errors.New("broker down")
	}

	if _, err := f.svc.CreateReservation(context.Background(), "u1", "P1", 15); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
