package domain

import (
	"errors"
	"fmt"
	"sort"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ChargingPointStatus
		want     bool
	}{
		{ChargingPointStatusAvailable, ChargingPointStatusInUse, true},
		{ChargingPointStatusReserved, ChargingPointStatusInUse, true},
		{ChargingPointStatusInUse, ChargingPointStatusAlmostDone, true},
		{ChargingPointStatusAlmostDone, ChargingPointStatusAvailable, true},
		{ChargingPointStatusMaintenance, ChargingPointStatusOffline, true},
		{ChargingPointStatusAlmostDone, ChargingPointStatusInUse, false},
		{ChargingPointStatusInUse, ChargingPointStatusReserved, false},
		{ChargingPointStatusOffline, ChargingPointStatusInUse, false},
		{ChargingPointStatusAvailable, ChargingPointStatusAvailable, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStartable(t *testing.T) {
	for _, s := range []ChargingPointStatus{ChargingPointStatusAvailable, ChargingPointStatusReserved} {
		if !s.Startable() {
			t.Errorf("Expected %s to be startable", s)
		}
	}
	for _, s := range []ChargingPointStatus{ChargingPointStatusInUse, ChargingPointStatusAlmostDone, ChargingPointStatusOffline} {
		if s.Startable() {
			t.Errorf("Expected %s not to be startable", s)
		}
	}
	if ChargingPointStatus("Broken").Valid() {
		t.Error("Unknown status reported as valid")
	}
}

func TestPredecessorsOf(t *testing.T) {
	got := PredecessorsOf(ChargingPointStatusAvailable)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	want := []ChargingPointStatus{
		ChargingPointStatusAlmostDone,
		ChargingPointStatusInUse,
		ChargingPointStatusMaintenance,
		ChargingPointStatusOffline,
		ChargingPointStatusReserved,
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("PredecessorsOf(Available) = %v, want %v", got, want)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("stop session: %w", NewInvalidState("Session is Completed"))
	if KindOf(wrapped) != KindInvalidState {
		t.Errorf("Expected invalid_state, got %s", KindOf(wrapped))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("Plain errors must classify as internal")
	}
	if KindOf(ErrDuplicateActive) != KindInternal {
		t.Error("Store sentinels are not business errors")
	}
}
