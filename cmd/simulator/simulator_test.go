package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestStreamURL(t *testing.T) {
	tests := []struct {
		api, point, want string
	}{
		{"http://localhost:8080/api/v1", "P1", "ws://localhost:8080/api/v1/ws/points?pointId=P1"},
		{"https://ev.example.com/api/v1/", "", "wss://ev.example.com/api/v1/ws/points"},
	}
	for _, tt := range tests {
		got, err := streamURL(tt.api, tt.point)
		if err != nil {
			t.Fatalf("streamURL(%q): %v", tt.api, err)
		}
		if got != tt.want {
			t.Errorf("streamURL(%q, %q) = %q, want %q", tt.api, tt.point, got, tt.want)
		}
	}
}

func newAPI(t *testing.T, handler http.HandlerFunc) *Simulator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSimulator(&SimulatorConfig{
		APIURL:  srv.URL + "/api/v1",
		UserID:  "U1",
		PointID: "P1",
	}, zap.NewNop())
}

func TestReserve_StoresReservationID(t *testing.T) {
	sim := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/reservations" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["userId"] != "U1" || body["pointId"] != "P1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"reservation_id":"R1","point_id":"P1","status":"active"}}`))
	})

	res, err := sim.Reserve()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.ID != "R1" || sim.reservationID != "R1" {
		t.Errorf("Expected reservation R1, got %+v", res)
	}
}

func TestCall_SurfacesEnvelopeError(t *testing.T) {
	sim := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":"Charging point is not available"}`))
	})

	_, err := sim.Reserve()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "Charging point is not available" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
}

func TestStopCharging_RequiresSession(t *testing.T) {
	sim := NewSimulator(&SimulatorConfig{APIURL: "http://localhost:1"}, zap.NewNop())
	if _, err := sim.StopCharging(10); err == nil {
		t.Fatal("Expected error without an active session")
	}
}
