package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/mocks"
)

func TestPointHandler_List(t *testing.T) {
	svc := &mocks.MockPointService{
		ListPointsFunc: func(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error) {
			if filter["status"] != "Available" || filter["station_id"] != "S1" {
				t.Errorf("Unexpected filter %v", filter)
			}
			return []domain.ChargingPoint{{ID: "P1", StationID: "S1", Status: domain.ChargingPointStatusAvailable}}, nil
		},
	}
	app := fiber.New()
	NewPointHandler(svc, nil, zap.NewNop()).RegisterRoutes(app)

	status, env := call(t, app, "GET", "/points?status=Available&stationId=S1", "")
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	var points []domain.ChargingPoint
	if err := json.Unmarshal(env.Data, &points); err != nil {
		t.Fatalf("Invalid data: %v", err)
	}
	if len(points) != 1 || points[0].ID != "P1" {
		t.Errorf("Unexpected points %+v", points)
	}
}

func TestPointHandler_UpdateStatus(t *testing.T) {
	var got domain.ChargingPointStatus
	svc := &mocks.MockPointService{
		SetOperationalStatusFunc: func(ctx context.Context, id string, status domain.ChargingPointStatus) error {
			got = status
			if status == domain.ChargingPointStatusOffline {
				return domain.NewInvalidState("Charging point %s has a session in progress", id)
			}
			return nil
		},
	}
	app := fiber.New()
	NewPointHandler(svc, nil, zap.NewNop()).RegisterRoutes(app)

	status, _ := call(t, app, "PUT", "/points/P1/status", `{"status":"Maintenance"}`)
	if status != fiber.StatusOK || got != domain.ChargingPointStatusMaintenance {
		t.Errorf("Expected 200 and Maintenance, got %d and %s", status, got)
	}

	status, _ = call(t, app, "PUT", "/points/P1/status", `{"status":"Offline"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
}

func TestPointHandler_WebsocketRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	NewPointHandler(&mocks.MockPointService{}, stubStream{}, zap.NewNop()).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/points", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Expected 426, got %d", resp.StatusCode)
	}
}

type stubStream struct{}

func (stubStream) Serve(conn *websocket.Conn, pointID string) {}
