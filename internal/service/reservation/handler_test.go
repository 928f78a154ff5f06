package reservation

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/mocks"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newApp(svc *mocks.MockReservationService) *fiber.App {
	app := fiber.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	return resp.StatusCode, env
}

func TestHandler_CreateReservation(t *testing.T) {
	svc := &mocks.MockReservationService{
		CreateReservationFunc: func(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error) {
			if userID != "u1" || pointID != "P1" || durationMinutes != 20 {
				t.Errorf("Unexpected args %s %s %d", userID, pointID, durationMinutes)
			}
			return &domain.Reservation{ID: "r1", UserID: userID, PointID: pointID, Status: domain.ReservationStatusConfirmed}, nil
		},
	}

	status, env := do(t, newApp(svc), "POST", "/reservations", `{"userId":"u1","pointId":"P1","durationMinutes":20}`)
	if status != fiber.StatusCreated {
		t.Errorf("Expected 201, got %d", status)
	}
	if !env.Success {
		t.Error("Expected success true")
	}
}

func TestHandler_CreateReservation_NumericIDs(t *testing.T) {
	svc := &mocks.MockReservationService{
		CreateReservationFunc: func(ctx context.Context, userID, pointID string, durationMinutes int) (*domain.Reservation, error) {
			if userID != "42" || pointID != "7" {
				t.Errorf("Unexpected ids %q %q", userID, pointID)
			}
			return &domain.Reservation{ID: "r1", UserID: userID, PointID: pointID, Status: domain.ReservationStatusConfirmed}, nil
		},
	}

	status, env := do(t, newApp(svc), "POST", "/reservations", `{"userId":42,"pointId":7}`)
	if status != fiber.StatusCreated {
		t.Errorf("Expected 201, got %d (%s)", status, env.Error)
	}
}

func TestHandler_CreateReservation_Validation(t *testing.T) {
	status, env := do(t, newApp(&mocks.MockReservationService{}), "POST", "/reservations", `{"pointId":"P1"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
	if env.Success || env.Error == "" {
		t.Errorf("Unexpected body %+v", env)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", domain.NewNotFound("Reservation not found"), fiber.StatusNotFound, "Reservation not found"},
		{"conflict", domain.NewConflict("taken"), fiber.StatusConflict, "taken"},
		{"invalid state", domain.NewInvalidState("Cannot cancel reservation with status Expired"), fiber.StatusBadRequest, "Cannot cancel reservation with status Expired"},
		{"internal", context.DeadlineExceeded, fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockReservationService{
				CancelReservationFunc: func(ctx context.Context, reservationID, userID string) (*domain.Reservation, error) {
					return nil, tt.err
				},
			}
			status, env := do(t, newApp(svc), "DELETE", "/reservations/r1?userId=u1", "")
			if status != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, status)
			}
			if env.Success || env.Error != tt.msg {
				t.Errorf("Unexpected body %+v", env)
			}
		})
	}
}

func TestHandler_ActiveReservation(t *testing.T) {
	svc := &mocks.MockReservationService{}
	status, _ := do(t, newApp(svc), "GET", "/reservations/active?userId=u1", "")
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 without an open reservation, got %d", status)
	}

	status, _ = do(t, newApp(svc), "GET", "/reservations/active", "")
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 without userId, got %d", status)
	}
}

func TestHandler_ValidateReservation(t *testing.T) {
	svc := &mocks.MockReservationService{
		ValidateReservationFunc: func(ctx context.Context, reservationID, userID string) (*domain.ReservationValidation, error) {
			return &domain.ReservationValidation{Reason: "Reservation has expired"}, nil
		},
	}
	status, env := do(t, newApp(svc), "GET", "/reservations/r1/validate?userId=u1", "")
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	var v domain.ReservationValidation
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("Invalid data: %v", err)
	}
	if v.Valid || v.Reason != "Reservation has expired" {
		t.Errorf("Unexpected validation %+v", v)
	}
}
