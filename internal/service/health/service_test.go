package health

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/mocks"
)

type fakeDB struct{ err error }

func (f fakeDB) PingContext(ctx context.Context) error { return f.err }

func TestReady_AllHealthy(t *testing.T) {
	svc := NewService(&Config{
		DB:    fakeDB{},
		Cache: mocks.NewMockCache(),
		Queue: mocks.NewMockMessageQueue(),
	}, zap.NewNop())

	resp := svc.Ready(context.Background())
	if !resp.Ready || resp.Status != StatusHealthy {
		t.Errorf("Expected ready and healthy, got %+v", resp)
	}
	if len(resp.Checks) != 3 {
		t.Errorf("Expected 3 checks, got %d", len(resp.Checks))
	}
}

func TestReady_CacheDownDegrades(t *testing.T) {
	cache := mocks.NewMockCache()
	cache.PingFunc = func() error { return errors.New("connection refused") }

	svc := NewService(&Config{DB: fakeDB{}, Cache: cache}, zap.NewNop())

	resp := svc.Ready(context.Background())
	if !resp.Ready {
		t.Error("Expected service to stay ready without its cache")
	}
	if resp.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", resp.Status)
	}
}

func TestReady_DatabaseDown(t *testing.T) {
	svc := NewService(&Config{DB: fakeDB{err: errors.New("timeout")}}, zap.NewNop())

	resp := svc.Ready(context.Background())
	if resp.Ready || resp.Status != StatusUnhealthy {
		t.Errorf("Expected not ready and unhealthy, got %+v", resp)
	}
	if resp.Checks["database"].Message == "" {
		t.Error("Expected a failure message")
	}
}

func TestFiberHandler(t *testing.T) {
	svc := NewService(&Config{Version: "test", DB: fakeDB{err: errors.New("down")}}, zap.NewNop())
	app := fiber.New()
	NewFiberHandler(svc).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 for liveness, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/ready", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Expected 503 when the database is down, got %d", resp.StatusCode)
	}
}
