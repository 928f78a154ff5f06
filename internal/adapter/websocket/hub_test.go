package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
)

func attach(h *Hub, pointID string) *Client {
	c := &Client{hub: h, send: make(chan []byte, 4), pointID: pointID}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) PointStatusMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg PointStatusMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Invalid message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for message")
	}
	return PointStatusMessage{}
}

func TestHub_BroadcastsPointStatus(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	all := attach(h, "")
	h.NotifyPointStatus("P1", domain.ChargingPointStatusInUse)

	msg := receive(t, all)
	if msg.PointID != "P1" || msg.Status != domain.ChargingPointStatusInUse {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.Type != "point_status" {
		t.Errorf("Unexpected type %s", msg.Type)
	}
}

func TestHub_FiltersByPoint(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	onlyP2 := attach(h, "P2")
	h.NotifyPointStatus("P1", domain.ChargingPointStatusInUse)
	h.NotifyPointStatus("P2", domain.ChargingPointStatusAvailable)

	msg := receive(t, onlyP2)
	if msg.PointID != "P2" {
		t.Errorf("Expected only P2 updates, got %s", msg.PointID)
	}
}

func TestHub_NotifyNeverBlocks(t *testing.T) {
	h := NewHub(zap.NewNop())
	// Run is not started, so the buffer fills up
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.NotifyPointStatus("P1", domain.ChargingPointStatusAvailable)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyPointStatus blocked on a full buffer")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := attach(h, "")
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("Expected 1 client, got %d", h.ClientCount())
	}

	cancel()
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("Expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for close")
	}
}
