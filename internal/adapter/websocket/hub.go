package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/domain"
)

// PointStatusMessage is pushed to every subscriber when a point changes status.
type PointStatusMessage struct {
	Type      string                     `json:"type"`
	PointID   string                     `json:"point_id"`
	Status    domain.ChargingPointStatus `json:"status"`
	ChangedAt time.Time                  `json:"changed_at"`
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
	// Optional point filter; empty means all points
	pointID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.dispatch(message)
		}
	}
}

func (h *Hub) dispatch(message []byte) {
	var pointID string
	var probe PointStatusMessage
	if err := json.Unmarshal(message, &probe); err == nil {
		pointID = probe.PointID
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.pointID != "" && client.pointID != pointID {
			continue
		}
		select {
		case client.send <- message:
		default:
			// slow consumer
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// NotifyPointStatus queues a status message. It never blocks; when the
// broadcast buffer is full the message is dropped.
func (h *Hub) NotifyPointStatus(pointID string, status domain.ChargingPointStatus) {
	data, err := json.Marshal(PointStatusMessage{
		Type:      "point_status",
		PointID:   pointID,
		Status:    status,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("Point status broadcast dropped", zap.String("point_id", pointID))
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn and blocks until the client disconnects.
func (h *Hub) Serve(conn *websocket.Conn, pointID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64), pointID: pointID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		// Subscribers only listen; reading keeps control frames flowing.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
