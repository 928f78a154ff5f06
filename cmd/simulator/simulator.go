package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wsAdapter "github.com/seu-repo/evcharge/internal/adapter/websocket"
	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	APIURL      string // e.g. http://localhost:8080/api/v1
	UserID      string
	PointID     string
	VehicleID   string
	HoldMinutes int
	MeterStart  float64
	PowerKW     float64 // used to advance the meter while charging
	TargetSOC   float64
	ChargeFor   time.Duration
	IdleMinutes int
	Timeout     time.Duration
}

// Simulator plays an EV driver against the charging API.
type Simulator struct {
	config *SimulatorConfig
	conn   *websocket.Conn
	log    *zap.Logger

	mu            sync.RWMutex
	reservationID string
	sessionID     string
	startedAt     time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NewSimulator creates a new driver simulator
func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Simulator{
		config:   config,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Watch subscribes to realtime status updates for the configured point.
func (s *Simulator) Watch() error {
	wsURL, err := streamURL(s.config.APIURL, s.config.PointID)
	if err != nil {
		return err
	}

	s.log.Info("Connecting to point stream", zap.String("url", wsURL))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	s.conn = conn

	s.wg.Add(1)
	go s.readMessages()
	return nil
}

func streamURL(apiURL, pointID string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/points"
	if pointID != "" {
		u.RawQuery = url.Values{"pointId": {pointID}}.Encode()
	}
	return u.String(), nil
}

// Stop closes the stream and waits for the reader to exit.
func (s *Simulator) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.wg.Wait()
}

func (s *Simulator) readMessages() {
	defer s.wg.Done()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Warn("Point stream closed", zap.Error(err))
			}
			return
		}

		var msg wsAdapter.PointStatusMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("Ignoring stream frame", zap.ByteString("data", data))
			continue
		}
		fmt.Printf("[stream] %s -> %s at %s\n", msg.PointID, msg.Status, msg.ChangedAt.Format(time.RFC3339))
	}
}

func (s *Simulator) call(method, path string, query url.Values, body, out interface{}) error {
	target := strings.TrimSuffix(s.config.APIURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodPost:
		agent = fiber.Post(target)
	case fiber.MethodPut:
		agent = fiber.Put(target)
	case fiber.MethodDelete:
		agent = fiber.Delete(target)
	default:
		agent = fiber.Get(target)
	}
	agent.Timeout(s.config.Timeout)
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unexpected response (%d): %s", status, raw)
	}
	if !env.Success {
		return &APIError{Status: status, Message: env.Error}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Points lists the points currently accepting drivers.
func (s *Simulator) Points() ([]domain.ChargingPoint, error) {
	var points []domain.ChargingPoint
	err := s.call(fiber.MethodGet, "/points/available", nil, nil, &points)
	return points, err
}

// Reserve holds the configured point for the driver.
func (s *Simulator) Reserve() (*domain.Reservation, error) {
	var res domain.Reservation
	err := s.call(fiber.MethodPost, "/reservations", nil, map[string]interface{}{
		"userId":          s.config.UserID,
		"pointId":         s.config.PointID,
		"durationMinutes": s.config.HoldMinutes,
	}, &res)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reservationID = res.ID
	s.mu.Unlock()
	s.log.Info("Reservation created", zap.String("reservation_id", res.ID), zap.Time("expires", res.ExpireTime))
	return &res, nil
}

// CancelReservation releases the current hold.
func (s *Simulator) CancelReservation() error {
	s.mu.RLock()
	id := s.reservationID
	s.mu.RUnlock()
	if id == "" {
		return errors.New("no reservation")
	}

	if err := s.call(fiber.MethodDelete, "/reservations/"+id, url.Values{"userId": {s.config.UserID}}, nil, nil); err != nil {
		return err
	}
	s.mu.Lock()
	s.reservationID = ""
	s.mu.Unlock()
	return nil
}

// StartCharging starts a session, from the held reservation when there is one.
func (s *Simulator) StartCharging() (*domain.ChargingSession, error) {
	s.mu.RLock()
	reservationID := s.reservationID
	s.mu.RUnlock()

	req := ports.StartSessionRequest{
		UserID:               s.config.UserID,
		PointID:              s.config.PointID,
		MeterStart:           s.config.MeterStart,
		TargetBatteryPercent: s.config.TargetSOC,
	}
	if s.config.VehicleID != "" {
		req.VehicleID = &s.config.VehicleID
	}

	path := "/charging-sessions/direct"
	if reservationID != "" {
		req.ReservationID = &reservationID
		path = "/charging-sessions/from-reservation"
	}

	var session domain.ChargingSession
	if err := s.call(fiber.MethodPost, path, nil, req, &session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessionID = session.ID
	s.reservationID = ""
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.log.Info("Charging started", zap.String("session_id", session.ID), zap.String("point_id", session.PointID))
	return &session, nil
}

// meterNow advances the meter by PowerKW over the time spent charging.
func (s *Simulator) meterNow() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.MeterStart + s.config.PowerKW*time.Since(s.startedAt).Hours()
}

// StopCharging ends the current session. A negative meterEnd lets the server
// estimate energy from elapsed time.
func (s *Simulator) StopCharging(meterEnd float64) (*ports.StopSessionResult, error) {
	s.mu.RLock()
	id := s.sessionID
	s.mu.RUnlock()
	if id == "" {
		return nil, errors.New("no active session")
	}

	body := map[string]interface{}{
		"userId":      s.config.UserID,
		"idleMinutes": s.config.IdleMinutes,
	}
	if meterEnd >= 0 {
		body["meterEnd"] = meterEnd
	}

	var result ports.StopSessionResult
	if err := s.call(fiber.MethodPost, "/charging-sessions/"+id+"/stop", nil, body, &result); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
	return &result, nil
}

// Summary fetches the receipt of a finished session.
func (s *Simulator) Summary(sessionID string) (*domain.CostSummary, error) {
	var summary domain.CostSummary
	err := s.call(fiber.MethodGet, "/charging-sessions/"+sessionID+"/summary", nil, nil, &summary)
	return &summary, err
}

// RunScenario reserves, charges for ChargeFor and stops with a metered reading.
func (s *Simulator) RunScenario() error {
	if _, err := s.Reserve(); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	if _, err := s.StartCharging(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-time.After(s.config.ChargeFor):
	case <-s.stopChan:
	}

	result, err := s.StopCharging(s.meterNow())
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	printReceipt(result.Summary)
	return nil
}

func printReceipt(summary *domain.CostSummary) {
	if summary == nil {
		return
	}
	fmt.Println("Receipt")
	fmt.Printf("  Session:  %s\n", summary.SessionID)
	fmt.Printf("  Energy:   %.3f kWh @ %.0f\n", summary.EnergyKWh, summary.PricePerKWh)
	fmt.Printf("  Duration: %.1f min\n", summary.DurationMinutes)
	fmt.Printf("  Idle fee: %.0f (%d min)\n", summary.IdleFee, summary.IdleMinutes)
	fmt.Printf("  Total:    %.0f %s\n", summary.TotalCost, summary.Currency)
}

// RunInteractive runs the interactive command loop
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch parts[0] {
		case "points":
			var points []domain.ChargingPoint
			if points, err = s.Points(); err == nil {
				for _, p := range points {
					fmt.Printf("  %s  %-12s %.0f kW\n", p.ID, p.Status, p.PowerKW)
				}
			}

		case "reserve":
			_, err = s.Reserve()

		case "cancel":
			err = s.CancelReservation()

		case "start":
			_, err = s.StartCharging()

		case "stop":
			meterEnd := s.meterNow()
			if len(parts) > 1 {
				if parts[1] == "estimate" {
					meterEnd = -1
				} else if meterEnd, err = strconv.ParseFloat(parts[1], 64); err != nil {
					break
				}
			}
			var result *ports.StopSessionResult
			if result, err = s.StopCharging(meterEnd); err == nil {
				printReceipt(result.Summary)
			}

		case "summary":
			if len(parts) < 2 {
				fmt.Println("Usage: summary <sessionId>")
				continue
			}
			var summary *domain.CostSummary
			if summary, err = s.Summary(parts[1]); err == nil {
				printReceipt(summary)
			}

		case "quit", "exit":
			return

		default:
			fmt.Println("Unknown command:", parts[0])
		}

		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}
