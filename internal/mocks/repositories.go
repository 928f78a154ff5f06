package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

// Store is an in-memory stand-in for the relational store. Its repository
// views apply the same conditional updates and one-open-row rules as the
// postgres adapter so service tests exercise the real exclusivity paths.
type Store struct {
	mu           sync.Mutex
	points       map[string]domain.ChargingPoint
	stations     map[string]domain.Station
	vehicles     map[string]domain.Vehicle
	reservations map[string]domain.Reservation
	sessions     map[string]domain.ChargingSession

	// FailOn makes the named operation (e.g. "sessions.Start") return the error.
	FailOn map[string]error
}

func NewStore() *Store {
	return &Store{
		points:       make(map[string]domain.ChargingPoint),
		stations:     make(map[string]domain.Station),
		vehicles:     make(map[string]domain.Vehicle),
		reservations: make(map[string]domain.Reservation),
		sessions:     make(map[string]domain.ChargingSession),
		FailOn:       make(map[string]error),
	}
}

func (s *Store) fail(op string) error {
	return s.FailOn[op]
}

// Seeders

func (s *Store) AddStation(st domain.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.ID] = st
}

func (s *Store) AddPoint(p domain.ChargingPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Station = nil
	s.points[p.ID] = p
}

func (s *Store) AddVehicle(v domain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
}

func (s *Store) AddReservation(r domain.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Point = nil
	s.reservations[r.ID] = r
}

func (s *Store) AddSession(cs domain.ChargingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[cs.ID] = cs
}

// Snapshots for assertions

func (s *Store) Point(id string) domain.ChargingPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[id]
}

func (s *Store) Reservation(id string) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *Store) Session(id string) domain.ChargingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// CountActiveSessions counts Active sessions matching the predicate.
func (s *Store) CountActiveSessions(match func(domain.ChargingSession) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cs := range s.sessions {
		if cs.Status == domain.SessionStatusActive && match(cs) {
			n++
		}
	}
	return n
}

// Repository views

func (s *Store) Points() ports.ChargingPointRepository { return &storePoints{s} }
func (s *Store) Stations() ports.StationRepository { return &storeStations{s} }
func (s *Store) Vehicles() ports.VehicleRepository { return &storeVehicles{s} }
func (s *Store) Reservations() ports.ReservationRepository { return &storeReservations{s} }
func (s *Store) Sessions() ports.SessionRepository { return &storeSessions{s} }

type storePoints struct{ s *Store }

func (r *storePoints) FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("points.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.points[id]
	if !ok {
		return nil, nil
	}
	if st, ok := r.s.stations[p.StationID]; ok {
		p.Station = &st
	}
	return &p, nil
}

func (r *storePoints) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ChargingPoint
	for _, p := range r.s.points {
		if status, ok := filter["status"]; ok && fmt.Sprint(status) != string(p.Status) {
			continue
		}
		if stationID, ok := filter["station_id"]; ok && fmt.Sprint(stationID) != p.StationID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *storePoints) TransitionStatus(ctx context.Context, id string, from []domain.ChargingPointStatus, to domain.ChargingPointStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("points.TransitionStatus"); err != nil {
		return 0, err
	}
	p, ok := r.s.points[id]
	if !ok || !statusIn(p.Status, from) {
		return 0, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	r.s.points[id] = p
	return 1, nil
}

func (r *storePoints) MarkAlmostDone(ctx context.Context, pointIDs []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("points.MarkAlmostDone"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range pointIDs {
		p, ok := r.s.points[id]
		if !ok || p.Status == domain.ChargingPointStatusAlmostDone {
			continue
		}
		p.Status = domain.ChargingPointStatusAlmostDone
		r.s.points[id] = p
		n++
	}
	return n, nil
}

type storeStations struct{ s *Store }

func (r *storeStations) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stations[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

type storeVehicles struct{ s *Store }

func (r *storeVehicles) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type storeReservations struct{ s *Store }

func (r *storeReservations) Create(ctx context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.Create"); err != nil {
		return err
	}
	if res.IsOpen() {
		for _, other := range r.s.reservations {
			if other.IsOpen() && (other.UserID == res.UserID || other.PointID == res.PointID) {
				return domain.ErrDuplicateActive
			}
		}
	}
	stored := *res
	stored.Point = nil
	r.s.reservations[res.ID] = stored
	return nil
}

func (r *storeReservations) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.FindByID"); err != nil {
		return nil, err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *storeReservations) FindOpenByUserID(ctx context.Context, userID string) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.FindOpenByUserID"); err != nil {
		return nil, err
	}
	var newest *domain.Reservation
	for _, res := range r.s.reservations {
		if res.UserID != userID || !res.IsOpen() {
			continue
		}
		if newest == nil || res.CreatedAt.After(newest.CreatedAt) {
			res := res
			newest = &res
		}
	}
	if newest != nil {
		if p, ok := r.s.points[newest.PointID]; ok {
			if st, ok := r.s.stations[p.StationID]; ok {
				p.Station = &st
			}
			newest.Point = &p
		}
	}
	return newest, nil
}

func (r *storeReservations) FindByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.s.reservations {
		if res.UserID == userID && (status == "" || string(res.Status) == status) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *storeReservations) TransitionStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.TransitionStatus"); err != nil {
		return 0, err
	}
	res, ok := r.s.reservations[id]
	if !ok || res.Status != from {
		return 0, nil
	}
	res.Status = to
	res.UpdatedAt = time.Now().UTC()
	r.s.reservations[id] = res
	return 1, nil
}

func (r *storeReservations) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.ExpireBefore"); err != nil {
		return 0, err
	}
	var n int64
	for id, res := range r.s.reservations {
		if res.Status == domain.ReservationStatusConfirmed && res.ExpireTime.Before(now) {
			res.Status = domain.ReservationStatusExpired
			res.UpdatedAt = now
			r.s.reservations[id] = res
			n++
		}
	}
	return n, nil
}

type storeSessions struct{ s *Store }

func (r *storeSessions) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.FindByID"); err != nil {
		return nil, err
	}
	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &cs, nil
}

func (r *storeSessions) FindActiveByUserID(ctx context.Context, userID string) (*domain.ChargingSession, error) {
	return r.findActive(func(cs domain.ChargingSession) bool { return cs.UserID == userID })
}

func (r *storeSessions) FindActiveByPointID(ctx context.Context, pointID string) (*domain.ChargingSession, error) {
	return r.findActive(func(cs domain.ChargingSession) bool { return cs.PointID == pointID })
}

func (r *storeSessions) findActive(match func(domain.ChargingSession) bool) (*domain.ChargingSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.findActive"); err != nil {
		return nil, err
	}
	for _, cs := range r.s.sessions {
		if cs.Status == domain.SessionStatusActive && match(cs) {
			return &cs, nil
		}
	}
	return nil, nil
}

func (r *storeSessions) FindActiveCompletingBetween(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.FindActiveCompletingBetween"); err != nil {
		return nil, err
	}
	var out []domain.ChargingSession
	for _, cs := range r.s.sessions {
		if cs.Status != domain.SessionStatusActive || cs.EstimatedCompletionTime == nil {
			continue
		}
		eta := *cs.EstimatedCompletionTime
		if !eta.Before(from) && !eta.After(to) {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (r *storeSessions) Start(ctx context.Context, session *domain.ChargingSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Start"); err != nil {
		return err
	}

	p, ok := r.s.points[session.PointID]
	if !ok || !p.Status.Startable() {
		return domain.ErrPointNotClaimable
	}
	for _, cs := range r.s.sessions {
		if cs.Status == domain.SessionStatusActive && (cs.UserID == session.UserID || cs.PointID == session.PointID) {
			return domain.ErrDuplicateActive
		}
	}

	p.Status = domain.ChargingPointStatusInUse
	p.UpdatedAt = session.StartTime
	r.s.points[p.ID] = p
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *storeSessions) Complete(ctx context.Context, session *domain.ChargingSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Complete"); err != nil {
		return err
	}

	stored, ok := r.s.sessions[session.ID]
	if !ok || stored.Status != domain.SessionStatusActive {
		return domain.ErrStaleState
	}
	stored.Status = domain.SessionStatusCompleted
	stored.EndTime = session.EndTime
	stored.MeterEnd = session.MeterEnd
	stored.EnergyConsumedKWh = session.EnergyConsumedKWh
	stored.IdleMinutes = session.IdleMinutes
	stored.IdleFee = session.IdleFee
	stored.Cost = session.Cost
	stored.UpdatedAt = session.UpdatedAt
	r.s.sessions[session.ID] = stored

	if p, ok := r.s.points[session.PointID]; ok &&
		(p.Status == domain.ChargingPointStatusInUse || p.Status == domain.ChargingPointStatusAlmostDone) {
		p.Status = domain.ChargingPointStatusAvailable
		r.s.points[p.ID] = p
	}
	return nil
}

func statusIn(status domain.ChargingPointStatus, set []domain.ChargingPointStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
