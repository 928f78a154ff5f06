package domain

import (
	"time"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "Confirmed"
	ReservationStatusActive    ReservationStatus = "Active" // a session was started from it
	ReservationStatusCompleted ReservationStatus = "Completed"
	ReservationStatusCancelled ReservationStatus = "Cancelled"
	ReservationStatusExpired   ReservationStatus = "Expired" // hold ran out before charging started
)

// OpenReservationStatuses are the statuses that still hold a point.
var OpenReservationStatuses = []ReservationStatus{
	ReservationStatusConfirmed,
	ReservationStatusActive,
}

// Reservation is a time-boxed hold on a charging point
type Reservation struct {
	ID         string            `json:"reservation_id" gorm:"column:reservation_id;primaryKey"`
	UserID     string            `json:"user_id" gorm:"column:user_id;index"`
	PointID    string            `json:"point_id" gorm:"column:point_id;index"`
	StationID  string            `json:"station_id" gorm:"column:station_id"`
	StartTime  time.Time         `json:"start_time" gorm:"column:start_time"`
	ExpireTime time.Time         `json:"expire_time" gorm:"column:expire_time;index"`
	Status     ReservationStatus `json:"status" gorm:"column:status;index"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// Relations (for JSON responses)
	Point *ChargingPoint `json:"point,omitempty" gorm:"foreignKey:PointID;references:ID"`
}

func (Reservation) TableName() string { return "reservations" }

// ReservationConfig holds reservation system configuration
type ReservationConfig struct {
	// DefaultHoldMinutes is used when a request does not name a duration
	DefaultHoldMinutes int `json:"default_hold_minutes" mapstructure:"default_hold_minutes"`

	// MaxHoldMinutes caps how long a point may be held
	MaxHoldMinutes int `json:"max_hold_minutes" mapstructure:"max_hold_minutes"`
}

// DefaultReservationConfig returns sensible defaults
func DefaultReservationConfig() *ReservationConfig {
	return &ReservationConfig{
		DefaultHoldMinutes: 15,
		MaxHoldMinutes:     120,
	}
}

// IsOpen returns true while the reservation still holds its point
func (r *Reservation) IsOpen() bool {
	return r.Status == ReservationStatusConfirmed || r.Status == ReservationStatusActive
}

// CanBeCancelled returns true if the reservation can still be cancelled
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == ReservationStatusConfirmed
}

// IsExpiredAt returns true if the hold has run out at now
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpireTime)
}

// ReservationValidation is the outcome of re-checking a reservation before charging
type ReservationValidation struct {
	Valid       bool         `json:"valid"`
	Reason      string       `json:"reason,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
}
