package domain

import (
	"time"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "Active"
	SessionStatusCompleted SessionStatus = "Completed"
)

// ChargingSession records one charging event on a point. It is written once
// on start and frozen once on stop.
type ChargingSession struct {
	ID                      string        `json:"session_id" gorm:"column:session_id;primaryKey"`
	UserID                  string        `json:"user_id" gorm:"column:user_id;index"`
	VehicleID               *string       `json:"vehicle_id,omitempty" gorm:"column:vehicle_id"`
	PointID                 string        `json:"point_id" gorm:"column:point_id;index"`
	ReservationID           *string       `json:"reservation_id,omitempty" gorm:"column:reservation_id"`
	BookingID               *string       `json:"booking_id,omitempty" gorm:"column:booking_id"`
	StartTime               time.Time     `json:"start_time" gorm:"column:start_time"`
	EndTime                 *time.Time    `json:"end_time,omitempty" gorm:"column:end_time"`
	MeterStart              float64       `json:"meter_start" gorm:"column:meter_start"`
	MeterEnd                *float64      `json:"meter_end,omitempty" gorm:"column:meter_end"`
	InitialBatteryPercent   *float64      `json:"initial_battery_percent,omitempty" gorm:"column:initial_battery_percent"`
	TargetBatteryPercent    float64       `json:"target_battery_percent" gorm:"column:target_battery_percent"`
	EstimatedCompletionTime *time.Time    `json:"estimated_completion_time,omitempty" gorm:"column:estimated_completion_time;index"`
	EnergyConsumedKWh       float64       `json:"energy_consumed_kwh" gorm:"column:energy_consumed_kwh"`
	IdleMinutes             int           `json:"idle_minutes" gorm:"column:idle_minutes"`
	IdleFee                 float64       `json:"idle_fee" gorm:"column:idle_fee"`
	Cost                    float64       `json:"cost" gorm:"column:cost"`
	Status                  SessionStatus `json:"status" gorm:"column:status;index"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`
}

func (ChargingSession) TableName() string { return "charging_sessions" }

func (s *ChargingSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// CostSummary is the breakdown returned when a session stops.
type CostSummary struct {
	SessionID       string  `json:"session_id"`
	EnergyKWh       float64 `json:"energy_kwh"`
	PricePerKWh     float64 `json:"price_per_kwh"`
	EnergyCost      float64 `json:"energy_cost"`
	IdleMinutes     int     `json:"idle_minutes"`
	IdleFee         float64 `json:"idle_fee"`
	TotalCost       float64 `json:"total_cost"`
	DurationMinutes float64 `json:"duration_minutes"`
	Currency        string  `json:"currency"`
}
