package domain

import (
	"time"
)

type ChargingPointStatus string

const (
	ChargingPointStatusAvailable   ChargingPointStatus = "Available"
	ChargingPointStatusReserved    ChargingPointStatus = "Reserved"
	ChargingPointStatusInUse       ChargingPointStatus = "InUse"
	ChargingPointStatusAlmostDone  ChargingPointStatus = "AlmostDone"
	ChargingPointStatusMaintenance ChargingPointStatus = "Maintenance"
	ChargingPointStatusOffline     ChargingPointStatus = "Offline"
)

// pointTransitions lists the statuses each status may move to.
var pointTransitions = map[ChargingPointStatus][]ChargingPointStatus{
	ChargingPointStatusAvailable: {
		ChargingPointStatusReserved,
		ChargingPointStatusInUse,
		ChargingPointStatusMaintenance,
		ChargingPointStatusOffline,
	},
	ChargingPointStatusReserved:    {ChargingPointStatusAvailable, ChargingPointStatusInUse},
	ChargingPointStatusInUse:       {ChargingPointStatusAlmostDone, ChargingPointStatusAvailable},
	ChargingPointStatusAlmostDone:  {ChargingPointStatusAvailable},
	ChargingPointStatusMaintenance: {ChargingPointStatusAvailable, ChargingPointStatusOffline},
	ChargingPointStatusOffline:     {ChargingPointStatusAvailable, ChargingPointStatusMaintenance},
}

// Valid reports whether s is a known point status.
func (s ChargingPointStatus) Valid() bool {
	_, ok := pointTransitions[s]
	return ok
}

// CanTransition reports whether a point in status s may move to next.
func (s ChargingPointStatus) CanTransition(next ChargingPointStatus) bool {
	for _, allowed := range pointTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Startable reports whether a charging session may begin on a point in status s.
func (s ChargingPointStatus) Startable() bool {
	return s == ChargingPointStatusAvailable || s == ChargingPointStatusReserved
}

// PredecessorsOf returns every status that may transition into next.
// Repositories use it as the guard of conditional status updates.
func PredecessorsOf(next ChargingPointStatus) []ChargingPointStatus {
	var from []ChargingPointStatus
	for status, targets := range pointTransitions {
		for _, t := range targets {
			if t == next {
				from = append(from, status)
				break
			}
		}
	}
	return from
}

type ChargingPoint struct {
	ID         string              `json:"point_id" gorm:"column:point_id;primaryKey"`
	StationID  string              `json:"station_id" gorm:"column:station_id;index"`
	Status     ChargingPointStatus `json:"status" gorm:"column:status;index"`
	PowerKW    float64             `json:"power_kw" gorm:"column:power_kw"`
	PriceRate  float64             `json:"price_rate" gorm:"column:price_rate"`
	UpdatedAt  time.Time           `json:"updated_at"`
	LastSeenAt *time.Time          `json:"last_seen_at,omitempty" gorm:"column:last_seen_at"`
	Station    *Station            `json:"station,omitempty" gorm:"foreignKey:StationID;references:ID"`
}

func (ChargingPoint) TableName() string { return "charging_points" }

type Station struct {
	ID          string    `json:"station_id" gorm:"column:station_id;primaryKey"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	PricePerKWh float64   `json:"price_per_kwh" gorm:"column:price_per_kwh"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Station) TableName() string { return "stations" }
