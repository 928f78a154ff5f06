package domain

import "time"

type Vehicle struct {
	ID                 string    `json:"vehicle_id" gorm:"column:vehicle_id;primaryKey"`
	UserID             string    `json:"user_id" gorm:"column:user_id;index"`
	PlateNumber        string    `json:"plate_number"`
	BatteryCapacityKWh float64   `json:"battery_capacity_kwh" gorm:"column:battery_capacity_kwh"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }
