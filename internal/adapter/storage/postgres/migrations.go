package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/seu-repo/evcharge/internal/domain"
)

// partialIndexes enforce the exclusivity rules that AutoMigrate cannot express.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_active_point
		ON charging_sessions (point_id) WHERE status = 'Active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_active_user
		ON charging_sessions (user_id) WHERE status = 'Active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_open_user
		ON reservations (user_id) WHERE status IN ('Confirmed', 'Active')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_open_point
		ON reservations (point_id) WHERE status IN ('Confirmed', 'Active')`,
}

// RunMigrations creates the tables and the exclusivity indexes.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Station{},
		&domain.ChargingPoint{},
		&domain.Vehicle{},
		&domain.Reservation{},
		&domain.ChargingSession{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
