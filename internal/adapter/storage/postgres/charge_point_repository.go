package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/ports"
)

type ChargingPointRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargingPointRepository(db *gorm.DB, log *zap.Logger) ports.ChargingPointRepository {
	return &ChargingPointRepository{
		db:  db,
		log: log,
	}
}

func (r *ChargingPointRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	var cp domain.ChargingPoint
	result := r.db.WithContext(ctx).Preload("Station").First(&cp, "point_id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cp, nil
}

func (r *ChargingPointRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargingPoint, error) {
	var cps []domain.ChargingPoint
	query := r.db.WithContext(ctx).Preload("Station")
	if status, ok := filter["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if stationID, ok := filter["station_id"]; ok {
		query = query.Where("station_id = ?", stationID)
	}

	result := query.Order("point_id").Find(&cps)
	if result.Error != nil {
		return nil, result.Error
	}
	return cps, nil
}

func (r *ChargingPointRepository) TransitionStatus(ctx context.Context, id string, from []domain.ChargingPointStatus, to domain.ChargingPointStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.ChargingPoint{}).
		Where("point_id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		r.log.Error("Failed to transition charging point",
			zap.String("point_id", id),
			zap.String("to", string(to)),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *ChargingPointRepository) MarkAlmostDone(ctx context.Context, pointIDs []string) (int64, error) {
	if len(pointIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.ChargingPoint{}).
		Where("point_id IN ? AND status <> ?", pointIDs, domain.ChargingPointStatusAlmostDone).
		Updates(map[string]interface{}{
			"status":     domain.ChargingPointStatusAlmostDone,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type StationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) ports.StationRepository {
	return &StationRepository{db: db}
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	var st domain.Station
	err := r.db.WithContext(ctx).First(&st, "station_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) ports.VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := r.db.WithContext(ctx).First(&v, "vehicle_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
