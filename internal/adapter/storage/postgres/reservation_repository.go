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

type ReservationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReservationRepository(db *gorm.DB, log *zap.Logger) ports.ReservationRepository {
	return &ReservationRepository{
		db:  db,
		log: log,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	if err := r.db.WithContext(ctx).Omit("Point").Create(reservation).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).First(&res, "reservation_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindOpenByUserID(ctx context.Context, userID string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).
		Preload("Point.Station").
		Where("user_id = ? AND status IN ?", userID, domain.OpenReservationStatuses).
		Order("created_at desc").
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error) {
	var list []domain.Reservation
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Order("created_at desc").Find(&list).Error
	return list, err
}

func (r *ReservationRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("reservation_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *ReservationRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("status = ? AND expire_time < ?", domain.ReservationStatusConfirmed, now.UTC()).
		Updates(map[string]interface{}{
			"status":     domain.ReservationStatusExpired,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		r.log.Error("Failed to expire reservations", zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
