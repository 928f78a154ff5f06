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

type SessionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSessionRepository(db *gorm.DB, log *zap.Logger) ports.SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log,
	}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	var s domain.ChargingSession
	err := r.db.WithContext(ctx).First(&s, "session_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindActiveByUserID(ctx context.Context, userID string) (*domain.ChargingSession, error) {
	return r.findActive(ctx, "user_id = ?", userID)
}

func (r *SessionRepository) FindActiveByPointID(ctx context.Context, pointID string) (*domain.ChargingSession, error) {
	return r.findActive(ctx, "point_id = ?", pointID)
}

func (r *SessionRepository) findActive(ctx context.Context, cond string, arg string) (*domain.ChargingSession, error) {
	var s domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where(cond, arg).
		Where("status = ?", domain.SessionStatusActive).
		Order("start_time desc").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindActiveCompletingBetween(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error) {
	var list []domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND estimated_completion_time >= ? AND estimated_completion_time <= ?",
			domain.SessionStatusActive, from.UTC(), to.UTC()).
		Find(&list).Error
	return list, err
}

func (r *SessionRepository) Start(ctx context.Context, session *domain.ChargingSession) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&domain.ChargingPoint{}).
			Where("point_id = ? AND status IN ?", session.PointID, []domain.ChargingPointStatus{
				domain.ChargingPointStatusAvailable,
				domain.ChargingPointStatusReserved,
			}).
			Updates(map[string]interface{}{
				"status":     domain.ChargingPointStatusInUse,
				"updated_at": session.StartTime,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != 1 {
			return domain.ErrPointNotClaimable
		}

		if err := tx.Create(session).Error; err != nil {
			return translate(err)
		}
		return nil
	})
	if err != nil {
		r.log.Warn("Session start rolled back",
			zap.String("point_id", session.PointID),
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
	}
	return err
}

func (r *SessionRepository) Complete(ctx context.Context, session *domain.ChargingSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done := tx.Model(&domain.ChargingSession{}).
			Where("session_id = ? AND status = ?", session.ID, domain.SessionStatusActive).
			Updates(map[string]interface{}{
				"status":              domain.SessionStatusCompleted,
				"end_time":            session.EndTime,
				"meter_end":           session.MeterEnd,
				"energy_consumed_kwh": session.EnergyConsumedKWh,
				"idle_minutes":        session.IdleMinutes,
				"idle_fee":            session.IdleFee,
				"cost":                session.Cost,
				"updated_at":          session.UpdatedAt,
			})
		if done.Error != nil {
			return done.Error
		}
		if done.RowsAffected != 1 {
			return domain.ErrStaleState
		}

		// a point moved to Maintenance or Offline meanwhile keeps that status
		release := tx.Model(&domain.ChargingPoint{}).
			Where("point_id = ? AND status IN ?", session.PointID, []domain.ChargingPointStatus{
				domain.ChargingPointStatusInUse,
				domain.ChargingPointStatusAlmostDone,
			}).
			Updates(map[string]interface{}{
				"status":     domain.ChargingPointStatusAvailable,
				"updated_at": session.UpdatedAt,
			})
		return release.Error
	})
}
