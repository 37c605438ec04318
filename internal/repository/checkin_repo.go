package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
)

type CheckinRepo struct{ db *gorm.DB }

func NewCheckinRepo(db *gorm.DB) *CheckinRepo {
	return &CheckinRepo{db: db}
}

// Create inserts a new check-in. The unique (user, plan, date) index turns a
// second insert for the same key into ErrDuplicateCheckin.
func (r *CheckinRepo) Create(ctx context.Context, c *domain.Checkin) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateCheckin
		}
		return err
	}
	return nil
}

func (r *CheckinRepo) ByKey(ctx context.Context, userID, planID, date string) (*domain.Checkin, error) {
	var c domain.Checkin
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND date = ?", userID, planID, date).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "check-in")
	}
	return &c, nil
}

// ReplaceMetrics overwrites every metric of the check-in at the key.
func (r *CheckinRepo) ReplaceMetrics(ctx context.Context, userID, planID, date string, m domain.Metrics) (*domain.Checkin, error) {
	var c domain.Checkin
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("user_id = ? AND plan_id = ? AND date = ?", userID, planID, date).
			First(&c).Error; err != nil {
			return notFound(err, "check-in")
		}
		c.Metrics = m
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CheckinRepo) Delete(ctx context.Context, userID, planID, date string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND date = ?", userID, planID, date).
		Delete(&domain.Checkin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("check-in not found")
	}
	return nil
}

// Range returns check-ins of a plan with start <= date <= end, oldest first.
// Empty bounds are open; limit <= 0 means no cap.
func (r *CheckinRepo) Range(ctx context.Context, userID, planID, start, end string, limit int) ([]domain.Checkin, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Checkin{}).
		Where("user_id = ? AND plan_id = ?", userID, planID)
	if start != "" {
		qb = qb.Where("date >= ?", start)
	}
	if end != "" {
		qb = qb.Where("date <= ?", end)
	}
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	var out []domain.Checkin
	if err := qb.Order("date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CheckinRepo) Dates(ctx context.Context, userID, planID string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&domain.Checkin{}).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Order("date ASC").
		Pluck("date", &dates).Error
	return dates, err
}
