package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
)

type ScheduleRepo struct{ db *gorm.DB }

func NewScheduleRepo(db *gorm.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) ByCoach(ctx context.Context, coachID string) ([]domain.CoachSchedule, error) {
	var out []domain.CoachSchedule
	err := r.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("weekday ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

// Replace swaps the coach's whole weekly schedule for windows.
func (r *ScheduleRepo) Replace(ctx context.Context, coachID string, windows []domain.CoachSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coach_id = ?", coachID).Delete(&domain.CoachSchedule{}).Error; err != nil {
			return err
		}
		if len(windows) == 0 {
			return nil
		}
		for i := range windows {
			windows[i].ID = uuid.NewString()
			windows[i].CoachID = coachID
		}
		return tx.Create(&windows).Error
	})
}
