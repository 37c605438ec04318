package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
)

type PlanRepo struct{ db *gorm.DB }

func NewPlanRepo(db *gorm.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// CreateSuperseding inserts p as the user's active plan and marks every other
// active plan of that user superseded, in one transaction.
func (r *PlanRepo) CreateSuperseding(ctx context.Context, p *domain.QuitPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.QuitPlan{}).
			Where("user_id = ? AND status = ?", p.UserID, domain.PlanActive).
			Update("status", domain.PlanSuperseded).Error; err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.Status = domain.PlanActive
		return tx.Create(p).Error
	})
}

func (r *PlanRepo) ByID(ctx context.Context, id string) (*domain.QuitPlan, error) {
	var p domain.QuitPlan
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "plan")
	}
	return &p, nil
}

// ByUser returns all plans of a user, newest first.
func (r *PlanRepo) ByUser(ctx context.Context, userID string) ([]domain.QuitPlan, error) {
	var out []domain.QuitPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *PlanRepo) ActiveByUser(ctx context.Context, userID string) (*domain.QuitPlan, error) {
	var p domain.QuitPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.PlanActive).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "active plan")
	}
	return &p, nil
}

func (r *PlanRepo) UpdateStatus(ctx context.Context, id string, to domain.PlanStatus) (*domain.QuitPlan, error) {
	p, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(p).Update("status", to).Error; err != nil {
		return nil, err
	}
	p.Status = to
	return p, nil
}
