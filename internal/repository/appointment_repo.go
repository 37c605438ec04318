package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
)

type AppointmentRepo struct{ db *gorm.DB }

func NewAppointmentRepo(db *gorm.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

// CreateWithNoOverlap runs in a txn and prevents overlapping bookings for one coach.
// The coach row is locked first so two concurrent requests for the same coach
// serialize; the overlap query alone cannot see rows another txn is inserting.
func (r *AppointmentRepo) CreateWithNoOverlap(ctx context.Context, a *domain.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coach domain.User
		if err := forUpdate(tx).Select("id").First(&coach, "id = ?", a.CoachID).Error; err != nil {
			return notFound(err, "coach")
		}

		var existing domain.Appointment
		err := forUpdate(tx.Model(&domain.Appointment{})).
			Where("coach_id = ? AND date = ? AND status <> ?", a.CoachID, a.Date, domain.StatusCancelled).
			Where("start_min < ? AND end_min > ?", a.EndMin, a.StartMin). // overlap condition
			Take(&existing).Error
		if err == nil {
			return domain.ErrOverlap
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		return tx.Create(a).Error
	})
}

func (r *AppointmentRepo) ByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "appointment")
	}
	return &a, nil
}

// Update locks the appointment, lets fn validate and mutate it, and saves the
// result in the same transaction. An error from fn aborts without writing.
func (r *AppointmentRepo) Update(ctx context.Context, id string, fn func(a *domain.Appointment) error) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&a, "id = ?", id).Error; err != nil {
			return notFound(err, "appointment")
		}
		if err := fn(&a); err != nil {
			return err
		}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Booked returns the coach's non-cancelled appointments with from <= date <= to.
func (r *AppointmentRepo) Booked(ctx context.Context, coachID, from, to string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND date >= ? AND date <= ? AND status <> ?", coachID, from, to, domain.StatusCancelled).
		Order("date ASC, start_min ASC").
		Find(&out).Error
	return out, err
}

type ListFilter struct {
	UserID  string
	CoachID string
	Status  domain.AppointmentStatus
	From    string
	To      string
	Page    int
	Size    int
}

func (r *AppointmentRepo) List(ctx context.Context, f ListFilter) ([]domain.Appointment, int64, error) {
	if f.Size <= 0 {
		f.Size = 20
	}
	if f.Page < 0 {
		f.Page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Appointment{})
	if f.UserID != "" {
		qb = qb.Where("user_id = ?", f.UserID)
	}
	if f.CoachID != "" {
		qb = qb.Where("coach_id = ?", f.CoachID)
	}
	if f.Status != "" {
		qb = qb.Where("status = ?", f.Status)
	}
	if f.From != "" {
		qb = qb.Where("date >= ?", f.From)
	}
	if f.To != "" {
		qb = qb.Where("date <= ?", f.To)
	}
	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Appointment
	if err := qb.Order("date ASC, start_min ASC").Limit(f.Size).Offset(f.Page * f.Size).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
