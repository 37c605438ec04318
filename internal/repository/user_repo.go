package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// ActiveByRole lists active users with the given role, ordered by name.
func (r *UserRepo) ActiveByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", role, true).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *UserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) (*domain.User, error) {
	u, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return u, nil
	}
	if err := r.db.WithContext(ctx).Model(u).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}
