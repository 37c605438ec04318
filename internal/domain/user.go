package domain

import "time"

type Role string

const (
	RoleSmoker Role = "smoker"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSmoker, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

// TierFree is the membership tier every account starts on.
const TierFree = "free"

// User is never hard-deleted; Active=false disables the account.
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Name           string    `json:"name"`
	Role           Role      `gorm:"type:varchar(16);index;not null" json:"role"`
	MembershipTier string    `gorm:"type:varchar(16);not null" json:"membership_tier"`
	Active         bool      `gorm:"not null" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
