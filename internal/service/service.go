package service

import (
	"errors"
	"time"

	"github.com/you/nosmoke/internal/domain"
)

// Caller is the authenticated principal a request runs as.
type Caller struct {
	ID   string
	Role domain.Role
}

func (c Caller) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// CanAccessUser reports whether the caller may read or write userID's data.
func (c Caller) CanAccessUser(userID string) bool {
	return c.ID == userID || c.IsAdmin()
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func today(now Clock) string {
	return domain.FormatDate(now())
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
