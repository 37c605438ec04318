// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/pkg/db"
)

// OpenDB returns a migrated in-memory sqlite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", nil, "silent")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// SeedUser inserts an active user with the given role.
func SeedUser(t testing.TB, gdb *gorm.DB, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:          uuid.NewString() + "@example.com",
		PasswordHash:   "x",
		Name:           string(role),
		Role:           role,
		MembershipTier: domain.TierFree,
		Active:         true,
	}
	require.NoError(t, repository.NewUserRepo(gdb).Create(context.Background(), u))
	return u
}

// SeedPlan inserts an active plan for userID.
func SeedPlan(t testing.TB, gdb *gorm.DB, userID, start string, targets ...int) *domain.QuitPlan {
	t.Helper()
	p := &domain.QuitPlan{
		UserID:            userID,
		Name:              "test plan",
		StartDate:         start,
		InitialCigarettes: 20,
		WeeklyTargets:     targets,
		DurationWeeks:     len(targets),
		PackPrice:         25000,
	}
	require.NoError(t, repository.NewPlanRepo(gdb).CreateSuperseding(context.Background(), p))
	return p
}

// At returns a clock pinned to 09:00 UTC on date.
func At(date string) func() time.Time {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	t := d.Add(9 * time.Hour)
	return func() time.Time { return t }
}

func IntP(v int) *int { return &v }
