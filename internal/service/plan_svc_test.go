package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/internal/testutil"
)

func TestCreatePlanSupersedesActive(t *testing.T) {
	gdb := testutil.OpenDB(t)
	svc := NewPlanSvc(repository.NewPlanRepo(gdb), 25000)
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	me := Caller{ID: u.ID, Role: domain.RoleSmoker}
	ctx := context.Background()

	first, err := svc.Create(ctx, me, u.ID, PlanInput{StartDate: "2025-01-06", InitialCigarettes: 20, WeeklyTargets: []int{15, 10, 5, 0}})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanActive, first.Status)
	assert.Equal(t, 4, first.DurationWeeks)
	assert.Equal(t, "2025-02-02", first.EndDate())
	assert.Equal(t, 25000.0, first.PackPrice, "pack price falls back to the default")
	assert.Equal(t, "Quit plan from 2025-01-06", first.Name)

	second, err := svc.Create(ctx, me, u.ID, PlanInput{Name: "Round two", StartDate: "2025-03-01", WeeklyTargets: []int{5}, PackPrice: 30000})
	require.NoError(t, err)

	old, err := svc.Get(ctx, me, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSuperseded, old.Status)

	active, err := svc.Active(ctx, me, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	all, err := svc.ListByUser(ctx, me, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreatePlanRejects(t *testing.T) {
	gdb := testutil.OpenDB(t)
	svc := NewPlanSvc(repository.NewPlanRepo(gdb), 25000)
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	me := Caller{ID: u.ID, Role: domain.RoleSmoker}
	ctx := context.Background()

	tests := map[string]PlanInput{
		"no weeks":         {StartDate: "2025-01-06"},
		"increasing":       {StartDate: "2025-01-06", WeeklyTargets: []int{5, 10}},
		"negative target":  {StartDate: "2025-01-06", WeeklyTargets: []int{-1}},
		"bad start":        {StartDate: "06/01/2025", WeeklyTargets: []int{5}},
		"negative price":   {StartDate: "2025-01-06", WeeklyTargets: []int{5}, PackPrice: -1},
		"negative initial": {StartDate: "2025-01-06", WeeklyTargets: []int{5}, InitialCigarettes: -3},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, me, u.ID, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := svc.Create(ctx, Caller{ID: "someone-else"}, u.ID, PlanInput{StartDate: "2025-01-06", WeeklyTargets: []int{5}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestClosePlan(t *testing.T) {
	gdb := testutil.OpenDB(t)
	svc := NewPlanSvc(repository.NewPlanRepo(gdb), 25000)
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	me := Caller{ID: u.ID, Role: domain.RoleSmoker}
	ctx := context.Background()
	p := testutil.SeedPlan(t, gdb, u.ID, "2025-01-06", 10, 5)

	_, err := svc.Close(ctx, me, p.ID, domain.PlanSuperseded)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Close(ctx, Caller{ID: "stranger"}, p.ID, domain.PlanCompleted)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other users' plans are invisible")

	done, err := svc.Close(ctx, me, p.ID, domain.PlanCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanCompleted, done.Status)

	_, err = svc.Close(ctx, me, p.ID, domain.PlanAbandoned)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Active(ctx, me, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
