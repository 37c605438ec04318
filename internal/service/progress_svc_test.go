package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/internal/testutil"
)

const pinnedToday = "2025-03-05" // a Wednesday

type recordingPub struct {
	keys []string
}

func (r *recordingPub) PublishJSON(_ context.Context, key string, _ any) error {
	r.keys = append(r.keys, key)
	return nil
}

type progressFixture struct {
	svc   *ProgressSvc
	pub   *recordingPub
	user  *domain.User
	other *domain.User
	plan  *domain.QuitPlan
	me    Caller
}

func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	pub := &recordingPub{}
	svc := NewProgressSvc(repository.NewCheckinRepo(gdb), repository.NewPlanRepo(gdb), pub, 25000).
		WithClock(testutil.At(pinnedToday))
	user := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	other := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	plan := testutil.SeedPlan(t, gdb, user.ID, "2025-02-20", 20, 20, 15, 10)
	return progressFixture{
		svc: svc, pub: pub, user: user, other: other, plan: plan,
		me: Caller{ID: user.ID, Role: domain.RoleSmoker},
	}
}

func TestCreateAndGetCheckin(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-04", domain.Metrics{
		ActualCigarettes: 3,
		MoodRating:       testutil.IntP(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, c.Target(), "target defaults to the plan's week-2 target")
	assert.Equal(t, []string{events.RKCheckinCreated}, f.pub.keys)

	got, err := f.svc.GetCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 3, got.ActualCigarettes)
	require.NotNil(t, got.MoodRating)
	assert.Equal(t, 7, *got.MoodRating)
}

func TestCreateCheckinDefaultsToToday(t *testing.T) {
	f := newProgressFixture(t)
	c, err := f.svc.CreateCheckin(context.Background(), f.me, f.user.ID, f.plan.ID, "", domain.Metrics{})
	require.NoError(t, err)
	assert.Equal(t, pinnedToday, c.Date)
	// 2025-03-05 is day 13 of the plan, still week 2
	assert.Equal(t, 20, c.Target())
}

func TestCreateCheckinDuplicateIsConflict(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-01", domain.Metrics{ActualCigarettes: 5})
	require.NoError(t, err)

	_, err = f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-01", domain.Metrics{ActualCigarettes: 1})
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := f.svc.GetCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 5, got.ActualCigarettes, "duplicate must not overwrite")
}

func TestCreateCheckinRejects(t *testing.T) {
	f := newProgressFixture(t)

	tests := []struct {
		name    string
		caller  Caller
		planID  string
		date    string
		m       domain.Metrics
		wantErr error
	}{
		{name: "missing plan", caller: f.me, planID: "", date: "2025-03-01", wantErr: domain.ErrValidation},
		{name: "unknown plan", caller: f.me, planID: "does-not-exist", date: "2025-03-01", wantErr: domain.ErrValidation},
		{name: "future date", caller: f.me, planID: f.plan.ID, date: "2025-03-06", wantErr: domain.ErrValidation},
		{name: "bad date", caller: f.me, planID: f.plan.ID, date: "03/01/2025", wantErr: domain.ErrValidation},
		{name: "metric out of range", caller: f.me, planID: f.plan.ID, date: "2025-03-01",
			m: domain.Metrics{StressLevel: testutil.IntP(11)}, wantErr: domain.ErrValidation},
		{name: "negative count", caller: f.me, planID: f.plan.ID, date: "2025-03-01",
			m: domain.Metrics{ActualCigarettes: -2}, wantErr: domain.ErrValidation},
		{name: "someone else", caller: Caller{ID: f.other.ID, Role: domain.RoleSmoker}, planID: f.plan.ID,
			date: "2025-03-01", wantErr: domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCheckin(context.Background(), tt.caller, f.user.ID, tt.planID, tt.date, tt.m)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.pub.keys)
}

func TestCreateCheckinForeignPlan(t *testing.T) {
	gdb := testutil.OpenDB(t)
	svc := NewProgressSvc(repository.NewCheckinRepo(gdb), repository.NewPlanRepo(gdb), nil, 25000).
		WithClock(testutil.At(pinnedToday))
	a := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	b := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	bPlan := testutil.SeedPlan(t, gdb, b.ID, "2025-03-01", 10)

	_, err := svc.CreateCheckin(context.Background(), Caller{ID: a.ID, Role: domain.RoleSmoker}, a.ID, bPlan.ID, "2025-03-02", domain.Metrics{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestCreateCheckinRequiresActivePlan(t *testing.T) {
	gdb := testutil.OpenDB(t)
	svc := NewProgressSvc(repository.NewCheckinRepo(gdb), repository.NewPlanRepo(gdb), nil, 25000).
		WithClock(testutil.At(pinnedToday))
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	old := testutil.SeedPlan(t, gdb, u.ID, "2025-01-01", 10)
	testutil.SeedPlan(t, gdb, u.ID, "2025-03-01", 8) // supersedes old

	_, err := svc.CreateCheckin(context.Background(), Caller{ID: u.ID}, u.ID, old.ID, "2025-03-02", domain.Metrics{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "superseded")
}

func TestUpdateAndDeleteCheckin(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02", domain.Metrics{
		ActualCigarettes: 8,
		UrgeIntensity:    testutil.IntP(9),
		Notes:            "rough day",
	})
	require.NoError(t, err)

	upd, err := f.svc.UpdateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02", domain.Metrics{
		ActualCigarettes: 4,
		TargetCigarettes: testutil.IntP(12),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, upd.ActualCigarettes)
	assert.Equal(t, 12, upd.Target())
	assert.Nil(t, upd.UrgeIntensity, "update replaces every metric")
	assert.Empty(t, upd.Notes)

	_, err = f.svc.UpdateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-03", domain.Metrics{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.DeleteCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02"))
	_, err = f.svc.GetCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02"), domain.ErrNotFound)

	assert.Equal(t, []string{events.RKCheckinCreated, events.RKCheckinUpdated, events.RKCheckinDeleted}, f.pub.keys)
}

func TestKeyedOperationsRequirePlan(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetCheckin(ctx, f.me, f.user.ID, "", "2025-03-01")
	assert.ErrorIs(t, err, domain.ErrPlanRequired)
	_, err = f.svc.UpdateCheckin(ctx, f.me, f.user.ID, "", "2025-03-01", domain.Metrics{})
	assert.ErrorIs(t, err, domain.ErrPlanRequired)
	assert.ErrorIs(t, f.svc.DeleteCheckin(ctx, f.me, f.user.ID, "", "2025-03-01"), domain.ErrPlanRequired)
	_, err = f.svc.UserProgress(ctx, f.me, f.user.ID, "", "", "", 0)
	assert.ErrorIs(t, err, domain.ErrPlanRequired)
	_, err = f.svc.Stats(ctx, f.me, f.user.ID, "", 0)
	assert.ErrorIs(t, err, domain.ErrPlanRequired)
}

func TestCheckinsAreScopedByPlan(t *testing.T) {
	gdb := testutil.OpenDB(t)
	plans := repository.NewPlanRepo(gdb)
	svc := NewProgressSvc(repository.NewCheckinRepo(gdb), plans, nil, 25000).WithClock(testutil.At(pinnedToday))
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	me := Caller{ID: u.ID, Role: domain.RoleSmoker}
	ctx := context.Background()

	first := testutil.SeedPlan(t, gdb, u.ID, "2025-02-01", 10)
	_, err := svc.CreateCheckin(ctx, me, u.ID, first.ID, "2025-03-01", domain.Metrics{ActualCigarettes: 9})
	require.NoError(t, err)

	second := testutil.SeedPlan(t, gdb, u.ID, "2025-03-01", 5)
	_, err = svc.CreateCheckin(ctx, me, u.ID, second.ID, "2025-03-01", domain.Metrics{ActualCigarettes: 2})
	require.NoError(t, err, "same date under another plan is a different key")

	a, err := svc.GetCheckin(ctx, me, u.ID, first.ID, "2025-03-01")
	require.NoError(t, err)
	b, err := svc.GetCheckin(ctx, me, u.ID, second.ID, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 9, a.ActualCigarettes)
	assert.Equal(t, 2, b.ActualCigarettes)

	rows, err := svc.UserProgress(ctx, me, u.ID, second.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].PlanID)
}

func TestUserProgressRangeAndLimit(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	for d := 1; d <= 5; d++ {
		_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, fmt.Sprintf("2025-03-%02d", d), domain.Metrics{ActualCigarettes: d})
		require.NoError(t, err)
	}

	rows, err := f.svc.UserProgress(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-02", "2025-03-04", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-03-02", rows[0].Date)
	assert.Equal(t, "2025-03-04", rows[2].Date)

	rows, err = f.svc.UserProgress(ctx, f.me, f.user.ID, f.plan.ID, "", "", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-01", rows[0].Date)

	_, err = f.svc.UserProgress(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-04", "2025-03-02", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	dates, err := f.svc.CheckinDates(ctx, f.me, f.user.ID, f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05"}, dates)
}

func TestAdminCanReadAnyUser(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, "2025-03-01", domain.Metrics{})
	require.NoError(t, err)

	admin := Caller{ID: "admin", Role: domain.RoleAdmin}
	_, err = f.svc.GetCheckin(ctx, admin, f.user.ID, f.plan.ID, "2025-03-01")
	assert.NoError(t, err)

	stranger := Caller{ID: f.other.ID, Role: domain.RoleSmoker}
	_, err = f.svc.GetCheckin(ctx, stranger, f.user.ID, f.plan.ID, "2025-03-01")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStatsSavings(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	// ten days ending today, target 20, alternating 15 and 20 smoked
	for i := 0; i < 10; i++ {
		actual := 15
		if i%2 == 1 {
			actual = 20
		}
		date := domain.AddDays(pinnedToday, -9+i)
		_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, date, domain.Metrics{
			TargetCigarettes: testutil.IntP(20),
			ActualCigarettes: actual,
			MoodRating:       testutil.IntP(6 + i%2),
		})
		require.NoError(t, err)
	}

	st, err := f.svc.Stats(ctx, f.me, f.user.ID, f.plan.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Days)
	assert.Equal(t, pinnedToday, st.To)
	assert.Equal(t, "2025-02-04", st.From)
	assert.Equal(t, 10, st.TrackedDays)
	assert.Equal(t, 25, st.CigarettesSaved)
	assert.InDelta(t, 31250.0, st.MoneySaved, 0.001)
	assert.Equal(t, 0, st.SmokeFreeStreak)
	assert.Zero(t, st.HealthProgress)
	require.NotNil(t, st.AverageMood)
	assert.InDelta(t, 6.5, *st.AverageMood, 0.001)
	assert.Nil(t, st.AverageUrge)
	assert.Len(t, st.Milestones, 8)

	// a three-day window only sees the last three check-ins: 20, 15, 20
	st, err = f.svc.Stats(ctx, f.me, f.user.ID, f.plan.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TrackedDays)
	assert.Equal(t, 5, st.CigarettesSaved)
}

func TestStatsStreakAndMilestones(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	seed := map[string]int{
		"2025-02-28": 4,
		"2025-03-01": 0,
		// 2025-03-02 missing
		"2025-03-03": 0,
		"2025-03-04": 0,
		"2025-03-05": 0,
	}
	for d, n := range seed {
		_, err := f.svc.CreateCheckin(ctx, f.me, f.user.ID, f.plan.ID, d, domain.Metrics{ActualCigarettes: n})
		require.NoError(t, err)
	}

	st, err := f.svc.Stats(ctx, f.me, f.user.ID, f.plan.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, st.SmokeFreeStreak, "the gap on 03-02 breaks the streak")
	assert.InDelta(t, 37.5, st.HealthProgress, 0.001)
	assert.True(t, st.Milestones[2].Achieved)
	assert.False(t, st.Milestones[3].Achieved)
}

func TestStatsForeignPlanIsNotFound(t *testing.T) {
	f := newProgressFixture(t)
	_, err := f.svc.Stats(context.Background(), Caller{ID: f.other.ID}, f.other.ID, f.plan.ID, 30)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type brokenPub struct{ calls int }

func (b *brokenPub) PublishJSON(context.Context, string, any) error {
	b.calls++
	return errors.New("broker unreachable")
}

func TestCheckinSurvivesPublishFailure(t *testing.T) {
	gdb := testutil.OpenDB(t)
	pub := &brokenPub{}
	svc := NewProgressSvc(repository.NewCheckinRepo(gdb), repository.NewPlanRepo(gdb), pub, 25000).
		WithClock(testutil.At(pinnedToday))
	u := testutil.SeedUser(t, gdb, domain.RoleSmoker)
	p := testutil.SeedPlan(t, gdb, u.ID, "2025-02-20", 10)
	me := Caller{ID: u.ID, Role: domain.RoleSmoker}
	ctx := context.Background()

	_, err := svc.CreateCheckin(ctx, me, u.ID, p.ID, "2025-03-04", domain.Metrics{ActualCigarettes: 1})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCheckin(ctx, me, u.ID, p.ID, "2025-03-04"))
	assert.Equal(t, 2, pub.calls)
}
