package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestIntervalOverlaps(t *testing.T) {
	existing := Interval{Start: 600, End: 660} // 10:00-11:00

	assert.True(t, existing.Overlaps(Interval{Start: 630, End: 690}), "10:30-11:30")
	assert.True(t, existing.Overlaps(Interval{Start: 540, End: 720}), "09:00-12:00 contains")
	assert.True(t, existing.Overlaps(Interval{Start: 615, End: 645}), "inside")
	assert.False(t, existing.Overlaps(Interval{Start: 660, End: 720}), "adjacent after")
	assert.False(t, existing.Overlaps(Interval{Start: 540, End: 600}), "adjacent before")
}

func TestMetricsValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Metrics
		wantErr string
	}{
		{name: "empty is fine", m: Metrics{}},
		{name: "all in range", m: Metrics{UrgeIntensity: intp(1), MoodRating: intp(10), StressLevel: intp(5), SleepQuality: intp(7)}},
		{name: "urge too high", m: Metrics{UrgeIntensity: intp(11)}, wantErr: "urge_intensity must be at most 10"},
		{name: "mood zero", m: Metrics{MoodRating: intp(0)}, wantErr: "mood_rating must be at least 1"},
		{name: "negative actual", m: Metrics{ActualCigarettes: -1}, wantErr: "actual_cigarettes must be at least 0"},
		{name: "negative water", m: Metrics{WaterGlasses: -3}, wantErr: "water_glasses must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlanTargetFor(t *testing.T) {
	p := QuitPlan{StartDate: "2024-01-01", WeeklyTargets: []int{20, 15, 10}, DurationWeeks: 3}

	assert.Equal(t, 20, p.TargetFor("2023-12-25"))
	assert.Equal(t, 20, p.TargetFor("2024-01-07"))
	assert.Equal(t, 15, p.TargetFor("2024-01-08"))
	assert.Equal(t, 10, p.TargetFor("2024-01-21"))
	assert.Equal(t, 10, p.TargetFor("2024-03-01"))
	assert.Equal(t, "2024-01-21", p.EndDate())
}

func TestPlanValidate(t *testing.T) {
	ok := QuitPlan{StartDate: "2024-01-01", InitialCigarettes: 20, WeeklyTargets: []int{20, 15, 15, 0}}
	assert.NoError(t, ok.Validate())

	bad := []QuitPlan{
		{StartDate: "01/01/2024", WeeklyTargets: []int{10}},
		{StartDate: "2024-01-01"},
		{StartDate: "2024-01-01", WeeklyTargets: []int{10, 12}},
		{StartDate: "2024-01-01", WeeklyTargets: []int{-1}},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), ErrValidation)
	}
}

func TestClock(t *testing.T) {
	m, err := ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 570, m)
	assert.Equal(t, "09:30", FormatClock(570))

	_, err = ParseClock("9.30")
	assert.ErrorIs(t, err, ErrValidation)
}
