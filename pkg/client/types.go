package client

import "time"

// Metrics is the body of a check-in create or update.
type Metrics struct {
	Date             string `json:"date,omitempty"`
	TargetCigarettes *int   `json:"target_cigarettes,omitempty"`
	ActualCigarettes int    `json:"actual_cigarettes"`
	UrgeIntensity    *int   `json:"urge_intensity,omitempty"`
	MoodRating       *int   `json:"mood_rating,omitempty"`
	StressLevel      *int   `json:"stress_level,omitempty"`
	SleepQuality     *int   `json:"sleep_quality,omitempty"`
	ExerciseMinutes  int    `json:"exercise_minutes"`
	WaterGlasses     int    `json:"water_glasses"`
	Notes            string `json:"notes,omitempty"`
}

type Checkin struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PlanID           string    `json:"plan_id"`
	Date             string    `json:"date"`
	TargetCigarettes *int      `json:"target_cigarettes"`
	ActualCigarettes int       `json:"actual_cigarettes"`
	UrgeIntensity    *int      `json:"urge_intensity"`
	MoodRating       *int      `json:"mood_rating"`
	StressLevel      *int      `json:"stress_level"`
	SleepQuality     *int      `json:"sleep_quality"`
	ExerciseMinutes  int       `json:"exercise_minutes"`
	WaterGlasses     int       `json:"water_glasses"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Milestone struct {
	Days     int    `json:"days"`
	Title    string `json:"title"`
	Achieved bool   `json:"achieved"`
}

type Stats struct {
	PlanID          string      `json:"plan_id"`
	Days            int         `json:"days"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	TrackedDays     int         `json:"tracked_days"`
	CigarettesSaved int         `json:"cigarettes_saved"`
	MoneySaved      float64     `json:"money_saved"`
	PackPrice       float64     `json:"pack_price"`
	SmokeFreeStreak int         `json:"smoke_free_streak"`
	HealthProgress  float64     `json:"health_progress"`
	Milestones      []Milestone `json:"milestones"`
	AverageMood     *float64    `json:"average_mood"`
	AverageUrge     *float64    `json:"average_urge"`
}

type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	MembershipTier string `json:"membership_tier"`
}

type Plan struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	Name              string  `json:"name"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	InitialCigarettes int     `json:"initial_cigarettes"`
	WeeklyTargets     []int   `json:"weekly_targets"`
	PackPrice         float64 `json:"pack_price"`
	Status            string  `json:"status"`
}

type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DayAvailability struct {
	Date   string `json:"date"`
	Slots  []Slot `json:"slots"`
	Booked []Slot `json:"booked"`
}

type BookingRequest struct {
	CoachID         string `json:"coach_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type Appointment struct {
	ID              string `json:"id"`
	CoachID         string `json:"coach_id"`
	UserID          string `json:"user_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
}

type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ProgressQuery bounds a progress listing. Zero values are omitted.
type ProgressQuery struct {
	Start string
	End   string
	Limit int
}
