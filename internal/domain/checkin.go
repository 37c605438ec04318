package domain

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Metrics are the self-reported values of one day. 1-10 scales are optional.
type Metrics struct {
	TargetCigarettes *int   `json:"target_cigarettes" validate:"omitempty,min=0,max=200"`
	ActualCigarettes int    `json:"actual_cigarettes" validate:"min=0,max=200"`
	UrgeIntensity    *int   `json:"urge_intensity" validate:"omitempty,min=1,max=10"`
	MoodRating       *int   `json:"mood_rating" validate:"omitempty,min=1,max=10"`
	StressLevel      *int   `json:"stress_level" validate:"omitempty,min=1,max=10"`
	SleepQuality     *int   `json:"sleep_quality" validate:"omitempty,min=1,max=10"`
	ExerciseMinutes  int    `json:"exercise_minutes" validate:"min=0,max=1440"`
	WaterGlasses     int    `json:"water_glasses" validate:"min=0,max=100"`
	Notes            string `json:"notes" validate:"max=2000"`
}

// Checkin is keyed by (user, plan, date); at most one row per key.
type Checkin struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(36);not null;uniqueIndex:uidx_checkin_user_plan_date,priority:1" json:"user_id"`
	PlanID string `gorm:"type:varchar(36);not null;uniqueIndex:uidx_checkin_user_plan_date,priority:2" json:"plan_id"`
	Date   string `gorm:"type:varchar(10);not null;uniqueIndex:uidx_checkin_user_plan_date,priority:3" json:"date"`

	Metrics `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Target is the effective target; zero when unset.
func (c *Checkin) Target() int {
	if c.TargetCigarettes == nil {
		return 0
	}
	return *c.TargetCigarettes
}

// Avoided is max(0, target - actual).
func (c *Checkin) Avoided() int {
	return max(0, c.Target()-c.ActualCigarettes)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate reports the first out-of-range metric as an ErrValidation.
func (m *Metrics) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Invalidf("%v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "min":
		return Invalidf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return Invalidf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return Invalidf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return Invalidf("%s is invalid", fe.Field())
}
