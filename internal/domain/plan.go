package domain

import "time"

type PlanStatus string

const (
	PlanActive     PlanStatus = "active"
	PlanSuperseded PlanStatus = "superseded"
	PlanCompleted  PlanStatus = "completed"
	PlanAbandoned  PlanStatus = "abandoned"
)

// QuitPlan is a user's weekly cigarette-reduction schedule. Every check-in is
// scoped to exactly one plan.
type QuitPlan struct {
	ID                string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string     `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Name              string     `json:"name"`
	StartDate         string     `gorm:"type:varchar(10);not null" json:"start_date"`
	InitialCigarettes int        `gorm:"not null" json:"initial_cigarettes"`
	WeeklyTargets     []int      `gorm:"type:text;serializer:json" json:"weekly_targets"`
	DurationWeeks     int        `gorm:"not null" json:"duration_weeks"`
	PackPrice         float64    `json:"pack_price"`
	Status            PlanStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EndDate is the last calendar day of the final week.
func (p *QuitPlan) EndDate() string {
	return AddDays(p.StartDate, 7*p.DurationWeeks-1)
}

// TargetFor returns the weekly target in force on date. Dates before the start
// use the first week; dates past the end use the last week.
func (p *QuitPlan) TargetFor(date string) int {
	if len(p.WeeklyTargets) == 0 {
		return p.InitialCigarettes
	}
	days, err := DaysBetween(p.StartDate, date)
	if err != nil || days < 0 {
		return p.WeeklyTargets[0]
	}
	week := days / 7
	if week >= len(p.WeeklyTargets) {
		week = len(p.WeeklyTargets) - 1
	}
	return p.WeeklyTargets[week]
}

// Validate checks the fields a caller supplies when starting a plan.
func (p *QuitPlan) Validate() error {
	if _, err := ParseDate(p.StartDate); err != nil {
		return err
	}
	if p.InitialCigarettes < 0 {
		return Invalidf("initial_cigarettes must be >= 0")
	}
	if len(p.WeeklyTargets) == 0 {
		return Invalidf("weekly_targets must contain at least one week")
	}
	if len(p.WeeklyTargets) > 104 {
		return Invalidf("weekly_targets must not exceed 104 weeks")
	}
	prev := -1
	for i, t := range p.WeeklyTargets {
		if t < 0 {
			return Invalidf("weekly_targets[%d] must be >= 0", i)
		}
		if prev >= 0 && t > prev {
			return Invalidf("weekly_targets must not increase (week %d)", i+1)
		}
		prev = t
	}
	if p.PackPrice < 0 {
		return Invalidf("pack_price must be >= 0")
	}
	return nil
}
