package service

import (
	"math"

	"github.com/you/nosmoke/internal/domain"
)

const cigarettesPerPack = 20

// Milestone is a smoke-free day count tied to a recovery claim.
type Milestone struct {
	Days     int    `json:"days"`
	Title    string `json:"title"`
	Achieved bool   `json:"achieved"`
}

var milestoneTable = []Milestone{
	{Days: 1, Title: "Carbon monoxide level in blood returns to normal"},
	{Days: 2, Title: "Sense of taste and smell start to improve"},
	{Days: 3, Title: "Breathing gets easier as bronchial tubes relax"},
	{Days: 14, Title: "Circulation improves"},
	{Days: 28, Title: "Lung function begins to improve"},
	{Days: 30, Title: "Coughing and shortness of breath decrease"},
	{Days: 90, Title: "Lung function up to 30% better"},
	{Days: 365, Title: "Risk of coronary heart disease halved"},
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

// computeStats aggregates the window and derives the streak from the full,
// date-ascending history.
func computeStats(window, history []domain.Checkin, packPrice float64) *Stats {
	st := &Stats{TrackedDays: len(window), PackPrice: packPrice}

	var moodSum, moodN, urgeSum, urgeN int
	for i := range window {
		c := &window[i]
		st.CigarettesSaved += c.Avoided()
		if c.MoodRating != nil {
			moodSum += *c.MoodRating
			moodN++
		}
		if c.UrgeIntensity != nil {
			urgeSum += *c.UrgeIntensity
			urgeN++
		}
	}
	st.MoneySaved = float64(st.CigarettesSaved) * packPrice / cigarettesPerPack
	st.AverageMood = average(moodSum, moodN)
	st.AverageUrge = average(urgeSum, urgeN)

	st.SmokeFreeStreak = smokeFreeStreak(history)
	achieved := 0
	st.Milestones = make([]Milestone, len(milestoneTable))
	for i, m := range milestoneTable {
		m.Achieved = st.SmokeFreeStreak >= m.Days
		if m.Achieved {
			achieved++
		}
		st.Milestones[i] = m
	}
	st.HealthProgress = round1(float64(achieved) * 100 / float64(len(milestoneTable)))
	return st
}

// smokeFreeStreak counts consecutive calendar days with zero cigarettes,
// ending at the most recent check-in. A missing day breaks the streak.
func smokeFreeStreak(history []domain.Checkin) int {
	streak := 0
	next := ""
	for i := len(history) - 1; i >= 0; i-- {
		c := history[i]
		if c.ActualCigarettes != 0 {
			break
		}
		if next != "" && domain.AddDays(c.Date, 1) != next {
			break
		}
		streak++
		next = c.Date
	}
	return streak
}

func average(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := round1(float64(sum) / float64(n))
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
