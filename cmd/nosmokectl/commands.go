package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/you/nosmoke/pkg/client"
)

// PlanScope resolves the caller and, when no plan is given, their active plan.
type PlanScope struct {
	Plan string `help:"Plan id; defaults to the active plan." env:"NOSMOKE_PLAN"`
}

func (p PlanScope) resolve(app *Context) (userID, planID string, err error) {
	me, err := app.Client.Me(app.Ctx)
	if err != nil {
		return "", "", err
	}
	if p.Plan != "" {
		return me.ID, p.Plan, nil
	}
	plan, err := app.Client.ActivePlan(app.Ctx, me.ID)
	if err != nil {
		return "", "", fmt.Errorf("no plan given and no active plan: %w", err)
	}
	return me.ID, plan.ID, nil
}

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `arg:"" help:"Account password."`
}

func (c *LoginCmd) Run(app *Context) error {
	res, err := app.Client.Login(app.Ctx, c.Email, c.Password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", res.User.Email, res.User.Role)
	fmt.Printf("export NOSMOKE_TOKEN=%s\n", res.AccessToken)
	return nil
}

type CheckinCmd struct {
	PlanScope `embed:""`

	Date     string `help:"Date (YYYY-MM-DD); defaults to today."`
	Smoked   int    `arg:"" help:"Cigarettes smoked."`
	Target   *int   `help:"Target for the day; defaults to the plan's weekly target."`
	Urge     *int   `help:"Urge intensity 1-10."`
	Mood     *int   `help:"Mood 1-10."`
	Stress   *int   `help:"Stress 1-10."`
	Sleep    *int   `help:"Sleep quality 1-10."`
	Exercise int    `help:"Exercise minutes."`
	Water    int    `help:"Glasses of water."`
	Notes    string `help:"Free-form notes."`
	Update   bool   `help:"Replace an existing check-in instead of creating one."`
}

func (c *CheckinCmd) Run(app *Context) error {
	userID, planID, err := c.resolve(app)
	if err != nil {
		return err
	}
	m := client.Metrics{
		Date:             c.Date,
		TargetCigarettes: c.Target,
		ActualCigarettes: c.Smoked,
		UrgeIntensity:    c.Urge,
		MoodRating:       c.Mood,
		StressLevel:      c.Stress,
		SleepQuality:     c.Sleep,
		ExerciseMinutes:  c.Exercise,
		WaterGlasses:     c.Water,
		Notes:            c.Notes,
	}
	var ci *client.Checkin
	if c.Update {
		if c.Date == "" {
			return fmt.Errorf("--date is required with --update")
		}
		ci, err = app.Client.UpdateCheckin(app.Ctx, userID, planID, c.Date, m)
	} else {
		ci, err = app.Client.CreateCheckin(app.Ctx, userID, planID, m)
	}
	if err != nil {
		return err
	}
	target := "-"
	if ci.TargetCigarettes != nil {
		target = fmt.Sprint(*ci.TargetCigarettes)
	}
	fmt.Printf("%s: smoked %d, target %s\n", ci.Date, ci.ActualCigarettes, target)
	return nil
}

type ProgressCmd struct {
	PlanScope `embed:""`

	Start string `help:"First date, inclusive."`
	End   string `help:"Last date, inclusive."`
	Limit int    `help:"Maximum rows." default:"30"`
}

func (c *ProgressCmd) Run(app *Context) error {
	userID, planID, err := c.resolve(app)
	if err != nil {
		return err
	}
	rows, err := app.Client.ListProgress(app.Ctx, userID, planID, client.ProgressQuery{Start: c.Start, End: c.End, Limit: c.Limit})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No check-ins.")
		return nil
	}
	fmt.Printf("%-10s  %6s  %6s  %4s  %4s\n", "DATE", "SMOKED", "TARGET", "MOOD", "URGE")
	for _, r := range rows {
		fmt.Printf("%-10s  %6d  %6s  %4s  %4s\n", r.Date, r.ActualCigarettes, opt(r.TargetCigarettes), opt(r.MoodRating), opt(r.UrgeIntensity))
	}
	return nil
}

type StatsCmd struct {
	PlanScope `embed:""`

	Days int `help:"Window in days, ending today." default:"30"`
}

func (c *StatsCmd) Run(app *Context) error {
	userID, planID, err := c.resolve(app)
	if err != nil {
		return err
	}
	st, err := app.Client.Stats(app.Ctx, userID, planID, c.Days)
	if err != nil {
		return err
	}
	fmt.Printf("%s to %s (%d tracked days)\n", st.From, st.To, st.TrackedDays)
	fmt.Printf("Cigarettes avoided: %s\n", humanize.Comma(int64(st.CigarettesSaved)))
	fmt.Printf("Money saved:        %s\n", humanize.CommafWithDigits(st.MoneySaved, 0))
	fmt.Printf("Smoke-free streak:  %d days\n", st.SmokeFreeStreak)
	fmt.Printf("Health progress:    %.1f%%\n", st.HealthProgress)
	for _, m := range st.Milestones {
		mark := " "
		if m.Achieved {
			mark = "x"
		}
		fmt.Printf("  [%s] %s day: %s\n", mark, humanize.Ordinal(m.Days), m.Title)
	}
	return nil
}

type AvailabilityCmd struct {
	Coach string `arg:"" help:"Coach id."`
	From  string `arg:"" help:"First date (YYYY-MM-DD)."`
	To    string `arg:"" optional:"" help:"Last date; defaults to From."`
}

func (c *AvailabilityCmd) Run(app *Context) error {
	days, err := app.Client.Availability(app.Ctx, c.Coach, c.From, c.To)
	if err != nil {
		return err
	}
	for _, d := range days {
		slots := make([]string, len(d.Slots))
		for i, s := range d.Slots {
			slots[i] = s.Start
		}
		if len(slots) == 0 {
			fmt.Printf("%s  (none)\n", d.Date)
			continue
		}
		fmt.Printf("%s  %s\n", d.Date, strings.Join(slots, " "))
	}
	return nil
}

type BookCmd struct {
	Coach    string `arg:"" help:"Coach id."`
	Date     string `arg:"" help:"Date (YYYY-MM-DD)."`
	Time     string `arg:"" help:"Start time (HH:MM)."`
	Duration int    `help:"Length in minutes; defaults to the slot length."`
	Notes    string `help:"Notes for the coach."`
}

func (c *BookCmd) Run(app *Context) error {
	a, err := app.Client.Book(app.Ctx, client.BookingRequest{
		CoachID:         c.Coach,
		Date:            c.Date,
		Time:            c.Time,
		DurationMinutes: c.Duration,
		Notes:           c.Notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Booked %s %s-%s (%s), id %s\n", a.Date, a.Time, a.EndTime, a.Status, a.ID)
	return nil
}

func opt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
