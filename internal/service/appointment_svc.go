package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/internal/repository"
)

const maxAvailabilityDays = 31

// BookingConfig holds the defaults used when a coach has no explicit schedule.
type BookingConfig struct {
	SlotMinutes int
	DayStart    string // HH:MM
	DayEnd      string // HH:MM
}

type AppointmentSvc struct {
	appts     *repository.AppointmentRepo
	schedules *repository.ScheduleRepo
	users     *repository.UserRepo
	pub       events.Publisher // best-effort, never errors
	now       Clock

	slot          int
	defaultWindow domain.Interval
}

func NewAppointmentSvc(a *repository.AppointmentRepo, sch *repository.ScheduleRepo, u *repository.UserRepo, pub events.Publisher, cfg BookingConfig) (*AppointmentSvc, error) {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 60
	}
	win := domain.CoachSchedule{Start: cfg.DayStart, End: cfg.DayEnd}
	iv, err := win.Window()
	if err != nil {
		return nil, fmt.Errorf("default coach hours: %w", err)
	}
	return &AppointmentSvc{
		appts: a, schedules: sch, users: u, pub: events.BestEffort(pub), now: systemClock,
		slot: cfg.SlotMinutes, defaultWindow: iv,
	}, nil
}

func (s *AppointmentSvc) WithClock(now Clock) *AppointmentSvc {
	s.now = now
	return s
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

func (s *AppointmentSvc) activeCoach(ctx context.Context, coachID string) (*domain.User, error) {
	if coachID == "" {
		return nil, domain.Invalidf("coach_id is required")
	}
	u, err := s.users.ByID(ctx, coachID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFoundf("coach not found")
		}
		return nil, err
	}
	if u.Role != domain.RoleCoach || !u.Active {
		return nil, domain.NotFoundf("coach not found")
	}
	return u, nil
}

func (s *AppointmentSvc) Coaches(ctx context.Context) ([]domain.User, error) {
	return s.users.ActiveByRole(ctx, domain.RoleCoach)
}

// Schedule returns the coach's effective weekly windows: the stored schedule,
// or Mon-Fri default hours when none is stored.
func (s *AppointmentSvc) Schedule(ctx context.Context, coachID string) ([]domain.CoachSchedule, error) {
	if _, err := s.activeCoach(ctx, coachID); err != nil {
		return nil, err
	}
	rows, err := s.schedules.ByCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}
	out := make([]domain.CoachSchedule, 0, 5)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		out = append(out, domain.CoachSchedule{
			CoachID: coachID,
			Weekday: wd,
			Start:   domain.FormatClock(s.defaultWindow.Start),
			End:     domain.FormatClock(s.defaultWindow.End),
		})
	}
	return out, nil
}

// SetSchedule replaces a coach's weekly working windows.
func (s *AppointmentSvc) SetSchedule(ctx context.Context, caller Caller, coachID string, windows []domain.CoachSchedule) ([]domain.CoachSchedule, error) {
	if caller.ID != coachID && !caller.IsAdmin() {
		return nil, domain.Forbiddenf("only the coach or an admin can change this schedule")
	}
	if _, err := s.activeCoach(ctx, coachID); err != nil {
		return nil, err
	}
	byDay := map[time.Weekday][]domain.Interval{}
	for _, w := range windows {
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			return nil, domain.Invalidf("weekday must be 0-6")
		}
		iv, err := w.Window()
		if err != nil {
			return nil, err
		}
		for _, other := range byDay[w.Weekday] {
			if iv.Overlaps(other) {
				return nil, domain.Invalidf("windows overlap on %s", w.Weekday)
			}
		}
		byDay[w.Weekday] = append(byDay[w.Weekday], iv)
	}
	if err := s.schedules.Replace(ctx, coachID, windows); err != nil {
		return nil, err
	}
	return s.Schedule(ctx, coachID)
}

func (s *AppointmentSvc) windows(ctx context.Context, coachID string) (map[time.Weekday][]domain.Interval, error) {
	rows, err := s.Schedule(ctx, coachID)
	if err != nil {
		return nil, err
	}
	out := map[time.Weekday][]domain.Interval{}
	for _, r := range rows {
		iv, err := r.Window()
		if err != nil {
			return nil, err
		}
		out[r.Weekday] = append(out[r.Weekday], iv)
	}
	return out, nil
}

// Availability computes open slots per date in [from, to]: candidate slots are
// cut from the coach's working windows, then any slot that intersects a
// non-cancelled appointment is dropped. Past dates, and slots of today that
// have already started, are not open.
func (s *AppointmentSvc) Availability(ctx context.Context, coachID, from, to string) ([]DayAvailability, error) {
	if to == "" {
		to = from
	}
	span, err := domain.DaysBetween(from, to)
	if err != nil {
		return nil, err
	}
	if span < 0 {
		return nil, domain.Invalidf("from must not be after to")
	}
	if span >= maxAvailabilityDays {
		return nil, domain.Invalidf("range must not exceed %d days", maxAvailabilityDays)
	}
	win, err := s.windows(ctx, coachID)
	if err != nil {
		return nil, err
	}
	booked, err := s.appts.Booked(ctx, coachID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := map[string][]domain.Interval{}
	for _, a := range booked {
		byDate[a.Date] = append(byDate[a.Date], a.Interval())
	}

	now := today(s.now)
	nowMin := minuteOfDay(s.now())
	out := make([]DayAvailability, 0, span+1)
	for i := 0; i <= span; i++ {
		date := domain.AddDays(from, i)
		day := DayAvailability{Date: date, Slots: []Slot{}, Booked: []Slot{}}
		for _, b := range byDate[date] {
			day.Booked = append(day.Booked, toSlot(b))
		}
		if date >= now {
			t, _ := domain.ParseDate(date)
			for _, w := range win[t.Weekday()] {
				for st := w.Start; st+s.slot <= w.End; st += s.slot {
					cand := domain.Interval{Start: st, End: st + s.slot}
					if date == now && cand.Start < nowMin {
						continue
					}
					if !overlapsAny(cand, byDate[date]) {
						day.Slots = append(day.Slots, toSlot(cand))
					}
				}
			}
		}
		out = append(out, day)
	}
	return out, nil
}

type BookingInput struct {
	CoachID         string
	Date            string
	Time            string
	DurationMinutes int
	Notes           string
}

// Book creates a pending appointment. The overlap check and the insert share a
// transaction in the repository.
func (s *AppointmentSvc) Book(ctx context.Context, caller Caller, in BookingInput) (*domain.Appointment, error) {
	if _, err := domain.ParseDate(in.Date); err != nil {
		return nil, err
	}
	if in.Date < today(s.now) {
		return nil, domain.Invalidf("date %s is in the past", in.Date)
	}
	start, err := domain.ParseClock(in.Time)
	if err != nil {
		return nil, err
	}
	dur := in.DurationMinutes
	if dur == 0 {
		dur = s.slot
	}
	if dur < domain.MinAppointmentMinutes || dur > domain.MaxAppointmentMinutes {
		return nil, domain.Invalidf("duration_minutes must be between %d and %d", domain.MinAppointmentMinutes, domain.MaxAppointmentMinutes)
	}
	if in.Date == today(s.now) && start < minuteOfDay(s.now()) {
		return nil, domain.Invalidf("time %s on %s has already passed", in.Time, in.Date)
	}
	iv := domain.Interval{Start: start, End: start + dur}
	if caller.ID == in.CoachID {
		return nil, domain.Invalidf("coaches cannot book themselves")
	}
	if _, err := s.activeCoach(ctx, in.CoachID); err != nil {
		return nil, err
	}
	win, err := s.windows(ctx, in.CoachID)
	if err != nil {
		return nil, err
	}
	t, _ := domain.ParseDate(in.Date)
	if !fitsAny(iv, win[t.Weekday()]) {
		return nil, domain.Invalidf("%s-%s on %s is outside the coach's working hours", in.Time, domain.FormatClock(iv.End), in.Date)
	}

	a := &domain.Appointment{
		CoachID:         in.CoachID,
		UserID:          caller.ID,
		Date:            in.Date,
		Time:            domain.FormatClock(start),
		DurationMinutes: dur,
		StartMin:        iv.Start,
		EndMin:          iv.End,
		Status:          domain.StatusPending,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if err := s.appts.CreateWithNoOverlap(ctx, a); err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, events.RKAppointmentCreated, appointmentEvent(a))
	return a, nil
}

// UpdateStatus moves an appointment along pending -> confirmed -> completed,
// or to cancelled from either non-terminal state. Only the coach (or an admin)
// may confirm or complete; either party may cancel.
func (s *AppointmentSvc) UpdateStatus(ctx context.Context, caller Caller, id string, to domain.AppointmentStatus) (*domain.Appointment, error) {
	if !to.Valid() {
		return nil, domain.Invalidf("status must be one of pending, confirmed, cancelled, completed")
	}
	a, err := s.appts.Update(ctx, id, func(a *domain.Appointment) error {
		if !participant(caller, a) {
			return domain.NotFoundf("appointment not found")
		}
		if !a.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, a.Status, to)
		}
		if (to == domain.StatusConfirmed || to == domain.StatusCompleted) && caller.ID != a.CoachID && !caller.IsAdmin() {
			return domain.Forbiddenf("only the coach can mark an appointment %s", to)
		}
		now := s.now()
		switch to {
		case domain.StatusConfirmed:
			a.ConfirmedAt = &now
		case domain.StatusCancelled:
			a.CancelledAt = &now
		case domain.StatusCompleted:
			a.CompletedAt = &now
		}
		a.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, "appointment."+string(a.Status), appointmentEvent(a))
	return a, nil
}

// Rate records the client's 1-5 rating of a completed appointment, once.
func (s *AppointmentSvc) Rate(ctx context.Context, caller Caller, id string, rating int, review string) (*domain.Appointment, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Invalidf("rating must be between 1 and 5")
	}
	a, err := s.appts.Update(ctx, id, func(a *domain.Appointment) error {
		if !participant(caller, a) {
			return domain.NotFoundf("appointment not found")
		}
		if caller.ID != a.UserID {
			return domain.Forbiddenf("only the client can rate an appointment")
		}
		if a.Status != domain.StatusCompleted {
			return domain.Invalidf("only completed appointments can be rated")
		}
		if a.Rating != nil {
			return fmt.Errorf("%w: appointment already rated", domain.ErrConflict)
		}
		a.Rating = &rating
		a.Review = strings.TrimSpace(review)
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, events.RKAppointmentRated, appointmentEvent(a))
	return a, nil
}

func (s *AppointmentSvc) Get(ctx context.Context, caller Caller, id string) (*domain.Appointment, error) {
	a, err := s.appts.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !participant(caller, a) {
		return nil, domain.NotFoundf("appointment not found")
	}
	return a, nil
}

// ListQuery selects the caller's appointments, as client or as coach. Page is
// zero-based; From and To bound the date inclusively when set.
type ListQuery struct {
	AsCoach bool
	Status  domain.AppointmentStatus
	From    string
	To      string
	Page    int
	Size    int
}

func (s *AppointmentSvc) List(ctx context.Context, caller Caller, q ListQuery) ([]domain.Appointment, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, domain.Invalidf("unknown status %q", q.Status)
	}
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := domain.ParseDate(d); err != nil {
			return nil, 0, err
		}
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		return nil, 0, domain.Invalidf("from must not be after to")
	}
	f := repository.ListFilter{Status: q.Status, From: q.From, To: q.To, Page: q.Page, Size: q.Size}
	if q.AsCoach {
		f.CoachID = caller.ID
	} else {
		f.UserID = caller.ID
	}
	return s.appts.List(ctx, f)
}

func participant(c Caller, a *domain.Appointment) bool {
	return c.ID == a.UserID || c.ID == a.CoachID || c.IsAdmin()
}

func overlapsAny(iv domain.Interval, others []domain.Interval) bool {
	for _, o := range others {
		if iv.Overlaps(o) {
			return true
		}
	}
	return false
}

func fitsAny(iv domain.Interval, windows []domain.Interval) bool {
	for _, w := range windows {
		if iv.Start >= w.Start && iv.End <= w.End {
			return true
		}
	}
	return false
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func toSlot(iv domain.Interval) Slot {
	return Slot{Start: domain.FormatClock(iv.Start), End: domain.FormatClock(iv.End)}
}

func appointmentEvent(a *domain.Appointment) events.Appointment {
	ev := events.Appointment{
		AppointmentID:   a.ID,
		CoachID:         a.CoachID,
		UserID:          a.UserID,
		Date:            a.Date,
		Time:            a.Time,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
	}
	if a.Rating != nil {
		ev.Rating = *a.Rating
	}
	return ev
}
