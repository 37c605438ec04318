package service

import (
	"context"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/internal/repository"
)

const (
	defaultProgressLimit = 30
	maxProgressLimit     = 365
	defaultStatsDays     = 30
	maxStatsDays         = 3650
)

// ProgressSvc manages daily check-ins. Every operation is scoped by (user, plan).
type ProgressSvc struct {
	checkins         *repository.CheckinRepo
	plans            *repository.PlanRepo
	pub              events.Publisher // best-effort, never errors
	now              Clock
	defaultPackPrice float64
}

func NewProgressSvc(c *repository.CheckinRepo, p *repository.PlanRepo, pub events.Publisher, defaultPackPrice float64) *ProgressSvc {
	return &ProgressSvc{checkins: c, plans: p, pub: events.BestEffort(pub), now: systemClock, defaultPackPrice: defaultPackPrice}
}

// WithClock replaces the time source.
func (s *ProgressSvc) WithClock(now Clock) *ProgressSvc {
	s.now = now
	return s
}

// ownedPlan loads planID and checks it belongs to userID. A missing or foreign
// plan is a client error here, not a not-found.
func (s *ProgressSvc) ownedPlan(ctx context.Context, userID, planID string) (*domain.QuitPlan, error) {
	if planID == "" {
		return nil, domain.ErrPlanRequired
	}
	p, err := s.plans.ByID(ctx, planID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.Invalidf("plan_id %s does not exist", planID)
		}
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.Invalidf("plan_id %s does not belong to this user", planID)
	}
	return p, nil
}

// CreateCheckin records the day's metrics; an empty date means today.
// A second check-in for the same (user, plan, date) is a conflict, never an overwrite.
func (s *ProgressSvc) CreateCheckin(ctx context.Context, caller Caller, userID, planID, date string, m domain.Metrics) (*domain.Checkin, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot check in for another user")
	}
	if planID == "" {
		return nil, domain.ErrPlanRequired
	}
	if date == "" {
		date = today(s.now)
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	if date > today(s.now) {
		return nil, domain.Invalidf("date %s is in the future", date)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanActive {
		return nil, domain.Invalidf("plan %s is %s; check-ins require an active plan", plan.ID, plan.Status)
	}
	if m.TargetCigarettes == nil {
		t := plan.TargetFor(date)
		m.TargetCigarettes = &t
	}

	c := &domain.Checkin{UserID: userID, PlanID: planID, Date: date, Metrics: m}
	if err := s.checkins.Create(ctx, c); err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, events.RKCheckinCreated, checkinEvent(c))
	return c, nil
}

func (s *ProgressSvc) GetCheckin(ctx context.Context, caller Caller, userID, planID, date string) (*domain.Checkin, error) {
	if err := s.keyCheck(caller, userID, planID, date); err != nil {
		return nil, err
	}
	return s.checkins.ByKey(ctx, userID, planID, date)
}

// UpdateCheckin replaces the metrics of an existing check-in. An omitted target
// falls back to the plan's target for that date.
func (s *ProgressSvc) UpdateCheckin(ctx context.Context, caller Caller, userID, planID, date string, m domain.Metrics) (*domain.Checkin, error) {
	if err := s.keyCheck(caller, userID, planID, date); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.TargetCigarettes == nil {
		plan, err := s.plans.ByID(ctx, planID)
		if err != nil {
			return nil, domain.NotFoundf("check-in not found")
		}
		t := plan.TargetFor(date)
		m.TargetCigarettes = &t
	}
	c, err := s.checkins.ReplaceMetrics(ctx, userID, planID, date, m)
	if err != nil {
		return nil, err
	}
	_ = s.pub.PublishJSON(ctx, events.RKCheckinUpdated, checkinEvent(c))
	return c, nil
}

func (s *ProgressSvc) DeleteCheckin(ctx context.Context, caller Caller, userID, planID, date string) error {
	if err := s.keyCheck(caller, userID, planID, date); err != nil {
		return err
	}
	if err := s.checkins.Delete(ctx, userID, planID, date); err != nil {
		return err
	}
	_ = s.pub.PublishJSON(ctx, events.RKCheckinDeleted, events.Checkin{UserID: userID, PlanID: planID, Date: date})
	return nil
}

// UserProgress lists check-ins with start <= date <= end, oldest first, capped at limit.
func (s *ProgressSvc) UserProgress(ctx context.Context, caller Caller, userID, planID, start, end string, limit int) ([]domain.Checkin, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot read another user's progress")
	}
	if planID == "" {
		return nil, domain.ErrPlanRequired
	}
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := domain.ParseDate(d); err != nil {
			return nil, err
		}
	}
	if start != "" && end != "" && start > end {
		return nil, domain.Invalidf("start must not be after end")
	}
	switch {
	case limit < 0:
		return nil, domain.Invalidf("limit must be positive")
	case limit == 0:
		limit = defaultProgressLimit
	case limit > maxProgressLimit:
		limit = maxProgressLimit
	}
	return s.checkins.Range(ctx, userID, planID, start, end, limit)
}

// CheckinDates lists every date with a check-in under the plan.
func (s *ProgressSvc) CheckinDates(ctx context.Context, caller Caller, userID, planID string) ([]string, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot read another user's progress")
	}
	if planID == "" {
		return nil, domain.ErrPlanRequired
	}
	return s.checkins.Dates(ctx, userID, planID)
}

// Stats aggregates the last days calendar days, today included.
func (s *ProgressSvc) Stats(ctx context.Context, caller Caller, userID, planID string, days int) (*Stats, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot read another user's progress")
	}
	if planID == "" {
		return nil, domain.ErrPlanRequired
	}
	switch {
	case days < 0:
		return nil, domain.Invalidf("days must be positive")
	case days == 0:
		days = defaultStatsDays
	case days > maxStatsDays:
		days = maxStatsDays
	}
	plan, err := s.plans.ByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		return nil, domain.NotFoundf("plan not found")
	}

	end := today(s.now)
	start := domain.AddDays(end, -(days - 1))
	window, err := s.checkins.Range(ctx, userID, planID, start, end, 0)
	if err != nil {
		return nil, err
	}
	history, err := s.checkins.Range(ctx, userID, planID, "", end, 0)
	if err != nil {
		return nil, err
	}

	price := plan.PackPrice
	if price <= 0 {
		price = s.defaultPackPrice
	}
	st := computeStats(window, history, price)
	st.PlanID = planID
	st.Days = days
	st.From = start
	st.To = end
	return st, nil
}

func (s *ProgressSvc) keyCheck(caller Caller, userID, planID, date string) error {
	if !caller.CanAccessUser(userID) {
		return domain.Forbiddenf("cannot access another user's check-ins")
	}
	if planID == "" {
		return domain.ErrPlanRequired
	}
	_, err := domain.ParseDate(date)
	return err
}

func checkinEvent(c *domain.Checkin) events.Checkin {
	return events.Checkin{
		UserID:           c.UserID,
		PlanID:           c.PlanID,
		Date:             c.Date,
		ActualCigarettes: c.ActualCigarettes,
		TargetCigarettes: c.Target(),
	}
}
