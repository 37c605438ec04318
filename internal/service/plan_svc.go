package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/repository"
)

type PlanSvc struct {
	repo             *repository.PlanRepo
	defaultPackPrice float64
}

func NewPlanSvc(r *repository.PlanRepo, defaultPackPrice float64) *PlanSvc {
	return &PlanSvc{repo: r, defaultPackPrice: defaultPackPrice}
}

type PlanInput struct {
	Name              string
	StartDate         string
	InitialCigarettes int
	WeeklyTargets     []int
	PackPrice         float64
}

// Create starts a new plan for userID; any previously active plan is superseded.
func (s *PlanSvc) Create(ctx context.Context, caller Caller, userID string, in PlanInput) (*domain.QuitPlan, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot create plans for another user")
	}
	p := &domain.QuitPlan{
		UserID:            userID,
		Name:              strings.TrimSpace(in.Name),
		StartDate:         in.StartDate,
		InitialCigarettes: in.InitialCigarettes,
		WeeklyTargets:     in.WeeklyTargets,
		DurationWeeks:     len(in.WeeklyTargets),
		PackPrice:         in.PackPrice,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.PackPrice == 0 {
		p.PackPrice = s.defaultPackPrice
	}
	if p.Name == "" {
		p.Name = "Quit plan from " + p.StartDate
	}
	if err := s.repo.CreateSuperseding(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a plan visible to the caller. Plans of other users read as not found.
func (s *PlanSvc) Get(ctx context.Context, caller Caller, id string) (*domain.QuitPlan, error) {
	p, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessUser(p.UserID) {
		return nil, domain.NotFoundf("plan not found")
	}
	return p, nil
}

func (s *PlanSvc) ListByUser(ctx context.Context, caller Caller, userID string) ([]domain.QuitPlan, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot read another user's plans")
	}
	return s.repo.ByUser(ctx, userID)
}

func (s *PlanSvc) Active(ctx context.Context, caller Caller, userID string) (*domain.QuitPlan, error) {
	if !caller.CanAccessUser(userID) {
		return nil, domain.Forbiddenf("cannot read another user's plans")
	}
	return s.repo.ActiveByUser(ctx, userID)
}

// Close ends an active plan as completed or abandoned.
func (s *PlanSvc) Close(ctx context.Context, caller Caller, id string, to domain.PlanStatus) (*domain.QuitPlan, error) {
	if to != domain.PlanCompleted && to != domain.PlanAbandoned {
		return nil, domain.Invalidf("status must be completed or abandoned")
	}
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PlanActive {
		return nil, fmt.Errorf("%w: plan is already %s", domain.ErrConflict, p.Status)
	}
	return s.repo.UpdateStatus(ctx, id, to)
}
