package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
)

type PlanHandler struct {
	svc *service.PlanSvc
}

func NewPlanHandler(svc *service.PlanSvc) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// POST /api/plans creates a plan for the caller. Admins may pass user_id.
func (h *PlanHandler) Create(c *gin.Context) {
	var in struct {
		UserID            string  `json:"user_id"`
		Name              string  `json:"name"`
		StartDate         string  `json:"start_date" binding:"required"`
		InitialCigarettes int     `json:"initial_cigarettes"`
		WeeklyTargets     []int   `json:"weekly_targets" binding:"required"`
		PackPrice         float64 `json:"pack_price"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	caller := callerFrom(c)
	userID := in.UserID
	if userID == "" {
		userID = caller.ID
	}
	p, err := h.svc.Create(c.Request.Context(), caller, userID, service.PlanInput{
		Name:              in.Name,
		StartDate:         in.StartDate,
		InitialCigarettes: in.InitialCigarettes,
		WeeklyTargets:     in.WeeklyTargets,
		PackPrice:         in.PackPrice,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, planView(p))
}

func (h *PlanHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), callerFrom(c), c.Param("planId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, planView(p))
}

func (h *PlanHandler) ListByUser(c *gin.Context) {
	ps, err := h.svc.ListByUser(c.Request.Context(), callerFrom(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]gin.H, len(ps))
	for i := range ps {
		views[i] = planView(&ps[i])
	}
	ok(c, http.StatusOK, views)
}

func (h *PlanHandler) Active(c *gin.Context) {
	p, err := h.svc.Active(c.Request.Context(), callerFrom(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, planView(p))
}

// PATCH /api/plans/:planId/status
func (h *PlanHandler) Close(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	p, err := h.svc.Close(c.Request.Context(), callerFrom(c), c.Param("planId"), domain.PlanStatus(in.Status))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, planView(p))
}

func planView(p *domain.QuitPlan) gin.H {
	return gin.H{
		"id":                 p.ID,
		"user_id":            p.UserID,
		"name":               p.Name,
		"start_date":         p.StartDate,
		"end_date":           p.EndDate(),
		"initial_cigarettes": p.InitialCigarettes,
		"weekly_targets":     p.WeeklyTargets,
		"duration_weeks":     p.DurationWeeks,
		"pack_price":         p.PackPrice,
		"status":             p.Status,
		"created_at":         p.CreatedAt,
		"updated_at":         p.UpdatedAt,
	}
}
