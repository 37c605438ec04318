package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentSvc
}

func NewAppointmentHandler(svc *service.AppointmentSvc) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// GET /api/coaches
func (h *AppointmentHandler) Coaches(c *gin.Context) {
	res, err := h.svc.Coaches(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GET /api/coaches/:coachId/availability?date=YYYY-MM-DD or ?from=&to=
func (h *AppointmentHandler) Availability(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if d := c.Query("date"); d != "" {
		from, to = d, d
	}
	if from == "" {
		abort(c, http.StatusBadRequest, "date or from is required")
		return
	}
	res, err := h.svc.Availability(c.Request.Context(), c.Param("coachId"), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GET /api/coaches/:coachId/schedule
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	res, err := h.svc.Schedule(c.Request.Context(), c.Param("coachId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// PUT /api/coaches/:coachId/schedule (coach self or ADMIN)
func (h *AppointmentHandler) SetSchedule(c *gin.Context) {
	var in struct {
		Windows []struct {
			Weekday int    `json:"weekday"`
			Start   string `json:"start" binding:"required"`
			End     string `json:"end" binding:"required"`
		} `json:"windows" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	windows := make([]domain.CoachSchedule, len(in.Windows))
	for i, w := range in.Windows {
		windows[i] = domain.CoachSchedule{Weekday: time.Weekday(w.Weekday), Start: w.Start, End: w.End}
	}
	res, err := h.svc.SetSchedule(c.Request.Context(), callerFrom(c), c.Param("coachId"), windows)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// POST /api/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var in struct {
		CoachID         string `json:"coach_id" binding:"required"`
		Date            string `json:"date" binding:"required"`
		Time            string `json:"time" binding:"required"`
		DurationMinutes int    `json:"duration_minutes"`
		Notes           string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	res, err := h.svc.Book(c.Request.Context(), callerFrom(c), service.BookingInput{
		CoachID:         in.CoachID,
		Date:            in.Date,
		Time:            in.Time,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, appointmentView(res))
}

// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, appointmentView(res))
}

// GET /api/appointments?role=client|coach&status=&from=&to=&page=1&page_size=20
func (h *AppointmentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	items, total, err := h.svc.List(c.Request.Context(), callerFrom(c), service.ListQuery{
		AsCoach: c.Query("role") == "coach",
		Status:  domain.AppointmentStatus(c.Query("status")),
		From:    c.Query("from"),
		To:      c.Query("to"),
		Page:    page - 1,
		Size:    size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]gin.H, len(items))
	for i := range items {
		views[i] = appointmentView(&items[i])
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": views, "total": total, "page": page})
}

// PATCH /api/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	res, err := h.svc.UpdateStatus(c.Request.Context(), callerFrom(c), c.Param("id"), domain.AppointmentStatus(in.Status))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, appointmentView(res))
}

// POST /api/appointments/:id/rating
func (h *AppointmentHandler) Rate(c *gin.Context) {
	var in struct {
		Rating int    `json:"rating" binding:"required"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	res, err := h.svc.Rate(c.Request.Context(), callerFrom(c), c.Param("id"), in.Rating, in.Review)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, appointmentView(res))
}

func appointmentView(a *domain.Appointment) gin.H {
	v := gin.H{
		"id":               a.ID,
		"coach_id":         a.CoachID,
		"user_id":          a.UserID,
		"date":             a.Date,
		"time":             a.Time,
		"end_time":         a.EndTime(),
		"duration_minutes": a.DurationMinutes,
		"status":           a.Status,
		"notes":            a.Notes,
		"created_at":       a.CreatedAt,
		"updated_at":       a.UpdatedAt,
	}
	if a.Rating != nil {
		v["rating"] = *a.Rating
		v["review"] = a.Review
	}
	return v
}
