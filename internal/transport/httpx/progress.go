package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
)

// checkinBody is the wire form of a check-in. It is the only place request
// field names are mapped onto domain.Metrics.
type checkinBody struct {
	PlanID           string `json:"plan_id"`
	Date             string `json:"date"`
	TargetCigarettes *int   `json:"target_cigarettes"`
	ActualCigarettes int    `json:"actual_cigarettes"`
	UrgeIntensity    *int   `json:"urge_intensity"`
	MoodRating       *int   `json:"mood_rating"`
	StressLevel      *int   `json:"stress_level"`
	SleepQuality     *int   `json:"sleep_quality"`
	ExerciseMinutes  int    `json:"exercise_minutes"`
	WaterGlasses     int    `json:"water_glasses"`
	Notes            string `json:"notes"`
}

func (b checkinBody) metrics() domain.Metrics {
	return domain.Metrics{
		TargetCigarettes: b.TargetCigarettes,
		ActualCigarettes: b.ActualCigarettes,
		UrgeIntensity:    b.UrgeIntensity,
		MoodRating:       b.MoodRating,
		StressLevel:      b.StressLevel,
		SleepQuality:     b.SleepQuality,
		ExerciseMinutes:  b.ExerciseMinutes,
		WaterGlasses:     b.WaterGlasses,
		Notes:            b.Notes,
	}
}

type ProgressHandler struct {
	svc *service.ProgressSvc
}

func NewProgressHandler(svc *service.ProgressSvc) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

// planID reads plan_id from the query string, falling back to the body value
// on writes. Both present and different is a client error.
func planID(c *gin.Context, fromBody string) (string, bool) {
	q := c.Query("plan_id")
	if q != "" && fromBody != "" && q != fromBody {
		abort(c, http.StatusBadRequest, "plan_id in query and body disagree")
		return "", false
	}
	if q == "" {
		q = fromBody
	}
	if q == "" {
		abort(c, http.StatusBadRequest, "plan_id is required")
		return "", false
	}
	return q, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		abort(c, http.StatusBadRequest, key+" must be an integer")
		return 0, false
	}
	return n, true
}

// POST /api/progress/checkin/:userId?plan_id=
func (h *ProgressHandler) Create(c *gin.Context) {
	var in checkinBody
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	pid, okp := planID(c, in.PlanID)
	if !okp {
		return
	}
	res, err := h.svc.CreateCheckin(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, in.Date, in.metrics())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// GET /api/progress/checkin/:userId/:date?plan_id=
func (h *ProgressHandler) Get(c *gin.Context) {
	pid, okp := planID(c, "")
	if !okp {
		return
	}
	res, err := h.svc.GetCheckin(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// PUT /api/progress/checkin/:userId/:date?plan_id=
func (h *ProgressHandler) Update(c *gin.Context) {
	var in checkinBody
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	pid, okp := planID(c, in.PlanID)
	if !okp {
		return
	}
	res, err := h.svc.UpdateCheckin(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, c.Param("date"), in.metrics())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// DELETE /api/progress/checkin/:userId/:date?plan_id=
func (h *ProgressHandler) Delete(c *gin.Context) {
	pid, okp := planID(c, "")
	if !okp {
		return
	}
	if err := h.svc.DeleteCheckin(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, c.Param("date")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/progress/user/:userId?plan_id=&start=&end=&limit=
func (h *ProgressHandler) List(c *gin.Context) {
	pid, okp := planID(c, "")
	if !okp {
		return
	}
	limit, okl := queryInt(c, "limit")
	if !okl {
		return
	}
	res, err := h.svc.UserProgress(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, c.Query("start"), c.Query("end"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GET /api/progress/user/:userId/dates?plan_id=
func (h *ProgressHandler) Dates(c *gin.Context) {
	pid, okp := planID(c, "")
	if !okp {
		return
	}
	res, err := h.svc.CheckinDates(c.Request.Context(), callerFrom(c), c.Param("userId"), pid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GET /api/progress/stats/:userId?plan_id=&days=
func (h *ProgressHandler) Stats(c *gin.Context) {
	pid, okp := planID(c, "")
	if !okp {
		return
	}
	days, okd := queryInt(c, "days")
	if !okd {
		return
	}
	res, err := h.svc.Stats(c.Request.Context(), callerFrom(c), c.Param("userId"), pid, days)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
