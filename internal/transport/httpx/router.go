package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
	"github.com/you/nosmoke/pkg/auth"
)

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth         *service.AuthSvc
	Plans        *service.PlanSvc
	Progress     *service.ProgressSvc
	Appointments *service.AppointmentSvc
	Signer       *auth.Signer
	DB           Pinger
	Log          *log.Logger
	// ServiceName enables otelgin tracing when set.
	ServiceName string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Log))
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			if err := d.DB.PingContext(ctx); err != nil {
				abort(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		ok(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	ah := NewAuthHandler(d.Auth)
	api.POST("/auth/register", ah.Register)
	api.POST("/auth/login", ah.Login)

	secured := api.Group("")
	secured.Use(JWTAuth(d.Signer))

	secured.GET("/users/me", ah.Me)
	secured.PUT("/users/me", ah.UpdateMe)

	ph := NewPlanHandler(d.Plans)
	plans := secured.Group("/plans")
	{
		plans.POST("", ph.Create)
		plans.GET("/user/:userId", ph.ListByUser)
		plans.GET("/user/:userId/active", ph.Active)
		plans.GET("/:planId", ph.Get)
		plans.PATCH("/:planId/status", ph.Close)
	}

	pr := NewProgressHandler(d.Progress)
	progress := secured.Group("/progress")
	{
		progress.POST("/checkin/:userId", pr.Create)
		progress.GET("/checkin/:userId/:date", pr.Get)
		progress.PUT("/checkin/:userId/:date", pr.Update)
		progress.DELETE("/checkin/:userId/:date", pr.Delete)
		progress.GET("/user/:userId", pr.List)
		progress.GET("/user/:userId/dates", pr.Dates)
		progress.GET("/stats/:userId", pr.Stats)
	}

	aph := NewAppointmentHandler(d.Appointments)
	coaches := secured.Group("/coaches")
	{
		coaches.GET("", aph.Coaches)
		coaches.GET("/:coachId/availability", aph.Availability)
		coaches.GET("/:coachId/schedule", aph.Schedule)
		coaches.PUT("/:coachId/schedule", RequireRole(domain.RoleCoach, domain.RoleAdmin), aph.SetSchedule)
	}
	appts := secured.Group("/appointments")
	{
		appts.POST("", aph.Create)
		appts.GET("", aph.List)
		appts.GET("/:id", aph.Get)
		appts.PATCH("/:id/status", aph.UpdateStatus)
		appts.POST("/:id/rating", aph.Rate)
	}

	return r
}
