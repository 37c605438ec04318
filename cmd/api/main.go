package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/internal/service"
	"github.com/you/nosmoke/internal/transport/httpx"
	"github.com/you/nosmoke/pkg/auth"
	"github.com/you/nosmoke/pkg/config"
	"github.com/you/nosmoke/pkg/db"
	"github.com/you/nosmoke/pkg/logger"
	"github.com/you/nosmoke/pkg/mq"
	"github.com/you/nosmoke/pkg/obs"
)

const serviceName = "nosmoke-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}
	lg := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile, Prefix: "api"})
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing := ""
	if cfg.OtelEnabled {
		shutdown, err := obs.InitTracer(ctx, serviceName, cfg.OtelEndpoint, cfg.Env)
		if err != nil {
			lg.Warn("tracing disabled", "err", err)
		} else {
			tracing = serviceName
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Events are optional; without RabbitMQ they are dropped.
	var pub events.Publisher = events.Noop{}
	if cfg.RabbitURL != "" {
		p, err := mq.NewPublisher(cfg.RabbitURL, cfg.EventsExchange, serviceName)
		if err != nil {
			lg.Warn("event publishing disabled", "err", err)
		} else {
			defer p.Close()
			pub = events.Logged(p, lg.WithPrefix("events"))
		}
	}

	r, sqlDB, err := build(ctx, cfg, lg, pub, tracing)
	if err != nil {
		lg.Fatal("startup failed", "err", err)
	}
	defer sqlDB.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "err", err)
		os.Exit(1)
	}
	lg.Info("stopped")
}

// build opens and migrates the database, seeds the admin and wires the
// services into a router.
func build(ctx context.Context, cfg config.App, lg *log.Logger, pub events.Publisher, tracing string) (*gin.Engine, *sql.DB, error) {
	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN, lg, cfg.DBLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("db handle: %w", err)
	}
	fail := func(err error) (*gin.Engine, *sql.DB, error) {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	if err := repository.Migrate(gdb); err != nil {
		return fail(fmt.Errorf("migrate: %w", err))
	}

	users := repository.NewUserRepo(gdb)
	plans := repository.NewPlanRepo(gdb)

	signer := auth.NewSigner(cfg.JWTSecret,
		time.Duration(cfg.JWTExpireMin)*time.Minute,
		time.Duration(cfg.RefreshExpireHr)*time.Hour)

	authSvc := service.NewAuthSvc(users, signer)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fail(fmt.Errorf("seed admin: %w", err))
		}
		if created {
			lg.Info("admin account created", "email", cfg.AdminEmail)
		}
	}
	apptSvc, err := service.NewAppointmentSvc(repository.NewAppointmentRepo(gdb), repository.NewScheduleRepo(gdb), users, pub,
		service.BookingConfig{
			SlotMinutes: cfg.CoachSlotMin,
			DayStart:    cfg.CoachDayStart,
			DayEnd:      cfg.CoachDayEnd,
		})
	if err != nil {
		return fail(err)
	}

	r := httpx.NewRouter(httpx.Deps{
		Auth:         authSvc,
		Plans:        service.NewPlanSvc(plans, cfg.DefaultPackPrice),
		Progress:     service.NewProgressSvc(repository.NewCheckinRepo(gdb), plans, pub, cfg.DefaultPackPrice),
		Appointments: apptSvc,
		Signer:       signer,
		DB:           sqlDB,
		Log:          lg,
		ServiceName:  tracing,
	})
	return r, sqlDB, nil
}
