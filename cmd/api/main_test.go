package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/pkg/config"
	"github.com/you/nosmoke/pkg/logger"
)

func testConfig() config.App {
	return config.App{
		Env:              "test",
		DBDriver:         "sqlite",
		DBDSN:            "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DBLogLevel:       "silent",
		JWTSecret:        "test-secret",
		JWTExpireMin:     60,
		RefreshExpireHr:  24,
		AdminEmail:       "admin@nosmoke.test",
		AdminPassword:    "admin-pass",
		DefaultPackPrice: 25000,
		CoachSlotMin:     60,
		CoachDayStart:    "08:00",
		CoachDayEnd:      "17:00",
	}
}

func TestBuildServesMigratedAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	r, sqlDB, err := build(context.Background(), cfg, logger.Discard(), events.Noop{}, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	rows, err := sqlDB.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Close())
	for _, want := range []string{"users", "quit_plans", "checkins", "appointments", "coach_schedules"} {
		assert.Contains(t, tables, want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body, _ := json.Marshal(map[string]string{"email": cfg.AdminEmail, "password": cfg.AdminPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestBuildRejectsBadCoachHours(t *testing.T) {
	cfg := testConfig()
	cfg.CoachDayStart = "18:00"
	_, _, err := build(context.Background(), cfg, logger.Discard(), events.Noop{}, "")
	assert.Error(t, err)
}

func TestBuildRejectsWeakAdminPassword(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPassword = "123"
	_, _, err := build(context.Background(), cfg, logger.Discard(), events.Noop{}, "")
	assert.Error(t, err)
}
