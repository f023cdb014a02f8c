package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/config"
	"github.com/diewo77/golf-referee/internal/db"
	"github.com/diewo77/golf-referee/internal/handlers"
	"github.com/diewo77/golf-referee/internal/logger"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/services"
	"github.com/diewo77/golf-referee/internal/store"
)

const (
	adminEmail = "admin@federgolf.it"
	password   = "segreta123"
	refEmail   = "mario@example.it"
)

func newTestApp(t *testing.T, burst int) (*App, *gorm.DB) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: db.DriverSQLite,
			Path:   "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		},
		App:    config.AppConfig{Dev: true, SessionSecret: "test-secret"},
		Server: config.ServerConfig{LoginRate: 0.01, LoginBurst: burst},
	}
	log := logger.Discard()
	conn, err := db.Open(cfg.Database, log)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	require.NoError(t, db.Seed(conn, db.SeedOptions{AdminEmail: adminEmail, AdminPassword: password}, log))

	var zone models.Zone
	require.NoError(t, conn.First(&zone).Error)
	hash, err := handlers.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.User{
		Email: refEmail, Name: "Mario Rossi", Password: hash, Role: models.RoleReferee, ZoneID: &zone.ID,
	}).Error)

	repo := store.NewGormRepository(conn)
	ns := services.NewNotificationService(conn)
	return NewApp(Deps{
		DB:            conn,
		Config:        cfg,
		Log:           log,
		Dashboard:     repo,
		Store:         repo,
		Notifications: ns,
		Assignments:   services.NewAssignmentService(conn, ns),
	}), conn
}

func do(app *App, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, app *App, email string) *http.Cookie {
	t.Helper()
	rec := do(app, http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie after login as %s", email)
	return nil
}

func redirectOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Redirect
}

func TestAppRoutes(t *testing.T) {
	app, _ := newTestApp(t, 20)

	rec := do(app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	root := httptest.NewRecorder()
	app.ServeHTTP(root, req)
	assert.Equal(t, http.StatusSeeOther, root.Code)
	assert.Equal(t, "/dashboard", root.Header().Get("Location"))

	t.Run("anonymous", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/dashboard", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login", redirectOf(t, rec))

		rec = do(app, http.MethodGet, "/tournaments", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = do(app, http.MethodGet, "/admin/dashboard", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("referee", func(t *testing.T) {
		c := login(t, app, refEmail)

		rec := do(app, http.MethodGet, "/dashboard", nil, c)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		assert.NotContains(t, rec.Body.String(), `"redirect"`)

		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/tournaments", nil, c).Code)
		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/assignments", nil, c).Code)
		assert.Equal(t, http.StatusForbidden, do(app, http.MethodGet, "/users", nil, c).Code)
		assert.Equal(t, http.StatusForbidden, do(app, http.MethodGet, "/admin/dashboard", nil, c).Code)
		assert.Equal(t, http.StatusForbidden, do(app, http.MethodGet, "/admin/notifications", nil, c).Code)
	})

	t.Run("super admin", func(t *testing.T) {
		c := login(t, app, adminEmail)

		rec := do(app, http.MethodGet, "/dashboard", nil, c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/admin/dashboard", redirectOf(t, rec))

		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/admin/dashboard", nil, c).Code)
		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/users", nil, c).Code)
		assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/admin/notifications", nil, c).Code)
	})

	t.Run("logout", func(t *testing.T) {
		c := login(t, app, refEmail)
		rec := do(app, http.MethodPost, "/logout", nil, c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login", redirectOf(t, rec))
		var cleared bool
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == "session" && ck.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)
	})
}

func TestLoginIsRateLimited(t *testing.T) {
	app, _ := newTestApp(t, 2)
	bad := map[string]string{"email": refEmail, "password": "sbagliata"}

	for i := 0; i < 2; i++ {
		rec := do(app, http.MethodPost, "/login", bad)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(app, http.MethodPost, "/login", bad)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// No trusted proxy is configured: forwarding headers do not open a new bucket.
	for i := 0; i < 5; i++ {
		body, _ := json.Marshal(bad)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}

func TestDeletedUserSessionIsRejected(t *testing.T) {
	app, conn := newTestApp(t, 20)
	c := login(t, app, refEmail)
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/tournaments", nil, c).Code)

	require.NoError(t, conn.Where("email = ?", refEmail).Delete(&models.User{}).Error)
	rec := do(app, http.MethodGet, "/tournaments", nil, c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
