package main

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/config"
	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/handlers"
	"github.com/diewo77/golf-referee/internal/middleware"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/internal/services"
	"github.com/diewo77/golf-referee/internal/store"
	"github.com/diewo77/golf-referee/view"
)

// profileCacheTTL bounds how long a role change on another instance can go
// unnoticed.
const profileCacheTTL = 30 * time.Second

// Deps are the collaborators the HTTP application is built from.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Log    logrus.FieldLogger
	// Dashboard serves the referee dashboard queries; it may be a cached
	// decorator of Store.
	Dashboard     dashboard.Repository
	Store         *store.GormRepository
	Cache         handlers.CacheInvalidator
	Notifications *services.NotificationService
	Assignments   *services.AssignmentService
}

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	handler  http.Handler
	gate     *policy.AuthGate
	sessions *auth.Sessions
	login    *middleware.RateLimiter
}

// NewApp creates a new application with all routes configured.
func NewApp(d Deps) *App {
	ag := policy.NewAuthGate(policy.NewDBDirectory(d.DB), profileCacheTTL)
	sessions := auth.NewSessions(d.Config.App.SessionSecret, auth.DefaultTTL).
		WithVerifier(ag.VerifyUser).
		WithSecureCookies(!d.Config.App.Dev)

	// Templates show or hide links through these callbacks, so the view
	// package never imports policy types.
	view.SetDev(d.Config.App.Dev)
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return ag.CanProfile(r.Context(), gate.Action(action), resource)
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return ag.IsAdmin(r.Context())
	})

	a := &App{
		mux:      http.NewServeMux(),
		gate:     ag,
		sessions: sessions,
		login:    middleware.NewRateLimiter(d.Config.Server.LoginRate, d.Config.Server.LoginBurst),
	}
	a.setupRoutes(d)
	trusted, err := middleware.ParseTrustedProxies(d.Config.Server.TrustedProxies)
	if err != nil {
		d.Log.WithError(err).Error("ignoring trusted proxies")
	}
	a.handler = middleware.Chain(a.mux,
		middleware.RealIP(trusted),
		middleware.Recover(d.Log),
		middleware.Logging(d.Log),
		sessions.Middleware,
		middleware.Prefs,
	)
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(d Deps) {
	base := handlers.NewBase(a.gate, d.Log)

	// Public routes
	ah := handlers.NewAuthHandler(base, d.DB, a.sessions)
	hh := handlers.NewHealthHandler(d.DB)
	a.mux.HandleFunc("GET /healthz", hh.Healthz)
	a.mux.HandleFunc("GET /login", ah.LoginPage)
	a.mux.Handle("POST /login", middleware.IPRateLimit(a.login)(http.HandlerFunc(ah.Login)))
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	// The dashboard decides itself where anonymous visitors and admins go.
	dh := handlers.NewDashboardHandler(base, dashboard.NewAggregator(d.Dashboard), d.Store)
	a.mux.HandleFunc("GET /dashboard", dh.Dashboard)
	a.mux.Handle("GET /admin/dashboard", a.requireAdmin(http.HandlerFunc(dh.Admin)))

	// Tournaments
	th := handlers.NewTournamentHandler(base, d.DB)
	a.protect("GET /tournaments", policy.ResourceTournament, gate.ActionList, th.List)
	a.protect("GET /tournaments/new", policy.ResourceTournament, gate.ActionCreate, th.New)
	a.protect("POST /tournaments", policy.ResourceTournament, gate.ActionCreate, th.Create)
	a.protect("GET /tournaments/{id}", policy.ResourceTournament, gate.ActionView, th.View)
	a.protect("GET /tournaments/{id}/edit", policy.ResourceTournament, gate.ActionUpdate, th.Edit)
	a.protect("POST /tournaments/{id}", policy.ResourceTournament, gate.ActionUpdate, th.Update)
	a.protect("POST /tournaments/{id}/delete", policy.ResourceTournament, gate.ActionDelete, th.Delete)

	ch := handlers.NewConvocationHandler(base, d.DB)
	a.protect("GET /tournaments/{id}/convocation.pdf", policy.ResourceConvocation, gate.ActionPrint, ch.PDF)

	// Assignments
	sh := handlers.NewAssignmentHandler(base, d.DB, d.Assignments)
	a.mux.Handle("GET /assignments", a.requireAuth(http.HandlerFunc(sh.Mine)))
	a.protect("POST /tournaments/{id}/assignments", policy.ResourceAssignment, gate.ActionCreate, sh.Create)
	a.protect("POST /assignments/{id}", policy.ResourceAssignment, gate.ActionUpdate, sh.Update)
	a.protect("POST /assignments/{id}/delete", policy.ResourceAssignment, gate.ActionDelete, sh.Delete)

	// Availabilities
	vh := handlers.NewAvailabilityHandler(base, d.DB)
	a.protect("GET /availabilities", policy.ResourceAvailability, gate.ActionList, vh.Mine)
	a.protect("POST /tournaments/{id}/availability", policy.ResourceAvailability, gate.ActionCreate, vh.Declare)
	a.protect("POST /availabilities/{id}/delete", policy.ResourceAvailability, gate.ActionDelete, vh.Withdraw)

	// Communications
	mh := handlers.NewCommunicationHandler(base, d.DB, d.Cache)
	a.protect("GET /communications", policy.ResourceCommunication, gate.ActionList, mh.List)
	a.protect("GET /communications/new", policy.ResourceCommunication, gate.ActionCreate, mh.New)
	a.protect("POST /communications", policy.ResourceCommunication, gate.ActionCreate, mh.Create)
	a.protect("GET /communications/{id}/edit", policy.ResourceCommunication, gate.ActionUpdate, mh.Edit)
	a.protect("POST /communications/{id}", policy.ResourceCommunication, gate.ActionUpdate, mh.Update)
	a.protect("POST /communications/{id}/delete", policy.ResourceCommunication, gate.ActionDelete, mh.Delete)

	// Directory: zones, clubs, users
	zh := handlers.NewZoneHandler(base, d.DB)
	a.protect("GET /zones", policy.ResourceZone, gate.ActionList, zh.List)
	a.protect("POST /zones", policy.ResourceZone, gate.ActionCreate, zh.Create)
	a.protect("POST /zones/{id}", policy.ResourceZone, gate.ActionUpdate, zh.Update)

	cl := handlers.NewClubHandler(base, d.DB)
	a.protect("GET /clubs", policy.ResourceClub, gate.ActionList, cl.List)
	a.protect("GET /clubs/new", policy.ResourceClub, gate.ActionCreate, cl.New)
	a.protect("POST /clubs", policy.ResourceClub, gate.ActionCreate, cl.Create)
	a.protect("GET /clubs/{id}/edit", policy.ResourceClub, gate.ActionUpdate, cl.Edit)
	a.protect("POST /clubs/{id}", policy.ResourceClub, gate.ActionUpdate, cl.Update)
	a.protect("POST /clubs/{id}/delete", policy.ResourceClub, gate.ActionDelete, cl.Delete)

	uh := handlers.NewUserHandler(base, d.DB)
	a.protect("GET /users", policy.ResourceUser, gate.ActionList, uh.List)
	a.protect("GET /users/new", policy.ResourceUser, gate.ActionCreate, uh.New)
	a.protect("POST /users", policy.ResourceUser, gate.ActionCreate, uh.Create)
	a.protect("GET /users/{id}/edit", policy.ResourceUser, gate.ActionUpdate, uh.Edit)
	a.protect("POST /users/{id}", policy.ResourceUser, gate.ActionUpdate, uh.Update)
	a.protect("POST /users/{id}/delete", policy.ResourceUser, gate.ActionDelete, uh.Delete)

	// Convocation outbox
	nh := handlers.NewNotificationHandler(base, d.Notifications)
	a.protect("GET /admin/notifications", policy.ResourceNotification, gate.ActionList, nh.List)
	a.protect("POST /admin/notifications/{id}/resend", policy.ResourceNotification, gate.ActionSend, nh.Resend)

	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}

// protect registers a route behind authentication and a profile permission.
// Handlers apply the resource policy once the object is loaded.
func (a *App) protect(pattern, resource string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.gate.RequirePermission(resource, action)(h)))
}

func (a *App) requireAuth(next http.Handler) http.Handler {
	return a.sessions.RequireAuth(next)
}

func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.gate.RequireAdmin()(next))
}
