package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/httpx"
	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/internal/store"
)

type DashboardHandler struct {
	Base
	agg      *dashboard.Aggregator
	overview *store.GormRepository
}

func NewDashboardHandler(base Base, agg *dashboard.Aggregator, overview *store.GormRepository) *DashboardHandler {
	return &DashboardHandler{Base: base, agg: agg, overview: overview}
}

// Dashboard routes by role: anonymous visitors go to login, admins to the
// admin dashboard, everyone else gets the referee dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var viewer *dashboard.Viewer
	u, err := h.Gate.CurrentUser(r.Context())
	switch {
	case err == nil:
		viewer = dashboard.ViewerFromUser(u)
	case errors.Is(err, gate.ErrUnauthorized), errors.Is(err, policy.ErrUnknownUser):
		// Anonymous or stale session.
	default:
		h.serverError(w, r, err)
		return
	}

	res, err := h.agg.Resolve(r.Context(), viewer, h.Now())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if res.Redirect != nil {
		httpx.Redirect(w, r, res.Redirect.Location)
		return
	}
	h.respond(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"User":      u,
		"Dashboard": res.View,
	}, res.View)
}

// Admin renders the administrative overview, limited to the zone of
// zone-scoped admins.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ov, err := h.overview.AdminOverview(r.Context(), zone, h.Now())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "admin_dashboard.html", map[string]any{
		"Overview": ov,
		"ZoneID":   zone,
	}, ov)
}
