package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/internal/services"
	"github.com/diewo77/golf-referee/validation"
)

// NotifyLayout is the format of the optional notify_at field
// (an HTML datetime-local input).
const NotifyLayout = "2006-01-02T15:04"

type AssignmentHandler struct {
	Base
	db  *gorm.DB
	svc *services.AssignmentService
}

func NewAssignmentHandler(base Base, db *gorm.DB, svc *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{Base: base, db: db, svc: svc}
}

// Mine lists the signed-in referee's assignments.
func (h *AssignmentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	items, err := h.svc.ListByUser(r.Context(), uid)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "assignments/index.html", map[string]any{
		"Assignments": items,
		"Now":         h.Now(),
	}, map[string]any{"items": items, "total": len(items)})
}

// Create assigns a referee to the tournament in the path and schedules the
// convocation email.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tid, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	var t models.Tournament
	if err := h.db.WithContext(r.Context()).First(&t, tid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceAssignment, &models.Assignment{Tournament: &t}) {
		return
	}

	in, err := readInput(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	v := validation.Violations{}
	validation.RequiredID("user_id", in.uint("user_id"), v)
	validation.OneOf("role", in["role"], models.AssignmentRoles, v)
	var notifyAt *time.Time
	if in["notify_at"] != "" {
		at, err := time.ParseInLocation(NotifyLayout, in["notify_at"], time.Local)
		if err != nil {
			v["notify_at"] = "invalid_date"
		} else {
			notifyAt = &at
		}
	}
	if !v.Empty() {
		h.invalidRedirect(w, r, tournamentPath(tid), v)
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	a, n, err := h.svc.Create(r.Context(), services.AssignmentInput{
		UserID:       in.uint("user_id"),
		TournamentID: tid,
		Role:         in["role"],
		Notes:        in["notes"],
		AssignedBy:   &uid,
		NotifyAt:     notifyAt,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.Log.WithField("assignment_id", a.ID).WithField("notification_id", n.ID).Info("referee assigned")
	h.done(w, r, http.StatusCreated, tournamentPath(tid), "saved", map[string]any{
		"assignment":   a,
		"notification": n,
	})
}

func (h *AssignmentHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Assignment, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	if !h.allow(w, r, action, policy.ResourceAssignment, a) {
		return nil, false
	}
	return a, true
}

func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	in, err := readInput(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	a, err = h.svc.UpdateRole(r.Context(), a.ID, in["role"], in["notes"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, tournamentPath(a.TournamentID), "saved", a)
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), a.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.Log.WithField("assignment_id", a.ID).Info("assignment removed")
	h.done(w, r, http.StatusOK, tournamentPath(a.TournamentID), "deleted", map[string]uint{"deleted": a.ID})
}
