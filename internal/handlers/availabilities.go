package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
)

type AvailabilityHandler struct {
	Base
	db *gorm.DB
}

func NewAvailabilityHandler(base Base, db *gorm.DB) *AvailabilityHandler {
	return &AvailabilityHandler{Base: base, db: db}
}

// Mine lists the availabilities declared by the signed-in user.
func (h *AvailabilityHandler) Mine(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var items []models.Availability
	err := h.db.WithContext(r.Context()).
		Preload("Tournament.Club").
		Where("user_id = ?", uid).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "availabilities/index.html", map[string]any{
		"Availabilities": items,
	}, map[string]any{"items": items, "total": len(items)})
}

// Declare records the user's availability for the tournament in the path.
// Past tournaments are refused.
func (h *AvailabilityHandler) Declare(w http.ResponseWriter, r *http.Request) {
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
	if t.StartDate.Before(h.Now()) {
		h.fail(w, r, http.StatusUnprocessableEntity, "tournament_started")
		return
	}
	in, err := readInput(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())

	var existing int64
	if err := h.db.WithContext(r.Context()).Model(&models.Availability{}).
		Where("user_id = ? AND tournament_id = ?", uid, tid).
		Count(&existing).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	if existing > 0 {
		h.fail(w, r, http.StatusConflict, "already_available")
		return
	}
	a := &models.Availability{UserID: uid, TournamentID: tid, Notes: in["notes"], Tournament: &t}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceAvailability, a) {
		return
	}
	if err := h.db.WithContext(r.Context()).Omit("Tournament").Create(a).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusCreated, tournamentPath(tid), "saved", a)
}

// Withdraw deletes an availability. Referees may only remove their own.
func (h *AvailabilityHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	var a models.Availability
	if err := h.db.WithContext(r.Context()).Preload("Tournament").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	if !h.allow(w, r, gate.ActionDelete, policy.ResourceAvailability, &a) {
		return
	}
	// Hard delete so the referee can declare again later.
	if err := h.db.WithContext(r.Context()).Unscoped().Delete(&a).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, "/availabilities", "deleted", map[string]uint{"deleted": a.ID})
}
