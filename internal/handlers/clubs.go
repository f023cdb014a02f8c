package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/validation"
)

type ClubHandler struct {
	Base
	db *gorm.DB
}

func NewClubHandler(base Base, db *gorm.DB) *ClubHandler {
	return &ClubHandler{Base: base, db: db}
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	q := h.db.WithContext(r.Context()).Preload("Zone")
	if zone != nil {
		q = q.Where("zone_id = ?", *zone)
	} else if z := queryUint(r, "zone_id"); z != 0 {
		q = q.Where("zone_id = ?", z)
	}
	var clubs []models.Club
	if err := q.Order("name ASC").Find(&clubs).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "clubs/index.html", map[string]any{"Clubs": clubs}, map[string]any{"items": clubs, "total": len(clubs)})
}

func (h *ClubHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Club, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	var c models.Club
	if err := h.db.WithContext(r.Context()).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	if !h.allow(w, r, action, policy.ResourceClub, &c) {
		return nil, false
	}
	return &c, true
}

func (h *ClubHandler) form(w http.ResponseWriter, r *http.Request, c *models.Club, v validation.Violations) {
	var zones []models.Zone
	if err := h.db.WithContext(r.Context()).Order("id ASC").Find(&zones).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	data := map[string]any{"Club": c, "Zones": zones}
	if v != nil {
		h.invalid(w, r, "clubs/form.html", data, v)
		return
	}
	h.respond(w, r, http.StatusOK, "clubs/form.html", data, c)
}

func (h *ClubHandler) New(w http.ResponseWriter, r *http.Request) {
	c := &models.Club{}
	if zone, err := h.adminZone(r); err == nil && zone != nil {
		c.ZoneID = *zone
	}
	h.form(w, r, c, nil)
}

func (h *ClubHandler) Edit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	h.form(w, r, c, nil)
}

func bindClub(r *http.Request, c *models.Club) (validation.Violations, error) {
	in, err := readInput(r)
	if err != nil {
		return nil, err
	}
	c.Name = in["name"]
	c.Email = in["email"]
	c.City = in["city"]
	c.ZoneID = in.uint("zone_id")
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	validation.RequiredID("zone_id", c.ZoneID, v)
	if c.Email != "" {
		validation.Email("email", c.Email, v)
	}
	return v, nil
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := &models.Club{}
	v, err := bindClub(r, c)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, c, v)
		return
	}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceClub, c) {
		return
	}
	if err := h.db.WithContext(r.Context()).Create(c).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusCreated, "/clubs", "saved", c)
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	v, err := bindClub(r, c)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, c, v)
		return
	}
	if !h.allow(w, r, gate.ActionUpdate, policy.ResourceClub, c) {
		return
	}
	if err := h.db.WithContext(r.Context()).Model(c).Select("name", "email", "city", "zone_id").Updates(c).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, "/clubs", "saved", c)
}

// Delete refuses clubs that still host tournaments.
func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	var hosted int64
	if err := h.db.WithContext(r.Context()).Model(&models.Tournament{}).Where("club_id = ?", c.ID).Count(&hosted).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	if hosted > 0 {
		h.fail(w, r, http.StatusConflict, "in_use")
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(c).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, "/clubs", "deleted", map[string]uint{"deleted": c.ID})
}
