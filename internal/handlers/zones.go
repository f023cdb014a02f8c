package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/validation"
)

type ZoneHandler struct {
	Base
	db *gorm.DB
}

func NewZoneHandler(base Base, db *gorm.DB) *ZoneHandler {
	return &ZoneHandler{Base: base, db: db}
}

func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	var zones []models.Zone
	if err := h.db.WithContext(r.Context()).Order("id ASC").Find(&zones).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "zones/index.html", map[string]any{"Zones": zones}, map[string]any{"items": zones, "total": len(zones)})
}

func bindZone(r *http.Request, z *models.Zone) (validation.Violations, error) {
	in, err := readInput(r)
	if err != nil {
		return nil, err
	}
	z.Name = in["name"]
	z.Code = strings.ToUpper(in["code"])
	v := validation.Violations{}
	validation.Required("name", z.Name, v)
	validation.Required("code", z.Code, v)
	return v, nil
}

func (h *ZoneHandler) save(w http.ResponseWriter, r *http.Request, z *models.Zone, status int) {
	v, err := bindZone(r, z)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.invalidRedirect(w, r, "/zones", v)
		return
	}
	var taken int64
	if err := h.db.WithContext(r.Context()).Model(&models.Zone{}).
		Where("(name = ? OR code = ?) AND id <> ?", z.Name, z.Code, z.ID).
		Count(&taken).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	if taken > 0 {
		h.invalidRedirect(w, r, "/zones", validation.Violations{"code": "already_exists"})
		return
	}
	if err := h.db.WithContext(r.Context()).Save(z).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, status, "/zones", "saved", z)
}

func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, &models.Zone{}, http.StatusCreated)
}

func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	var z models.Zone
	if err := h.db.WithContext(r.Context()).First(&z, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.save(w, r, &z, http.StatusOK)
}
