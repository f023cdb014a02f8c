package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/validation"
)

// CacheInvalidator drops cached dashboard communications.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

var communicationStatuses = []string{
	string(models.CommunicationStatusDraft),
	string(models.CommunicationStatusPublished),
	string(models.CommunicationStatusArchived),
}

type CommunicationHandler struct {
	Base
	db    *gorm.DB
	cache CacheInvalidator
}

// NewCommunicationHandler creates the handler; cache may be nil.
func NewCommunicationHandler(base Base, db *gorm.DB, cache CacheInvalidator) *CommunicationHandler {
	return &CommunicationHandler{Base: base, db: db, cache: cache}
}

func (h *CommunicationHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.Log.WithError(err).Warn("communication cache invalidation failed")
	}
}

// List shows communications, newest first. Zone admins see national ones
// and those of their zone.
func (h *CommunicationHandler) List(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	q := h.db.WithContext(r.Context()).Preload("Zone")
	if zone != nil {
		q = q.Where("zone_id IS NULL OR zone_id = ?", *zone)
	}
	if st := r.URL.Query().Get("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	var items []models.Communication
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "communications/index.html", map[string]any{
		"Communications": items,
		"Now":            h.Now(),
	}, map[string]any{"items": items, "total": len(items)})
}

func (h *CommunicationHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Communication, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	var c models.Communication
	if err := h.db.WithContext(r.Context()).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	if !h.allow(w, r, action, policy.ResourceCommunication, &c) {
		return nil, false
	}
	return &c, true
}

func (h *CommunicationHandler) zones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	return zones, h.db.WithContext(ctx).Order("id ASC").Find(&zones).Error
}

func (h *CommunicationHandler) form(w http.ResponseWriter, r *http.Request, c *models.Communication, v validation.Violations) {
	zones, err := h.zones(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := map[string]any{"Communication": c, "Zones": zones, "Statuses": communicationStatuses}
	if v != nil {
		h.invalid(w, r, "communications/form.html", data, v)
		return
	}
	h.respond(w, r, http.StatusOK, "communications/form.html", data, c)
}

func (h *CommunicationHandler) New(w http.ResponseWriter, r *http.Request) {
	c := &models.Communication{Status: models.CommunicationStatusDraft}
	if zone, err := h.adminZone(r); err == nil {
		c.ZoneID = zone
	}
	h.form(w, r, c, nil)
}

func (h *CommunicationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	h.form(w, r, c, nil)
}

// bind copies submitted fields onto c. expires_at is a day: the
// communication stays visible until the end of it.
func bindCommunication(r *http.Request, c *models.Communication) (validation.Violations, error) {
	in, err := readInput(r)
	if err != nil {
		return nil, err
	}
	v := validation.Violations{}
	c.Title = in["title"]
	c.Body = in["body"]
	c.Status = models.CommunicationStatus(in["status"])
	if c.Status == "" {
		c.Status = models.CommunicationStatusDraft
	}
	c.Priority = in.int("priority")
	c.ZoneID = in.optUint("zone_id")
	c.ExpiresAt = nil

	validation.Required("title", c.Title, v)
	validation.OneOf("status", string(c.Status), communicationStatuses, v)
	validation.RangeInt("priority", c.Priority, 0, 100, v)
	if day, ok := validation.Date("expires_at", in["expires_at"], DateLayout, v); ok {
		end := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
		c.ExpiresAt = &end
	}
	return v, nil
}

func (h *CommunicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := &models.Communication{}
	v, err := bindCommunication(r, c)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, c, v)
		return
	}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceCommunication, c) {
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	c.AuthorID = &uid
	if err := h.db.WithContext(r.Context()).Create(c).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	h.done(w, r, http.StatusCreated, "/communications", "saved", c)
}

func (h *CommunicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	v, err := bindCommunication(r, c)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, c, v)
		return
	}
	// The target zone may have changed.
	if !h.allow(w, r, gate.ActionUpdate, policy.ResourceCommunication, c) {
		return
	}
	err = h.db.WithContext(r.Context()).Model(c).
		Select("title", "body", "status", "priority", "zone_id", "expires_at").
		Updates(c).Error
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	h.done(w, r, http.StatusOK, "/communications", "saved", c)
}

func (h *CommunicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(c).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	h.done(w, r, http.StatusOK, "/communications", "deleted", map[string]uint{"deleted": c.ID})
}
