package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/validation"
)

var userRoles = []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleReferee, models.RoleUser}

// MinPasswordLength applies to passwords set by administrators.
const MinPasswordLength = 8

type UserHandler struct {
	Base
	db *gorm.DB
}

func NewUserHandler(base Base, db *gorm.DB) *UserHandler {
	return &UserHandler{Base: base, db: db}
}

// List shows accounts, filtered by ?role. Zone admins see their zone only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	q := h.db.WithContext(r.Context()).Preload("Zone")
	if zone != nil {
		q = q.Where("zone_id = ?", *zone)
	}
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("name ASC").Find(&users).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "users/index.html", map[string]any{"Users": users}, map[string]any{"items": users, "total": len(users)})
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	var u models.User
	if err := h.db.WithContext(r.Context()).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, http.StatusNotFound, "not_found")
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	if !h.allow(w, r, action, policy.ResourceUser, &u) {
		return nil, false
	}
	return &u, true
}

func (h *UserHandler) form(w http.ResponseWriter, r *http.Request, u *models.User, v validation.Violations) {
	var zones []models.Zone
	if err := h.db.WithContext(r.Context()).Order("id ASC").Find(&zones).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	data := map[string]any{"Account": u, "Zones": zones, "Roles": userRoles}
	if v != nil {
		h.invalid(w, r, "users/form.html", data, v)
		return
	}
	h.respond(w, r, http.StatusOK, "users/form.html", data, u)
}

func (h *UserHandler) New(w http.ResponseWriter, r *http.Request) {
	u := &models.User{Role: models.RoleReferee}
	if zone, err := h.adminZone(r); err == nil {
		u.ZoneID = zone
	}
	h.form(w, r, u, nil)
}

func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	h.form(w, r, u, nil)
}

// bind copies the submitted fields onto u. The password is only changed
// when one is given; creating requires it.
func (h *UserHandler) bind(r *http.Request, u *models.User, creating bool) (validation.Violations, error) {
	in, err := readInput(r)
	if err != nil {
		return nil, err
	}
	u.Email = strings.ToLower(in["email"])
	u.Name = in["name"]
	u.Role = in["role"]
	u.ZoneID = in.optUint("zone_id")
	u.RefereeCode = in["referee_code"]
	u.RefereeLevel = in["referee_level"]
	u.Phone = in["phone"]

	v := validation.Violations{}
	validation.Required("email", u.Email, v)
	validation.Email("email", u.Email, v)
	validation.Required("name", u.Name, v)
	validation.OneOf("role", u.Role, userRoles, v)

	password := in["password"]
	if creating {
		validation.Required("password", password, v)
	}
	if password != "" {
		if len(password) < MinPasswordLength {
			v["password"] = "password_too_short"
		} else {
			hash, err := HashPassword(password)
			if err != nil {
				return nil, err
			}
			u.Password = hash
		}
	}

	// Only super admins hand out administrative roles.
	if u.Role == models.RoleSuperAdmin || u.Role == models.RoleAdmin {
		me, err := h.Gate.CurrentUser(r.Context())
		if err != nil {
			return nil, err
		}
		if me.Role != models.RoleSuperAdmin {
			v["role"] = "forbidden"
		}
	}

	var taken int64
	// Removed accounts keep their address reserved.
	if err := h.db.WithContext(r.Context()).Unscoped().Model(&models.User{}).
		Where("email = ? AND id <> ?", u.Email, u.ID).
		Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		v["email"] = "already_exists"
	}
	return v, nil
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := &models.User{}
	v, err := h.bind(r, u, true)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !v.Empty() {
		h.form(w, r, u, v)
		return
	}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceUser, u) {
		return
	}
	if err := h.db.WithContext(r.Context()).Create(u).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Log.WithField("user_id", u.ID).WithField("role", u.Role).Info("user created")
	h.done(w, r, http.StatusCreated, "/users", "saved", u)
}

// Update saves the account and drops its cached permissions so a role or
// zone change applies on the next request.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	v, err := h.bind(r, u, false)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !v.Empty() {
		h.form(w, r, u, v)
		return
	}
	if !h.allow(w, r, gate.ActionUpdate, policy.ResourceUser, u) {
		return
	}
	err = h.db.WithContext(r.Context()).Model(u).
		Select("email", "name", "role", "zone_id", "referee_code", "referee_level", "phone", "password").
		Updates(u).Error
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Gate.InvalidateUser(u.ID)
	h.done(w, r, http.StatusOK, "/users", "saved", u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if me, _ := auth.UserIDFromContext(r.Context()); me == u.ID {
		h.fail(w, r, http.StatusConflict, "cannot_delete_self")
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(u).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Gate.InvalidateUser(u.ID)
	h.done(w, r, http.StatusOK, "/users", "deleted", map[string]uint{"deleted": u.ID})
}
