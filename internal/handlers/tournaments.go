package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/validation"
)

type TournamentHandler struct {
	Base
	db *gorm.DB
}

func NewTournamentHandler(base Base, db *gorm.DB) *TournamentHandler {
	return &TournamentHandler{Base: base, db: db}
}

// List shows tournaments, upcoming first. Zone admins only see their zone;
// ?zone_id narrows the list for everyone else and ?all=1 includes past events.
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	q := h.db.WithContext(r.Context()).Preload("Club").Preload("Zone")
	if zone != nil {
		q = q.Where("zone_id = ?", *zone)
	} else if z := queryUint(r, "zone_id"); z != 0 {
		q = q.Where("zone_id = ?", z)
	}
	if r.URL.Query().Get("all") != "1" {
		q = q.Where("start_date >= ?", h.Now().UTC().Truncate(24*time.Hour))
	}
	var items []models.Tournament
	if err := q.Order("start_date ASC, id ASC").Find(&items).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "tournaments/index.html", map[string]any{
		"Tournaments": items,
	}, map[string]any{"items": items, "total": len(items)})
}

// load fetches a tournament with everything the detail page shows.
func (h *TournamentHandler) load(r *http.Request) (*models.Tournament, error) {
	id, ok := pathID(r, "id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var t models.Tournament
	err := h.db.WithContext(r.Context()).
		Preload("Club").
		Preload("Zone").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Assignments.User").
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *TournamentHandler) loadOr404(w http.ResponseWriter, r *http.Request) (*models.Tournament, bool) {
	t, err := h.load(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return t, true
}

func (h *TournamentHandler) View(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadOr404(w, r)
	if !ok || !h.allow(w, r, gate.ActionView, policy.ResourceTournament, t) {
		return
	}
	data := map[string]any{"Tournament": t}
	uid, _ := auth.UserIDFromContext(r.Context())
	if h.Gate.IsAdmin(r.Context()) {
		var avail []models.Availability
		if err := h.db.WithContext(r.Context()).Preload("User").
			Where("tournament_id = ?", t.ID).Order("created_at ASC").
			Find(&avail).Error; err != nil {
			h.serverError(w, r, err)
			return
		}
		var referees []models.User
		if err := h.db.WithContext(r.Context()).
			Where("role = ?", models.RoleReferee).Where("zone_id = ? OR zone_id IS NULL", t.ZoneID).
			Order("name ASC").Find(&referees).Error; err != nil {
			h.serverError(w, r, err)
			return
		}
		data["Availabilities"] = avail
		data["Referees"] = referees
		data["Roles"] = models.AssignmentRoles
	} else {
		var mine models.Availability
		err := h.db.WithContext(r.Context()).Where("tournament_id = ? AND user_id = ?", t.ID, uid).First(&mine).Error
		if err == nil {
			data["MyAvailability"] = &mine
		}
	}
	data["Assigned"] = t.HasReferee(uid)
	h.respond(w, r, http.StatusOK, "tournaments/show.html", data, t)
}

func (h *TournamentHandler) clubs(r *http.Request) ([]models.Club, error) {
	zone, err := h.adminZone(r)
	if err != nil {
		return nil, err
	}
	q := h.db.WithContext(r.Context()).Order("name ASC")
	if zone != nil {
		q = q.Where("zone_id = ?", *zone)
	}
	var clubs []models.Club
	return clubs, q.Find(&clubs).Error
}

func (h *TournamentHandler) form(w http.ResponseWriter, r *http.Request, status int, t *models.Tournament, v validation.Violations) {
	clubs, err := h.clubs(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := map[string]any{"Tournament": t, "Clubs": clubs}
	if v != nil {
		h.invalid(w, r, "tournaments/form.html", data, v)
		return
	}
	h.respond(w, r, status, "tournaments/form.html", data, t)
}

func (h *TournamentHandler) New(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, http.StatusOK, &models.Tournament{}, nil)
}

func (h *TournamentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadOr404(w, r)
	if !ok || !h.allow(w, r, gate.ActionUpdate, policy.ResourceTournament, t) {
		return
	}
	h.form(w, r, http.StatusOK, t, nil)
}

// bind copies the submitted fields onto t and validates them. The zone is
// taken from the hosting club.
func (h *TournamentHandler) bind(r *http.Request, t *models.Tournament) (validation.Violations, error) {
	in, err := readInput(r)
	if err != nil {
		return nil, err
	}
	v := validation.Violations{}
	t.Name = in["name"]
	t.Notes = in["notes"]
	t.ClubID = in.uint("club_id")
	validation.Required("name", t.Name, v)
	validation.RequiredID("club_id", t.ClubID, v)
	validation.Required("start_date", in["start_date"], v)
	start, okStart := validation.Date("start_date", in["start_date"], DateLayout, v)
	end, okEnd := validation.Date("end_date", in["end_date"], DateLayout, v)
	if okStart {
		t.StartDate = start
		t.EndDate = start
	}
	if okEnd && !end.IsZero() {
		t.EndDate = end
		if okStart {
			validation.DateOrder("end_date", start, end, v)
		}
	}
	if t.ClubID != 0 {
		var club models.Club
		err := h.db.WithContext(r.Context()).First(&club, t.ClubID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v["club_id"] = "not_found"
		case err != nil:
			return nil, err
		default:
			t.ZoneID = club.ZoneID
			t.Club = &club
		}
	}
	return v, nil
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	t := &models.Tournament{}
	v, err := h.bind(r, t)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, http.StatusOK, t, v)
		return
	}
	if !h.allow(w, r, gate.ActionCreate, policy.ResourceTournament, t) {
		return
	}
	if err := h.db.WithContext(r.Context()).Omit("Club").Create(t).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Log.WithField("tournament_id", t.ID).Info("tournament created")
	h.done(w, r, http.StatusCreated, tournamentPath(t.ID), "saved", t)
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadOr404(w, r)
	if !ok || !h.allow(w, r, gate.ActionUpdate, policy.ResourceTournament, t) {
		return
	}
	v, err := h.bind(r, t)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	if !v.Empty() {
		h.form(w, r, http.StatusOK, t, v)
		return
	}
	// Moving the event to another club must stay inside the admin's zone.
	if !h.allow(w, r, gate.ActionUpdate, policy.ResourceTournament, t) {
		return
	}
	err = h.db.WithContext(r.Context()).Model(t).
		Select("name", "notes", "start_date", "end_date", "club_id", "zone_id").
		Updates(t).Error
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, tournamentPath(t.ID), "saved", t)
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadOr404(w, r)
	if !ok || !h.allow(w, r, gate.ActionDelete, policy.ResourceTournament, t) {
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(t).Error; err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Log.WithField("tournament_id", t.ID).Info("tournament deleted")
	h.done(w, r, http.StatusOK, "/tournaments", "deleted", map[string]uint{"deleted": t.ID})
}

func tournamentPath(id uint) string {
	return "/tournaments/" + strconv.FormatUint(uint64(id), 10)
}
