// Package handlers serves the HTML pages and the JSON API. Every handler
// answers in the client's format (see httpx.WantsJSON).
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/httpx"
	"github.com/diewo77/golf-referee/i18n"
	"github.com/diewo77/golf-referee/internal/middleware"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/internal/services"
	"github.com/diewo77/golf-referee/validation"
	"github.com/diewo77/golf-referee/view"
)

// DateLayout is the format of date inputs in forms and JSON bodies.
const DateLayout = "2006-01-02"

// Base carries what every resource handler needs.
type Base struct {
	Gate *policy.AuthGate
	Log  logrus.FieldLogger
	Now  func() time.Time
}

func NewBase(ag *policy.AuthGate, log logrus.FieldLogger) Base {
	return Base{Gate: ag, Log: log, Now: time.Now}
}

// input reads a request body into flat string values. JSON objects and
// urlencoded or multipart forms are both accepted.
type input map[string]string

func readInput(r *http.Request) (input, error) {
	in := input{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		for k, v := range raw {
			if v != nil {
				in[k] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for k, vs := range r.Form {
		if len(vs) > 0 {
			in[k] = strings.TrimSpace(vs[0])
		}
	}
	return in, nil
}

func (in input) uint(key string) uint {
	n, err := strconv.ParseUint(in[key], 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// optUint returns nil for an empty or zero value.
func (in input) optUint(key string) *uint {
	if n := in.uint(key); n != 0 {
		return &n
	}
	return nil
}

func (in input) int(key string) int {
	n, _ := strconv.Atoi(in[key])
	return n
}

func (in input) bool(key string) bool {
	switch in[key] {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func queryUint(r *http.Request, key string) uint {
	n, err := strconv.ParseUint(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// respond renders page for browsers and payload for API clients.
func (b Base) respond(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any, payload any) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Flash"]; !ok {
		if msg := middleware.PopFlash(w, r); msg != "" {
			data["Flash"] = msg
		}
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := view.Render(w, r, page, data); err != nil {
		b.Log.WithError(err).WithField("page", page).Error("render")
		if status == http.StatusOK {
			http.Error(w, "template error", http.StatusInternalServerError)
		}
	}
}

// fail writes an error code in the client's format, translated for browsers.
func (b Base) fail(w http.ResponseWriter, r *http.Request, status int, code string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	http.Error(w, i18n.T(middleware.LangFrom(r), code), status)
}

// invalid answers a failed validation: 422 with details for API clients, the
// form page again for browsers.
func (b Base) invalid(w http.ResponseWriter, r *http.Request, page string, data map[string]any, v validation.Violations) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Errors"] = v
	b.respond(w, r, http.StatusUnprocessableEntity, page, data, nil)
}

// invalidRedirect is invalid for inline forms living on another page: the
// browser goes back to location with the first violation as flash.
func (b Base) invalidRedirect(w http.ResponseWriter, r *http.Request, location string, v validation.Violations) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	if len(fields) > 0 {
		middleware.Flash(w, r, v[fields[0]])
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// serverError logs err and answers 500.
func (b Base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	b.Log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	b.fail(w, r, http.StatusInternalServerError, "internal_error")
}

// serviceError maps service sentinels to status codes.
func (b Base) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		b.fail(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrDuplicate):
		b.fail(w, r, http.StatusConflict, "already_assigned")
	case errors.Is(err, services.ErrInvalidRole):
		b.fail(w, r, http.StatusUnprocessableEntity, "invalid_choice")
	case errors.Is(err, services.ErrInvalidSchedule):
		b.fail(w, r, http.StatusUnprocessableEntity, "invalid_date")
	case errors.Is(err, services.ErrNotResendable):
		b.fail(w, r, http.StatusConflict, "not_resendable")
	default:
		b.serverError(w, r, err)
	}
}

// allow applies the resource policy to a loaded object and writes 403 on refusal.
func (b Base) allow(w http.ResponseWriter, r *http.Request, action gate.Action, resource string, obj any) bool {
	err := b.Gate.Authorize(r.Context(), action, resource, obj)
	if err == nil {
		return true
	}
	b.Log.WithFields(logrus.Fields{"action": action, "resource": resource}).WithError(err).Debug("denied")
	policy.Forbidden(w, r)
	return false
}

// done finishes a successful write: flash and redirect for browsers, the
// object for API clients.
func (b Base) done(w http.ResponseWriter, r *http.Request, status int, location, flash string, payload any) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	if flash != "" {
		middleware.Flash(w, r, flash)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// adminZone returns the zone a zone-scoped admin is limited to, nil for
// national staff.
func (b Base) adminZone(r *http.Request) (*uint, error) {
	u, err := b.Gate.CurrentUser(r.Context())
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin {
		return u.ZoneID, nil
	}
	return nil, nil
}
