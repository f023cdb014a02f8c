package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/httpx"
	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/validation"
)

type AuthHandler struct {
	Base
	db       *gorm.DB
	sessions *auth.Sessions
}

func NewAuthHandler(base Base, db *gorm.DB, sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{Base: base, db: db, sessions: sessions}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.respond(w, r, http.StatusOK, "login.html", nil, map[string]string{"login": dashboard.LoginPath})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request")
		return
	}
	email := strings.ToLower(in["email"])
	v := validation.Violations{}
	validation.Required("email", email, v)
	validation.Required("password", in["password"], v)
	if !v.Empty() {
		h.invalid(w, r, "login.html", map[string]any{"Email": email}, v)
		return
	}

	var user models.User
	err = h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.serverError(w, r, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in["password"])) != nil {
		h.Log.WithField("email", email).Info("login failed")
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		h.respond(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Email": email,
			"Error": "invalid_credentials",
		}, nil)
		return
	}

	h.sessions.Create(w, user.ID)
	h.Log.WithField("user_id", user.ID).Info("login")
	httpx.Redirect(w, r, "/dashboard")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	httpx.Redirect(w, r, dashboard.LoginPath)
}

// HashPassword is the bcrypt hash stored on users.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
