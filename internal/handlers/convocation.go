package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/convocation"
	"github.com/diewo77/golf-referee/internal/policy"
)

type ConvocationHandler struct {
	Base
	tournaments *TournamentHandler
}

func NewConvocationHandler(base Base, db *gorm.DB) *ConvocationHandler {
	return &ConvocationHandler{Base: base, tournaments: NewTournamentHandler(base, db)}
}

// PDF renders the printable convocation listing every referee of the
// tournament, grouped by role.
func (h *ConvocationHandler) PDF(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tournaments.loadOr404(w, r)
	if !ok || !h.allow(w, r, gate.ActionPrint, policy.ResourceConvocation, t) {
		return
	}
	doc := convocation.FromTournament(*t, t.Assignments)
	pdf, err := convocation.Render(doc)
	if err != nil {
		h.serverError(w, r, fmt.Errorf("render convocation %d: %w", t.ID, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="convocazione-%d.pdf"`, t.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}
