package handlers

import (
	"net/http"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/policy"
	"github.com/diewo77/golf-referee/internal/services"
)

// NotificationListLimit bounds the outbox page.
const NotificationListLimit = 100

type NotificationHandler struct {
	Base
	svc *services.NotificationService
}

func NewNotificationHandler(base Base, svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Base: base, svc: svc}
}

// List shows the convocation outbox, filtered by ?status.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	zone, err := h.adminZone(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	status := models.NotificationStatus(r.URL.Query().Get("status"))
	items, err := h.svc.List(r.Context(), status, zone, NotificationListLimit)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "notifications/index.html", map[string]any{
		"Notifications": items,
		"Status":        string(status),
	}, map[string]any{"items": items, "total": len(items)})
}

// Resend queues a failed convocation again.
func (h *NotificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if !h.allow(w, r, gate.ActionSend, policy.ResourceNotification, n) {
		return
	}
	n, err = h.svc.Resend(r.Context(), n.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.Log.WithField("notification_id", n.ID).Info("notification requeued")
	h.done(w, r, http.StatusOK, "/admin/notifications", "notification_resent", n)
}
