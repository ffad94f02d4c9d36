package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"mealtrust/internal/middleware"
	"mealtrust/internal/service"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List retrieves the notifications visible to the caller
// @Summary List notifications
// @Description Notifications filtered by the caller's role visibility
// @Tags Notifications
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	notifications, err := h.notificationService.ListForActor(actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, notifications)
}

// MarkViewed transitions a notification from new to viewed
// @Summary Mark notification viewed
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /notifications/{id}/view [post]
func (h *NotificationHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notification, err := h.notificationService.MarkViewed(actor, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, notification)
}

// MarkResolved transitions a notification to its terminal state
// @Summary Mark notification resolved
// @Description Resolving an already resolved notification is a no-op
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} models.Notification
// @Router /notifications/{id}/resolve [post]
func (h *NotificationHandler) MarkResolved(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notification, err := h.notificationService.MarkResolved(actor, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, notification)
}

// GetAuditTrail lists a notification's audit trail
// @Summary Get notification audit trail
// @Description Chronological, append-only trail of the notification's lifecycle
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {array} models.NotificationAuditEntry
// @Failure 404 {object} map[string]string "Not found"
// @Router /notifications/{id}/audit [get]
func (h *NotificationHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	trail, err := h.notificationService.GetAuditTrail(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, trail)
}
