package handlers

import (
	"net/http"

	"mealtrust/internal/service"
)

// AuditHandler serves the moderation audit log
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListByEntity lists the audit entries of one entity, newest first
// @Summary Get entity audit log
// @Tags Audit
// @Security BearerAuth
// @Param type path string true "Entity type"
// @Param id path string true "Entity ID"
// @Success 200 {array} models.AuditLog
// @Router /audit/{type}/{id} [get]
func (h *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("type")
	entityID := r.PathValue("id")
	if entityType == "" || entityID == "" {
		http.Error(w, "Entity type and ID are required", http.StatusBadRequest)
		return
	}

	entries, err := h.auditService.ListByEntity(entityType, entityID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, entries)
}
