package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"mealtrust/internal/middleware"
	"mealtrust/internal/repository"
	"mealtrust/internal/service"
)

// IncidentHandler handles food safety incident HTTP requests
type IncidentHandler struct {
	incidentService *service.IncidentService
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(incidentService *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService}
}

// Report records a new food safety incident
// @Summary Report incident
// @Tags Incidents
// @Security BearerAuth
// @Accept json
// @Param incident body service.ReportIncidentInput true "Incident"
// @Success 201 {object} models.Incident
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Kitchen not found"
// @Router /incidents [post]
func (h *IncidentHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	var input service.ReportIncidentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	incident, err := h.incidentService.Report(actor, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, incident)
}

// List retrieves incidents with optional filters
// @Summary List incidents
// @Tags Incidents
// @Param kitchen_id query string false "Kitchen ID"
// @Param province query string false "Province"
// @Param severity query string false "Severity"
// @Param status query string false "Status"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Incident
// @Router /incidents [get]
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.IncidentFilters{
		Province: q.Get("province"),
		Severity: q.Get("severity"),
		Status:   q.Get("status"),
	}
	if raw := q.Get("kitchen_id"); raw != "" {
		kitchenID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
			return
		}
		filters.KitchenID = &kitchenID
	}

	limit, offset := paginationParams(r)
	incidents, err := h.incidentService.List(filters, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, incidents)
}
