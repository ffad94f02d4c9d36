package handlers

import (
	"net/http"

	"mealtrust/internal/service"
)

// StatsHandler serves the national statistics snapshot
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetNationalStats returns the national aggregate counters
// @Summary National statistics
// @Description Point-in-time counts across kitchens, reviews and incidents
// @Tags Stats
// @Success 200 {object} models.NationalStats
// @Router /stats/national [get]
func (h *StatsHandler) GetNationalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetNationalStats()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, stats)
}
