package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"mealtrust/internal/middleware"
	"mealtrust/internal/service"
)

const defaultTrendMonths = 12

// KitchenHandler handles kitchen registry HTTP requests
type KitchenHandler struct {
	kitchenService *service.KitchenService
	reviewService  *service.ReviewService
	trendService   *service.TrendService
}

// NewKitchenHandler creates a new kitchen handler
func NewKitchenHandler(
	kitchenService *service.KitchenService,
	reviewService *service.ReviewService,
	trendService *service.TrendService,
) *KitchenHandler {
	return &KitchenHandler{
		kitchenService: kitchenService,
		reviewService:  reviewService,
		trendService:   trendService,
	}
}

// List lists all kitchens with review aggregates
// @Summary List kitchens
// @Tags Kitchens
// @Success 200 {array} models.KitchenWithStats
// @Router /kitchens [get]
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	kitchens, err := h.kitchenService.List()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, kitchens)
}

// Get retrieves a single kitchen
// @Summary Get kitchen
// @Tags Kitchens
// @Param id path string true "Kitchen ID"
// @Success 200 {object} models.Kitchen
// @Failure 404 {object} map[string]string "Not found"
// @Router /kitchens/{id} [get]
func (h *KitchenHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	kitchen, err := h.kitchenService.GetByID(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, kitchen)
}

// ListReviews lists a kitchen's reviews
// @Summary List kitchen reviews
// @Tags Kitchens
// @Security BearerAuth
// @Param id path string true "Kitchen ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Review
// @Router /kitchens/{id}/reviews [get]
func (h *KitchenHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	limit, offset := paginationParams(r)
	reviews, err := h.reviewService.ListByKitchen(id, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, reviews)
}

// GetTrend returns a kitchen's monthly compliance trend
// @Summary Get compliance trend
// @Description One point per trailing calendar month, most recent first. Months with no verified reviews carry a null score.
// @Tags Kitchens
// @Param id path string true "Kitchen ID"
// @Param months query int false "Window size in months (1-36, default 12)"
// @Success 200 {array} models.ComplianceTrendPoint
// @Failure 400 {object} map[string]string "Invalid window"
// @Failure 404 {object} map[string]string "Not found"
// @Router /kitchens/{id}/trend [get]
func (h *KitchenHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	months := defaultTrendMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid months parameter", http.StatusBadRequest)
			return
		}
	}

	trend, err := h.trendService.GetTrend(id, months)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, trend)
}

// GetStats returns per-dimension aggregates and the rating distribution
// @Summary Get kitchen stats
// @Tags Kitchens
// @Param id path string true "Kitchen ID"
// @Success 200 {object} object{stats=models.KitchenStats,distribution=[]models.RatingBucket}
// @Failure 404 {object} map[string]string "Not found"
// @Router /kitchens/{id}/stats [get]
func (h *KitchenHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	stats, distribution, err := h.kitchenService.GetStats(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, map[string]any{
		"stats":        stats,
		"distribution": distribution,
	})
}

// ListBadges lists a kitchen's performance badges
// @Summary List kitchen badges
// @Tags Kitchens
// @Param id path string true "Kitchen ID"
// @Success 200 {array} models.PerformanceBadge
// @Failure 404 {object} map[string]string "Not found"
// @Router /kitchens/{id}/badges [get]
func (h *KitchenHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	badges, err := h.kitchenService.ListBadges(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, badges)
}

// AwardBadge records a performance badge for a kitchen
// @Summary Award badge
// @Tags Kitchens
// @Security BearerAuth
// @Accept json
// @Param id path string true "Kitchen ID"
// @Param badge body service.AwardBadgeInput true "Badge"
// @Success 201 {object} models.PerformanceBadge
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /kitchens/{id}/badges [post]
func (h *KitchenHandler) AwardBadge(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidKitchenID, http.StatusBadRequest)
		return
	}

	var input service.AwardBadgeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	badge, err := h.kitchenService.AwardBadge(actor, id, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, badge)
}
