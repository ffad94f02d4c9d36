package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"mealtrust/internal/middleware"
	"mealtrust/internal/models"
	"mealtrust/internal/service"
)

// ReviewHandler handles review lifecycle HTTP requests
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// SubmitReview submits a new review
// @Summary Submit review
// @Description Submit a new HACCP review for a kitchen
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param review body service.SubmitReviewInput true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Kitchen not found"
// @Router /reviews [post]
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	var input service.SubmitReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.Submit(actor, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, review)
}

// SubmitBatch submits multiple reviews independently
// @Summary Submit batch of reviews
// @Description Submit several reviews at once; each item succeeds or fails on its own
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param reviews body []service.SubmitReviewInput true "Reviews"
// @Success 200 {array} service.BatchResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /reviews/batch [post]
func (h *ReviewHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	var inputs []service.SubmitReviewInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if len(inputs) == 0 {
		http.Error(w, "Batch must contain at least one review", http.StatusBadRequest)
		return
	}

	JSONResponse(w, h.reviewService.SubmitBatch(actor, inputs))
}

// GetReview retrieves a single review
// @Summary Get review
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} map[string]string "Not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.GetByID(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// UpdateReview applies an author edit to an unverified review
// @Summary Update review
// @Description Edit ratings, comment, photos or root causes of an unverified review
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param id path string true "Review ID"
// @Param patch body service.UpdateReviewInput true "Fields to update"
// @Success 200 {object} models.Review
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	var patch service.UpdateReviewInput
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.Update(actor, id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// DeleteReview deletes an unverified review
// @Summary Delete review
// @Description Delete an unverified review; verified reviews are never hard-deleted
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	if err := h.reviewService.Delete(actor, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify advances a review's verification status
// @Summary Advance verification status
// @Description Move a review forward through unverified -> in_progress -> verified
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param id path string true "Review ID"
// @Param body body object{status=string} true "Target status"
// @Success 200 {object} models.Review
// @Failure 409 {object} map[string]string "Invalid transition or lost race"
// @Router /reviews/{id}/verify [post]
func (h *ReviewHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.VerificationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.SetVerificationStatus(actor, id, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// RejectVerification annotates a review as rejected
// @Summary Reject verification
// @Description Keep a review unverified and record the moderator's note
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param id path string true "Review ID"
// @Param body body object{note=string} true "Rejection note"
// @Success 200 {object} models.Review
// @Failure 409 {object} map[string]string "Already verified"
// @Router /reviews/{id}/reject-verification [post]
func (h *ReviewHandler) RejectVerification(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.RejectVerification(actor, id, req.Note)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// FileDispute opens a dispute on a review
// @Summary File dispute
// @Description Challenge a review's findings on behalf of the reviewed kitchen
// @Tags Disputes
// @Security BearerAuth
// @Accept json
// @Param id path string true "Review ID"
// @Param body body object{reason=string} true "Dispute reason"
// @Success 200 {object} models.Review
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Dispute already exists"
// @Router /reviews/{id}/dispute [post]
func (h *ReviewHandler) FileDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.FileDispute(actor, id, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// AdvanceDispute moves a dispute strictly forward
// @Summary Advance dispute
// @Description Move a dispute through disputed -> under_review -> resolved
// @Tags Disputes
// @Security BearerAuth
// @Accept json
// @Param id path string true "Review ID"
// @Param body body object{status=string,upheld=bool,notes=string} true "Target status"
// @Success 200 {object} models.Review
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /reviews/{id}/dispute/advance [post]
func (h *ReviewHandler) AdvanceDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.DisputeStatus `json:"status"`
		Upheld bool                 `json:"upheld"`
		Notes  string               `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	review, err := h.reviewService.AdvanceDispute(actor, id, req.Status, req.Upheld, req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, review)
}

// GetDisputeHistory lists a review's dispute log
// @Summary Get dispute history
// @Tags Disputes
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {array} models.DisputeHistoryEntry
// @Failure 404 {object} map[string]string "Not found"
// @Router /reviews/{id}/dispute/history [get]
func (h *ReviewHandler) GetDisputeHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, ErrMsgInvalidReviewID, http.StatusBadRequest)
		return
	}

	history, err := h.reviewService.GetDisputeHistory(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, history)
}

// ListPublic lists verified reviews
// @Summary List public reviews
// @Description Verified, non-draft reviews, newest first
// @Tags Reviews
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Review
// @Router /reviews/public [get]
func (h *ReviewHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	reviews, err := h.reviewService.ListPublic(limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, reviews)
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
