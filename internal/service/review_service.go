package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// verificationTransitions maps each verification status to its only legal
// successor. Verified is terminal.
var verificationTransitions = map[models.VerificationStatus]models.VerificationStatus{
	models.VerificationUnverified: models.VerificationInProgress,
	models.VerificationInProgress: models.VerificationVerified,
}

// disputeTransitions maps each dispute status to its only legal successor.
// None is entered at creation and never re-entered; resolved is terminal.
var disputeTransitions = map[models.DisputeStatus]models.DisputeStatus{
	models.DisputeNone:        models.DisputeDisputed,
	models.DisputeDisputed:    models.DisputeUnderReview,
	models.DisputeUnderReview: models.DisputeResolved,
}

// ReviewService handles the review lifecycle: submission, author edits,
// verification and dispute state machines.
type ReviewService struct {
	db            *sql.DB
	reviewRepo    *repository.ReviewRepository
	disputeRepo   *repository.DisputeHistoryRepository
	kitchenRepo   *repository.KitchenRepository
	auditRepo     *repository.AuditRepository
	notifications *NotificationService
}

// NewReviewService creates a new review service
func NewReviewService(
	db *sql.DB,
	reviewRepo *repository.ReviewRepository,
	disputeRepo *repository.DisputeHistoryRepository,
	kitchenRepo *repository.KitchenRepository,
	auditRepo *repository.AuditRepository,
	notifications *NotificationService,
) *ReviewService {
	return &ReviewService{
		db:            db,
		reviewRepo:    reviewRepo,
		disputeRepo:   disputeRepo,
		kitchenRepo:   kitchenRepo,
		auditRepo:     auditRepo,
		notifications: notifications,
	}
}

// SubmitReviewInput carries a new review submission.
type SubmitReviewInput struct {
	KitchenID       uuid.UUID              `json:"kitchen_id"`
	ReviewerType    models.ReviewerType    `json:"reviewer_type"`
	Ratings         models.HaccpRatings    `json:"ratings"`
	Comment         string                 `json:"comment"`
	Photos          []string               `json:"photos"`
	ReportSource    models.ReportSource    `json:"report_source"`
	ConfidenceLevel models.ConfidenceLevel `json:"confidence_level"`
	RootCauses      []models.RootCause     `json:"root_causes"`
	Evidence        *models.Evidence       `json:"evidence"`
	IsDraft         bool                   `json:"is_draft"`
}

// Submit validates and persists a new review. New reviews always start
// unverified with no dispute; no notification fires on creation.
func (s *ReviewService) Submit(actor models.Actor, input SubmitReviewInput) (*models.Review, error) {
	if err := validateSubmission(&input); err != nil {
		return nil, err
	}

	kitchen, err := s.kitchenRepo.GetByID(input.KitchenID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up kitchen: %w", err)
	}
	if kitchen == nil {
		return nil, NewNotFoundError("kitchen", input.KitchenID.String())
	}

	review := &models.Review{
		KitchenID:          input.KitchenID,
		ReviewerID:         actor.UserID,
		ReviewerName:       actor.Name,
		ReviewerType:       input.ReviewerType,
		Ratings:            input.Ratings,
		Comment:            input.Comment,
		Photos:             input.Photos,
		VerificationStatus: models.VerificationUnverified,
		ReportSource:       input.ReportSource,
		ConfidenceLevel:    input.ConfidenceLevel,
		RootCauses:         input.RootCauses,
		Evidence:           input.Evidence,
		DisputeStatus:      models.DisputeNone,
		Verified:           false,
		IsDraft:            input.IsDraft,
	}

	if err := s.reviewRepo.Create(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	review.AverageRating = review.Ratings.Average()
	slog.Info("Review submitted",
		"review_id", review.ID,
		"kitchen_id", review.KitchenID,
		"reviewer", actor.Code,
		"average", review.AverageRating,
	)
	return review, nil
}

// BatchResult is the outcome of one item in a batch submission.
type BatchResult struct {
	Index  int            `json:"index"`
	Review *models.Review `json:"review,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// SubmitBatch submits each review independently; one failing item does
// not roll back the others.
func (s *ReviewService) SubmitBatch(actor models.Actor, inputs []SubmitReviewInput) []BatchResult {
	results := make([]BatchResult, 0, len(inputs))
	for i, input := range inputs {
		review, err := s.Submit(actor, input)
		result := BatchResult{Index: i, Review: review}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// UpdateReviewInput carries an author edit. Nil fields are left unchanged;
// identity fields cannot be patched.
type UpdateReviewInput struct {
	Ratings    *models.HaccpRatings `json:"ratings"`
	Comment    *string              `json:"comment"`
	Photos     *[]string            `json:"photos"`
	RootCauses *[]models.RootCause  `json:"root_causes"`
	Evidence   *models.Evidence     `json:"evidence"`
	IsDraft    *bool                `json:"is_draft"`
}

// Update applies an author edit. Verified reviews are immutable, and only
// the original reviewer may edit.
func (s *ReviewService) Update(actor models.Actor, id uuid.UUID, patch UpdateReviewInput) (*models.Review, error) {
	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}
	if review.VerificationStatus == models.VerificationVerified {
		return nil, NewForbiddenError("verified reviews cannot be edited")
	}
	if review.ReviewerID != actor.UserID {
		return nil, NewForbiddenError("only the original reviewer may edit a review")
	}

	if patch.Ratings != nil {
		if err := validateRatings(*patch.Ratings); err != nil {
			return nil, err
		}
		review.Ratings = *patch.Ratings
	}
	if patch.Comment != nil {
		if err := validateComment(*patch.Comment); err != nil {
			return nil, err
		}
		review.Comment = *patch.Comment
	}
	if patch.Photos != nil {
		if len(*patch.Photos) > maxPhotos {
			return nil, NewValidationError("photos", fmt.Sprintf("at most %d photos allowed", maxPhotos))
		}
		review.Photos = *patch.Photos
	}
	if patch.RootCauses != nil {
		if err := validateRootCauses(*patch.RootCauses); err != nil {
			return nil, err
		}
		review.RootCauses = *patch.RootCauses
	}
	if patch.Evidence != nil {
		review.Evidence = patch.Evidence
	}
	if patch.IsDraft != nil {
		review.IsDraft = *patch.IsDraft
	}

	if err := s.reviewRepo.UpdateContent(review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	review.AverageRating = review.Ratings.Average()
	return review, nil
}

// Delete removes a review. Only the original reviewer may delete, and
// only before verification; verified reviews are never hard-deleted.
func (s *ReviewService) Delete(actor models.Actor, id uuid.UUID) error {
	review, err := s.getReview(id)
	if err != nil {
		return err
	}
	if review.VerificationStatus == models.VerificationVerified {
		return NewForbiddenError("verified reviews cannot be deleted")
	}
	if review.ReviewerID != actor.UserID {
		return NewForbiddenError("only the original reviewer may delete a review")
	}

	if err := s.reviewRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	slog.Info("Review deleted", "review_id", id, "reviewer", actor.Code)
	return nil
}

// SetVerificationStatus advances a review's verification state machine.
// Only forward transitions are permitted. On transition to verified the
// notification dispatcher runs in the same transaction, so the review row
// and any resulting notification commit or roll back together.
func (s *ReviewService) SetVerificationStatus(moderator models.Actor, id uuid.UUID, newStatus models.VerificationStatus) (*models.Review, error) {
	if !moderator.IsModerator() {
		return nil, NewForbiddenError("only moderators may change verification status")
	}
	if !newStatus.IsValid() {
		return nil, NewValidationError("verification_status", "unknown status "+string(newStatus))
	}

	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}

	next, ok := verificationTransitions[review.VerificationStatus]
	if !ok || next != newStatus {
		return nil, NewInvalidTransitionError("verification",
			string(review.VerificationStatus), string(newStatus))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	applied, err := s.reviewRepo.UpdateVerificationStatusTx(tx, id, review.VerificationStatus, newStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update verification status: %w", err)
	}
	if !applied {
		return nil, ErrConcurrentModification
	}

	if newStatus == models.VerificationVerified {
		review.VerificationStatus = models.VerificationVerified
		review.Verified = true
		if _, err := s.notifications.DispatchOnVerifiedTx(tx, review); err != nil {
			return nil, fmt.Errorf("failed to dispatch notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logModeration(moderator, "verification_"+string(newStatus), id, "")
	slog.Info("Verification status changed",
		"review_id", id,
		"status", newStatus,
		"moderator", moderator.Code,
	)
	return s.getReview(id)
}

// RejectVerification annotates a review as rejected without introducing a
// rejected state: the review returns to (or stays) unverified and the
// moderator's note lands in the audit log.
func (s *ReviewService) RejectVerification(moderator models.Actor, id uuid.UUID, note string) (*models.Review, error) {
	if !moderator.IsModerator() {
		return nil, NewForbiddenError("only moderators may reject verification")
	}

	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}
	if review.VerificationStatus == models.VerificationVerified {
		return nil, NewInvalidTransitionError("verification",
			string(models.VerificationVerified), string(models.VerificationUnverified))
	}

	if review.VerificationStatus == models.VerificationInProgress {
		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
				slog.Error("Failed to rollback transaction", "error", err)
			}
		}()

		applied, err := s.reviewRepo.UpdateVerificationStatusTx(tx, id,
			models.VerificationInProgress, models.VerificationUnverified)
		if err != nil {
			return nil, fmt.Errorf("failed to reset verification status: %w", err)
		}
		if !applied {
			return nil, ErrConcurrentModification
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	s.logModeration(moderator, "verification_rejected", id, note)
	slog.Info("Verification rejected", "review_id", id, "moderator", moderator.Code)
	return s.getReview(id)
}

// FileDispute opens a dispute on a review. Only a kitchen or supplier
// actor tied to the review's kitchen may file, and only when no dispute
// exists yet. The status change and the history entry commit atomically.
func (s *ReviewService) FileDispute(actor models.Actor, id uuid.UUID, reason string) (*models.Review, error) {
	if actor.Role != models.RoleKitchen && actor.Role != models.RoleSupplier {
		return nil, NewForbiddenError("only kitchen or supplier actors may file disputes")
	}

	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}
	if actor.KitchenID == nil || *actor.KitchenID != review.KitchenID {
		return nil, NewForbiddenError("actor is not tied to the reviewed kitchen")
	}
	if review.DisputeStatus != models.DisputeNone {
		return nil, NewInvalidTransitionError("dispute",
			string(review.DisputeStatus), string(models.DisputeDisputed))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	applied, err := s.reviewRepo.UpdateDisputeStatusTx(tx, id, models.DisputeNone, models.DisputeDisputed)
	if err != nil {
		return nil, fmt.Errorf("failed to update dispute status: %w", err)
	}
	if !applied {
		return nil, ErrConcurrentModification
	}

	userID := actor.UserID
	entry := &models.DisputeHistoryEntry{
		ReviewID:   id,
		Action:     models.DisputeActionFiled,
		ByUserID:   &userID,
		ByUserCode: actor.Code,
		Notes:      reason,
	}
	if err := s.disputeRepo.CreateTx(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append dispute history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Dispute filed", "review_id", id, "actor", actor.Code)
	return s.getReview(id)
}

// AdvanceDispute moves a dispute strictly forward: disputed ->
// under_review -> resolved. Skipping under_review is rejected even though
// the storage schema would allow it. When resolving, upheld selects
// whether the history entry records Resolved or Rejected.
func (s *ReviewService) AdvanceDispute(moderator models.Actor, id uuid.UUID, newStatus models.DisputeStatus, upheld bool, notes string) (*models.Review, error) {
	if !moderator.IsModerator() {
		return nil, NewForbiddenError("only moderators may advance disputes")
	}
	if !newStatus.IsValid() {
		return nil, NewValidationError("dispute_status", "unknown status "+string(newStatus))
	}

	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}

	next, ok := disputeTransitions[review.DisputeStatus]
	if review.DisputeStatus == models.DisputeNone || !ok || next != newStatus {
		return nil, NewInvalidTransitionError("dispute",
			string(review.DisputeStatus), string(newStatus))
	}

	action := models.DisputeActionUnderReview
	if newStatus == models.DisputeResolved {
		if upheld {
			action = models.DisputeActionResolved
		} else {
			action = models.DisputeActionRejected
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	applied, err := s.reviewRepo.UpdateDisputeStatusTx(tx, id, review.DisputeStatus, newStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update dispute status: %w", err)
	}
	if !applied {
		return nil, ErrConcurrentModification
	}

	userID := moderator.UserID
	entry := &models.DisputeHistoryEntry{
		ReviewID:   id,
		Action:     action,
		ByUserID:   &userID,
		ByUserCode: moderator.Code,
		Notes:      notes,
	}
	if err := s.disputeRepo.CreateTx(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append dispute history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logModeration(moderator, "dispute_"+string(newStatus), id, notes)
	slog.Info("Dispute advanced",
		"review_id", id,
		"status", newStatus,
		"action", action,
		"moderator", moderator.Code,
	)
	return s.getReview(id)
}

// GetByID retrieves a single review
func (s *ReviewService) GetByID(id uuid.UUID) (*models.Review, error) {
	return s.getReview(id)
}

// GetDisputeHistory retrieves the dispute log of a review in
// chronological order
func (s *ReviewService) GetDisputeHistory(id uuid.UUID) ([]models.DisputeHistoryEntry, error) {
	if _, err := s.getReview(id); err != nil {
		return nil, err
	}
	return s.disputeRepo.ListByReview(id)
}

// ListPublic retrieves verified reviews for public consumption
func (s *ReviewService) ListPublic(limit, offset int) ([]models.Review, error) {
	return s.reviewRepo.ListPublic(clampLimit(limit), maxInt(offset, 0))
}

// ListByKitchen retrieves a kitchen's reviews
func (s *ReviewService) ListByKitchen(kitchenID uuid.UUID, limit, offset int) ([]models.Review, error) {
	kitchen, err := s.kitchenRepo.GetByID(kitchenID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up kitchen: %w", err)
	}
	if kitchen == nil {
		return nil, NewNotFoundError("kitchen", kitchenID.String())
	}
	return s.reviewRepo.ListByKitchen(kitchenID, clampLimit(limit), maxInt(offset, 0))
}

func (s *ReviewService) getReview(id uuid.UUID) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up review: %w", err)
	}
	if review == nil {
		return nil, NewNotFoundError("review", id.String())
	}
	return review, nil
}

func (s *ReviewService) logModeration(moderator models.Actor, action string, reviewID uuid.UUID, details string) {
	userID := moderator.UserID
	entry := &models.AuditLog{
		UserID:     &userID,
		UserName:   moderator.Name,
		Action:     action,
		EntityType: "review",
		EntityID:   reviewID.String(),
		Details:    details,
	}
	if err := s.auditRepo.Create(entry); err != nil {
		slog.Error("Failed to write audit log", "error", err, "action", action)
	}
}

// Validation

const (
	minCommentLen = 10
	maxCommentLen = 1000
	maxPhotos     = 5
)

func validateSubmission(input *SubmitReviewInput) error {
	if !input.ReviewerType.IsValid() {
		return NewValidationError("reviewer_type", "unknown reviewer type "+string(input.ReviewerType))
	}
	if !input.ReportSource.IsValid() {
		return NewValidationError("report_source", "unknown report source "+string(input.ReportSource))
	}
	if err := validateRatings(input.Ratings); err != nil {
		return err
	}
	if err := validateComment(input.Comment); err != nil {
		return err
	}
	if len(input.Photos) > maxPhotos {
		return NewValidationError("photos", fmt.Sprintf("at most %d photos allowed", maxPhotos))
	}
	if err := validateRootCauses(input.RootCauses); err != nil {
		return err
	}

	// Confidence defaults from the report source when not supplied.
	if input.ConfidenceLevel == "" {
		switch input.ReportSource {
		case models.SourcePublic:
			input.ConfidenceLevel = models.ConfidenceMedium
		default:
			input.ConfidenceLevel = models.ConfidenceHigh
		}
	} else if !input.ConfidenceLevel.IsValid() {
		return NewValidationError("confidence_level", "unknown confidence level "+string(input.ConfidenceLevel))
	}

	return nil
}

func validateRatings(ratings models.HaccpRatings) error {
	for _, c := range []models.RatingCategory{
		models.CategoryTaste, models.CategoryHygiene, models.CategoryFreshness,
		models.CategoryTemperature, models.CategoryPackaging, models.CategoryHandling,
	} {
		v := ratings.ByCategory(c)
		if v < 0 || v > 5 {
			return NewValidationError(string(c), "rating must be within [0.0, 5.0]")
		}
		// Ratings carry one decimal of precision.
		if scaled := v * 10; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			return NewValidationError(string(c), "rating must use 0.1 granularity")
		}
	}
	return nil
}

func validateComment(comment string) error {
	if len(comment) < minCommentLen || len(comment) > maxCommentLen {
		return NewValidationError("comment",
			fmt.Sprintf("comment must be between %d and %d characters", minCommentLen, maxCommentLen))
	}
	return nil
}

func validateRootCauses(causes []models.RootCause) error {
	for _, c := range causes {
		if !c.IsValid() {
			return NewValidationError("root_causes", "unknown root cause "+string(c))
		}
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
