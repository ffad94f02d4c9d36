package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"mealtrust/internal/config"
	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// Notification audit actions. Created/viewed/resolved mirror the status
// lifecycle; each transition appends exactly one entry.
const (
	auditActionCreated  = "created"
	auditActionViewed   = "viewed"
	auditActionResolved = "resolved"
)

// NotificationService generates, targets and tracks notifications in
// response to review events, and maintains their immutable audit trail.
type NotificationService struct {
	db               *sql.DB
	notificationRepo *repository.NotificationRepository
	auditTrailRepo   *repository.NotificationAuditRepository
	kitchenRepo      *repository.KitchenRepository
	userRepo         *repository.UserRepository
	cfg              *config.NotifyConfig
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	db *sql.DB,
	notificationRepo *repository.NotificationRepository,
	auditTrailRepo *repository.NotificationAuditRepository,
	kitchenRepo *repository.KitchenRepository,
	userRepo *repository.UserRepository,
	cfg *config.NotifyConfig,
) *NotificationService {
	return &NotificationService{
		db:               db,
		notificationRepo: notificationRepo,
		auditTrailRepo:   auditTrailRepo,
		kitchenRepo:      kitchenRepo,
		userRepo:         userRepo,
		cfg:              cfg,
	}
}

// ShouldNotify reports whether a verified review warrants a notification:
// at least one rating below the threshold, or any root cause tagged.
// Positive reviews stay silent to avoid notification noise.
func ShouldNotify(review *models.Review, threshold float64) bool {
	if len(review.RootCauses) > 0 {
		return true
	}
	_, lowest := review.Ratings.Lowest()
	return lowest < threshold
}

// ClassifyPriority grades a qualifying review. Critical: any rating below
// 2.0, or a high-confidence report naming a critical root cause. Medium:
// lowest rating in [2.0, threshold). Minor: ratings acceptable but a root
// cause is tagged.
func ClassifyPriority(review *models.Review, threshold float64) models.NotificationPriority {
	_, lowest := review.Ratings.Lowest()
	if lowest < 2.0 {
		return models.PriorityCritical
	}
	if review.ConfidenceLevel == models.ConfidenceHigh {
		for _, cause := range review.RootCauses {
			if cause.IsCritical() {
				return models.PriorityCritical
			}
		}
	}
	if lowest < threshold {
		return models.PriorityMedium
	}
	return models.PriorityMinor
}

// TargetForReview selects the notification audience: the reviewed kitchen,
// unless an official inspector filed the report, which concerns everyone.
func TargetForReview(review *models.Review) models.TargetRole {
	if review.ReportSource == models.SourceOfficialInspector {
		return models.TargetAll
	}
	return models.TargetKitchen
}

// DispatchOnVerifiedTx builds and persists the notification for a freshly
// verified review, inside the caller's transaction so that verification,
// notification and its audit entry commit atomically. Returns nil when
// the review does not warrant a notification.
func (s *NotificationService) DispatchOnVerifiedTx(tx *sql.Tx, review *models.Review) (*models.Notification, error) {
	if !ShouldNotify(review, s.cfg.RatingThreshold) {
		return nil, nil
	}

	kitchen, err := s.kitchenRepo.GetByID(review.KitchenID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve kitchen: %w", err)
	}

	kitchenName := review.KitchenID.String()
	kitchenCode := ""
	if kitchen != nil {
		kitchenName = kitchen.Name
		kitchenCode = kitchen.Code
	}

	createdBy := review.ReviewerName
	schoolCode := ""
	reviewer, err := s.userRepo.GetByID(review.ReviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reviewer: %w", err)
	}
	if reviewer != nil {
		createdBy = reviewer.UniqueCode
		if reviewer.Role == models.RoleSchool {
			schoolCode = reviewer.UniqueCode
		}
	}

	category, lowest := review.Ratings.Lowest()
	reviewID := review.ID
	notification := &models.Notification{
		Title:       fmt.Sprintf("Food safety alert: %s at %s", category, kitchenName),
		Description: describeReview(review, category, lowest),
		Category:    category,
		Priority:    ClassifyPriority(review, s.cfg.RatingThreshold),
		KitchenCode: kitchenCode,
		SchoolCode:  schoolCode,
		ReviewID:    &reviewID,
		Status:      models.NotificationNew,
		TargetRole:  TargetForReview(review),
		CreatedBy:   createdBy,
	}

	if err := s.notificationRepo.CreateTx(tx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	entry := &models.NotificationAuditEntry{
		NotificationID: notification.ID,
		Action:         auditActionCreated,
		UserCode:       createdBy,
	}
	if err := s.auditTrailRepo.CreateTx(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append notification audit entry: %w", err)
	}

	slog.Info("Notification dispatched",
		"notification_id", notification.ID,
		"review_id", review.ID,
		"category", notification.Category,
		"priority", notification.Priority,
		"target_role", notification.TargetRole,
	)
	return notification, nil
}

// MarkViewed transitions a notification from new to viewed and appends
// one audit entry, atomically.
func (s *NotificationService) MarkViewed(actor models.Actor, id uuid.UUID) (*models.Notification, error) {
	notification, err := s.getNotification(id)
	if err != nil {
		return nil, err
	}
	if notification.Status != models.NotificationNew {
		return nil, NewInvalidTransitionError("notification",
			string(notification.Status), string(models.NotificationViewed))
	}

	if err := s.transition(id, notification.Status, models.NotificationViewed, auditActionViewed, actor.Code); err != nil {
		return nil, err
	}
	return s.getNotification(id)
}

// MarkResolved transitions a notification to its terminal resolved state
// and appends one audit entry, atomically. Resolving an already resolved
// notification is a no-op so retries never duplicate audit entries.
func (s *NotificationService) MarkResolved(actor models.Actor, id uuid.UUID) (*models.Notification, error) {
	notification, err := s.getNotification(id)
	if err != nil {
		return nil, err
	}
	if notification.Status == models.NotificationResolved {
		return notification, nil
	}

	if err := s.transition(id, notification.Status, models.NotificationResolved, auditActionResolved, actor.Code); err != nil {
		return nil, err
	}
	return s.getNotification(id)
}

// ListForActor retrieves the notifications visible to the actor under the
// role-visibility rule.
func (s *NotificationService) ListForActor(actor models.Actor) ([]models.Notification, error) {
	return s.notificationRepo.ListForActor(actor)
}

// GetAuditTrail retrieves a notification's audit trail in chronological
// order
func (s *NotificationService) GetAuditTrail(id uuid.UUID) ([]models.NotificationAuditEntry, error) {
	if _, err := s.getNotification(id); err != nil {
		return nil, err
	}
	return s.auditTrailRepo.ListByNotification(id)
}

func (s *NotificationService) transition(id uuid.UUID, from, to models.NotificationStatus, action, userCode string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	applied, err := s.notificationRepo.UpdateStatusTx(tx, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	if !applied {
		return ErrConcurrentModification
	}

	entry := &models.NotificationAuditEntry{
		NotificationID: id,
		Action:         action,
		UserCode:       userCode,
	}
	if err := s.auditTrailRepo.CreateTx(tx, entry); err != nil {
		return fmt.Errorf("failed to append notification audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Notification status changed", "notification_id", id, "status", to, "actor", userCode)
	return nil
}

func (s *NotificationService) getNotification(id uuid.UUID) (*models.Notification, error) {
	notification, err := s.notificationRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up notification: %w", err)
	}
	if notification == nil {
		return nil, NewNotFoundError("notification", id.String())
	}
	return notification, nil
}

func describeReview(review *models.Review, category models.RatingCategory, lowest float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review scored %.1f on %s (average %.1f).", lowest, category, review.Ratings.Average())
	if len(review.RootCauses) > 0 {
		causes := make([]string, len(review.RootCauses))
		for i, c := range review.RootCauses {
			causes[i] = string(c)
		}
		fmt.Fprintf(&b, " Root causes: %s.", strings.Join(causes, ", "))
	}
	fmt.Fprintf(&b, " Report source: %s, confidence %s.", review.ReportSource, review.ConfidenceLevel)
	return b.String()
}
