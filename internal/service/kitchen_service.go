package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// KitchenService handles the kitchen registry, its aggregates and badges
type KitchenService struct {
	kitchenRepo *repository.KitchenRepository
	reviewRepo  *repository.ReviewRepository
	badgeRepo   *repository.BadgeRepository
}

// NewKitchenService creates a new kitchen service
func NewKitchenService(
	kitchenRepo *repository.KitchenRepository,
	reviewRepo *repository.ReviewRepository,
	badgeRepo *repository.BadgeRepository,
) *KitchenService {
	return &KitchenService{
		kitchenRepo: kitchenRepo,
		reviewRepo:  reviewRepo,
		badgeRepo:   badgeRepo,
	}
}

// List retrieves all kitchens with their review aggregates
func (s *KitchenService) List() ([]models.KitchenWithStats, error) {
	return s.kitchenRepo.ListWithStats()
}

// GetByID retrieves a single kitchen
func (s *KitchenService) GetByID(id uuid.UUID) (*models.Kitchen, error) {
	kitchen, err := s.kitchenRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up kitchen: %w", err)
	}
	if kitchen == nil {
		return nil, NewNotFoundError("kitchen", id.String())
	}
	return kitchen, nil
}

// GetStats retrieves per-dimension aggregates and the review distribution
// for a kitchen
func (s *KitchenService) GetStats(id uuid.UUID) (*models.KitchenStats, []models.RatingBucket, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, nil, err
	}

	stats, err := s.reviewRepo.GetKitchenStats(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate kitchen stats: %w", err)
	}
	distribution, err := s.reviewRepo.GetRatingDistribution(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute rating distribution: %w", err)
	}
	return stats, distribution, nil
}

// ListBadges retrieves a kitchen's performance badges
func (s *KitchenService) ListBadges(id uuid.UUID) ([]models.PerformanceBadge, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	return s.badgeRepo.ListByKitchen(id)
}

// AwardBadgeInput carries a badge award.
type AwardBadgeInput struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EarnedDate  *time.Time `json:"earned_date"`
}

// AwardBadge records a performance badge for a kitchen. Moderator only.
func (s *KitchenService) AwardBadge(actor models.Actor, kitchenID uuid.UUID, input AwardBadgeInput) (*models.PerformanceBadge, error) {
	if !actor.IsModerator() {
		return nil, NewForbiddenError("only moderators may award badges")
	}
	if input.Type == "" {
		return nil, NewValidationError("type", "badge type is required")
	}
	if input.Title == "" {
		return nil, NewValidationError("title", "badge title is required")
	}
	if _, err := s.GetByID(kitchenID); err != nil {
		return nil, err
	}

	earnedDate := time.Now().UTC()
	if input.EarnedDate != nil {
		earnedDate = *input.EarnedDate
	}

	badge := &models.PerformanceBadge{
		KitchenID:   kitchenID,
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		EarnedDate:  earnedDate,
	}
	if err := s.badgeRepo.Create(badge); err != nil {
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}
	return badge, nil
}
