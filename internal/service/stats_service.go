package service

import (
	"fmt"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// StatsService computes the national point-in-time snapshot
type StatsService struct {
	kitchenRepo  *repository.KitchenRepository
	reviewRepo   *repository.ReviewRepository
	incidentRepo *repository.IncidentRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	kitchenRepo *repository.KitchenRepository,
	reviewRepo *repository.ReviewRepository,
	incidentRepo *repository.IncidentRepository,
) *StatsService {
	return &StatsService{
		kitchenRepo:  kitchenRepo,
		reviewRepo:   reviewRepo,
		incidentRepo: incidentRepo,
	}
}

// GetNationalStats aggregates counts across all kitchens, reviews and
// incidents
func (s *StatsService) GetNationalStats() (*models.NationalStats, error) {
	kitchens, err := s.kitchenRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count kitchens: %w", err)
	}

	totalReviews, verifiedReviews, averageRating, err := s.reviewRepo.CountTotals()
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	totalIncidents, activeIncidents, resolvedIncidents, criticalIncidents, err := s.incidentRepo.CountTotals()
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}

	return &models.NationalStats{
		TotalKitchens:     kitchens,
		TotalReviews:      totalReviews,
		VerifiedReviews:   verifiedReviews,
		AverageRating:     averageRating,
		TotalIncidents:    totalIncidents,
		ActiveIncidents:   activeIncidents,
		ResolvedIncidents: resolvedIncidents,
		CriticalIncidents: criticalIncidents,
	}, nil
}
