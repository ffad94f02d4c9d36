package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

const maxTrendMonths = 36

// TrendService derives monthly compliance trends from verified reviews
// and incident records. It is read-only: calling it twice over an
// unchanged data set returns identical results.
type TrendService struct {
	reviewRepo   *repository.ReviewRepository
	incidentRepo *repository.IncidentRepository
	kitchenRepo  *repository.KitchenRepository
}

// NewTrendService creates a new trend service
func NewTrendService(
	reviewRepo *repository.ReviewRepository,
	incidentRepo *repository.IncidentRepository,
	kitchenRepo *repository.KitchenRepository,
) *TrendService {
	return &TrendService{
		reviewRepo:   reviewRepo,
		incidentRepo: incidentRepo,
		kitchenRepo:  kitchenRepo,
	}
}

// GetTrend returns one ComplianceTrendPoint per trailing calendar month,
// most recent first. A month with no verified reviews has a nil score,
// never zero. Its incident count is tallied regardless of review
// presence.
func (s *TrendService) GetTrend(kitchenID uuid.UUID, months int) ([]models.ComplianceTrendPoint, error) {
	if months < 1 || months > maxTrendMonths {
		return nil, NewValidationError("months",
			fmt.Sprintf("months must be between 1 and %d", maxTrendMonths))
	}

	kitchen, err := s.kitchenRepo.GetByID(kitchenID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up kitchen: %w", err)
	}
	if kitchen == nil {
		return nil, NewNotFoundError("kitchen", kitchenID.String())
	}

	now := time.Now().UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := currentMonth.AddDate(0, -(months - 1), 0)

	averages, err := s.reviewRepo.GetMonthlyVerifiedAverages(kitchenID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	incidents, err := s.incidentRepo.GetMonthlyCounts(kitchenID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate incidents: %w", err)
	}

	averagesByMonth := make(map[string]repository.MonthlyAverage, len(averages))
	for _, avg := range averages {
		averagesByMonth[avg.Month] = avg
	}
	incidentsByMonth := make(map[string]int, len(incidents))
	for _, c := range incidents {
		incidentsByMonth[c.Month] = c.Count
	}

	points := make([]models.ComplianceTrendPoint, 0, months)
	for i := 0; i < months; i++ {
		month := currentMonth.AddDate(0, -i, 0).Format("2006-01")
		point := models.ComplianceTrendPoint{
			KitchenID:     kitchenID,
			Month:         month,
			IncidentCount: incidentsByMonth[month],
		}
		if avg, ok := averagesByMonth[month]; ok {
			score := math.Round(avg.Average*10) / 10
			point.Score = &score
			point.ReviewCount = avg.ReviewCount
		}
		points = append(points, point)
	}
	return points, nil
}
