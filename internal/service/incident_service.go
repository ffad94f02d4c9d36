package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// IncidentService handles food safety incident reporting
type IncidentService struct {
	incidentRepo *repository.IncidentRepository
	kitchenRepo  *repository.KitchenRepository
}

// NewIncidentService creates a new incident service
func NewIncidentService(
	incidentRepo *repository.IncidentRepository,
	kitchenRepo *repository.KitchenRepository,
) *IncidentService {
	return &IncidentService{
		incidentRepo: incidentRepo,
		kitchenRepo:  kitchenRepo,
	}
}

// ReportIncidentInput carries a new incident report.
type ReportIncidentInput struct {
	KitchenID     uuid.UUID               `json:"kitchen_id"`
	Date          time.Time               `json:"date"`
	Location      string                  `json:"location"`
	Province      string                  `json:"province"`
	FoodType      string                  `json:"food_type"`
	AffectedCount int                     `json:"affected_count"`
	Cause         string                  `json:"cause"`
	Severity      models.IncidentSeverity `json:"severity"`
	Description   string                  `json:"description"`
}

// Report validates and persists a new incident
func (s *IncidentService) Report(actor models.Actor, input ReportIncidentInput) (*models.Incident, error) {
	if !input.Severity.IsValid() {
		return nil, NewValidationError("severity", "unknown severity "+string(input.Severity))
	}
	if input.Date.IsZero() {
		return nil, NewValidationError("date", "incident date is required")
	}
	if input.AffectedCount < 0 {
		return nil, NewValidationError("affected_count", "affected count cannot be negative")
	}

	kitchen, err := s.kitchenRepo.GetByID(input.KitchenID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up kitchen: %w", err)
	}
	if kitchen == nil {
		return nil, NewNotFoundError("kitchen", input.KitchenID.String())
	}

	incident := &models.Incident{
		KitchenID:     input.KitchenID,
		Date:          input.Date,
		Location:      input.Location,
		Province:      input.Province,
		FoodType:      input.FoodType,
		AffectedCount: input.AffectedCount,
		Cause:         input.Cause,
		Severity:      input.Severity,
		Status:        models.IncidentInvestigating,
		Description:   input.Description,
		ReportedBy:    actor.Code,
	}
	if err := s.incidentRepo.Create(incident); err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return incident, nil
}

// List retrieves incidents with optional filters
func (s *IncidentService) List(filters repository.IncidentFilters, limit, offset int) ([]models.Incident, error) {
	if filters.Severity != "" && !models.IncidentSeverity(filters.Severity).IsValid() {
		return nil, NewValidationError("severity", "unknown severity "+filters.Severity)
	}
	if filters.Status != "" && !models.IncidentStatus(filters.Status).IsValid() {
		return nil, NewValidationError("status", "unknown status "+filters.Status)
	}
	return s.incidentRepo.List(filters, clampLimit(limit), maxInt(offset, 0))
}
