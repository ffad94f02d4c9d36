package service

import (
	"github.com/google/uuid"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	auditRepo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates an audit log entry, ignoring errors. Audit writes must
// never fail the main operation.
func (s *AuditService) Log(userID uuid.UUID, action, entityType, entityID, details string) {
	_ = s.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

// ListByEntity retrieves the audit history of an entity, newest first
func (s *AuditService) ListByEntity(entityType, entityID string) ([]models.AuditLog, error) {
	return s.auditRepo.ListByEntity(entityType, entityID)
}
