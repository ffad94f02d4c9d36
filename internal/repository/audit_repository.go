package repository

import (
	"database/sql"

	"mealtrust/internal/models"
)

// AuditRepository handles database operations for the audit log
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, user_name, action, entity_type, entity_id, ip_address, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, timestamp
	`
	return r.db.QueryRow(
		query,
		entry.UserID,
		entry.UserName,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.IPAddress,
		entry.Details,
	).Scan(&entry.ID, &entry.Timestamp)
}

// ListByEntity retrieves audit entries for an entity, newest first
func (r *AuditRepository) ListByEntity(entityType, entityID string) ([]models.AuditLog, error) {
	query := `
		SELECT id, user_id, user_name, action, entity_type, entity_id, timestamp, ip_address, details
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY timestamp DESC
	`
	rows, err := r.db.Query(query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		var userName, ipAddress, details sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&userName,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Timestamp,
			&ipAddress,
			&details,
		); err != nil {
			return nil, err
		}
		entry.UserName = userName.String
		entry.IPAddress = ipAddress.String
		entry.Details = details.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
