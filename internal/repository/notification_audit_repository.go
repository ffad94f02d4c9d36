package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// NotificationAuditRepository handles the append-only notification audit
// trail. Rows are only ever inserted.
type NotificationAuditRepository struct {
	db *sql.DB
}

// NewNotificationAuditRepository creates a new notification audit repository
func NewNotificationAuditRepository(db *sql.DB) *NotificationAuditRepository {
	return &NotificationAuditRepository{db: db}
}

// CreateTx appends an audit entry within a transaction
func (r *NotificationAuditRepository) CreateTx(tx *sql.Tx, entry *models.NotificationAuditEntry) error {
	query := `
		INSERT INTO notification_audit_trail (notification_id, action, user_code)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`
	return tx.QueryRow(query, entry.NotificationID, entry.Action, entry.UserCode).
		Scan(&entry.ID, &entry.Timestamp)
}

// ListByNotification retrieves the audit trail for a notification in
// chronological order
func (r *NotificationAuditRepository) ListByNotification(notificationID uuid.UUID) ([]models.NotificationAuditEntry, error) {
	query := `
		SELECT id, notification_id, timestamp, action, user_code
		FROM notification_audit_trail
		WHERE notification_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := r.db.Query(query, notificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.NotificationAuditEntry
	for rows.Next() {
		var entry models.NotificationAuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.NotificationID,
			&entry.Timestamp,
			&entry.Action,
			&entry.UserCode,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
