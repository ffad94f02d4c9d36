package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `
	id, title, description, category, priority, kitchen_code, school_code,
	review_id, status, target_role, created_by, created_at, updated_at
`

// CreateTx inserts a notification within a transaction
func (r *NotificationRepository) CreateTx(tx *sql.Tx, n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			title, description, category, priority, kitchen_code, school_code,
			review_id, status, target_role, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return tx.QueryRow(
		query,
		n.Title,
		n.Description,
		n.Category,
		n.Priority,
		nullIfEmpty(n.KitchenCode),
		nullIfEmpty(n.SchoolCode),
		n.ReviewID,
		n.Status,
		n.TargetRole,
		n.CreatedBy,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// GetByID retrieves a notification by ID, or nil if it does not exist
func (r *NotificationRepository) GetByID(id uuid.UUID) (*models.Notification, error) {
	row := r.db.QueryRow(`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateStatusTx transitions a notification's status inside a transaction.
// The WHERE clause compares against the expected old status, so a
// concurrent transition makes this return false.
func (r *NotificationRepository) UpdateStatusTx(tx *sql.Tx, id uuid.UUID, from, to models.NotificationStatus) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := tx.Exec(query, to, id, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ListForActor retrieves notifications visible to the given actor,
// newest first. Admins see everything; schools see what they created;
// kitchens and suppliers see notifications targeted at their role or at
// everyone.
func (r *NotificationRepository) ListForActor(actor models.Actor) ([]models.Notification, error) {
	base := `SELECT ` + notificationColumns + ` FROM notifications `
	order := ` ORDER BY created_at DESC`

	switch actor.Role {
	case models.RoleAdmin:
		return r.queryNotifications(base + order)
	case models.RoleSchool:
		return r.queryNotifications(base+`WHERE created_by = $1`+order, actor.Code)
	case models.RoleKitchen:
		return r.queryNotifications(base+`WHERE target_role IN ($1, $2)`+order,
			models.TargetKitchen, models.TargetAll)
	case models.RoleSupplier:
		return r.queryNotifications(base+`WHERE target_role IN ($1, $2)`+order,
			models.TargetSupplier, models.TargetAll)
	default:
		return nil, nil
	}
}

func (r *NotificationRepository) queryNotifications(query string, args ...any) ([]models.Notification, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var kitchenCode, schoolCode sql.NullString
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Description,
		&n.Category,
		&n.Priority,
		&kitchenCode,
		&schoolCode,
		&n.ReviewID,
		&n.Status,
		&n.TargetRole,
		&n.CreatedBy,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.KitchenCode = kitchenCode.String
	n.SchoolCode = schoolCode.String
	return &n, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
