package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// BadgeRepository handles database operations for performance badges
type BadgeRepository struct {
	db *sql.DB
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *sql.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create inserts a new badge and fills in ID and timestamps
func (r *BadgeRepository) Create(badge *models.PerformanceBadge) error {
	query := `
		INSERT INTO performance_badges (kitchen_id, type, title, description, earned_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		badge.KitchenID,
		badge.Type,
		badge.Title,
		badge.Description,
		badge.EarnedDate,
	).Scan(&badge.ID, &badge.CreatedAt)
}

// ListByKitchen retrieves all badges for a kitchen, newest first
func (r *BadgeRepository) ListByKitchen(kitchenID uuid.UUID) ([]models.PerformanceBadge, error) {
	query := `
		SELECT id, kitchen_id, type, title, description, earned_date, created_at
		FROM performance_badges
		WHERE kitchen_id = $1
		ORDER BY earned_date DESC
	`
	rows, err := r.db.Query(query, kitchenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []models.PerformanceBadge
	for rows.Next() {
		var badge models.PerformanceBadge
		if err := rows.Scan(
			&badge.ID,
			&badge.KitchenID,
			&badge.Type,
			&badge.Title,
			&badge.Description,
			&badge.EarnedDate,
			&badge.CreatedAt,
		); err != nil {
			return nil, err
		}
		badges = append(badges, badge)
	}
	return badges, rows.Err()
}
