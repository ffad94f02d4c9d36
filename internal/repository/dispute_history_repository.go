package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// DisputeHistoryRepository handles the append-only dispute log. Rows are
// only ever inserted; there is no update or delete.
type DisputeHistoryRepository struct {
	db *sql.DB
}

// NewDisputeHistoryRepository creates a new dispute history repository
func NewDisputeHistoryRepository(db *sql.DB) *DisputeHistoryRepository {
	return &DisputeHistoryRepository{db: db}
}

// CreateTx appends a dispute history entry within a transaction
func (r *DisputeHistoryRepository) CreateTx(tx *sql.Tx, entry *models.DisputeHistoryEntry) error {
	query := `
		INSERT INTO review_dispute_history (review_id, action, by_user_id, by_user_code, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp
	`
	return tx.QueryRow(
		query,
		entry.ReviewID,
		entry.Action,
		entry.ByUserID,
		entry.ByUserCode,
		entry.Notes,
	).Scan(&entry.ID, &entry.Timestamp)
}

// ListByReview retrieves the dispute history for a review in
// chronological order
func (r *DisputeHistoryRepository) ListByReview(reviewID uuid.UUID) ([]models.DisputeHistoryEntry, error) {
	query := `
		SELECT id, review_id, timestamp, action, by_user_id, by_user_code, notes
		FROM review_dispute_history
		WHERE review_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := r.db.Query(query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DisputeHistoryEntry
	for rows.Next() {
		var entry models.DisputeHistoryEntry
		var byUserCode, notes sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.ReviewID,
			&entry.Timestamp,
			&entry.Action,
			&entry.ByUserID,
			&byUserCode,
			&notes,
		); err != nil {
			return nil, err
		}
		entry.ByUserCode = byUserCode.String
		entry.Notes = notes.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
