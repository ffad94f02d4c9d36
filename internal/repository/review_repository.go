package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// reviewColumns is the canonical select list for review rows.
const reviewColumns = `
	id, kitchen_id, reviewer_id, reviewer_name, reviewer_type,
	taste, hygiene, freshness, temperature, packaging, handling,
	comment, photos, verification_status, report_source, confidence_level,
	root_causes, evidence, dispute_status, verified, is_draft,
	created_at, updated_at
`

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review and fills in ID and timestamps
func (r *ReviewRepository) Create(review *models.Review) error {
	photos, err := json.Marshal(emptyIfNil(review.Photos))
	if err != nil {
		return err
	}
	rootCauses, err := json.Marshal(emptyCausesIfNil(review.RootCauses))
	if err != nil {
		return err
	}
	var evidence any
	if review.Evidence != nil {
		data, err := json.Marshal(review.Evidence)
		if err != nil {
			return err
		}
		evidence = data
	}

	query := `
		INSERT INTO reviews (
			kitchen_id, reviewer_id, reviewer_name, reviewer_type,
			taste, hygiene, freshness, temperature, packaging, handling,
			comment, photos, verification_status, report_source, confidence_level,
			root_causes, evidence, dispute_status, verified, is_draft
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		review.KitchenID,
		review.ReviewerID,
		review.ReviewerName,
		review.ReviewerType,
		review.Ratings.Taste,
		review.Ratings.Hygiene,
		review.Ratings.Freshness,
		review.Ratings.Temperature,
		review.Ratings.Packaging,
		review.Ratings.Handling,
		review.Comment,
		photos,
		review.VerificationStatus,
		review.ReportSource,
		review.ConfidenceLevel,
		rootCauses,
		evidence,
		review.DisputeStatus,
		review.Verified,
		review.IsDraft,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

// GetByID retrieves a review by ID, or nil if it does not exist
func (r *ReviewRepository) GetByID(id uuid.UUID) (*models.Review, error) {
	row := r.db.QueryRow(`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateContent updates the editable fields of a review
func (r *ReviewRepository) UpdateContent(review *models.Review) error {
	photos, err := json.Marshal(emptyIfNil(review.Photos))
	if err != nil {
		return err
	}
	rootCauses, err := json.Marshal(emptyCausesIfNil(review.RootCauses))
	if err != nil {
		return err
	}
	var evidence any
	if review.Evidence != nil {
		data, err := json.Marshal(review.Evidence)
		if err != nil {
			return err
		}
		evidence = data
	}

	query := `
		UPDATE reviews
		SET taste = $1, hygiene = $2, freshness = $3, temperature = $4,
		    packaging = $5, handling = $6, comment = $7, photos = $8,
		    root_causes = $9, evidence = $10, is_draft = $11,
		    updated_at = NOW()
		WHERE id = $12
	`
	_, err = r.db.Exec(
		query,
		review.Ratings.Taste,
		review.Ratings.Hygiene,
		review.Ratings.Freshness,
		review.Ratings.Temperature,
		review.Ratings.Packaging,
		review.Ratings.Handling,
		review.Comment,
		photos,
		rootCauses,
		evidence,
		review.IsDraft,
		review.ID,
	)
	return err
}

// Delete deletes a review by ID
func (r *ReviewRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM reviews WHERE id = $1`, id)
	return err
}

// UpdateVerificationStatusTx transitions verification_status inside a
// transaction. The WHERE clause compares against the expected old status,
// so a concurrent transition makes this return false.
func (r *ReviewRepository) UpdateVerificationStatusTx(tx *sql.Tx, id uuid.UUID, from, to models.VerificationStatus) (bool, error) {
	query := `
		UPDATE reviews
		SET verification_status = $1, verified = $2, updated_at = NOW()
		WHERE id = $3 AND verification_status = $4
	`
	result, err := tx.Exec(query, to, to == models.VerificationVerified, id, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateDisputeStatusTx transitions dispute_status inside a transaction
// with the same compare-and-swap semantics.
func (r *ReviewRepository) UpdateDisputeStatusTx(tx *sql.Tx, id uuid.UUID, from, to models.DisputeStatus) (bool, error) {
	query := `
		UPDATE reviews
		SET dispute_status = $1, updated_at = NOW()
		WHERE id = $2 AND dispute_status = $3
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

// ListPublic retrieves verified, non-draft reviews, newest first
func (r *ReviewRepository) ListPublic(limit, offset int) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + `
		FROM reviews
		WHERE verification_status = 'verified' AND is_draft = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	return r.queryReviews(query, limit, offset)
}

// ListByKitchen retrieves all non-draft reviews for a kitchen, newest first
func (r *ReviewRepository) ListByKitchen(kitchenID uuid.UUID, limit, offset int) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + `
		FROM reviews
		WHERE kitchen_id = $1 AND is_draft = FALSE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryReviews(query, kitchenID, limit, offset)
}

// MonthlyAverage is one month of verified-review aggregates for a kitchen.
type MonthlyAverage struct {
	Month       string // YYYY-MM
	Average     float64
	ReviewCount int
}

// GetMonthlyVerifiedAverages aggregates verified reviews per calendar
// month since the given time. Months without verified reviews produce no
// row.
func (r *ReviewRepository) GetMonthlyVerifiedAverages(kitchenID uuid.UUID, since time.Time) ([]MonthlyAverage, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month,
		       AVG((taste + hygiene + freshness + temperature + packaging + handling) / 6.0),
		       COUNT(*)
		FROM reviews
		WHERE kitchen_id = $1
		  AND verification_status = 'verified'
		  AND is_draft = FALSE
		  AND created_at >= $2
		GROUP BY month
		ORDER BY month DESC
	`
	rows, err := r.db.Query(query, kitchenID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []MonthlyAverage
	for rows.Next() {
		var avg MonthlyAverage
		if err := rows.Scan(&avg.Month, &avg.Average, &avg.ReviewCount); err != nil {
			return nil, err
		}
		averages = append(averages, avg)
	}
	return averages, rows.Err()
}

// GetKitchenStats aggregates per-dimension averages over verified reviews
func (r *ReviewRepository) GetKitchenStats(kitchenID uuid.UUID) (*models.KitchenStats, error) {
	stats := &models.KitchenStats{KitchenID: kitchenID}
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verification_status = 'verified'),
		       AVG((taste + hygiene + freshness + temperature + packaging + handling) / 6.0)
		           FILTER (WHERE verification_status = 'verified'),
		       AVG(taste) FILTER (WHERE verification_status = 'verified'),
		       AVG(hygiene) FILTER (WHERE verification_status = 'verified'),
		       AVG(freshness) FILTER (WHERE verification_status = 'verified'),
		       AVG(temperature) FILTER (WHERE verification_status = 'verified'),
		       AVG(packaging) FILTER (WHERE verification_status = 'verified'),
		       AVG(handling) FILTER (WHERE verification_status = 'verified')
		FROM reviews
		WHERE kitchen_id = $1 AND is_draft = FALSE
	`
	err := r.db.QueryRow(query, kitchenID).Scan(
		&stats.TotalReviews,
		&stats.VerifiedReviews,
		&stats.AverageRating,
		&stats.TasteAvg,
		&stats.HygieneAvg,
		&stats.FreshnessAvg,
		&stats.TemperatureAvg,
		&stats.PackagingAvg,
		&stats.HandlingAvg,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetRatingDistribution buckets non-draft reviews by the floor of their
// average rating
func (r *ReviewRepository) GetRatingDistribution(kitchenID uuid.UUID) ([]models.RatingBucket, error) {
	query := `
		SELECT FLOOR((taste + hygiene + freshness + temperature + packaging + handling) / 6.0)::INT AS bucket,
		       COUNT(*)
		FROM reviews
		WHERE kitchen_id = $1 AND is_draft = FALSE
		GROUP BY bucket
		ORDER BY bucket
	`
	rows, err := r.db.Query(query, kitchenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []models.RatingBucket
	for rows.Next() {
		var b models.RatingBucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// CountTotals returns total and verified non-draft review counts with the
// national verified average
func (r *ReviewRepository) CountTotals() (total, verified int, average *float64, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verification_status = 'verified'),
		       AVG((taste + hygiene + freshness + temperature + packaging + handling) / 6.0)
		           FILTER (WHERE verification_status = 'verified')
		FROM reviews
		WHERE is_draft = FALSE
	`
	err = r.db.QueryRow(query).Scan(&total, &verified, &average)
	return total, verified, average, err
}

func (r *ReviewRepository) queryReviews(query string, args ...any) ([]models.Review, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	var review models.Review
	var photos, rootCauses []byte
	var evidence []byte

	err := row.Scan(
		&review.ID,
		&review.KitchenID,
		&review.ReviewerID,
		&review.ReviewerName,
		&review.ReviewerType,
		&review.Ratings.Taste,
		&review.Ratings.Hygiene,
		&review.Ratings.Freshness,
		&review.Ratings.Temperature,
		&review.Ratings.Packaging,
		&review.Ratings.Handling,
		&review.Comment,
		&photos,
		&review.VerificationStatus,
		&review.ReportSource,
		&review.ConfidenceLevel,
		&rootCauses,
		&evidence,
		&review.DisputeStatus,
		&review.Verified,
		&review.IsDraft,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(photos, &review.Photos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rootCauses, &review.RootCauses); err != nil {
		return nil, err
	}
	if len(evidence) > 0 {
		review.Evidence = &models.Evidence{}
		if err := json.Unmarshal(evidence, review.Evidence); err != nil {
			return nil, err
		}
	}

	review.AverageRating = review.Ratings.Average()
	return &review, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyCausesIfNil(s []models.RootCause) []models.RootCause {
	if s == nil {
		return []models.RootCause{}
	}
	return s
}
