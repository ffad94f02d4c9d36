package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// KitchenRepository handles database operations for kitchens
type KitchenRepository struct {
	db *sql.DB
}

// NewKitchenRepository creates a new kitchen repository
func NewKitchenRepository(db *sql.DB) *KitchenRepository {
	return &KitchenRepository{db: db}
}

const kitchenColumns = `
	id, name, code, address, city, province, meals_served, created_at, updated_at
`

// Create inserts a new kitchen and fills in ID and timestamps
func (r *KitchenRepository) Create(kitchen *models.Kitchen) error {
	query := `
		INSERT INTO kitchens (name, code, address, city, province, meals_served)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		kitchen.Name,
		kitchen.Code,
		kitchen.Address,
		kitchen.City,
		kitchen.Province,
		kitchen.MealsServed,
	).Scan(&kitchen.ID, &kitchen.CreatedAt, &kitchen.UpdatedAt)
}

// GetByID retrieves a kitchen by ID, or nil if it does not exist
func (r *KitchenRepository) GetByID(id uuid.UUID) (*models.Kitchen, error) {
	row := r.db.QueryRow(`SELECT `+kitchenColumns+` FROM kitchens WHERE id = $1`, id)
	kitchen, err := scanKitchen(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return kitchen, nil
}

// GetByCode retrieves a kitchen by its unique code, or nil if it does not exist
func (r *KitchenRepository) GetByCode(code string) (*models.Kitchen, error) {
	row := r.db.QueryRow(`SELECT `+kitchenColumns+` FROM kitchens WHERE code = $1`, code)
	kitchen, err := scanKitchen(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return kitchen, nil
}

// GetName resolves a kitchen's display name. Returns an empty string if
// the kitchen does not exist.
func (r *KitchenRepository) GetName(id uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRow(`SELECT name FROM kitchens WHERE id = $1`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// ListWithStats retrieves all kitchens with their review aggregates
func (r *KitchenRepository) ListWithStats() ([]models.KitchenWithStats, error) {
	query := `
		SELECT k.id, k.name, k.code, k.address, k.city, k.province, k.meals_served,
		       k.created_at, k.updated_at,
		       COUNT(rv.id) FILTER (WHERE rv.is_draft = FALSE),
		       AVG((rv.taste + rv.hygiene + rv.freshness + rv.temperature + rv.packaging + rv.handling) / 6.0)
		           FILTER (WHERE rv.verification_status = 'verified' AND rv.is_draft = FALSE)
		FROM kitchens k
		LEFT JOIN reviews rv ON rv.kitchen_id = k.id
		GROUP BY k.id
		ORDER BY k.name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kitchens []models.KitchenWithStats
	for rows.Next() {
		var k models.KitchenWithStats
		var address, city, province sql.NullString
		if err := rows.Scan(
			&k.ID,
			&k.Name,
			&k.Code,
			&address,
			&city,
			&province,
			&k.MealsServed,
			&k.CreatedAt,
			&k.UpdatedAt,
			&k.TotalReviews,
			&k.AverageRating,
		); err != nil {
			return nil, err
		}
		k.Address = address.String
		k.City = city.String
		k.Province = province.String
		kitchens = append(kitchens, k)
	}
	return kitchens, rows.Err()
}

// Count returns the number of registered kitchens
func (r *KitchenRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM kitchens`).Scan(&count)
	return count, err
}

func scanKitchen(row rowScanner) (*models.Kitchen, error) {
	var kitchen models.Kitchen
	var address, city, province sql.NullString
	err := row.Scan(
		&kitchen.ID,
		&kitchen.Name,
		&kitchen.Code,
		&address,
		&city,
		&province,
		&kitchen.MealsServed,
		&kitchen.CreatedAt,
		&kitchen.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	kitchen.Address = address.String
	kitchen.City = city.String
	kitchen.Province = province.String
	return &kitchen, nil
}
