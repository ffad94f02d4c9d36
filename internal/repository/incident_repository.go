package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// IncidentRepository handles database operations for incidents
type IncidentRepository struct {
	db *sql.DB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

const incidentColumns = `
	id, kitchen_id, date, location, province, food_type, affected_count,
	cause, severity, status, description, reported_by, created_at, updated_at
`

// Create inserts a new incident and fills in ID and timestamps
func (r *IncidentRepository) Create(incident *models.Incident) error {
	query := `
		INSERT INTO incidents (
			kitchen_id, date, location, province, food_type, affected_count,
			cause, severity, status, description, reported_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		incident.KitchenID,
		incident.Date,
		incident.Location,
		incident.Province,
		incident.FoodType,
		incident.AffectedCount,
		incident.Cause,
		incident.Severity,
		incident.Status,
		incident.Description,
		incident.ReportedBy,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

// GetByID retrieves an incident by ID, or nil if it does not exist
func (r *IncidentRepository) GetByID(id uuid.UUID) (*models.Incident, error) {
	row := r.db.QueryRow(`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	incident, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// IncidentFilters narrows incident listings
type IncidentFilters struct {
	KitchenID *uuid.UUID
	Province  string
	Severity  string
	Status    string
}

// List retrieves incidents with optional filters, newest first
func (r *IncidentRepository) List(filters IncidentFilters, limit, offset int) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	var args []any
	argCount := 1

	if filters.KitchenID != nil {
		query += fmt.Sprintf(` AND kitchen_id = $%d`, argCount)
		args = append(args, *filters.KitchenID)
		argCount++
	}
	if filters.Province != "" {
		query += fmt.Sprintf(` AND province = $%d`, argCount)
		args = append(args, filters.Province)
		argCount++
	}
	if filters.Severity != "" {
		query += fmt.Sprintf(` AND severity = $%d`, argCount)
		args = append(args, filters.Severity)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += fmt.Sprintf(` ORDER BY date DESC LIMIT $%d OFFSET $%d`, argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *incident)
	}
	return incidents, rows.Err()
}

// MonthlyCount is a per-month incident tally for a kitchen.
type MonthlyCount struct {
	Month string // YYYY-MM
	Count int
}

// GetMonthlyCounts tallies incidents per calendar month since the given
// time. Months without incidents produce no row.
func (r *IncidentRepository) GetMonthlyCounts(kitchenID uuid.UUID, since time.Time) ([]MonthlyCount, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', date), 'YYYY-MM') AS month, COUNT(*)
		FROM incidents
		WHERE kitchen_id = $1 AND date >= $2
		GROUP BY month
		ORDER BY month DESC
	`
	rows, err := r.db.Query(query, kitchenID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []MonthlyCount
	for rows.Next() {
		var c MonthlyCount
		if err := rows.Scan(&c.Month, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountTotals returns national incident tallies
func (r *IncidentRepository) CountTotals() (total, active, resolved, critical int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('investigating', 'escalated')),
		       COUNT(*) FILTER (WHERE status = 'resolved'),
		       COUNT(*) FILTER (WHERE severity = 'critical')
		FROM incidents
	`
	err = r.db.QueryRow(query).Scan(&total, &active, &resolved, &critical)
	return total, active, resolved, critical, err
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	var incident models.Incident
	var location, province, foodType, cause, description, reportedBy sql.NullString
	err := row.Scan(
		&incident.ID,
		&incident.KitchenID,
		&incident.Date,
		&location,
		&province,
		&foodType,
		&incident.AffectedCount,
		&cause,
		&incident.Severity,
		&incident.Status,
		&description,
		&reportedBy,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	incident.Location = location.String
	incident.Province = province.String
	incident.FoodType = foodType.String
	incident.Cause = cause.String
	incident.Description = description.String
	incident.ReportedBy = reportedBy.String
	return &incident, nil
}
