package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"mealtrust/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, name, role, unique_code, phone, verified, institution_name,
	kitchen_id, password_hash, last_login, created_at, updated_at
`

// Create inserts a new user and fills in ID and timestamps
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (name, role, unique_code, phone, verified, institution_name, kitchen_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		user.Name,
		user.Role,
		user.UniqueCode,
		user.Phone,
		user.Verified,
		user.InstitutionName,
		user.KitchenID,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetByID retrieves a user by ID, or nil if it does not exist
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByCode retrieves a user by their unique code, or nil if it does not exist
func (r *UserRepository) GetByCode(code string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE unique_code = $1`, code)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var phone, institutionName sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.UniqueCode,
		&phone,
		&user.Verified,
		&institutionName,
		&user.KitchenID,
		&user.PasswordHash,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Phone = phone.String
	user.InstitutionName = institutionName.String
	return &user, nil
}
