package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mealtrust/internal/models"
)

// Fixtures holds test data
type Fixtures struct {
	DB           *sql.DB
	AdminUser    *models.User
	KitchenUser  *models.User
	SupplierUser *models.User
	SchoolUser   *models.User
	Kitchen      *models.Kitchen
	OtherKitchen *models.Kitchen
}

// SetupFixtures creates test data
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{
		DB: db,
	}

	fixtures.Kitchen = createKitchen(t, db, "Central Kitchen North", "KIT-001")
	fixtures.OtherKitchen = createKitchen(t, db, "Central Kitchen South", "KIT-002")

	fixtures.AdminUser = createUser(t, db, "Admin User", models.RoleAdmin, "ADM-001", nil)
	fixtures.KitchenUser = createUser(t, db, "Kitchen Manager", models.RoleKitchen, "KIT-USR-001", &fixtures.Kitchen.ID)
	fixtures.SupplierUser = createUser(t, db, "Supplier Rep", models.RoleSupplier, "SUP-001", &fixtures.Kitchen.ID)
	fixtures.SchoolUser = createUser(t, db, "School Reporter", models.RoleSchool, "SCH-001", nil)

	return fixtures
}

// Cleanup removes all test data
func (f *Fixtures) Cleanup(t *testing.T) {
	t.Helper()

	// Cleanup is handled by container termination
	// Data is not persisted between tests
}

// createKitchen creates a kitchen in the database
func createKitchen(t *testing.T, db *sql.DB, name, code string) *models.Kitchen {
	t.Helper()

	var kitchen models.Kitchen
	err := db.QueryRow(`
		INSERT INTO kitchens (name, code, address, city, province, meals_served)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, code, address, city, province, meals_served, created_at, updated_at
	`, name, code, "1 Test Street", "Testville", "Test Province", 1200).Scan(
		&kitchen.ID, &kitchen.Name, &kitchen.Code, &kitchen.Address,
		&kitchen.City, &kitchen.Province, &kitchen.MealsServed,
		&kitchen.CreatedAt, &kitchen.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create kitchen %s: %v", code, err)
	}

	return &kitchen
}

// createUser creates a user with the specified role
func createUser(t *testing.T, db *sql.DB, name string, role models.Role, code string, kitchenID *uuid.UUID) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var user models.User
	err = db.QueryRow(`
		INSERT INTO users (name, role, unique_code, verified, kitchen_id, password_hash)
		VALUES ($1, $2, $3, true, $4, $5)
		RETURNING id, name, role, unique_code, verified, kitchen_id, created_at, updated_at
	`, name, string(role), code, kitchenID, string(hashedPassword)).Scan(
		&user.ID, &user.Name, &user.Role, &user.UniqueCode,
		&user.Verified, &user.KitchenID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", code, err)
	}

	return &user
}

// Actor returns the actor identity of a fixture user
func Actor(user *models.User) models.Actor {
	return models.Actor{
		UserID:    user.ID,
		Code:      user.UniqueCode,
		Name:      user.Name,
		Role:      user.Role,
		KitchenID: user.KitchenID,
	}
}

// DefaultRatings returns a passing set of HACCP ratings
func DefaultRatings() models.HaccpRatings {
	return models.HaccpRatings{
		Taste:       4.0,
		Hygiene:     4.5,
		Freshness:   4.0,
		Temperature: 4.5,
		Packaging:   4.0,
		Handling:    4.5,
	}
}

// CreateReview inserts a review directly, bypassing validation, so tests
// can construct arbitrary starting states
func (f *Fixtures) CreateReview(t *testing.T, reviewer *models.User, kitchenID uuid.UUID, mutate func(*models.Review)) *models.Review {
	t.Helper()

	review := &models.Review{
		KitchenID:          kitchenID,
		ReviewerID:         reviewer.ID,
		ReviewerName:       reviewer.Name,
		ReviewerType:       models.ReviewerConsumer,
		Ratings:            DefaultRatings(),
		Comment:            "Meals arrived on time and at temperature.",
		VerificationStatus: models.VerificationUnverified,
		ReportSource:       models.SourcePublic,
		ConfidenceLevel:    models.ConfidenceMedium,
		DisputeStatus:      models.DisputeNone,
	}
	if mutate != nil {
		mutate(review)
	}

	photos, err := json.Marshal(review.Photos)
	if err != nil {
		t.Fatalf("Failed to marshal photos: %v", err)
	}
	if review.Photos == nil {
		photos = []byte("[]")
	}
	rootCauses, err := json.Marshal(review.RootCauses)
	if err != nil {
		t.Fatalf("Failed to marshal root causes: %v", err)
	}
	if review.RootCauses == nil {
		rootCauses = []byte("[]")
	}

	err = f.DB.QueryRow(`
		INSERT INTO reviews (
			kitchen_id, reviewer_id, reviewer_name, reviewer_type,
			taste, hygiene, freshness, temperature, packaging, handling,
			comment, photos, verification_status, report_source,
			confidence_level, root_causes, dispute_status, verified, is_draft
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`,
		review.KitchenID, review.ReviewerID, review.ReviewerName, string(review.ReviewerType),
		review.Ratings.Taste, review.Ratings.Hygiene, review.Ratings.Freshness,
		review.Ratings.Temperature, review.Ratings.Packaging, review.Ratings.Handling,
		review.Comment, photos, string(review.VerificationStatus), string(review.ReportSource),
		string(review.ConfidenceLevel), rootCauses, string(review.DisputeStatus),
		review.Verified, review.IsDraft,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}

	review.AverageRating = review.Ratings.Average()
	return review
}
