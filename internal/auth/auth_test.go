package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"mealtrust/internal/config"
	"mealtrust/internal/models"
)

func testUser() *models.User {
	kitchenID := uuid.New()
	return &models.User{
		ID:         uuid.New(),
		Name:       "Kitchen Manager",
		Role:       models.RoleKitchen,
		UniqueCode: "KIT-001",
		KitchenID:  &kitchenID,
	}
}

func TestHashPassword(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: 24 * time.Hour,
	}
	svc := NewService(cfg)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	if hash == password {
		t.Error("Hash should not equal the original password")
	}
}

func TestVerifyPassword(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: 24 * time.Hour,
	}
	svc := NewService(cfg)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	// Test correct password
	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}

	// Test incorrect password
	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateToken(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: 24 * time.Hour,
	}
	svc := NewService(cfg)

	token, expiresAt, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if token == "" {
		t.Error("Token should not be empty")
	}

	if !expiresAt.After(time.Now()) {
		t.Error("Expiry should be in the future")
	}
}

func TestValidateToken(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: 24 * time.Hour,
	}
	svc := NewService(cfg)
	user := testUser()

	token, _, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, claims.UserID)
	}

	if claims.Code != user.UniqueCode {
		t.Errorf("Expected code %s, got %s", user.UniqueCode, claims.Code)
	}

	if claims.Role != models.RoleKitchen {
		t.Errorf("Expected role %s, got %s", models.RoleKitchen, claims.Role)
	}

	if claims.KitchenID == nil || *claims.KitchenID != *user.KitchenID {
		t.Error("Kitchen ID should survive the round trip")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: -1 * time.Hour, // Already expired
	}
	svc := NewService(cfg)

	token, _, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Should reject expired token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewService(&config.JWTConfig{Secret: "secret-a", Expiration: time.Hour})
	other := NewService(&config.JWTConfig{Secret: "secret-b", Expiration: time.Hour})

	token, _, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Should reject token signed with a different secret")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate random token: %v", err)
	}

	if token1 == "" {
		t.Error("Token should not be empty")
	}

	token2, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate second random token: %v", err)
	}

	if token1 == token2 {
		t.Error("Random tokens should be different")
	}
}
