package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mealtrust/internal/config"
	"mealtrust/internal/models"
)

// Claims holds the JWT claims for an authenticated user.
type Claims struct {
	UserID    uuid.UUID   `json:"user_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	KitchenID *uuid.UUID  `json:"kitchen_id,omitempty"`
	jwt.RegisteredClaims
}

// Service handles password hashing and JWT generation/validation.
type Service struct {
	cfg *config.JWTConfig
}

// NewService creates a new auth service.
func NewService(cfg *config.JWTConfig) *Service {
	return &Service{cfg: cfg}
}

// HashPassword hashes a password using bcrypt.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a bcrypt hash against a plaintext password.
func (s *Service) VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken creates a signed JWT for the given user. It returns the
// token string and its expiry time.
func (s *Service) GenerateToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.Expiration)

	claims := Claims{
		UserID:    user.ID,
		Code:      user.UniqueCode,
		Name:      user.Name,
		Role:      user.Role,
		KitchenID: user.KitchenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Actor converts validated claims into the request actor identity.
func (c *Claims) Actor() models.Actor {
	return models.Actor{
		UserID:    c.UserID,
		Code:      c.Code,
		Name:      c.Name,
		Role:      c.Role,
		KitchenID: c.KitchenID,
	}
}

// GenerateRandomToken generates a cryptographically secure random token.
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
