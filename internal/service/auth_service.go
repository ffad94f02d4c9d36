package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mealtrust/internal/auth"
	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// ErrInvalidCredentials is returned on any login failure. Unknown code
// and wrong password are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles login and token issuance
type AuthService struct {
	userRepo *repository.UserRepository
	auth     *auth.Service
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, authService *auth.Service) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		auth:     authService,
	}
}

// LoginResult carries a successful login response.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login authenticates a user by unique code and password and issues a JWT
func (s *AuthService) Login(code, password string) (*LoginResult, error) {
	if code == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.auth.VerifyPassword(user.PasswordHash, password); err != nil {
		slog.Warn("Login failed", "code", code)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		slog.Error("Failed to record last login", "error", err, "user_id", user.ID)
	}

	slog.Info("User logged in", "code", user.UniqueCode, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
